package enrichment

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/net/html"
)

// idoxLabelField maps an idox details-table label to the Extraction
// field it populates (§4.5.5). Labels with no mapping (e.g. "Target
// Determination Date") are parsed but not surfaced in the output.
var idoxLabelField = map[string]string{
	"applicant name":        "applicant_name",
	"agent name":            "agent_name",
	"ward":                  "ward",
	"decision date":         "decided_date",
	"number of documents":   "n_documents",
	"statutory period":      "n_statutory_days",
}

// extractIdox fetches the idox details page (activeTab=details) and
// parses its <th>/<td> table rows (§4.5.5).
func (e *Enricher) extractIdox(ctx context.Context, docsURL string) (map[string]string, []string, error) {
	detailsURL, err := withActiveTab(docsURL, "details")
	if err != nil {
		return nil, nil, err
	}

	body, err := e.fetcher.Fetch(ctx, detailsURL)
	if err != nil {
		return nil, nil, fmt.Errorf("fetching idox details page: %w", err)
	}

	raw := parseLabelValueTable(body)
	return applyValidation(raw, idoxLabelField)
}

func withActiveTab(rawURL, tab string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parsing docs url: %w", err)
	}
	q := u.Query()
	q.Set("activeTab", tab)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// parseLabelValueTable walks an HTML document for <tr> rows containing
// a <th>label</th> and <td>value</td> pair, returning label (lowercased,
// trimmed) -> raw value.
func parseLabelValueTable(body string) map[string]string {
	doc, err := html.Parse(strings.NewReader(body))
	if err != nil {
		return nil
	}

	fields := map[string]string{}
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "tr" {
			var label, value string
			var found bool
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				if c.Type != html.ElementNode {
					continue
				}
				switch c.Data {
				case "th":
					if label == "" {
						label = strings.TrimSpace(textContent(c))
					}
				case "td":
					if !found {
						value = strings.TrimSpace(textContent(c))
						found = true
					}
				}
			}
			if label != "" && found {
				fields[strings.ToLower(strings.TrimSuffix(label, ":"))] = value
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return fields
}

func textContent(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		b.WriteString(textContent(c))
	}
	return b.String()
}

// applyValidation maps raw label->value pairs through labelField and
// §4.5.5's field validation, collecting a warning per rejected value.
func applyValidation(raw map[string]string, labelField map[string]string) (map[string]string, []string, error) {
	fields := map[string]string{}
	var warnings []string

	for label, field := range labelField {
		rawValue, ok := raw[label]
		if !ok {
			continue
		}
		value, valid := validateField(label, rawValue)
		if !valid {
			warnings = append(warnings, fmt.Sprintf("rejected value for %q", label))
			continue
		}
		fields[field] = value
	}
	return fields, warnings, nil
}
