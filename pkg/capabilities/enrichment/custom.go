package enrichment

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

// customLabelField maps a known-custom portal's labeled-field names to
// Extraction fields (§4.5.5). Label text varies more across custom
// portals than idox's fixed table, so lookups are done after
// normalizing whitespace/case.
var customLabelField = map[string]string{
	"applicant":       "applicant_name",
	"applicant name":  "applicant_name",
	"agent":           "agent_name",
	"agent name":      "agent_name",
	"ward":            "ward",
	"decision date":   "decided_date",
	"decided":         "decided_date",
	"documents":       "n_documents",
	"statutory period": "n_statutory_days",
}

var labelValueLine = regexp.MustCompile(`(?m)^\s*([A-Za-z][A-Za-z ]{1,40}):\s*(.+?)\s*$`)

// extractCustom fetches a known-custom portal page directly and
// extracts labeled fields from either dt/dd pairs or "Label: value"
// text lines (§4.5.5).
func (e *Enricher) extractCustom(ctx context.Context, docsURL string) (map[string]string, []string, error) {
	body, err := e.fetcher.Fetch(ctx, docsURL)
	if err != nil {
		return nil, nil, fmt.Errorf("fetching custom portal page: %w", err)
	}

	raw := parseDtDdPairs(body)
	for label, value := range parseLabelValueLines(body) {
		if _, ok := raw[label]; !ok {
			raw[label] = value
		}
	}

	return applyValidation(raw, customLabelField)
}

func parseDtDdPairs(body string) map[string]string {
	doc, err := html.Parse(strings.NewReader(body))
	if err != nil {
		return map[string]string{}
	}

	fields := map[string]string{}
	var pendingLabel string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "dt":
				pendingLabel = strings.ToLower(strings.TrimSpace(textContent(n)))
			case "dd":
				if pendingLabel != "" {
					fields[pendingLabel] = strings.TrimSpace(textContent(n))
					pendingLabel = ""
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return fields
}

func parseLabelValueLines(body string) map[string]string {
	fields := map[string]string{}
	for _, m := range labelValueLine.FindAllStringSubmatch(stripTags(body), -1) {
		fields[strings.ToLower(strings.TrimSpace(m[1]))] = m[2]
	}
	return fields
}

var tagPattern = regexp.MustCompile(`(?s)<[^>]*>`)

func stripTags(body string) string {
	return tagPattern.ReplaceAllString(body, "\n")
}
