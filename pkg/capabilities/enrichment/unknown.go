package enrichment

import (
	"context"
	"fmt"
)

var unknownLabelField = map[string]string{
	"applicant_name":   "applicant_name",
	"agent_name":       "agent_name",
	"ward":             "ward",
	"decided_date":     "decided_date",
	"n_documents":      "n_documents",
	"n_statutory_days": "n_statutory_days",
}

// extractUnknown renders docsURL (headless, to execute JavaScript, on
// first sight of the host) and extracts fields via a strict-JSON LLM
// prompt. Once a host's extraction has succeeded, subsequent calls skip
// the headless render and fetch the page statically instead (§4.5.5's
// "learned pattern" caching).
func (e *Enricher) extractUnknown(ctx context.Context, docsURL string) (map[string]string, []string, error) {
	host := hostOf(docsURL)

	var rendered string
	var err error
	if e.patterns.Learned(host) {
		rendered, err = e.fetcher.Fetch(ctx, docsURL)
	} else {
		rendered, err = e.browser.Render(ctx, docsURL)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("rendering unknown-portal page: %w", err)
	}

	raw, err := e.llm.Extract(ctx, rendered)
	if err != nil {
		return nil, nil, fmt.Errorf("LLM extraction of unknown-portal page: %w", err)
	}

	fields, warnings, _ := applyValidation(raw, unknownLabelField)
	if len(fields) > 0 {
		e.patterns.Learn(host)
	}
	return fields, warnings, nil
}
