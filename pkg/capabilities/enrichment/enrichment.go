// Package enrichment implements applicant/agent Enrichment (§4.5.5):
// portal-type detection followed by a type-specific extraction
// strategy (idox static HTML, known-custom direct fetch, or headless
// browser plus LLM for unknown portals), with shared field validation
// and a confidence score derived from extraction method and warnings.
//
// Grounded on pkg/agent/controller/single_call.go and summarize.go's
// fail-open LLM-call shape for the unknown-portal extraction path, and
// on elastic-elastic-package/internal/elasticsearch/client.go's
// functional-options HTTP client construction for the retryablehttp
// fetchers used by the idox and custom strategies.
package enrichment

import (
	"context"
	"strings"
	"time"
)

// Extraction is the Enrichment output for one application's documents
// URL (§4.5.5).
type Extraction struct {
	ApplicantName   string   `json:"applicant_name,omitempty"`
	AgentName       string   `json:"agent_name,omitempty"`
	Ward            string   `json:"ward,omitempty"`
	DecidedDate     string   `json:"decided_date,omitempty"`
	NDocuments      string   `json:"n_documents,omitempty"`
	NStatutoryDays  string   `json:"n_statutory_days,omitempty"`
	DocsURL         string   `json:"docs_url,omitempty"`
	Warnings        []string `json:"warnings,omitempty"`
	ExtractionMethod string  `json:"extraction_method"`
	ProcessingTimeMS int64   `json:"processing_time_ms"`
	Confidence       float64 `json:"confidence"`
}

// Extraction method names, used both as Extraction.ExtractionMethod and
// as the base-reliability lookup key in confidence computation.
const (
	methodIdoxStaticHTML = "idox_static_html"
	methodCustomStatic   = "custom_static_html"
	methodHeadlessLLM    = "headless_js_llm"
)

var methodBaseReliability = map[string]float64{
	methodIdoxStaticHTML: 0.8,
	methodCustomStatic:   0.8,
	methodHeadlessLLM:    0.7,
}

// Browser renders a URL with JavaScript execution, for the unknown
// portal-type strategy.
type Browser interface {
	Render(ctx context.Context, url string) (string, error)
}

// Extractor performs LLM-based semantic field extraction over rendered
// HTML, for the unknown portal-type strategy.
type Extractor interface {
	Extract(ctx context.Context, html string) (map[string]string, error)
}

// Enricher is Enrichment (C5.5).
type Enricher struct {
	fetcher  Fetcher
	browser  Browser
	llm      Extractor
	patterns *PatternCache
}

// NewEnricher builds an Enricher over a static-HTML Fetcher (idox and
// known-custom portals) and a Browser/Extractor pair (unknown portals).
func NewEnricher(fetcher Fetcher, browser Browser, llm Extractor) *Enricher {
	return &Enricher{fetcher: fetcher, browser: browser, llm: llm, patterns: NewPatternCache()}
}

// Enrich extracts applicant/agent fields from docsURL, dispatching on
// portal type (§4.5.5).
func (e *Enricher) Enrich(ctx context.Context, docsURL string) (*Extraction, error) {
	start := time.Now()

	var fields map[string]string
	var warnings []string
	var method string
	var err error

	switch DetectPortalType(docsURL) {
	case PortalIdoxPublicAccess:
		method = methodIdoxStaticHTML
		fields, warnings, err = e.extractIdox(ctx, docsURL)
	case PortalCustom:
		method = methodCustomStatic
		fields, warnings, err = e.extractCustom(ctx, docsURL)
	default:
		method = methodHeadlessLLM
		fields, warnings, err = e.extractUnknown(ctx, docsURL)
	}
	if err != nil {
		return nil, err
	}

	result := &Extraction{
		ApplicantName:   fields["applicant_name"],
		AgentName:       fields["agent_name"],
		Ward:            fields["ward"],
		DecidedDate:     fields["decided_date"],
		NDocuments:      fields["n_documents"],
		NStatutoryDays:  fields["n_statutory_days"],
		DocsURL:          docsURL,
		Warnings:         warnings,
		ExtractionMethod: method,
		ProcessingTimeMS: time.Since(start).Milliseconds(),
	}
	result.Confidence = computeConfidence(method, fields, warnings)
	return result, nil
}

// computeConfidence implements §4.5.5's confidence formula.
func computeConfidence(method string, fields map[string]string, warnings []string) float64 {
	confidence := methodBaseReliability[method]
	for _, v := range fields {
		if strings.TrimSpace(v) != "" {
			confidence += 0.1
		}
	}
	confidence -= 0.1 * float64(len(warnings))

	if confidence < 0 {
		return 0
	}
	if confidence > 1 {
		return 1
	}
	return confidence
}
