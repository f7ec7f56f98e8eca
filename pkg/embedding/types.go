// Package embedding generates and searches dense-vector representations
// of planning applications (§4.4).
//
// Grounded on theRebelliousNerd-codenerd's internal/embedding/genai.go
// (EmbedBatch's chunk-and-concatenate pattern, preserved here via
// pkg/llm.Client.Embed) adapted from a generic text-embedding CLI tool
// to Planning Explorer's four typed composition modes.
package embedding

import (
	"crypto/sha256"
	"encoding/hex"
)

// TextType selects which fields of a PlanningApplication are composed
// into the source text for GenerateApplicationEmbedding (§4.4).
type TextType string

const (
	TextTypeDescription TextType = "description"
	TextTypeCombined    TextType = "combined"
	TextTypeSummary     TextType = "summary"
	TextTypeLocation    TextType = "location"
)

// Result is the outcome of GenerateTextEmbedding (§4.4).
type Result struct {
	Embedding       []float32
	ModelUsed       string
	TokenCount      int
	ConfidenceScore float64
	TextHash        string
}

func hashText(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
