package embedding

import (
	"context"
	"sort"

	"github.com/planning-explorer/core/pkg/apperrors"
	"github.com/planning-explorer/core/pkg/config"
	"github.com/planning-explorer/core/pkg/llm"
	"github.com/planning-explorer/core/pkg/model"
)

// Embedder is the subset of *llm.Client the Embedding Service depends
// on, narrowed for testability.
type Embedder interface {
	Embed(ctx context.Context, texts []string, model string) ([][]float32, int, float64, error)
}

// Service is the Embedding Service (C4).
type Service struct {
	llmClient Embedder
	cfg       config.EmbeddingConfig
}

// NewService builds a Service over an Embedder and configuration.
func NewService(llmClient Embedder, cfg config.EmbeddingConfig) *Service {
	return &Service{llmClient: llmClient, cfg: cfg}
}

// GenerateTextEmbedding embeds a single piece of text (§4.4).
func (s *Service) GenerateTextEmbedding(ctx context.Context, text string) (*Result, error) {
	confidence := s.confidenceFor(text)
	if confidence == 0 {
		return &Result{
			Embedding:       make([]float32, s.dimensions()),
			ModelUsed:       s.cfg.Model,
			ConfidenceScore: 0,
			TextHash:        hashText(text),
		}, nil
	}

	vectors, tokens, _, err := s.llmClient.Embed(ctx, []string{text}, s.cfg.Model)
	if err != nil {
		return nil, err
	}
	if len(vectors) != 1 {
		return nil, apperrors.New(apperrors.KindAIServiceUnavailable, "EMBED_RESULT_MISMATCH", "provider returned an unexpected embedding count")
	}

	return &Result{
		Embedding:       vectors[0],
		ModelUsed:       s.cfg.Model,
		TokenCount:      tokens,
		ConfidenceScore: confidence,
		TextHash:        hashText(text),
	}, nil
}

// GenerateApplicationEmbedding composes source text per t and embeds it
// (§4.4).
func (s *Service) GenerateApplicationEmbedding(ctx context.Context, app *model.PlanningApplication, t TextType) (*Result, error) {
	text := composeText(app, t)
	return s.GenerateTextEmbedding(ctx, text)
}

// BatchGenerate embeds up to the provider's batch size in a single call,
// preserving input order (§4.4).
func (s *Service) BatchGenerate(ctx context.Context, texts []string) ([]Result, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	toEmbed := make([]string, 0, len(texts))
	toEmbedIdx := make([]int, 0, len(texts))
	results := make([]Result, len(texts))

	for i, text := range texts {
		confidence := s.confidenceFor(text)
		results[i] = Result{
			Embedding:       make([]float32, s.dimensions()),
			ModelUsed:       s.cfg.Model,
			ConfidenceScore: confidence,
			TextHash:        hashText(text),
		}
		if confidence > 0 {
			toEmbed = append(toEmbed, text)
			toEmbedIdx = append(toEmbedIdx, i)
		}
	}

	if len(toEmbed) == 0 {
		return results, nil
	}

	vectors, tokens, _, err := s.llmClient.Embed(ctx, toEmbed, s.cfg.Model)
	if err != nil {
		return nil, err
	}
	if len(vectors) != len(toEmbed) {
		return nil, apperrors.New(apperrors.KindAIServiceUnavailable, "EMBED_RESULT_MISMATCH", "provider returned an unexpected embedding count")
	}

	tokensPerItem := tokens / len(toEmbed)
	for j, idx := range toEmbedIdx {
		results[idx].Embedding = vectors[j]
		results[idx].TokenCount = tokensPerItem
	}
	return results, nil
}

// SimilarityMatch is one ranked candidate from SemanticSearch.
type SimilarityMatch struct {
	Index      int
	Similarity float64
}

// SemanticSearch embeds query and ranks candidates by cosine similarity
// against their description embeddings, returning the top k (§4.4).
func (s *Service) SemanticSearch(ctx context.Context, query string, candidates [][]float32, k int) ([]SimilarityMatch, error) {
	result, err := s.GenerateTextEmbedding(ctx, query)
	if err != nil {
		return nil, err
	}

	matches := make([]SimilarityMatch, len(candidates))
	for i, c := range candidates {
		matches[i] = SimilarityMatch{Index: i, Similarity: cosineSimilarity(result.Embedding, c)}
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].Similarity > matches[j].Similarity })

	if k > 0 && k < len(matches) {
		matches = matches[:k]
	}
	return matches, nil
}

// confidenceFor implements §4.4's confidence derivation: 0 when the
// input is empty or shorter than min_chars, 1 otherwise (provider
// success is reflected by the caller propagating an error instead).
func (s *Service) confidenceFor(text string) float64 {
	minChars := s.cfg.MinChars
	if minChars <= 0 {
		minChars = 10
	}
	if len(text) < minChars {
		return 0
	}
	return 1
}

func (s *Service) dimensions() int {
	if s.cfg.Dimensions > 0 {
		return s.cfg.Dimensions
	}
	return model.EmbeddingDimensions
}
