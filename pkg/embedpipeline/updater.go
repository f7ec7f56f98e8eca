package embedpipeline

import "context"

// esUpdateApplier is the subset of *esgateway.Gateway needed to write an
// embedding result back to a document.
type esUpdateApplier interface {
	Update(ctx context.Context, id string, partial map[string]any, refresh bool) error
}

// ESUpdater writes embedding fields via a partial ES update (§4.8 step
// 3's "update ES with {description_embedding, embedding_dimensions,
// ...}").
type ESUpdater struct {
	gateway esUpdateApplier
}

// NewESUpdater builds an ESUpdater over a gateway-shaped updater.
func NewESUpdater(gateway esUpdateApplier) *ESUpdater {
	return &ESUpdater{gateway: gateway}
}

// UpdateEmbedding applies fields to applicationID without forcing a
// refresh — embeddings become searchable on ES's normal refresh
// interval, matching the gateway's documented "refresh sparingly"
// guidance.
func (u *ESUpdater) UpdateEmbedding(ctx context.Context, applicationID string, fields map[string]any) error {
	return u.gateway.Update(ctx, applicationID, fields, false)
}
