package esgateway

import (
	"bytes"
	"context"
	"encoding/json"
	"time"

	"github.com/elastic/go-elasticsearch/v7/esapi"

	"github.com/planning-explorer/core/pkg/apperrors"
)

// Get fetches a single document by id. Returns apperrors.ErrNotFound when
// no document exists for id.
func (g *Gateway) Get(ctx context.Context, id string) (map[string]any, error) {
	resp, err := g.Client.Get(g.index, id, g.Client.Get.WithContext(ctx))
	var raw struct {
		Source map[string]any `json:"_source"`
	}
	if decErr := decodeResponse(resp, err, &raw); decErr != nil {
		return nil, decErr
	}
	return raw.Source, nil
}

// Index creates or fully replaces a document. When refresh is true the
// write is made visible to search immediately (used sparingly — a
// latency cost on the hot path).
func (g *Gateway) Index(ctx context.Context, id string, doc map[string]any, refresh bool) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return apperrors.Wrap(apperrors.KindInternal, "ES_MARSHAL_FAILED", "marshaling document", err)
	}

	opts := []func(*esapi.IndexRequest){g.Client.Index.WithContext(ctx)}
	if refresh {
		opts = append(opts, g.Client.Index.WithRefresh("true"))
	}

	resp, err := g.Client.Index(g.index, bytes.NewReader(body), append([]func(*esapi.IndexRequest){
		g.Client.Index.WithDocumentID(id),
	}, opts...)...)
	return decodeResponse(resp, err, nil)
}

// Update applies a partial document update. Per contract, doc_as_upsert
// is always false — Update never creates a document — and updated_at is
// always stamped to the current time regardless of what the caller
// passed in partial.
func (g *Gateway) Update(ctx context.Context, id string, partial map[string]any, refresh bool) error {
	merged := make(map[string]any, len(partial)+1)
	for k, v := range partial {
		merged[k] = v
	}
	merged["updated_at"] = time.Now().UTC().Format(time.RFC3339)

	body, err := json.Marshal(map[string]any{
		"doc":          merged,
		"doc_as_upsert": false,
	})
	if err != nil {
		return apperrors.Wrap(apperrors.KindInternal, "ES_MARSHAL_FAILED", "marshaling update body", err)
	}

	opts := []func(*esapi.UpdateRequest){g.Client.Update.WithContext(ctx)}
	if refresh {
		opts = append(opts, g.Client.Update.WithRefresh("true"))
	}

	resp, err := g.Client.Update(g.index, id, bytes.NewReader(body), opts...)
	return decodeResponse(resp, err, nil)
}
