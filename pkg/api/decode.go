package api

import (
	"context"
	"encoding/json"

	"github.com/planning-explorer/core/pkg/apperrors"
	"github.com/planning-explorer/core/pkg/model"
)

// loadApplication fetches id from the ES Gateway and decodes it into a
// PlanningApplication. Gateway.Get returns a raw map[string]any (it has
// no typed-decode convenience), so every handler needing a typed record
// round-trips it through json, matching pkg/search's decodeHits.
func (s *Server) loadApplication(ctx context.Context, id string) (*model.PlanningApplication, error) {
	raw, err := s.gateway.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	blob, err := json.Marshal(raw)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindInternal, "APPLICATION_ENCODE_FAILED", "re-encoding application document", err)
	}
	var app model.PlanningApplication
	if err := json.Unmarshal(blob, &app); err != nil {
		return nil, apperrors.Wrap(apperrors.KindInternal, "APPLICATION_DECODE_FAILED", "decoding application document", err)
	}
	return &app, nil
}
