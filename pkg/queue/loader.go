package queue

import (
	"context"
	"encoding/json"

	"github.com/planning-explorer/core/pkg/apperrors"
	"github.com/planning-explorer/core/pkg/model"
)

// documentGetter is the subset of *esgateway.Gateway the GatewayLoader
// depends on.
type documentGetter interface {
	Get(ctx context.Context, id string) (map[string]any, error)
}

// GatewayLoader implements ApplicationLoader against the ES Gateway,
// one Get per id. Gateway has no typed-decode or multi-get convenience
// (pkg/api.loadApplication round-trips the same way), so a task
// referencing a handful of application_ids pays one document fetch
// each rather than a single _mget call.
type GatewayLoader struct {
	gateway documentGetter
}

// NewGatewayLoader builds a GatewayLoader over gw.
func NewGatewayLoader(gw documentGetter) *GatewayLoader {
	return &GatewayLoader{gateway: gw}
}

// LoadApplications resolves ids into decoded PlanningApplication
// records, failing the whole batch on the first missing or
// undecodable id.
func (l *GatewayLoader) LoadApplications(ctx context.Context, ids []string) ([]*model.PlanningApplication, error) {
	apps := make([]*model.PlanningApplication, 0, len(ids))
	for _, id := range ids {
		raw, err := l.gateway.Get(ctx, id)
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
		apps = append(apps, &app)
	}
	return apps, nil
}
