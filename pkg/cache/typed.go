package cache

import (
	"context"
	"encoding/json"

	"github.com/planning-explorer/core/pkg/model"
)

// GetTyped fetches key and decodes it into T, round-tripping through
// JSON. pkg/search's LocationStats uses it instead of Get's raw any
// return, since it knows the concrete type it cached; the orchestrator,
// which holds the cache behind an interface, does the same round trip
// itself.
func GetTyped[T any](ctx context.Context, m *Manager, key string, typ model.CacheType) (T, bool) {
	var zero T
	raw, ok := m.Get(ctx, key, typ)
	if !ok {
		return zero, false
	}

	// raw was decoded once already (JSON -> any) by Manager.Get; re-encode
	// and decode into the caller's concrete type rather than changing
	// Manager's internal storage format.
	buf, err := json.Marshal(raw)
	if err != nil {
		return zero, false
	}
	var typed T
	if err := json.Unmarshal(buf, &typed); err != nil {
		return zero, false
	}
	return typed, true
}
