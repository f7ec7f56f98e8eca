package api

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/planning-explorer/core/pkg/cache"
	"github.com/planning-explorer/core/pkg/config"
)

func TestHealthHandler_Healthy(t *testing.T) {
	gw := newTestGateway(t, nil)
	s := &Server{gateway: gw, cacheMgr: cache.NewManager(config.CacheConfig{}), pool: newTestPool()}

	c, rec := newRecordedContext(http.MethodGet, "/monitoring/health", nil)
	require.NoError(t, s.healthHandler(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp healthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, "healthy", resp.Components["elasticsearch"].Status)
}

func TestNewServer_RegistersRoutes(t *testing.T) {
	gw := newTestGateway(t, nil)
	searchSvc := newTestSearchService(&fakeGateway{}, nil, nil)
	orch := newTestOrchestrator(t)
	pool := newTestPool()
	cacheMgr := cache.NewManager(config.CacheConfig{})

	s := NewServer(config.APIConfig{}, gw, searchSvc, orch, pool, cacheMgr)
	require.NotNil(t, s.echo)

	c, rec := newRecordedContext(http.MethodGet, "/monitoring/health", nil)
	s.echo.ServeHTTP(rec, c.Request())
	assert.Equal(t, http.StatusOK, rec.Code)
}
