package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/planning-explorer/core/pkg/config"
	"github.com/planning-explorer/core/pkg/esgateway"
)

// newTestGateway starts an in-process HTTP server shaped like
// Elasticsearch's single-document GET API and wires a real
// *esgateway.Gateway to it via esgateway.NewGateway.
//
// esgateway.Gateway embeds *elasticsearch.Client directly and keeps its
// index/maxRetries fields unexported, so — unlike
// pkg/esgateway/esgateway_test.go's newTestGateway, which builds a
// Gateway struct literal from inside package esgateway — this package
// cannot inject a fake http.RoundTripper. NewGateway also builds its own
// internal http.Transport rather than accepting one. Pointing Node at a
// real httptest.Server is the only way to get a *esgateway.Gateway from
// outside the package; the go-elasticsearch v7 client issues plain HTTP
// with no product-check header (mirrored by the fakeTransport in
// esgateway_test.go, which works the same way over loopback JSON).
func newTestGateway(t *testing.T, docs map[string]map[string]any) *esgateway.Gateway {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/_cluster/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"status":"green"}`)
	})
	mux.HandleFunc("/planning_applications/_doc/", func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimPrefix(r.URL.Path, "/planning_applications/_doc/")
		doc, ok := docs[id]
		w.Header().Set("Content-Type", "application/json")
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprint(w, `{"found":false}`)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"_source": doc})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	gw, err := esgateway.NewGateway(config.ElasticsearchConfig{
		Node:  srv.URL,
		Index: "planning_applications",
	})
	if err != nil {
		t.Fatalf("building test gateway: %v", err)
	}
	return gw
}

func rawApp(id string, extra map[string]any) map[string]any {
	doc := map[string]any{"application_id": id, "authority": "Camden", "development_type": "residential"}
	for k, v := range extra {
		doc[k] = v
	}
	return doc
}
