// Package esgateway wraps the Elasticsearch client with the connection
// lifecycle, retry, and query helpers that every other component in
// Planning Explorer builds on.
package esgateway

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/elastic/go-elasticsearch/v7"
	"github.com/elastic/go-elasticsearch/v7/esapi"

	"github.com/planning-explorer/core/pkg/apperrors"
	"github.com/planning-explorer/core/pkg/config"
)

// Gateway wraps an *elasticsearch.Client, narrowing the enormous esapi
// surface down to the operations Planning Explorer actually issues.
//
// Grounded on elastic-package's internal/elasticsearch.Client, which
// embeds *elasticsearch.Client directly rather than re-declaring every
// method.
type Gateway struct {
	*elasticsearch.Client

	index      string
	maxRetries int
	connected  atomic.Bool
}

// NewGateway builds a Gateway from Elasticsearch settings. It does not
// itself verify connectivity; call Connect once the caller is ready to
// treat a failure as fatal (§4.1 — at-least-once connect at startup).
func NewGateway(cfg config.ElasticsearchConfig) (*Gateway, error) {
	if cfg.Node == "" {
		return nil, apperrors.New(apperrors.KindValidation, "ES_NODE_REQUIRED", "elasticsearch.node must be set")
	}

	esCfg := elasticsearch.Config{
		Addresses:            []string{cfg.Node},
		Username:             cfg.Username,
		Password:             cfg.Password,
		MaxRetries:           cfg.MaxRetries,
		RetryOnStatus:        []int{http.StatusTooManyRequests, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout},
		EnableRetryOnTimeout: true,
		Transport: &http.Transport{
			MaxIdleConnsPerHost:   cfg.MaxConnections,
			ResponseHeaderTimeout: cfg.Timeout,
			TLSClientConfig:       &tls.Config{MinVersion: tls.VersionTLS12},
		},
	}

	client, err := elasticsearch.NewClient(esCfg)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindDatabaseUnavailable, "ES_CLIENT_INIT_FAILED", "creating elasticsearch client", err)
	}

	return &Gateway{
		Client:     client,
		index:      cfg.Index,
		maxRetries: cfg.MaxRetries,
	}, nil
}

// Index is the default application index this gateway targets.
func (g *Gateway) Index() string { return g.index }

// Connect verifies cluster reachability with up to maxRetries attempts
// (exponential backoff, same initial/max interval as BulkUpdate's retry
// policy) and records the outcome in the connected sentinel. Call it
// once at startup and again on ReconnectInterval thereafter — never per
// request, since a full HealthCheck is too expensive for the hot path
// (§4.1). Returns apperrors.ErrConnectionUnavailable once every attempt
// has failed.
func (g *Gateway) Connect(ctx context.Context) error {
	tries := g.maxRetries
	if tries <= 0 {
		tries = 1
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 2 * time.Second
	bo.MaxInterval = 600 * time.Second

	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		return struct{}{}, g.HealthCheck(ctx)
	}, backoff.WithBackOff(bo), backoff.WithMaxTries(uint(tries)))
	if err != nil {
		g.connected.Store(false)
		return apperrors.ErrConnectionUnavailable
	}
	g.connected.Store(true)
	return nil
}

// Connected reports whether the most recent Connect call succeeded.
func (g *Gateway) Connected() bool { return g.connected.Load() }

// Refresh forces the index to make recent writes searchable immediately,
// used sparingly — after a bulk embedding backfill completes, not on the
// per-document hot path.
func (g *Gateway) Refresh(ctx context.Context) error {
	resp, err := g.Indices.Refresh(
		g.Indices.Refresh.WithContext(ctx),
		g.Indices.Refresh.WithIndex(g.index),
	)
	return decodeResponse(resp, err, nil)
}

// HealthCheck verifies the cluster is reachable and not in a red state.
//
// Grounded on elastic-package's Client.CheckHealth / redHealthCause.
func (g *Gateway) HealthCheck(ctx context.Context) error {
	resp, err := g.Cluster.Health(g.Cluster.Health.WithContext(ctx))
	if err != nil {
		return apperrors.Wrap(apperrors.KindDatabaseUnavailable, "ES_HEALTH_UNREACHABLE", "checking cluster health", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return apperrors.Wrap(apperrors.KindDatabaseUnavailable, "ES_HEALTH_READ_FAILED", "reading cluster health response", err)
	}

	var health struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(body, &health); err != nil {
		return apperrors.Wrap(apperrors.KindDatabaseUnavailable, "ES_HEALTH_DECODE_FAILED", "decoding cluster health response", err)
	}

	switch health.Status {
	case "green", "yellow":
		return nil
	case "red":
		cause, causeErr := g.redHealthCause(ctx)
		if causeErr != nil {
			return apperrors.New(apperrors.KindDatabaseUnavailable, "ES_CLUSTER_RED", "cluster is in red state")
		}
		return apperrors.New(apperrors.KindDatabaseUnavailable, "ES_CLUSTER_RED", "cluster is in red state: "+cause)
	default:
		return apperrors.New(apperrors.KindDatabaseUnavailable, "ES_CLUSTER_UNKNOWN", fmt.Sprintf("cluster in unrecognized state %q", health.Status))
	}
}

// redHealthCause inspects the internal health API to explain a red
// cluster. Best-effort: a failure here just means the caller falls back
// to the generic "cluster is red" message.
func (g *Gateway) redHealthCause(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "/_internal/_health", nil)
	if err != nil {
		return "", err
	}
	resp, err := g.Transport.Perform(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	var internal struct {
		Status     string `json:"status"`
		Indicators map[string]struct {
			Status    string `json:"status"`
			Diagnosis []struct {
				Cause string `json:"cause"`
			} `json:"diagnosis"`
		} `json:"indicators"`
	}
	if err := json.Unmarshal(body, &internal); err != nil {
		return "", err
	}
	if internal.Status != "red" {
		return "", errors.New("cluster state is not red")
	}

	var causes []string
	for _, indicator := range internal.Indicators {
		if indicator.Status != "red" {
			continue
		}
		for _, d := range indicator.Diagnosis {
			causes = append(causes, d.Cause)
		}
	}
	if len(causes) == 0 {
		return "", errors.New("no causes reported")
	}
	return strings.Join(causes, ", "), nil
}

// decodeResponse unmarshals an esapi.Response body into dst, translating
// both transport failures and non-2xx status codes into *apperrors.Error.
func decodeResponse(resp *esapi.Response, err error, dst any) error {
	if err != nil {
		return apperrors.Wrap(apperrors.KindDatabaseUnavailable, "ES_REQUEST_FAILED", "performing elasticsearch request", err)
	}
	defer resp.Body.Close()

	body, readErr := io.ReadAll(resp.Body)
	if readErr != nil {
		return apperrors.Wrap(apperrors.KindDatabaseUnavailable, "ES_RESPONSE_READ_FAILED", "reading elasticsearch response", readErr)
	}

	if resp.IsError() {
		if resp.StatusCode == http.StatusNotFound {
			return apperrors.ErrNotFound
		}
		return apperrors.New(apperrors.KindDatabaseUnavailable, "ES_ERROR_RESPONSE", fmt.Sprintf("elasticsearch returned %s: %s", resp.Status(), string(body)))
	}

	if dst == nil {
		return nil
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return apperrors.Wrap(apperrors.KindInternal, "ES_DECODE_FAILED", "decoding elasticsearch response", err)
	}
	return nil
}
