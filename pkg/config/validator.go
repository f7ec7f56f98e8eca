package config

import "fmt"

// Validate checks structural invariants of a loaded Config. Grounded on the
// teacher's pkg/config/validator.go (plain error-accumulation validation,
// no reflection-based struct tags).
func Validate(c *Config) error {
	var errs []string

	if c.Elasticsearch.Node == "" {
		errs = append(errs, "elasticsearch.node must not be empty")
	}
	if c.Elasticsearch.Index == "" {
		errs = append(errs, "elasticsearch.index must not be empty")
	}
	if c.Elasticsearch.MaxRetries < 0 {
		errs = append(errs, "elasticsearch.max_retries must be >= 0")
	}
	if c.Embedding.Dimensions <= 0 {
		errs = append(errs, "embedding.dimensions must be > 0")
	}
	if c.Queue.MaxWorkers <= 0 {
		errs = append(errs, "queue.max_workers must be > 0")
	}
	if c.Search.MaxPageSize <= 0 || c.Search.MaxPageSize > 1000 {
		errs = append(errs, "search.max_page_size must be in (0, 1000]")
	}
	if c.Continuous.DailyCostLimitUSD < 0 {
		errs = append(errs, "continuous_embedding.daily_cost_limit_usd must be >= 0")
	}
	if c.Bulk.ConcurrentBatches <= 0 {
		errs = append(errs, "bulk_embedding.concurrent_batches must be > 0")
	}

	if len(errs) == 0 {
		return nil
	}
	return &ValidationError{Errors: errs}
}

// ValidationError aggregates configuration validation failures.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid configuration: %v", e.Errors)
}
