// Package config loads and validates Planning Explorer's configuration:
// YAML files merged with built-in defaults and environment-variable
// expansion, grounded on the teacher's pkg/config/loader.go and
// pkg/config/envexpand.go.
package config

import "time"

// Config is the umbrella configuration object returned by Initialize and
// threaded through the application as a constructor-injected dependency
// (spec §9 — no process-wide singletons).
type Config struct {
	configDir string

	Elasticsearch ElasticsearchConfig `yaml:"elasticsearch"`
	LLM           LLMConfig           `yaml:"llm"`
	Embedding     EmbeddingConfig     `yaml:"embedding"`
	Cache         CacheConfig         `yaml:"cache"`
	Queue         QueueConfig         `yaml:"queue"`
	Continuous    ContinuousConfig    `yaml:"continuous_embedding"`
	Bulk          BulkConfig          `yaml:"bulk_embedding"`
	Timeouts      TimeoutConfig       `yaml:"timeouts"`
	Search        SearchConfig        `yaml:"search"`
	API           APIConfig           `yaml:"api"`
}

// ConfigDir returns the configuration directory path this Config was
// loaded from.
func (c *Config) ConfigDir() string { return c.configDir }

// ElasticsearchConfig configures the ES Gateway (§6.4, §4.1).
type ElasticsearchConfig struct {
	Node        string        `yaml:"node"`
	Username    string        `yaml:"username"`
	Password    string        `yaml:"password"`
	Index       string        `yaml:"index"`
	Timeout     time.Duration `yaml:"timeout"`
	MaxRetries  int           `yaml:"max_retries"`
	MaxConnections int        `yaml:"max_connections"`
	// ReconnectInterval is how often Gateway.Connect is re-run in the
	// background to keep the connected sentinel current (§4.1 — "only on
	// startup and periodic intervals", never on the request hot path).
	ReconnectInterval time.Duration `yaml:"reconnect_interval"`
}

// LLMProviderCost is the per-model cost table entry (§4.3): dollars per 1M
// tokens for input and output.
type LLMProviderCost struct {
	InputPerMillion  float64 `yaml:"input_per_million"`
	OutputPerMillion float64 `yaml:"output_per_million"`
}

// LLMConfig configures the LLM Client (§4.3, §6.4).
type LLMConfig struct {
	OpenAIAPIKey    string                     `yaml:"-"`
	AnthropicAPIKey string                     `yaml:"-"`
	GenAIAPIKey     string                     `yaml:"-"`
	DefaultModel    string                     `yaml:"default_model"`
	RequestTimeout  time.Duration              `yaml:"request_timeout"`
	TokenBudget     int                        `yaml:"token_budget"`
	CostTable       map[string]LLMProviderCost `yaml:"cost_table"`
	RateLimitRequests int                      `yaml:"rate_limit_requests"`
	RateLimitPeriod time.Duration              `yaml:"rate_limit_period"`
}

// EmbeddingConfig configures the Embedding Service (§4.4, §6.4).
type EmbeddingConfig struct {
	Model      string `yaml:"model"`
	Dimensions int    `yaml:"dimensions"`
	BatchSize  int    `yaml:"batch_size"`
	MinChars   int    `yaml:"min_chars"`
}

// CacheTypePolicy is the per-cache-type policy of §4.2.
type CacheTypePolicy struct {
	DefaultTTL  time.Duration `yaml:"default_ttl"`
	MaxSizeShare float64      `yaml:"max_size_share"`
	Compression bool          `yaml:"compression"`
	DefaultLevel string       `yaml:"default_level"`
}

// CacheConfig configures the Cache Manager (§4.2).
type CacheConfig struct {
	MaxMemoryBytes          int64                      `yaml:"max_memory_bytes"`
	CompressionThresholdBytes int                      `yaml:"compression_threshold_bytes"`
	CleanupIntervalMinutes  int                        `yaml:"cleanup_interval_minutes"`
	Types                   map[string]CacheTypePolicy `yaml:"types"`
}

// QueueConfig configures the Background Processor (§4.7, §6.4).
type QueueConfig struct {
	MaxWorkers          int           `yaml:"max_workers"`
	MaxConcurrentTasks  int           `yaml:"max_concurrent_tasks"`
	PollInterval        time.Duration `yaml:"poll_interval"`
	MaxRetries          int           `yaml:"max_retries"`
	MaxAgeHours         int           `yaml:"max_age_hours"`
	CleanupInterval     time.Duration `yaml:"cleanup_interval"`
}

// ContinuousConfig configures the Continuous Embedding Pipeline (§4.8, §6.4).
type ContinuousConfig struct {
	ScheduleIntervalMinutes int     `yaml:"schedule_interval_minutes"`
	BatchSize               int     `yaml:"batch_size"`
	DailyCostLimitUSD       float64 `yaml:"daily_cost_limit_usd"`
	CriticalAgeHours        int     `yaml:"critical_age_hours"`
	HighPriorityAgeDays     int     `yaml:"high_priority_age_days"`
	NormalPriorityAgeDays   int     `yaml:"normal_priority_age_days"`
	LowPriorityCapPerCycle  int     `yaml:"low_priority_cap_per_cycle"`
	RateLimitDelaySeconds   float64 `yaml:"rate_limit_delay_seconds"`
	FailureThreshold        int     `yaml:"failure_threshold"`
}

// BulkConfig configures the Bulk Embedding Generator (§4.9).
type BulkConfig struct {
	ESBatchSize        int `yaml:"es_batch_size"`
	APIBatchSize       int `yaml:"api_batch_size"`
	ConcurrentBatches  int `yaml:"concurrent_batches"`
	CheckpointEvery    int `yaml:"checkpoint_every"`
	CheckpointDir      string `yaml:"checkpoint_dir"`
}

// TimeoutConfig configures per-capability timeouts (§4.5, §5, §6.4).
type TimeoutConfig struct {
	OpportunityScoringMS int `yaml:"opportunity_scoring_timeout_ms"`
	SummarizationMS      int `yaml:"summarization_timeout_ms"`
	EmbeddingMS          int `yaml:"embedding_timeout_ms"`
}

// SearchConfig configures the Search Service (§4.10).
type SearchConfig struct {
	DefaultPageSize int `yaml:"default_page_size"`
	MaxPageSize     int `yaml:"max_page_size"`
	MaxKNN          int `yaml:"max_knn"`
}

// APIConfig configures the HTTP surface (§6) the other components are
// exposed through.
type APIConfig struct {
	Addr             string        `yaml:"addr"`
	ReadTimeout      time.Duration `yaml:"read_timeout"`
	WriteTimeout     time.Duration `yaml:"write_timeout"`
	ShutdownTimeout  time.Duration `yaml:"shutdown_timeout"`
	BodyLimitBytes   int64         `yaml:"body_limit_bytes"`
	AllowedOrigins   []string      `yaml:"allowed_origins"`
}
