package config

import "time"

// defaults returns the built-in configuration, merged with any
// user-supplied YAML by Initialize. Mirrors the teacher's
// config.Defaults/DefaultQueueConfig shape (one function per component).
func defaults() *Config {
	return &Config{
		Elasticsearch: ElasticsearchConfig{
			Node:              "http://localhost:9200",
			Index:             "planning_applications",
			Timeout:           60 * time.Second,
			MaxRetries:        3,
			MaxConnections:    10,
			ReconnectInterval: 30 * time.Second,
		},
		LLM: LLMConfig{
			DefaultModel:   "gemini-2.0-flash",
			RequestTimeout: 60 * time.Second,
			CostTable: map[string]LLMProviderCost{
				"gemini-2.0-flash": {InputPerMillion: 0.10, OutputPerMillion: 0.40},
				"gemini-2.5-pro":   {InputPerMillion: 1.25, OutputPerMillion: 10.00},
				"claude-3-5-sonnet": {InputPerMillion: 3.00, OutputPerMillion: 15.00},
				"gpt-4o":           {InputPerMillion: 2.50, OutputPerMillion: 10.00},
			},
			RateLimitRequests: 60,
			RateLimitPeriod:   time.Minute,
		},
		Embedding: EmbeddingConfig{
			Model:      "text-embedding-3-small",
			Dimensions: EmbeddingDefaultDimensions,
			BatchSize:  2048,
			MinChars:   10,
		},
		Cache: CacheConfig{
			MaxMemoryBytes:            512 * 1024 * 1024,
			CompressionThresholdBytes: 100 * 1024,
			CleanupIntervalMinutes:    10,
			Types: map[string]CacheTypePolicy{
				"ai_processing":   {DefaultTTL: 24 * time.Hour, MaxSizeShare: 0.35, Compression: true, DefaultLevel: "normal"},
				"search_results":  {DefaultTTL: 5 * time.Minute, MaxSizeShare: 0.25, Compression: true, DefaultLevel: "normal"},
				"application_data": {DefaultTTL: 10 * time.Minute, MaxSizeShare: 0.15, Compression: false, DefaultLevel: "normal"},
				"embeddings":      {DefaultTTL: 7 * 24 * time.Hour, MaxSizeShare: 0.15, Compression: true, DefaultLevel: "high"},
				"market_insights": {DefaultTTL: time.Hour, MaxSizeShare: 0.05, Compression: true, DefaultLevel: "normal"},
				"user_sessions":   {DefaultTTL: 30 * time.Minute, MaxSizeShare: 0.05, Compression: false, DefaultLevel: "critical"},
			},
		},
		Queue: QueueConfig{
			MaxWorkers:         5,
			MaxConcurrentTasks: 10,
			PollInterval:       time.Second,
			MaxRetries:         3,
			MaxAgeHours:        24,
			CleanupInterval:    time.Hour,
		},
		Continuous: ContinuousConfig{
			ScheduleIntervalMinutes: 60,
			BatchSize:               50,
			DailyCostLimitUSD:       25.0,
			CriticalAgeHours:        24,
			HighPriorityAgeDays:     7,
			NormalPriorityAgeDays:   30,
			LowPriorityCapPerCycle:  200,
			RateLimitDelaySeconds:   0.5,
			FailureThreshold:        5,
		},
		Bulk: BulkConfig{
			ESBatchSize:       1000,
			APIBatchSize:      500,
			ConcurrentBatches: 5,
			CheckpointEvery:   10,
			CheckpointDir:     ".",
		},
		Timeouts: TimeoutConfig{
			OpportunityScoringMS: 30_000,
			SummarizationMS:      45_000,
			EmbeddingMS:          15_000,
		},
		Search: SearchConfig{
			DefaultPageSize: 20,
			MaxPageSize:     100,
			MaxKNN:          100,
		},
		API: APIConfig{
			Addr:            ":8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			BodyLimitBytes:  2 << 20,
			AllowedOrigins:  []string{"*"},
		},
	}
}

// EmbeddingDefaultDimensions is the default dense-vector width (§6.4).
const EmbeddingDefaultDimensions = 1536
