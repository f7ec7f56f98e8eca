package model

import "time"

// CacheType partitions the Cache Manager's namespace by the kind of value
// stored (§3.1).
type CacheType string

// Recognized cache types, each with its own TTL/compression/level policy
// (§4.2).
const (
	CacheTypeAIProcessing  CacheType = "ai_processing"
	CacheTypeSearchResults CacheType = "search_results"
	CacheTypeApplication   CacheType = "application_data"
	CacheTypeEmbeddings    CacheType = "embeddings"
	CacheTypeMarketInsights CacheType = "market_insights"
	CacheTypeUserSessions  CacheType = "user_sessions"
)

// CacheLevel is the eviction priority of a cache entry. Critical entries are
// never evicted except by expiry or explicit invalidation (§3.1 invariant 4).
type CacheLevel string

// Recognized cache levels, in ascending eviction priority (Critical last).
const (
	CacheLevelLow      CacheLevel = "low"
	CacheLevelNormal   CacheLevel = "normal"
	CacheLevelHigh     CacheLevel = "high"
	CacheLevelCritical CacheLevel = "critical"
)

// Ordinal returns the eviction ordering value for a level: lower sorts
// first for eviction (§4.2 "sort candidates ascending by (level_ordinal,
// access_count, last_accessed)").
func (l CacheLevel) Ordinal() int {
	switch l {
	case CacheLevelLow:
		return 0
	case CacheLevelNormal:
		return 1
	case CacheLevelHigh:
		return 2
	case CacheLevelCritical:
		return 3
	default:
		return 1
	}
}

// TaskStatus is the lifecycle state of a BackgroundTask (§4.7).
type TaskStatus string

// Recognized background task states.
const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusFailed     TaskStatus = "failed"
	TaskStatusCancelled  TaskStatus = "cancelled"
)

// TaskPriority is the queueing priority of a BackgroundTask.
type TaskPriority string

// Recognized priorities, lower ordinal services first.
const (
	TaskPriorityUrgent TaskPriority = "urgent"
	TaskPriorityHigh   TaskPriority = "high"
	TaskPriorityNormal TaskPriority = "normal"
	TaskPriorityLow    TaskPriority = "low"
)

// Ordinal returns the base queue ordinal for a priority (urgent=1...low=4),
// per §4.7.
func (p TaskPriority) Ordinal() int {
	switch p {
	case TaskPriorityUrgent:
		return 1
	case TaskPriorityHigh:
		return 2
	case TaskPriorityNormal:
		return 3
	case TaskPriorityLow:
		return 4
	default:
		return 3
	}
}

// ProcessingMode selects the AI Orchestrator's default feature set when the
// caller does not specify one explicitly (§4.6).
type ProcessingMode string

// Recognized processing modes.
const (
	ModeFast          ProcessingMode = "fast"
	ModeStandard      ProcessingMode = "standard"
	ModeComprehensive ProcessingMode = "comprehensive"
	ModeBatch         ProcessingMode = "batch"
)

// Feature is a pluggable AI Orchestrator capability.
type Feature string

// Recognized features.
const (
	FeatureOpportunityScoring Feature = "opportunity_scoring"
	FeatureSummarization      Feature = "summarization"
	FeatureEmbeddings         Feature = "embeddings"
	FeatureMarketContext      Feature = "market_context"
)

// BackgroundTask is a queued unit of AI processing work (§3.1, §4.7).
type BackgroundTask struct {
	TaskID         string         `json:"task_id"`
	TaskType       string         `json:"task_type"`
	Status         TaskStatus     `json:"status"`
	Priority       TaskPriority   `json:"priority"`
	ApplicationIDs []string       `json:"application_ids"`
	ProcessingMode ProcessingMode `json:"processing_mode"`
	Features       []Feature      `json:"features,omitempty"`
	Progress       float64        `json:"progress"`
	CreatedAt      time.Time      `json:"created_at"`
	StartedAt      *time.Time     `json:"started_at,omitempty"`
	CompletedAt    *time.Time     `json:"completed_at,omitempty"`
	RetryCount     int            `json:"retry_count"`
	Result         any            `json:"result,omitempty"`
	ErrorMessage   string         `json:"error_message,omitempty"`
	CallbackURL    string         `json:"callback_url,omitempty"`
}

// ProcessingResult is the per-application output of the AI Orchestrator
// (§3.1, §8 invariant 2: Success ⇔ len(Errors)==0).
type ProcessingResult struct {
	ApplicationID      string             `json:"application_id"`
	FeaturesProcessed  []Feature          `json:"features_processed"`
	Results            map[Feature]any    `json:"results"`
	ProcessingTimeMS   int64              `json:"processing_time_ms"`
	Success            bool               `json:"success"`
	Errors             []string           `json:"errors"`
	Warnings           []string           `json:"warnings"`
	ConfidenceScores   map[Feature]float64 `json:"confidence_scores"`
	ConfidenceScore    float64            `json:"confidence_score"`
	GeneratedAt        time.Time          `json:"generated_at"`
	Cached             bool               `json:"cached"`
}

// BatchProcessingResult aggregates ProcessApplication outputs for a batch
// run (§4.6).
type BatchProcessingResult struct {
	Results          []ProcessingResult `json:"results"`
	FeatureUsage     map[Feature]int    `json:"feature_usage"`
	TotalCount       int                `json:"total_count"`
	SuccessCount     int                `json:"success_count"`
	FailureCount     int                `json:"failure_count"`
	SuccessRate      float64            `json:"success_rate"`
	AverageConfidence float64           `json:"average_confidence"`
	P50ProcessingMS  int64              `json:"p50_processing_ms"`
	P95ProcessingMS  int64              `json:"p95_processing_ms"`
}
