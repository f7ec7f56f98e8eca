// Package model defines the Planning Explorer domain types: the
// PlanningApplication record stored in Elasticsearch and the value types
// nested within it.
package model

import "time"

// Status is the lifecycle state of a planning application.
type Status string

// Recognized application lifecycle states.
const (
	StatusSubmitted          Status = "submitted"
	StatusValidated          Status = "validated"
	StatusUnderConsideration Status = "under_consideration"
	StatusApproved           Status = "approved"
	StatusRejected           Status = "rejected"
	StatusWithdrawn          Status = "withdrawn"
	StatusAppealed           Status = "appealed"
)

// Decision is the outcome recorded against an application.
type Decision string

// Recognized decision outcomes.
const (
	DecisionApproved      Decision = "approved"
	DecisionRefused       Decision = "refused"
	DecisionWithdrawn     Decision = "withdrawn"
	DecisionSplitDecision Decision = "split_decision"
)

// RiskLevel buckets a risk assessment.
type RiskLevel string

// Recognized risk levels.
const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// EmbeddingDimensions is the fixed vector width D used for every dense-vector
// field (§3.1 invariant: all vector-field dimensions equal D).
const EmbeddingDimensions = 1536

// GeoPoint is a latitude/longitude pair, mapped to an ES geo_point field.
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Party describes an applicant, agent, or officer associated with an
// application.
type Party struct {
	Name    string `json:"name,omitempty"`
	Type    string `json:"type,omitempty"`
	Address string `json:"address,omitempty"`
	Company string `json:"company,omitempty"`
	Contact string `json:"contact,omitempty"`
}

// Document is a single uploaded file attached to an application.
type Document struct {
	DocumentID      string    `json:"document_id"`
	Title           string    `json:"title"`
	Type            string    `json:"type,omitempty"`
	URL             string    `json:"url,omitempty"`
	UploadDate      time.Time `json:"upload_date,omitempty"`
	FileSize        int64     `json:"file_size,omitempty"`
	ContentExtracted bool     `json:"content_extracted"`
}

// Consultation is a single consultee response recorded against an
// application.
type Consultation struct {
	Consultee string    `json:"consultee"`
	Response  string    `json:"response,omitempty"`
	Comment   string    `json:"comment,omitempty"`
	Date      time.Time `json:"date,omitempty"`
}

// PublicComments aggregates public consultation feedback counts.
type PublicComments struct {
	Total          int `json:"total"`
	SupportCount   int `json:"support_count"`
	ObjectionCount int `json:"objection_count"`
	NeutralCount   int `json:"neutral_count"`
}

// OpportunityBreakdown is the six-dimensional sub-score set that the
// opportunity score is a weighted mean of (§4.5.1).
type OpportunityBreakdown struct {
	ApprovalProbability float64 `json:"approval_probability"`
	MarketPotential     float64 `json:"market_potential"`
	ProjectViability    float64 `json:"project_viability"`
	StrategicFit        float64 `json:"strategic_fit"`
	TimelineScore       float64 `json:"timeline_score"`
	RiskScore           float64 `json:"risk_score"`
}

// RiskAssessment summarizes AI-derived risk for an application.
type RiskAssessment struct {
	RiskLevel  RiskLevel `json:"risk_level"`
	Factors    []string  `json:"factors,omitempty"`
	Mitigation []string  `json:"mitigation,omitempty"`
}

// PlanningApplication is the primary record stored in Elasticsearch, keyed
// by ApplicationID (§3.1).
type PlanningApplication struct {
	// Identity
	ApplicationID string `json:"application_id"`
	Reference     string `json:"reference,omitempty"`
	Authority     string `json:"authority,omitempty"`
	AuthorityCode string `json:"authority_code,omitempty"`

	// Location
	Address  string    `json:"address,omitempty"`
	Postcode string    `json:"postcode,omitempty"`
	Location *GeoPoint `json:"location,omitempty"`
	Ward     string    `json:"ward,omitempty"`
	Parish   string    `json:"parish,omitempty"`
	Easting  *float64  `json:"easting,omitempty"`
	Northing *float64  `json:"northing,omitempty"`

	// Lifecycle
	Status                  Status     `json:"status"`
	Decision                *Decision  `json:"decision,omitempty"`
	SubmissionDate          *time.Time `json:"submission_date,omitempty"`
	ValidationDate          *time.Time `json:"validation_date,omitempty"`
	ConsultationStartDate   *time.Time `json:"consultation_start_date,omitempty"`
	ConsultationEndDate     *time.Time `json:"consultation_end_date,omitempty"`
	TargetDecisionDate      *time.Time `json:"target_decision_date,omitempty"`
	DecisionDate            *time.Time `json:"decision_date,omitempty"`
	DecidedDate             *time.Time `json:"decided_date,omitempty"`
	AppealDate              *time.Time `json:"appeal_date,omitempty"`
	NStatutoryDays          *int       `json:"n_statutory_days,omitempty"`
	DecisionDays            *int       `json:"decision_days,omitempty"`

	// Development
	DevelopmentType string `json:"development_type,omitempty"`
	ApplicationType string `json:"application_type,omitempty"`
	UseClass        string `json:"use_class,omitempty"`
	Description     string `json:"description,omitempty"`
	Proposal        string `json:"proposal,omitempty"`

	// Scale
	ProjectValue   *float64 `json:"project_value,omitempty"`
	FloorArea      *float64 `json:"floor_area,omitempty"`
	SiteArea       *float64 `json:"site_area,omitempty"`
	NumUnits       *int     `json:"num_units,omitempty"`
	NumBedrooms    *int     `json:"num_bedrooms,omitempty"`
	BuildingHeight *float64 `json:"building_height,omitempty"`
	ParkingSpaces  *int     `json:"parking_spaces,omitempty"`

	// Parties
	Applicant       *Party `json:"applicant,omitempty"`
	Agent           *Party `json:"agent,omitempty"`
	PlanningOfficer string `json:"planning_officer,omitempty"`

	// Documents & consultation
	Documents      []Document     `json:"documents,omitempty"`
	Consultations  []Consultation `json:"consultations,omitempty"`
	PublicComments PublicComments `json:"public_comments"`

	// AI enrichments
	AISummary             string                 `json:"ai_summary,omitempty"`
	AIKeyPoints           []string               `json:"ai_key_points,omitempty"`
	AISentiment           string                 `json:"ai_sentiment,omitempty"`
	ComplexityScore       *float64               `json:"complexity_score,omitempty"`
	OpportunityScore      *int                   `json:"opportunity_score,omitempty"`
	ApprovalProbability   *float64               `json:"approval_probability,omitempty"`
	OpportunityBreakdown  *OpportunityBreakdown  `json:"opportunity_breakdown,omitempty"`
	OpportunityRationale  string                 `json:"opportunity_rationale,omitempty"`
	MarketInsights        []string               `json:"market_insights,omitempty"`
	PredictedTimeline     string                 `json:"predicted_timeline,omitempty"`
	RiskAssessment        *RiskAssessment        `json:"risk_assessment,omitempty"`
	RiskFlags             []string               `json:"risk_flags,omitempty"`
	ConfidenceScore       *float64               `json:"confidence_score,omitempty"`

	// Vector fields — excluded from search responses by default (§4.10).
	DescriptionEmbedding  []float32 `json:"description_embedding,omitempty"`
	FullContentEmbedding  []float32 `json:"full_content_embedding,omitempty"`
	SummaryEmbedding      []float32 `json:"summary_embedding,omitempty"`
	LocationEmbedding     []float32 `json:"location_embedding,omitempty"`

	// Processing metadata
	AIProcessed           bool       `json:"ai_processed"`
	AIProcessedAt         *time.Time `json:"ai_processed_at,omitempty"`
	AIProcessingVersion   string     `json:"ai_processing_version,omitempty"`
	EmbeddingModel        string     `json:"embedding_model,omitempty"`
	EmbeddingDimensions   int        `json:"embedding_dimensions,omitempty"`
	EmbeddingGeneratedAt  *time.Time `json:"embedding_generated_at,omitempty"`
	EmbeddingTextHash     string     `json:"embedding_text_hash,omitempty"`
	EmbeddingPriority     string     `json:"embedding_priority,omitempty"`
	EmbeddingConfidence   *float64   `json:"embedding_confidence,omitempty"`

	CreatedAt time.Time `json:"created_at,omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

// PlanningApplicationSummary is the projected view used for similar-applications
// and listing responses. It is built with explicit field projection from a
// PlanningApplication, never from a generic map, so fields not defined here
// are structurally impossible to leak into a summary response (resolves the
// "PlanningApplicationSummary built from a full application dict" open
// question in spec §9).
type PlanningApplicationSummary struct {
	ApplicationID    string    `json:"application_id"`
	Reference        string    `json:"reference,omitempty"`
	Authority        string    `json:"authority,omitempty"`
	Address          string    `json:"address,omitempty"`
	Status           Status    `json:"status"`
	DevelopmentType  string    `json:"development_type,omitempty"`
	Description      string    `json:"description,omitempty"`
	OpportunityScore *int      `json:"opportunity_score,omitempty"`
	SubmissionDate   *time.Time `json:"submission_date,omitempty"`
	SimilarityScore  *float64  `json:"similarity_score,omitempty"`
}

// Summarize projects a PlanningApplication down to its summary view.
func (a *PlanningApplication) Summarize() PlanningApplicationSummary {
	return PlanningApplicationSummary{
		ApplicationID:    a.ApplicationID,
		Reference:        a.Reference,
		Authority:        a.Authority,
		Address:          a.Address,
		Status:           a.Status,
		DevelopmentType:  a.DevelopmentType,
		Description:      a.Description,
		OpportunityScore: a.OpportunityScore,
		SubmissionDate:   a.SubmissionDate,
	}
}
