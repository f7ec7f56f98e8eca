package search

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/planning-explorer/core/pkg/model"
)

func appWithAIAndVectors() *model.PlanningApplication {
	complexity := 0.5
	approval := 0.8
	confidence := 0.9
	score := 75
	return &model.PlanningApplication{
		ApplicationID:         "APP-1",
		AISummary:             "summary",
		AIKeyPoints:           []string{"point"},
		AISentiment:           "positive",
		ComplexityScore:       &complexity,
		OpportunityScore:      &score,
		ApprovalProbability:   &approval,
		OpportunityRationale:  "rationale",
		MarketInsights:        []string{"insight"},
		PredictedTimeline:     "6 months",
		RiskFlags:             []string{"flood"},
		ConfidenceScore:       &confidence,
		DescriptionEmbedding:  []float32{0.1, 0.2},
		FullContentEmbedding:  []float32{0.1, 0.2},
		SummaryEmbedding:      []float32{0.1, 0.2},
		LocationEmbedding:     []float32{0.1, 0.2},
	}
}

func TestStripFields_AlwaysZeroesVectorFields(t *testing.T) {
	app := appWithAIAndVectors()
	StripFields(app, true)

	assert.Nil(t, app.DescriptionEmbedding)
	assert.Nil(t, app.FullContentEmbedding)
	assert.Nil(t, app.SummaryEmbedding)
	assert.Nil(t, app.LocationEmbedding)
}

func TestStripFields_IncludeAITrueKeepsAIFields(t *testing.T) {
	app := appWithAIAndVectors()
	StripFields(app, true)

	assert.Equal(t, "summary", app.AISummary)
	assert.NotNil(t, app.OpportunityScore)
	assert.NotNil(t, app.ApprovalProbability)
}

func TestStripFields_IncludeAIFalseClearsAIFields(t *testing.T) {
	app := appWithAIAndVectors()
	StripFields(app, false)

	assert.Empty(t, app.AISummary)
	assert.Nil(t, app.AIKeyPoints)
	assert.Empty(t, app.AISentiment)
	assert.Nil(t, app.ComplexityScore)
	assert.Nil(t, app.OpportunityScore)
	assert.Nil(t, app.ApprovalProbability)
	assert.Nil(t, app.OpportunityBreakdown)
	assert.Empty(t, app.OpportunityRationale)
	assert.Nil(t, app.MarketInsights)
	assert.Empty(t, app.PredictedTimeline)
	assert.Nil(t, app.RiskAssessment)
	assert.Nil(t, app.RiskFlags)
	assert.Nil(t, app.ConfidenceScore)
}
