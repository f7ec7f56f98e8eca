package search

import "github.com/planning-explorer/core/pkg/model"

// StripFields clears an application's vector fields unconditionally and
// its AI-derived fields when !includeAI (§4.10: "include_ai_fields=false
// excludes AI fields from _source"; "vector fields are always excluded
// from search responses").
func StripFields(app *model.PlanningApplication, includeAI bool) {
	app.DescriptionEmbedding = nil
	app.FullContentEmbedding = nil
	app.SummaryEmbedding = nil
	app.LocationEmbedding = nil

	if includeAI {
		return
	}

	app.AISummary = ""
	app.AIKeyPoints = nil
	app.AISentiment = ""
	app.ComplexityScore = nil
	app.OpportunityScore = nil
	app.ApprovalProbability = nil
	app.OpportunityBreakdown = nil
	app.OpportunityRationale = ""
	app.MarketInsights = nil
	app.PredictedTimeline = ""
	app.RiskAssessment = nil
	app.RiskFlags = nil
	app.ConfidenceScore = nil
}
