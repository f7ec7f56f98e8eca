package embedding

import (
	"strings"

	"github.com/planning-explorer/core/pkg/model"
)

const (
	descriptionCap = 8000
	combinedCap    = 8000
	summaryCap     = 500
	locationCap    = 2000
)

// composeText builds the source text for one TextType from an
// application's fields (§4.4).
func composeText(app *model.PlanningApplication, t TextType) string {
	switch t {
	case TextTypeDescription:
		return truncate(app.Description, descriptionCap)
	case TextTypeCombined:
		parts := []string{
			app.Description,
			app.Proposal,
			app.AISummary,
			app.Address,
			app.DevelopmentType,
			app.UseClass,
		}
		return truncate(joinNonEmpty(parts), combinedCap)
	case TextTypeSummary:
		if app.AISummary != "" {
			return truncate(app.AISummary, summaryCap)
		}
		return truncate(app.Description, summaryCap)
	case TextTypeLocation:
		parts := []string{app.Postcode, app.Ward, app.Authority, app.Address}
		return truncate(joinNonEmpty(parts), locationCap)
	default:
		return truncate(app.Description, descriptionCap)
	}
}

func joinNonEmpty(parts []string) string {
	filtered := make([]string, 0, len(parts))
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			filtered = append(filtered, p)
		}
	}
	return strings.Join(filtered, " ")
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
