package market

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/planning-explorer/core/pkg/config"
	"github.com/planning-explorer/core/pkg/llm"
	"github.com/planning-explorer/core/pkg/model"
)

type fakeCompleter struct {
	content string
	err     error
}

func (f *fakeCompleter) Complete(_ context.Context, _ []llm.Message, _, _ string, _ int, _ float64, _ bool) (*llm.Response, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &llm.Response{Content: f.content}, nil
}

func approved() *model.Decision {
	d := model.DecisionApproved
	return &d
}

func refused() *model.Decision {
	d := model.DecisionRefused
	return &d
}

func TestAnalyze_ComputesApprovalRateDeterministically(t *testing.T) {
	apps := []*model.PlanningApplication{
		{DevelopmentType: "residential", Decision: approved()},
		{DevelopmentType: "residential", Decision: approved()},
		{DevelopmentType: "residential", Decision: refused()},
	}
	reply := `{"opportunities":["infill sites"],"risks":["objection volume"],"recommendations":["prioritize residential"]}`
	a := NewAnalyzer(&fakeCompleter{content: reply}, config.LLMConfig{})

	report, err := a.Analyze(context.Background(), apps, PeriodLastQuarter, "")
	require.NoError(t, err)
	assert.InDelta(t, 2.0/3.0, report.MarketMetrics["residential"].ApprovalRate, 1e-9)
	assert.Equal(t, []string{"infill sites"}, report.Opportunities)
}

func TestAnalyze_EmptyInputYieldsZeroQuality(t *testing.T) {
	a := NewAnalyzer(&fakeCompleter{content: "{}"}, config.LLMConfig{})

	report, err := a.Analyze(context.Background(), nil, PeriodLastMonth, "")
	require.NoError(t, err)
	assert.Equal(t, 0.0, report.DataQualityScore)
	assert.Empty(t, report.MarketMetrics)
}

func TestAnalyze_FallsBackWhenNarrativeSynthesisFails(t *testing.T) {
	apps := []*model.PlanningApplication{{DevelopmentType: "commercial", Decision: approved()}}
	a := NewAnalyzer(&fakeCompleter{err: assert.AnError}, config.LLMConfig{})

	report, err := a.Analyze(context.Background(), apps, PeriodLastYear, "")
	require.NoError(t, err)
	assert.NotEmpty(t, report.MarketMetrics)
	assert.Contains(t, report.Recommendations[0], "statistical aggregates only")
}

func TestAggregate_SegmentsSortedDeterministically(t *testing.T) {
	apps := []*model.PlanningApplication{
		{DevelopmentType: "residential"},
		{DevelopmentType: "commercial"},
	}
	_, _, metrics, _ := aggregate(apps)
	_, hasCommercial := metrics["commercial"]
	_, hasResidential := metrics["residential"]
	assert.True(t, hasCommercial)
	assert.True(t, hasResidential)
}
