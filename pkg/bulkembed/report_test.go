package bulkembed

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunReport_WriteJSON(t *testing.T) {
	rpt := &RunReport{
		StartedAt:    time.Now().Add(-time.Minute),
		FinishedAt:   time.Now(),
		Discovered:   100,
		Succeeded:    98,
		Failed:       2,
		TotalTokens:  12345,
		TotalCostUSD: 1.23,
		DurationMS:   60000,
	}

	path := filepath.Join(t.TempDir(), "nested", "report.json")
	err := rpt.WriteJSON(path)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var decoded RunReport
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, rpt.Discovered, decoded.Discovered)
	assert.Equal(t, rpt.Succeeded, decoded.Succeeded)
	assert.Equal(t, rpt.Failed, decoded.Failed)
}

func TestRunReport_TerminalSummary(t *testing.T) {
	rpt := &RunReport{
		StartedAt:    time.Now().Add(-90 * time.Second),
		FinishedAt:   time.Now(),
		Discovered:   3000,
		Succeeded:    2990,
		Failed:       10,
		TotalTokens:  500000,
		TotalCostUSD: 4.5,
	}

	summary := rpt.TerminalSummary()
	assert.Contains(t, summary, "2,990")
	assert.Contains(t, summary, "10")
	assert.Contains(t, summary, "500,000")
}
