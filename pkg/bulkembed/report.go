package bulkembed

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
)

// WriteJSON writes the run report to path as JSON (§4.9: "emit a JSON
// run report").
func (rpt *RunReport) WriteJSON(path string) error {
	data, err := json.MarshalIndent(rpt, "", "  ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0o644)
}

var (
	reportTitleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	reportLabelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	reportGoodStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	reportBadStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

// TerminalSummary renders a human-readable summary of the run for
// cmd/bulkembed's CLI output.
func (rpt *RunReport) TerminalSummary() string {
	rows := []string{
		reportTitleStyle.Render("Bulk embedding run complete"),
		fmt.Sprintf("%s %s", reportLabelStyle.Render("Discovered:"), humanize.Comma(int64(rpt.Discovered))),
		fmt.Sprintf("%s %s", reportGoodStyle.Render("Succeeded:"), humanize.Comma(int64(rpt.Succeeded))),
		fmt.Sprintf("%s %s", reportBadStyle.Render("Failed:"), humanize.Comma(int64(rpt.Failed))),
		fmt.Sprintf("%s %s", reportLabelStyle.Render("Tokens used:"), humanize.Comma(int64(rpt.TotalTokens))),
		fmt.Sprintf("%s $%.4f", reportLabelStyle.Render("Cost:"), rpt.TotalCostUSD),
		fmt.Sprintf("%s %s", reportLabelStyle.Render("Duration:"), rpt.FinishedAt.Sub(rpt.StartedAt).Round(time.Second)),
	}

	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		Padding(0, 1).
		Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
	return box
}
