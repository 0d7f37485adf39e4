// Package tui renders CLI output for TokenFlow: a styled result summary and
// a progress bar across scheduled cases.
package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/schollz/progressbar/v3"

	"github.com/tokenflow/tokenflow/pkg/animation"
)

// Colors (Swiss minimal)
var (
	accent  = lipgloss.Color("#FF0000")
	muted   = lipgloss.Color("#666666")
	success = lipgloss.Color("#00CC66")
	white   = lipgloss.Color("#FFFFFF")
)

// Styles
var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(white)
	accentStyle  = lipgloss.NewStyle().Foreground(accent).Bold(true)
	mutedStyle   = lipgloss.NewStyle().Foreground(muted)
	successStyle = lipgloss.NewStyle().Foreground(success).Bold(true)
)

// NewCaseBar returns a progress bar across the given number of cases.
func NewCaseBar(cases int) *progressbar.ProgressBar {
	return progressbar.NewOptions(cases,
		progressbar.OptionSetDescription("scheduling cases"),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)
}

// PrintSummary prints a payload summary after a successful build.
func PrintSummary(p *animation.Payload) {
	fmt.Println()
	fmt.Println(titleStyle.Render("  TOKENFLOW") + mutedStyle.Render("  animation payload"))
	fmt.Println(mutedStyle.Render("  ─────────────────────────────────────"))
	fmt.Printf("  %s %s\n", mutedStyle.Render("Payload:"), titleStyle.Render(p.ID))
	fmt.Printf("  %s %s\n", mutedStyle.Render("Mode:"), titleStyle.Render(p.Mode))
	fmt.Printf("  %s %s\n", mutedStyle.Render("Duration:"), titleStyle.Render(fmt.Sprintf("%.1fs", p.Duration)))
	fmt.Printf("  %s %s\n", mutedStyle.Render("Factor:"), titleStyle.Render(fmt.Sprintf("%.4f", p.Factor)))
	fmt.Printf("  %s %s\n", mutedStyle.Render("Cases:"), titleStyle.Render(fmt.Sprintf("%d", len(p.CaseIDs))))
	fmt.Printf("  %s %s\n", mutedStyle.Render("Segments:"), titleStyle.Render(fmt.Sprintf("%d", len(p.Segments))))
	if p.Exclusions.Total() > 0 {
		fmt.Printf("  %s %s\n", mutedStyle.Render("Excluded:"), accentStyle.Render(fmt.Sprintf(
			"%d rows (bounds %d, edges %d, timestamps %d, overlaps %d)",
			p.Exclusions.Total(),
			p.Exclusions.MissingCaseBounds,
			p.Exclusions.UnmappedEdges,
			p.Exclusions.MissingTimestamps,
			p.Exclusions.ParallelOverlaps,
		)))
	}
	fmt.Println(mutedStyle.Render("  ─────────────────────────────────────"))
	fmt.Println(successStyle.Render("  ✓ timeline ready"))
	fmt.Println()
}

// PrintError prints an aborting error.
func PrintError(err error) {
	fmt.Println(accentStyle.Render("  ✗ " + err.Error()))
}
