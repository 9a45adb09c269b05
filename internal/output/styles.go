package output

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Color palette — named constants for all ANSI 256 colors used in the CLI.
// These are the single source of truth; never use inline lipgloss.Color literals.
var (
	// ColorCyan is used for identifiable nouns: package names, tags, versions.
	ColorCyan = lipgloss.Color("14")

	// ColorGreen is used for the "released" package status.
	ColorGreen = lipgloss.Color("82")

	// ColorYellow is used for the "skipped" package status (dry run, no registry).
	ColorYellow = lipgloss.Color("220")

	// ColorBoldRed is used for the "failed" package status (matches ERROR level).
	ColorBoldRed = lipgloss.Color("204")

	// ColorGreenCheck is used for the completion checkmark (✔).
	ColorGreenCheck = lipgloss.Color("10")

	// ColorDimGray is used for borders and other structural chrome.
	ColorDimGray = lipgloss.Color("240")
)

// Semantic styles — map domain concepts to visual presentation.
var (
	// StyleNoun styles identifiable nouns (package names, tags, versions).
	StyleNoun = lipgloss.NewStyle().Foreground(ColorCyan)

	// StyleAction styles action verbs (analyzing, publishing, tagging).
	StyleAction = lipgloss.NewStyle().Bold(true)

	// StyleDim styles structural chrome (arrows, separators, origins).
	StyleDim = lipgloss.NewStyle().Faint(true)

	// StyleSummary styles completion and summary lines.
	StyleSummary = lipgloss.NewStyle().Bold(true)
)

// Package release status constants.
const (
	StatusReleased = "released"
	StatusSkipped  = "skipped"
	StatusFailed   = "failed"
)

// StatusStyle returns the lipgloss style for a package release status.
// Unknown statuses return an unstyled default.
func StatusStyle(status string) lipgloss.Style {
	switch status {
	case StatusReleased:
		return lipgloss.NewStyle().Foreground(ColorGreen)
	case StatusSkipped:
		return lipgloss.NewStyle().Foreground(ColorYellow)
	case StatusFailed:
		return lipgloss.NewStyle().Foreground(ColorBoldRed)
	default:
		return lipgloss.NewStyle()
	}
}

// ReleaseLine formats a single released-package line for the summary:
//
//	pkg-1  0.0.1 → 0.1.0  (minor, explicit)
func ReleaseLine(name, previous, next, level, origin string) string {
	if !IsTTY() {
		return fmt.Sprintf("%s  %s -> %s  (%s, %s)", name, previous, next, level, origin)
	}
	return fmt.Sprintf("%s  %s %s %s  %s",
		StyleNoun.Render(name),
		previous,
		StyleDim.Render("→"),
		StyleNoun.Render(next),
		StyleDim.Render("("+level+", "+origin+")"),
	)
}

// SummaryLine formats the closing summary line.
func SummaryLine(released, skipped int, dryRun bool) string {
	var b strings.Builder
	if IsTTY() {
		b.WriteString(lipgloss.NewStyle().Foreground(ColorGreenCheck).Render("✔"))
		b.WriteString(" ")
	}
	b.WriteString(fmt.Sprintf("%d released, %d skipped", released, skipped))
	if dryRun {
		b.WriteString(" (dry run)")
	}
	if IsTTY() {
		return StyleSummary.Render(b.String())
	}
	return b.String()
}
