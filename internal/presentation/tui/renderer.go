package tui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/aretw0/bramble"
)

// NewRenderer returns a function that renders markdown using glamour.
func NewRenderer() func(string) (string, error) {
	r, _ := glamour.NewTermRenderer(
		glamour.WithAutoStyle(), // detect light/dark background
	)

	return func(markdown string) (string, error) {
		return r.Render(markdown)
	}
}

// ReportMarkdown lays out a plan replay report as a markdown document, ready
// for NewRenderer (or plain output with --no-color).
func ReportMarkdown(problem string, report *bramble.Report) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "# Plan report: %s\n\n", problem)

	switch {
	case report.Valid && report.GoalReached:
		sb.WriteString("**VALID**: every step applied and the goal holds.\n\n")
	case report.Valid:
		sb.WriteString("**INCOMPLETE**: every step applied but the goal does not hold.\n\n")
	default:
		sb.WriteString("**INVALID**: a step was not applicable.\n\n")
	}

	fmt.Fprintf(&sb, "- Steps applied: %d\n", report.Applied)

	if report.Failure != nil {
		fmt.Fprintf(&sb, "- Failed at step %d: `%s`\n", report.Failure.Index, report.Failure.Step)
		for _, cond := range report.Failure.Unsatisfied {
			fmt.Fprintf(&sb, "  - unsatisfied: `%s`\n", cond)
		}
	}
	for _, goal := range report.UnsatisfiedGoals {
		fmt.Fprintf(&sb, "- Missing goal: `%s`\n", goal)
	}
	sb.WriteString("\n")

	if len(report.Values) > 0 {
		sb.WriteString("## Final state\n\n")
		sb.WriteString("| Fluent | Value |\n|---|---|\n")

		keys := make([]string, 0, len(report.Values))
		for k := range report.Values {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&sb, "| `%s` | %s |\n", k, report.Values[k])
		}
	}

	return sb.String()
}
