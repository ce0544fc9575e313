package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/DrSkyle/datasift/pkg/engine"
	"github.com/DrSkyle/datasift/pkg/pii"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00FF99"))
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#AAAAAA")).Width(26)
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFAA00"))
	boxStyle    = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#00FF99")).
			Padding(0, 1)
)

func row(label string, value any) string {
	return labelStyle.Render(label) + fmt.Sprint(value)
}

// printRunSummary renders the end-of-run box.
func printRunSummary(w io.Writer, res *engine.Result) {
	s := res.Summary
	lines := []string{
		headerStyle.Render("SUMMARY"),
		row("Run", s.RunID),
		row("Total Sources", len(s.Sources)),
		row("Total Records Collected", s.TotalRecords),
		row("Duplicates Removed", s.DuplicatesRemoved),
		row("PII Detected & Masked", s.PIIDetected),
	}
	if s.DroppedByRules > 0 {
		lines = append(lines, row("Dropped by Rules", s.DroppedByRules))
	}
	if s.SimilarPairs > 0 {
		lines = append(lines, row("Similar Pairs", s.SimilarPairs))
	}
	lines = append(lines, row("Final Clean Records", s.FinalRecords))

	var types []string
	for _, c := range pii.DefaultPatterns().Categories() {
		if n := s.PIITypes[c]; n > 0 {
			types = append(types, fmt.Sprintf("%s=%d", c, n))
		}
	}
	if len(types) > 0 {
		lines = append(lines, row("PII Matches", strings.Join(types, " ")))
	}

	for _, src := range s.Sources {
		note := ""
		switch {
		case src.Fallback:
			note = warnStyle.Render(" (sample data: " + src.Error + ")")
		case src.Error != "":
			note = warnStyle.Render(" (failed: " + src.Error + ")")
		}
		lines = append(lines, row("  "+src.Name, fmt.Sprintf("%d records%s", src.RecordsCollected, note)))
	}

	fmt.Fprintln(w, boxStyle.Render(strings.Join(lines, "\n")))

	for _, alert := range res.Trend.Alerts {
		fmt.Fprintln(w, warnStyle.Render(alert))
	}
	if len(res.Artifacts) > 0 {
		fmt.Fprintln(w, "\nArtifacts:")
		for _, a := range res.Artifacts {
			fmt.Fprintf(w, "  - %s\n", a)
		}
	}
}
