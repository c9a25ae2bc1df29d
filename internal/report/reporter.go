// Package report renders diff results for people: a console summary and a
// self-contained HTML artifact. It is pure presentation over the diff
// engine's output shape and holds no state of its own.
package report

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/yourusername/confsync/internal/diff"
)

var (
	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("12")).
			Padding(0, 1)

	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))

	insightPanelStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("10")).
				Padding(0, 1)

	addedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	modifiedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	removedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

// Reporter renders diff results. Output defaults to stdout.
type Reporter struct {
	out io.Writer
}

// NewReporter creates a reporter writing to stdout.
func NewReporter() *Reporter {
	return &Reporter{out: os.Stdout}
}

// NewReporterTo creates a reporter writing to the given writer.
func NewReporterTo(out io.Writer) *Reporter {
	return &Reporter{out: out}
}

// HasChanges reports whether the result contains any added, modified or
// removed items. An unchanged-only result counts as "no changes".
func HasChanges(result *diff.Result) bool {
	return len(result.Added) > 0 || len(result.Modified) > 0 || len(result.Removed) > 0
}

// DisplaySummary prints a compact summary panel, the insight lines and a
// per-item changes table.
func (r *Reporter) DisplaySummary(result *diff.Result) {
	title := fmt.Sprintf("Diff Summary: %s", result.Collection)
	if result.Realm != "" {
		title += fmt.Sprintf(" (Realm: %s)", result.Realm)
	}

	summary := strings.Join([]string{
		fmt.Sprintf("Total on server: %d", result.TotalCurrent),
		fmt.Sprintf("Total in import: %d", result.TotalNew),
		"",
		fmt.Sprintf("Changes: Added %d | Modified %d | Removed %d",
			len(result.Added), len(result.Modified), len(result.Removed)),
	}, "\n")

	fmt.Fprintln(r.out)
	fmt.Fprintln(r.out, titleStyle.Render(title))
	fmt.Fprintln(r.out, panelStyle.Render(summary))

	if len(result.Insights) > 0 {
		fmt.Fprintln(r.out, titleStyle.Render("Key Insights"))
		fmt.Fprintln(r.out, insightPanelStyle.Render(strings.Join(result.Insights, "\n")))
	}

	if HasChanges(result) {
		r.displayChangesTable(result)
	} else {
		fmt.Fprintln(r.out, "No differences detected. No action required.")
	}
	fmt.Fprintln(r.out)
}

func (r *Reporter) displayChangesTable(result *diff.Result) {
	fmt.Fprintf(r.out, "%-10s %-30s %-30s %s\n", "CHANGE", "ID", "NAME", "SUMMARY")
	fmt.Fprintln(r.out, strings.Repeat("-", 100))

	writeRows := func(items []diff.DiffItem, style lipgloss.Style) {
		for _, item := range items {
			fmt.Fprintf(r.out, "%-10s %-30s %-30s %s\n",
				style.Render(strings.ToUpper(string(item.Type))),
				truncate(item.ID, 30), truncate(item.Name, 30), item.Summary)
		}
	}

	writeRows(result.Added, addedStyle)
	writeRows(result.Modified, modifiedStyle)
	writeRows(result.Removed, removedStyle)

	if n := len(result.Unchanged); n > 0 {
		fmt.Fprintf(r.out, "(%d unchanged item(s) not shown)\n", n)
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
