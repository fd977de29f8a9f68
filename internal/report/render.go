package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// StepSummaryEnv names the file GitHub Actions renders as the job summary.
const StepSummaryEnv = "GITHUB_STEP_SUMMARY"

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED")).Padding(0, 1)
	cellStyle    = lipgloss.NewStyle().Padding(0, 1)
	failureStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#F38BA8")).Padding(0, 1)
	borderStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#45475A"))
)

// RenderTerminal writes the summary as a bordered two-column table.
func RenderTerminal(w io.Writer, s Summary) error {
	rows := s.Rows()
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(borderStyle).
		Headers("Description", "Result").
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case row >= 0 && row < len(rows) && rows[row].Description == "Failed":
				return failureStyle
			default:
				return cellStyle
			}
		})
	for _, r := range rows {
		t.Row(r.Description, r.Result)
	}

	_, err := fmt.Fprintln(w, t.Render())
	return err
}

// RenderMarkdown writes the summary as a "## Summary" heading followed by a
// Description/Result table.
func RenderMarkdown(w io.Writer, s Summary) error {
	var b strings.Builder
	b.WriteString("## Summary\n\n")
	b.WriteString("| Description | Result |\n")
	b.WriteString("| --- | --- |\n")
	for _, r := range s.Rows() {
		fmt.Fprintf(&b, "| %s | %s |\n", escapeCell(r.Description), escapeCell(r.Result))
	}
	b.WriteString("\n")

	_, err := io.WriteString(w, b.String())
	return err
}

func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}

// AppendStepSummary appends the markdown summary to the file named by
// $GITHUB_STEP_SUMMARY. It reports false when the variable is unset.
func AppendStepSummary(s Summary) (bool, error) {
	path := os.Getenv(StepSummaryEnv)
	if path == "" {
		return false, nil
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return false, fmt.Errorf("opening step summary: %w", err)
	}
	if err := RenderMarkdown(f, s); err != nil {
		f.Close()
		return false, fmt.Errorf("writing step summary: %w", err)
	}
	if err := f.Close(); err != nil {
		return false, fmt.Errorf("closing step summary: %w", err)
	}
	return true, nil
}

// WriteJSON writes the summary as indented JSON to path.
func WriteJSON(path string, s Summary) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling summary: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("writing summary: %w", err)
	}
	return nil
}
