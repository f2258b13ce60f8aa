// Package output renders snippetctl results for a terminal: coloured status
// lines and bordered tables. Colours are dropped automatically when the
// output is not a terminal.
package output

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

var (
	colorSuccess = lipgloss.Color("#10B981")
	colorWarning = lipgloss.Color("#F59E0B")
	colorError   = lipgloss.Color("#EF4444")
	colorMuted   = lipgloss.Color("#6B7280")
	colorPrimary = lipgloss.Color("#7C3AED")

	successStyle = lipgloss.NewStyle().Foreground(colorSuccess).Bold(true)
	warningStyle = lipgloss.NewStyle().Foreground(colorWarning).Bold(true)
	errorStyle   = lipgloss.NewStyle().Foreground(colorError).Bold(true)
	mutedStyle   = lipgloss.NewStyle().Foreground(colorMuted)
	primaryStyle = lipgloss.NewStyle().Foreground(colorPrimary).Bold(true)

	headerStyle = lipgloss.NewStyle().Foreground(colorPrimary).Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	labelStyle  = lipgloss.NewStyle().Foreground(colorMuted).Width(10)
)

// Success prints a success message
func Success(w io.Writer, format string, args ...any) {
	fmt.Fprint(w, successStyle.Render("✓ "))
	fmt.Fprintf(w, format+"\n", args...)
}

// Warning prints a warning message
func Warning(w io.Writer, format string, args ...any) {
	fmt.Fprint(w, warningStyle.Render("⚠ "))
	fmt.Fprintf(w, format+"\n", args...)
}

// Error prints an error message
func Error(w io.Writer, format string, args ...any) {
	fmt.Fprint(w, errorStyle.Render("✗ "))
	fmt.Fprintf(w, format+"\n", args...)
}

// Muted prints a muted message
func Muted(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, mutedStyle.Render(fmt.Sprintf(format, args...)))
}

// Section prints a section header
func Section(w io.Writer, title string) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, primaryStyle.Render(title))
}

// Field prints one "label  value" line of a record view.
func Field(w io.Writer, label, value string) {
	fmt.Fprintln(w, labelStyle.Render(label)+value)
}

// Table prints rows under headers with rounded borders. An empty rows
// slice prints "(none)" instead of an empty frame.
func Table(w io.Writer, headers []string, rows [][]string) {
	if len(rows) == 0 {
		Muted(w, "(none)")
		return
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(mutedStyle).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Headers(headers...).
		Rows(rows...)

	fmt.Fprintln(w, t.Render())
}

// JSON writes v as indented JSON, for --json output.
func JSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
