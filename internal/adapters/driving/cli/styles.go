package cli

import (
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/custodia-labs/folio/internal/core/domain"
)

// styles holds the lipgloss styles for one document theme.
// Colours degrade to plain text when the writer is not a terminal.
type styles struct {
	Title    lipgloss.Style
	Subtitle lipgloss.Style
	Normal   lipgloss.Style
	Muted    lipgloss.Style
	Success  lipgloss.Style
	Warning  lipgloss.Style
	Error    lipgloss.Style
	Box      lipgloss.Style
}

const (
	colourMuted   = lipgloss.Color("#6C7086")
	colourSuccess = lipgloss.Color("#A6E3A1")
	colourWarning = lipgloss.Color("#F9E2AF")
	colourError   = lipgloss.Color("#F38BA8")
	colourBorder  = lipgloss.Color("#45475A")
)

// newStyles builds styles coloured by the document type's theme.
func newStyles(w io.Writer, theme domain.Theme) *styles {
	r := lipgloss.NewRenderer(w)
	primary := lipgloss.Color(theme.Primary)
	accent := lipgloss.Color(theme.Accent)

	s := &styles{
		Title:    r.NewStyle().Bold(true).Foreground(primary),
		Subtitle: r.NewStyle().Bold(true).Foreground(accent),
		Normal:   r.NewStyle(),
		Muted:    r.NewStyle().Foreground(colourMuted),
		Success:  r.NewStyle().Foreground(colourSuccess),
		Warning:  r.NewStyle().Foreground(colourWarning),
		Error:    r.NewStyle().Foreground(colourError),
		Box:      r.NewStyle(),
	}
	if isTerminal(w) {
		s.Box = r.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(colourBorder).
			Padding(0, 1)
	}
	return s
}

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// severityStyle picks the style used for an issue severity.
func (s *styles) severityStyle(sev domain.Severity) lipgloss.Style {
	switch sev {
	case domain.SeverityCritical:
		return s.Error
	case domain.SeverityWarning:
		return s.Warning
	default:
		return s.Muted
	}
}
