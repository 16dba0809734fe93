// Package report renders diagnostics for the terminal.
package report

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"calru/internal/diag"
	"calru/internal/util"
)

var (
	ColorError   = lipgloss.Color("#EF4444") // Red
	ColorWarning = lipgloss.Color("#F59E0B") // Amber
	ColorMuted   = lipgloss.Color("#6B7280") // Gray
	ColorAccent  = lipgloss.Color("#06B6D4") // Cyan
)

var (
	KindStyle = lipgloss.NewStyle().
			Foreground(ColorError).
			Bold(true)

	PositionStyle = lipgloss.NewStyle().
			Foreground(ColorAccent)

	ContextStyle = lipgloss.NewStyle().
			Foreground(ColorMuted)

	CauseStyle = lipgloss.NewStyle().
			Foreground(ColorWarning).
			Italic(true)
)

type Reporter struct {
	out   io.Writer
	color bool
}

func New(out io.Writer, color bool) *Reporter {
	return &Reporter{out: out, color: color}
}

func (r *Reporter) style(s lipgloss.Style, text string) string {
	if !r.color {
		return text
	}
	return s.Render(text)
}

// Report writes err to the output. Positioned errors get a header naming the
// file, kind and position followed by the offending source lines.
func (r *Reporter) Report(file, src string, err error) {
	fmt.Fprintln(r.out, r.Format(file, src, err))
}

func (r *Reporter) Format(file, src string, err error) string {
	var d *diag.Error
	if !errors.As(err, &d) {
		return r.style(KindStyle, "error: ") + err.Error()
	}

	var b strings.Builder
	b.WriteString(r.style(KindStyle, d.Kind.String()+" error"))
	b.WriteString(" in ")
	if file == "" {
		file = "<input>"
	}
	b.WriteString(r.style(PositionStyle, fmt.Sprintf("%s:%s", file, d.Pos)))
	b.WriteString(": ")
	b.WriteString(d.Msg)

	if src != "" && d.Pos.Line > 0 {
		b.WriteString("\n")
		b.WriteString(r.style(ContextStyle, util.GetContextLines(src, d.Pos.Line, d.Pos.Column)))
	}
	if d.Cause != nil && d.Cause.Error() != d.Msg {
		b.WriteString("\n")
		b.WriteString(r.style(CauseStyle, "caused by: "+d.Cause.Error()))
	}
	return b.String()
}
