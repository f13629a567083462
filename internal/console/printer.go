// Package console prints run progress and summaries for the uitest command.
package console

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/entrhq/uitest/pkg/evidence"
)

// Verbosity controls how much the printer shows.
type Verbosity int

const (
	// Quiet shows warnings, errors and the final summary.
	Quiet Verbosity = iota
	// Normal adds progress (default).
	Normal
	// Verbose adds artifact paths and teardown details.
	Verbose
)

const ruleWidth = 70

// Printer writes styled lines. Colors are dropped when the writer is not a
// terminal or NoColor is set.
type Printer struct {
	w     io.Writer
	level Verbosity

	header  lipgloss.Style
	section lipgloss.Style
	rule    lipgloss.Style
	success lipgloss.Style
	info    lipgloss.Style
	warn    lipgloss.Style
	fail    lipgloss.Style
	muted   lipgloss.Style
	key     lipgloss.Style
}

// Option customizes a Printer.
type Option func(*lipgloss.Renderer)

// NoColor disables styling.
func NoColor() Option {
	return func(r *lipgloss.Renderer) {
		r.SetColorProfile(termenv.Ascii)
	}
}

// New returns a printer for w. A nil w prints to stdout.
func New(w io.Writer, level Verbosity, opts ...Option) *Printer {
	if w == nil {
		w = os.Stdout
	}
	r := lipgloss.NewRenderer(w)
	for _, opt := range opts {
		opt(r)
	}

	return &Printer{
		w:       w,
		level:   level,
		header:  r.NewStyle().Bold(true).Foreground(lipgloss.Color("15")),
		section: r.NewStyle().Foreground(lipgloss.Color("6")),
		rule:    r.NewStyle().Foreground(lipgloss.Color("8")),
		success: r.NewStyle().Bold(true).Foreground(lipgloss.Color("2")),
		info:    r.NewStyle().Foreground(lipgloss.Color("#FFB3BA")),
		warn:    r.NewStyle().Foreground(lipgloss.Color("3")),
		fail:    r.NewStyle().Bold(true).Foreground(lipgloss.Color("1")),
		muted:   r.NewStyle().Foreground(lipgloss.Color("8")),
		key:     r.NewStyle().Bold(true),
	}
}

func (p *Printer) line(style lipgloss.Style, s string) {
	fmt.Fprintln(p.w, style.Render(s))
}

// Header prints a prominent banner.
func (p *Printer) Header(message string) {
	if p.level < Normal {
		return
	}
	bar := strings.Repeat("=", ruleWidth)
	fmt.Fprintln(p.w)
	p.line(p.header, bar)
	p.line(p.header, "  "+message)
	p.line(p.header, bar)
}

// Section prints a section divider.
func (p *Printer) Section(title string) {
	if p.level < Normal {
		return
	}
	fmt.Fprintln(p.w)
	p.line(p.section, "▶ "+title)
	p.line(p.rule, strings.Repeat("─", 50))
}

// Successf prints a success message with a checkmark.
func (p *Printer) Successf(format string, args ...interface{}) {
	if p.level < Normal {
		return
	}
	p.line(p.success, "✓ "+fmt.Sprintf(format, args...))
}

// Infof prints an informational message.
func (p *Printer) Infof(format string, args ...interface{}) {
	if p.level < Normal {
		return
	}
	p.line(p.info, fmt.Sprintf(format, args...))
}

// Warningf prints a warning at every verbosity.
func (p *Printer) Warningf(format string, args ...interface{}) {
	p.line(p.warn, "⚠ Warning: "+fmt.Sprintf(format, args...))
}

// Errorf prints an error at every verbosity.
func (p *Printer) Errorf(format string, args ...interface{}) {
	p.line(p.fail, "✗ Error: "+fmt.Sprintf(format, args...))
}

// Verbosef prints details shown only in verbose mode.
func (p *Printer) Verbosef(format string, args ...interface{}) {
	if p.level < Verbose {
		return
	}
	p.line(p.muted, "→ "+fmt.Sprintf(format, args...))
}

// Field prints an aligned "key: value" pair.
func (p *Printer) Field(key, value string) {
	if p.level < Normal {
		return
	}
	if value == "" {
		value = p.muted.Render("(unset)")
	}
	fmt.Fprintf(p.w, "  %s %s\n", p.key.Render(fmt.Sprintf("%-16s", key+":")), value)
}

// Session prints the outcome of one session as it finishes.
func (p *Printer) Session(rec evidence.SessionRecord) {
	label := rec.Test + " on " + rec.Descriptor
	switch rec.Outcome {
	case evidence.OutcomePassed:
		if p.level >= Normal {
			p.line(p.success, fmt.Sprintf("  ✓ %s (%s)", label, rec.Duration.Round(time.Millisecond)))
		}
	case evidence.OutcomeSetupFailed:
		p.line(p.fail, "  ✗ "+label+": setup failed")
	default:
		p.line(p.fail, "  ✗ "+label)
	}
	if rec.Error != "" && rec.Outcome != evidence.OutcomePassed {
		for _, l := range strings.Split(rec.Error, "\n") {
			p.line(p.muted, "      "+l)
		}
	}
	if p.level >= Verbose {
		if rec.TracePath != "" {
			p.line(p.muted, "      trace: "+rec.TracePath)
		}
		if rec.VideoPath != "" {
			p.line(p.muted, "      video: "+rec.VideoPath)
		}
	}
	for _, f := range rec.TeardownFailures {
		p.line(p.warn, "      teardown: "+f)
	}
}

// Summary prints the final run summary, always.
func (p *Printer) Summary(summary *evidence.RunSummary, reports ...string) {
	bar := strings.Repeat("=", ruleWidth)
	fmt.Fprintln(p.w)
	p.line(p.header, bar)
	p.line(p.header, "  RUN SUMMARY")
	p.line(p.header, bar)

	failed := summary.Failed()
	fmt.Fprint(p.w, "  Status: ")
	switch {
	case len(summary.Sessions) == 0:
		p.line(p.warn, "⚠ NO SESSIONS")
	case failed == 0:
		p.line(p.success, "✓ PASSED")
	default:
		p.line(p.fail, "✗ FAILED")
	}

	fmt.Fprintf(p.w, "  Environment: %s\n", summary.Environment)
	fmt.Fprintf(p.w, "  Duration: %s\n", summary.Duration.Round(time.Second))
	fmt.Fprintf(p.w, "  Sessions: %d passed, %d failed\n", len(summary.Sessions)-failed, failed)

	if failed > 0 {
		fmt.Fprintln(p.w)
		p.line(p.fail, "  Failures:")
		for _, rec := range summary.Sessions {
			if rec.Outcome == evidence.OutcomePassed {
				continue
			}
			fmt.Fprintf(p.w, "    • %s on %s (%s)\n", rec.Test, rec.Descriptor, rec.Outcome)
		}
	}

	if len(reports) > 0 {
		fmt.Fprintln(p.w)
		fmt.Fprintln(p.w, "  Reports:")
		for _, r := range reports {
			fmt.Fprintf(p.w, "    %s\n", r)
		}
	}

	p.line(p.header, bar)
	fmt.Fprintln(p.w)
}
