// Package ui prints styled command output to the terminal.
package ui

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/papapumpkin/rocketserializer/internal/batch"
	"github.com/papapumpkin/rocketserializer/internal/ledger"
)

// Semantic color palette.
var (
	colorPrimary = lipgloss.Color("#00BFFF") // Cyan, primary accent
	colorAccent  = lipgloss.Color("#FFD700") // Gold, warnings
	colorSuccess = lipgloss.Color("#00E676") // Green, completed
	colorDanger  = lipgloss.Color("#FF5252") // Red, errors and failures
	colorMuted   = lipgloss.Color("#8C8C8C") // Gray, de-emphasized
)

// Status icons.
const (
	iconDone   = "✓"
	iconFailed = "✗"
	iconWarn   = "⚠"
	iconWatch  = "◎"
)

// Printer writes styled lines to a terminal. Colors are dropped when the
// writer is not a terminal.
type Printer struct {
	w io.Writer

	success lipgloss.Style
	danger  lipgloss.Style
	accent  lipgloss.Style
	primary lipgloss.Style
	muted   lipgloss.Style
	header  lipgloss.Style
}

// New returns a Printer writing to stderr.
func New() *Printer {
	return NewWriter(os.Stderr)
}

// NewWriter returns a Printer writing to w.
func NewWriter(w io.Writer) *Printer {
	r := lipgloss.NewRenderer(w)
	return &Printer{
		w:       w,
		success: r.NewStyle().Foreground(colorSuccess).Bold(true),
		danger:  r.NewStyle().Foreground(colorDanger).Bold(true),
		accent:  r.NewStyle().Foreground(colorAccent).Bold(true),
		primary: r.NewStyle().Foreground(colorPrimary).Bold(true),
		muted:   r.NewStyle().Foreground(colorMuted),
		header:  r.NewStyle().Foreground(colorPrimary).Bold(true).Underline(true),
	}
}

func (p *Printer) Info(msg string) {
	fmt.Fprintln(p.w, p.muted.Render(msg))
}

func (p *Printer) Warn(msg string) {
	fmt.Fprintf(p.w, "%s %s\n", p.accent.Render(iconWarn), msg)
}

func (p *Printer) Error(msg string) {
	fmt.Fprintf(p.w, "%s %s\n", p.danger.Render("error:"), msg)
}

// Converted reports a successful conversion and the files it produced.
func (p *Printer) Converted(input string, files ...string) {
	fmt.Fprintf(p.w, "%s %s\n", p.success.Render(iconDone+" converted"), input)
	for _, f := range files {
		fmt.Fprintf(p.w, "    %s\n", p.muted.Render(f))
	}
}

// Failed reports a failed conversion.
func (p *Printer) Failed(input string, err error) {
	fmt.Fprintf(p.w, "%s %s\n    %v\n", p.danger.Render(iconFailed+" failed"), input, err)
}

// Valid reports the outcome of a precondition check.
func (p *Printer) Valid(input string, err error) {
	if err != nil {
		p.Failed(input, err)
		return
	}
	fmt.Fprintf(p.w, "%s %s\n", p.success.Render(iconDone+" ready to convert"), input)
}

// Watching announces that path is being watched.
func (p *Printer) Watching(path string) {
	fmt.Fprintf(p.w, "%s %s %s\n", p.primary.Render(iconWatch+" watching"), path, p.muted.Render("(Ctrl-C to stop)"))
}

// BatchSummary prints one line per outcome and a closing tally.
func (p *Printer) BatchSummary(outcomes []batch.Outcome) {
	failed := 0
	for _, o := range outcomes {
		if o.Err != nil {
			failed++
			p.Failed(o.Job.Input, o.Err)
			continue
		}
		fmt.Fprintf(p.w, "%s %s %s\n", p.success.Render(iconDone), o.Job.Input,
			p.muted.Render(fmt.Sprintf("→ %s (%s)", o.Job.OutputDir, o.Duration.Round(time.Millisecond))))
	}

	tally := fmt.Sprintf("%d converted, %d failed", len(outcomes)-failed, failed)
	if failed > 0 {
		fmt.Fprintln(p.w, p.danger.Render(tally))
		return
	}
	fmt.Fprintln(p.w, p.success.Render(tally))
}

// Runs prints ledger entries as a table.
func (p *Printer) Runs(runs []ledger.Run) {
	if len(runs) == 0 {
		p.Info("no runs recorded")
		return
	}
	fmt.Fprintln(p.w, p.header.Render(fmt.Sprintf("%-8s  %-19s  %-6s  %-8s  %s", "ID", "STARTED", "STATUS", "TOOK", "INPUT")))
	for _, r := range runs {
		status := p.success.Render(fmt.Sprintf("%-6s", r.Status))
		if r.Status != ledger.StatusOK {
			status = p.danger.Render(fmt.Sprintf("%-6s", r.Status))
		}
		fmt.Fprintf(p.w, "%-8s  %-19s  %s  %-8s  %s\n",
			shortID(r.ID),
			r.StartedAt.Local().Format("2006-01-02 15:04:05"),
			status,
			r.Duration.Round(time.Millisecond),
			filepath.ToSlash(r.Input))
		if r.Error != "" {
			fmt.Fprintf(p.w, "          %s\n", p.muted.Render(firstLine(r.Error)))
		}
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
