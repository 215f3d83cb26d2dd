// Package presenter provides consistent CLI output for user-facing
// messages, with color support and a quiet mode for scripting.
package presenter

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

var (
	successColor = color.New(color.FgGreen)
	errorColor   = color.New(color.FgRed, color.Bold)
	warningColor = color.New(color.FgYellow)
	sectionColor = color.New(color.FgCyan, color.Bold)
)

// Presenter writes user-facing CLI messages.
type Presenter struct {
	out    io.Writer
	errOut io.Writer
	quiet  bool
}

// New creates a Presenter writing to stdout/stderr, with color detection
// based on terminal capabilities.
func New() *Presenter {
	if !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		color.NoColor = true
	}
	return NewWithWriters(os.Stdout, os.Stderr)
}

// NewWithWriters creates a Presenter with custom output writers.
func NewWithWriters(out, errOut io.Writer) *Presenter {
	return &Presenter{out: out, errOut: errOut}
}

// SetQuiet suppresses informational output; errors are always printed.
func (p *Presenter) SetQuiet(quiet bool) {
	p.quiet = quiet
}

// Success prints a success message.
func (p *Presenter) Success(message string) {
	if p.quiet {
		return
	}
	fmt.Fprintf(p.out, "%s %s\n", successColor.Sprint("✓"), message)
}

// Error prints an error with optional context.
func (p *Presenter) Error(err error, context string) {
	if context != "" {
		fmt.Fprintf(p.errOut, "%s %s: %v\n", errorColor.Sprint("error:"), context, err)
		return
	}
	fmt.Fprintf(p.errOut, "%s %v\n", errorColor.Sprint("error:"), err)
}

// Warning prints a warning message.
func (p *Presenter) Warning(message string) {
	if p.quiet {
		return
	}
	fmt.Fprintf(p.errOut, "%s %s\n", warningColor.Sprint("warning:"), message)
}

// Info prints an informational message.
func (p *Presenter) Info(message string) {
	if p.quiet {
		return
	}
	fmt.Fprintln(p.out, message)
}

// Section prints a section header.
func (p *Presenter) Section(title string) {
	if p.quiet {
		return
	}
	fmt.Fprintf(p.out, "\n%s\n", sectionColor.Sprint(title))
}
