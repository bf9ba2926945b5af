// Package report prints human-facing scenario progress and the final
// summary block, with terminal-aware color handling.
package report

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"
)

// Reporter writes colored status output for scenario runs
type Reporter struct {
	out            io.Writer
	colorSupported bool

	header  *color.Color
	success *color.Color
	failure *color.Color
	warning *color.Color
}

// NewReporter creates a reporter writing to stdout with terminal detection
func NewReporter(noColor bool) *Reporter {
	return newReporter(os.Stdout, detectColorSupport() && !noColor)
}

// NewReporterWithWriter creates a reporter for an arbitrary writer, for
// tests. Color is disabled.
func NewReporterWithWriter(out io.Writer) *Reporter {
	return newReporter(out, false)
}

func newReporter(out io.Writer, colorSupported bool) *Reporter {
	r := &Reporter{
		out:            out,
		colorSupported: colorSupported,
		header:         color.New(color.FgHiYellow),
		success:        color.New(color.FgHiGreen),
		failure:        color.New(color.FgHiRed),
		warning:        color.New(color.FgYellow),
	}
	if !colorSupported {
		r.header.DisableColor()
		r.success.DisableColor()
		r.failure.DisableColor()
		r.warning.DisableColor()
	}
	return r
}

// detectColorSupport checks if the terminal supports colors
func detectColorSupport() bool {
	if !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		return false
	}
	if termenv.EnvNoColor() {
		return false
	}
	return termenv.ColorProfile() != termenv.Ascii
}

// IsColorSupported returns whether colors are enabled
func (r *Reporter) IsColorSupported() bool {
	return r.colorSupported
}

// Header prints a section header line
func (r *Reporter) Header(format string, args ...interface{}) {
	fmt.Fprintln(r.out, r.header.Sprintf(format, args...))
}

// Pass prints a success line
func (r *Reporter) Pass(format string, args ...interface{}) {
	fmt.Fprintln(r.out, r.success.Sprint("✓ ")+fmt.Sprintf(format, args...))
}

// Fail prints a failure line
func (r *Reporter) Fail(format string, args ...interface{}) {
	fmt.Fprintln(r.out, r.failure.Sprint("✗ ")+fmt.Sprintf(format, args...))
}

// Warn prints a warning line
func (r *Reporter) Warn(format string, args ...interface{}) {
	fmt.Fprintln(r.out, r.warning.Sprintf(format, args...))
}

// ScenarioResult holds a single scenario's name and outcome
type ScenarioResult struct {
	Name   string
	Passed bool
}

// Summary prints the final per-scenario summary block and the overall
// verdict, returning true when every scenario passed
func (r *Reporter) Summary(results []ScenarioResult) bool {
	r.Header("\n===== Test Summary =====")

	allPassed := true
	for _, result := range results {
		if result.Passed {
			r.Pass("%s: PASSED", result.Name)
		} else {
			r.Fail("%s: FAILED", result.Name)
			allPassed = false
		}
	}

	fmt.Fprintln(r.out)
	if allPassed {
		fmt.Fprintln(r.out, r.success.Sprint("All tests passed!"))
	} else {
		fmt.Fprintln(r.out, r.failure.Sprint("Some tests failed!"))
	}
	return allPassed
}
