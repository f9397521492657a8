// Package report formats comparison results for the console and maps them
// to a process exit status. The comparator stays pure; all presentation
// lives here.
package report

import (
	"fmt"
	"io"

	"github.com/schemagate/schemagate/internal/color"
	"github.com/schemagate/schemagate/internal/compare"
)

// Reporter writes a comparison result as a textual report: the error
// section first (when nonempty), then the warning section, then a one-line
// numeric summary.
type Reporter struct {
	w io.Writer
	c *color.Color
}

// New creates a reporter writing to w. Colors are applied only when
// enabled and the environment allows them.
func New(w io.Writer, colorEnabled bool) *Reporter {
	return &Reporter{
		w: w,
		c: color.New(colorEnabled),
	}
}

// Write renders the full report for result.
func (r *Reporter) Write(result *compare.Result) error {
	if errs := result.Errors(); len(errs) > 0 {
		if err := r.section(r.c.Error("Errors"), errs); err != nil {
			return err
		}
	}
	if warns := result.Warnings(); len(warns) > 0 {
		if err := r.section(r.c.Warning("Warnings"), warns); err != nil {
			return err
		}
	}

	_, err := fmt.Fprintf(r.w, "%d error(s) and %d warning(s) found.\n",
		result.ErrorCount(), result.WarningCount())
	return err
}

func (r *Reporter) section(header string, findings []compare.Finding) error {
	if _, err := fmt.Fprintf(r.w, "%s:\n", r.c.Bold(header)); err != nil {
		return err
	}
	for _, f := range findings {
		if _, err := fmt.Fprintf(r.w, "  - %s\n", f.Message); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(r.w)
	return err
}

// ExitCode maps a result to the process exit status: nonzero iff any
// error finding is present. Warnings alone never fail the gate.
func ExitCode(result *compare.Result) int {
	if result.ErrorCount() > 0 {
		return 1
	}
	return 0
}
