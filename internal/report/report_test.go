package report

import (
	"strings"
	"testing"

	"github.com/schemagate/schemagate/internal/compare"
	"github.com/schemagate/schemagate/internal/snapshot"
)

// buildResult produces a result with one error (missing table) and one
// warning (extra table).
func buildResult(t *testing.T) *compare.Result {
	t.Helper()
	left := snapshot.NewSchema("left")
	left.Tables["orders"] = snapshot.NewTable("orders")
	right := snapshot.NewSchema("right")
	right.Tables["audit_log"] = snapshot.NewTable("audit_log")

	result := compare.Compare(left, right)
	if result.ErrorCount() != 1 || result.WarningCount() != 1 {
		t.Fatalf("fixture produced unexpected result: %v", result.Findings())
	}
	return result
}

func TestWriteSectionsAndSummary(t *testing.T) {
	var buf strings.Builder
	if err := New(&buf, false).Write(buildResult(t)); err != nil {
		t.Fatalf("Write() failed: %v", err)
	}
	out := buf.String()

	errIdx := strings.Index(out, "Errors:")
	warnIdx := strings.Index(out, "Warnings:")
	if errIdx == -1 || warnIdx == -1 {
		t.Fatalf("expected both sections in output:\n%s", out)
	}
	if errIdx > warnIdx {
		t.Errorf("errors section must come before warnings:\n%s", out)
	}
	if !strings.Contains(out, "  - missing tables: orders") {
		t.Errorf("expected error finding line in output:\n%s", out)
	}
	if !strings.Contains(out, "  - extra tables: audit_log") {
		t.Errorf("expected warning finding line in output:\n%s", out)
	}
	if !strings.HasSuffix(out, "1 error(s) and 1 warning(s) found.\n") {
		t.Errorf("expected summary as final line:\n%s", out)
	}
}

func TestWriteCleanResult(t *testing.T) {
	left := snapshot.NewSchema("left")
	right := snapshot.NewSchema("right")

	var buf strings.Builder
	if err := New(&buf, false).Write(compare.Compare(left, right)); err != nil {
		t.Fatalf("Write() failed: %v", err)
	}

	want := "0 error(s) and 0 warning(s) found.\n"
	if buf.String() != want {
		t.Errorf("clean result should print only the summary, got:\n%s", buf.String())
	}
}

func TestWriteWarningsOnly(t *testing.T) {
	left := snapshot.NewSchema("left")
	right := snapshot.NewSchema("right")
	right.Tables["audit_log"] = snapshot.NewTable("audit_log")

	var buf strings.Builder
	if err := New(&buf, false).Write(compare.Compare(left, right)); err != nil {
		t.Fatalf("Write() failed: %v", err)
	}
	out := buf.String()

	if strings.Contains(out, "Errors:") {
		t.Errorf("empty error section must not be printed:\n%s", out)
	}
	if !strings.Contains(out, "Warnings:") {
		t.Errorf("expected warnings section:\n%s", out)
	}
	if !strings.HasSuffix(out, "0 error(s) and 1 warning(s) found.\n") {
		t.Errorf("expected summary line:\n%s", out)
	}
}

func TestExitCode(t *testing.T) {
	left := snapshot.NewSchema("left")
	right := snapshot.NewSchema("right")

	if got := ExitCode(compare.Compare(left, right)); got != 0 {
		t.Errorf("clean result should exit 0, got %d", got)
	}

	// Warnings alone never fail the gate.
	right.Tables["audit_log"] = snapshot.NewTable("audit_log")
	if got := ExitCode(compare.Compare(left, right)); got != 0 {
		t.Errorf("warnings-only result should exit 0, got %d", got)
	}

	left.Tables["orders"] = snapshot.NewTable("orders")
	if got := ExitCode(compare.Compare(left, right)); got != 1 {
		t.Errorf("result with errors should exit 1, got %d", got)
	}
}
