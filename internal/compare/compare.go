// Package compare implements the schema comparison engine. Given a "left"
// (expected) and a "right" (actual) snapshot, Compare produces a
// deterministic, ordered list of findings, each classified as a blocking
// error or an advisory warning.
//
// The severity rules are intentionally asymmetric: objects the right side
// has gained (extra tables, columns, indexes) are warnings, since the
// actual schema may legitimately be ahead of the expected one, while
// anything missing or structurally changed is an error. The one exception
// is the primary key: a primary key gained on the right is an error too,
// because it changes write semantics and uniqueness guarantees.
package compare

import (
	"fmt"
	"strings"

	"github.com/schemagate/schemagate/internal/snapshot"
	"github.com/schemagate/schemagate/internal/utils"
)

// Severity classifies a finding as blocking or advisory.
type Severity int

const (
	// SeverityError marks a discrepancy that must block promotion.
	SeverityError Severity = iota
	// SeverityWarning marks a discrepancy that is safe to promote over.
	SeverityWarning
)

func (s Severity) String() string {
	if s == SeverityError {
		return "ERROR"
	}
	return "WARNING"
}

// Kind identifies the type of structural discrepancy a finding reports.
type Kind string

const (
	MissingTable             Kind = "missing_table"
	ExtraTable               Kind = "extra_table"
	MissingColumn            Kind = "missing_column"
	ExtraColumn              Kind = "extra_column"
	InconsistentColumn       Kind = "inconsistent_column"
	MissingIndex             Kind = "missing_index"
	ExtraIndex               Kind = "extra_index"
	InconsistentIndex        Kind = "inconsistent_index"
	MissingPrimaryKey        Kind = "missing_primary_key"
	ExtraPrimaryKey          Kind = "extra_primary_key"
	InconsistentPrimaryKey   Kind = "inconsistent_primary_key"
	InconsistentTableOptions Kind = "inconsistent_table_options"
)

// Finding is one reported discrepancy. Findings are immutable once
// created; the comparator only appends to a result, never rewrites.
type Finding struct {
	Severity Severity
	Kind     Kind
	Message  string
}

// Result is the ordered list of findings from one comparison run.
type Result struct {
	findings []Finding
}

// Findings returns all findings in emission order.
func (r *Result) Findings() []Finding {
	return r.findings
}

// Errors returns the findings with error severity, in emission order.
func (r *Result) Errors() []Finding {
	return r.filter(SeverityError)
}

// Warnings returns the findings with warning severity, in emission order.
func (r *Result) Warnings() []Finding {
	return r.filter(SeverityWarning)
}

// ErrorCount returns the number of error findings.
func (r *Result) ErrorCount() int {
	return len(r.Errors())
}

// WarningCount returns the number of warning findings.
func (r *Result) WarningCount() int {
	return len(r.Warnings())
}

func (r *Result) filter(severity Severity) []Finding {
	var out []Finding
	for _, f := range r.findings {
		if f.Severity == severity {
			out = append(out, f)
		}
	}
	return out
}

func (r *Result) add(severity Severity, kind Kind, format string, args ...any) {
	r.findings = append(r.findings, Finding{
		Severity: severity,
		Kind:     kind,
		Message:  fmt.Sprintf(format, args...),
	})
}

// Compare runs the full comparison of right against left and returns the
// accumulated findings. It is a pure function of its inputs: no I/O, no
// shared state, and for a fixed pair of snapshots the result is identical
// across invocations, including finding order. Compare panics if either
// snapshot is nil; that is a contract violation by the caller, not a
// comparable condition.
func Compare(left, right *snapshot.Schema) *Result {
	if left == nil || right == nil {
		panic("compare: snapshots must be non-nil")
	}

	result := &Result{}
	compareTableSets(left, right, result)
	for _, name := range commonNames(left.Tables, right.Tables) {
		lt, ok := left.Tables[name]
		if !ok {
			panic(fmt.Sprintf("compare: table %q vanished from left snapshot", name))
		}
		rt, ok := right.Tables[name]
		if !ok {
			panic(fmt.Sprintf("compare: table %q vanished from right snapshot", name))
		}
		compareTable(lt, rt, result)
	}
	return result
}

// compareTableSets reports tables present on only one side. Tables present
// on both sides are handled by compareTable; tables missing from the right
// are fully reported here and not compared further.
func compareTableSets(left, right *snapshot.Schema, result *Result) {
	if extra := missingFrom(right.Tables, left.Tables); len(extra) > 0 {
		result.add(SeverityWarning, ExtraTable,
			"extra tables: %s", strings.Join(extra, ", "))
	}
	if missing := missingFrom(left.Tables, right.Tables); len(missing) > 0 {
		result.add(SeverityError, MissingTable,
			"missing tables: %s", strings.Join(missing, ", "))
	}
}

// compareTable runs the four per-table checks. Each check is independent;
// an earlier finding never suppresses a later check, so one table can
// accumulate several findings in a single run.
func compareTable(left, right *snapshot.Table, result *Result) {
	compareNamed(namedKinds{
		table:        left.Name,
		plural:       "columns",
		missing:      MissingColumn,
		extra:        ExtraColumn,
		inconsistent: InconsistentColumn,
	}, left.Columns, right.Columns, (*snapshot.Column).Equal, (*snapshot.Column).String, result)

	compareNamed(namedKinds{
		table:        left.Name,
		plural:       "indexes",
		missing:      MissingIndex,
		extra:        ExtraIndex,
		inconsistent: InconsistentIndex,
	}, left.Indexes, right.Indexes, (*snapshot.Index).Equal, (*snapshot.Index).String, result)

	comparePrimaryKey(left, right, result)
	compareOptions(left, right, result)
}

// namedKinds carries the per-collection finding kinds so the one generic
// routine serves both columns and indexes.
type namedKinds struct {
	table        string
	plural       string
	missing      Kind
	extra        Kind
	inconsistent Kind
}

// compareNamed is the generic named-item comparison shared by columns and
// indexes: extras warn, missing items error, and items present on both
// sides are compared by structural equality with both definitions rendered
// into the finding when they differ.
func compareNamed[T any](kinds namedKinds, left, right map[string]T,
	equal func(T, T) bool, render func(T) string, result *Result) {

	if extra := missingFrom(right, left); len(extra) > 0 {
		result.add(SeverityWarning, kinds.extra,
			"extra %s in table %s: %s", kinds.plural, kinds.table, strings.Join(extra, ", "))
	}
	if missing := missingFrom(left, right); len(missing) > 0 {
		result.add(SeverityError, kinds.missing,
			"missing %s in table %s: %s", kinds.plural, kinds.table, strings.Join(missing, ", "))
	}
	for _, name := range commonNames(left, right) {
		lv, rv := left[name], right[name]
		if !equal(lv, rv) {
			result.add(SeverityError, kinds.inconsistent,
				"inconsistent schema in %s.%s: expected %s, got %s",
				kinds.table, name, render(lv), render(rv))
		}
	}
}

// comparePrimaryKey compares the primary key as an ordered column list.
// Presence mismatches stop the check for this table: there is nothing
// further to compare once one side has no key at all. A primary key that
// exists only on the right is an error, not a warning: gaining a key
// changes uniqueness guarantees.
func comparePrimaryKey(left, right *snapshot.Table, result *Result) {
	leftHas := len(left.PrimaryKey) > 0
	rightHas := len(right.PrimaryKey) > 0

	switch {
	case leftHas && !rightHas:
		result.add(SeverityError, MissingPrimaryKey,
			"missing primary key on table %s", left.Name)
	case !leftHas && rightHas:
		result.add(SeverityError, ExtraPrimaryKey,
			"extra primary key on table %s: (%s)", left.Name, strings.Join(right.PrimaryKey, ", "))
	case leftHas && rightHas:
		if !orderedEqual(left.PrimaryKey, right.PrimaryKey) {
			result.add(SeverityError, InconsistentPrimaryKey,
				"inconsistent primary key on table %s: expected (%s), got (%s)",
				left.Name, strings.Join(left.PrimaryKey, ", "), strings.Join(right.PrimaryKey, ", "))
		}
	}
}

// compareOptions compares the table-level option maps for exact equality.
// Any drift (added, removed or changed key) yields exactly one error for
// the table, rendering both full option maps.
func compareOptions(left, right *snapshot.Table, result *Result) {
	if optionsEqual(left.Options, right.Options) {
		return
	}
	result.add(SeverityError, InconsistentTableOptions,
		"inconsistent table options on table %s: expected %s, got %s",
		left.Name, left.OptionsString(), right.OptionsString())
}

func optionsEqual(left, right map[string]string) bool {
	if len(left) != len(right) {
		return false
	}
	for k, lv := range left {
		if rv, ok := right[k]; !ok || rv != lv {
			return false
		}
	}
	return true
}

func orderedEqual(left, right []string) bool {
	if len(left) != len(right) {
		return false
	}
	for i := range left {
		if left[i] != right[i] {
			return false
		}
	}
	return true
}

// missingFrom returns the sorted names present in want but absent from
// have.
func missingFrom[A, B any](want map[string]A, have map[string]B) []string {
	var names []string
	for name := range want {
		if _, ok := have[name]; !ok {
			names = append(names, name)
		}
	}
	return utils.Sorted(names)
}

// commonNames returns the sorted intersection of the two key sets. Driving
// iteration off this slice, never off native map order, is what makes the
// result deterministic.
func commonNames[A, B any](left map[string]A, right map[string]B) []string {
	var names []string
	for name := range left {
		if _, ok := right[name]; ok {
			names = append(names, name)
		}
	}
	return utils.Sorted(names)
}
