// Package snapshot defines the in-memory representation of a database
// schema used by the comparator: a fully-materialized description of
// tables, columns, indexes, primary keys and table-level options at one
// point in time. Snapshots are built by a provider (internal/inspect) and
// never mutated afterwards.
package snapshot

import (
	"fmt"
	"strings"

	"github.com/schemagate/schemagate/internal/utils"
)

// Schema represents one side of a comparison: a named schema and its
// tables, keyed by table name.
type Schema struct {
	// Identity names the source this snapshot was taken from, e.g. a
	// connection string host/database or a DDL file path.
	Identity string
	Tables   map[string]*Table
}

// NewSchema creates an empty schema snapshot for the given identity.
func NewSchema(identity string) *Schema {
	return &Schema{
		Identity: identity,
		Tables:   make(map[string]*Table),
	}
}

// Table represents a single table: its columns and indexes keyed by name,
// the primary-key column list (ordered; order is significant for
// composite keys), and table-level options such as storage engine or
// default character set.
type Table struct {
	Name       string
	Columns    map[string]*Column
	Indexes    map[string]*Index
	PrimaryKey []string
	Options    map[string]string
}

// NewTable creates an empty table snapshot.
func NewTable(name string) *Table {
	return &Table{
		Name:    name,
		Columns: make(map[string]*Column),
		Indexes: make(map[string]*Index),
		Options: make(map[string]string),
	}
}

// Column represents a table column. Equality is structural over the
// exported fields; see Equal for the exact set.
type Column struct {
	Name       string
	DataType   string
	IsNullable bool
	Default    *string
	MaxLength  *int
	Precision  *int
	Scale      *int
	Collation  string
}

// Equal reports whether two column definitions are structurally
// identical. Every exported field participates: data type, nullability,
// default value, length/precision/scale and collation.
func (c *Column) Equal(other *Column) bool {
	if c == nil || other == nil {
		return c == other
	}
	return c.Name == other.Name &&
		c.DataType == other.DataType &&
		c.IsNullable == other.IsNullable &&
		strPtrEqual(c.Default, other.Default) &&
		intPtrEqual(c.MaxLength, other.MaxLength) &&
		intPtrEqual(c.Precision, other.Precision) &&
		intPtrEqual(c.Scale, other.Scale) &&
		c.Collation == other.Collation
}

// String renders the column definition with every field that participates
// in Equal, so two unequal definitions always render differently.
func (c *Column) String() string {
	var b strings.Builder
	b.WriteString(c.DataType)
	if c.MaxLength != nil {
		fmt.Fprintf(&b, "(%d)", *c.MaxLength)
	} else if c.Precision != nil {
		if c.Scale != nil {
			fmt.Fprintf(&b, "(%d,%d)", *c.Precision, *c.Scale)
		} else {
			fmt.Fprintf(&b, "(%d)", *c.Precision)
		}
	}
	if c.IsNullable {
		b.WriteString(" NULL")
	} else {
		b.WriteString(" NOT NULL")
	}
	if c.Default != nil {
		fmt.Fprintf(&b, " DEFAULT %s", *c.Default)
	}
	if c.Collation != "" {
		fmt.Fprintf(&b, " COLLATE %s", c.Collation)
	}
	return b.String()
}

// Index represents a table index as an ordered column list plus the
// properties that affect its semantics.
type Index struct {
	Name      string
	Columns   []string
	IsUnique  bool
	IsPrimary bool
	Method    string
}

// Equal reports whether two index definitions are structurally identical:
// same column list in the same order, same uniqueness, same kind, same
// access method.
func (i *Index) Equal(other *Index) bool {
	if i == nil || other == nil {
		return i == other
	}
	if i.Name != other.Name ||
		i.IsUnique != other.IsUnique ||
		i.IsPrimary != other.IsPrimary ||
		i.Method != other.Method {
		return false
	}
	if len(i.Columns) != len(other.Columns) {
		return false
	}
	for n, col := range i.Columns {
		if col != other.Columns[n] {
			return false
		}
	}
	return true
}

// String renders the index definition for inclusion in findings.
func (i *Index) String() string {
	var b strings.Builder
	switch {
	case i.IsPrimary:
		b.WriteString("PRIMARY KEY")
	case i.IsUnique:
		b.WriteString("UNIQUE INDEX")
	default:
		b.WriteString("INDEX")
	}
	fmt.Fprintf(&b, " (%s)", strings.Join(i.Columns, ", "))
	if i.Method != "" {
		fmt.Fprintf(&b, " USING %s", i.Method)
	}
	return b.String()
}

// OptionsString renders a table's option map in deterministic key order,
// e.g. "charset=utf8mb4, engine=InnoDB".
func (t *Table) OptionsString() string {
	if len(t.Options) == 0 {
		return "(none)"
	}
	keys := utils.SortedKeys(t.Options)
	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, fmt.Sprintf("%s=%s", k, t.Options[k]))
	}
	return strings.Join(pairs, ", ")
}

func strPtrEqual(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func intPtrEqual(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
