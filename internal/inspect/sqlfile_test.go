package inspect

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func parseFile(t *testing.T, ddl string) *FileProvider {
	t.Helper()
	path := filepath.Join(t.TempDir(), "schema.sql")
	if err := os.WriteFile(path, []byte(ddl), 0644); err != nil {
		t.Fatalf("failed to write schema file: %v", err)
	}
	return NewFileProvider(path)
}

func TestFileProviderCreateTable(t *testing.T) {
	provider := parseFile(t, `
		CREATE TABLE users (
			id integer NOT NULL,
			email varchar(255) NOT NULL DEFAULT 'guest',
			bio text,
			balance numeric(10,2),
			PRIMARY KEY (id)
		);

		CREATE UNIQUE INDEX users_email_key ON users (email);
	`)

	schema, err := provider.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("Snapshot() failed: %v", err)
	}

	table, ok := schema.Tables["users"]
	if !ok {
		t.Fatalf("expected users table, got tables %v", schema.Tables)
	}
	if len(table.Columns) != 4 {
		t.Fatalf("expected 4 columns, got %d", len(table.Columns))
	}

	id := table.Columns["id"]
	if id.DataType != "integer" || id.IsNullable {
		t.Errorf("unexpected id column: %s", id)
	}

	email := table.Columns["email"]
	if email.DataType != "character varying" {
		t.Errorf("varchar should normalize to character varying, got %q", email.DataType)
	}
	if email.MaxLength == nil || *email.MaxLength != 255 {
		t.Errorf("expected max length 255, got %v", email.MaxLength)
	}
	if email.IsNullable {
		t.Error("email should be NOT NULL")
	}
	if email.Default == nil || *email.Default != "'guest'" {
		t.Errorf("expected default 'guest', got %v", email.Default)
	}

	bio := table.Columns["bio"]
	if bio.DataType != "text" || !bio.IsNullable {
		t.Errorf("unexpected bio column: %s", bio)
	}

	balance := table.Columns["balance"]
	if balance.DataType != "numeric" {
		t.Errorf("expected numeric, got %q", balance.DataType)
	}
	if balance.Precision == nil || *balance.Precision != 10 || balance.Scale == nil || *balance.Scale != 2 {
		t.Errorf("expected numeric(10,2), got %s", balance)
	}

	if len(table.PrimaryKey) != 1 || table.PrimaryKey[0] != "id" {
		t.Errorf("expected primary key (id), got %v", table.PrimaryKey)
	}

	index, ok := table.Indexes["users_email_key"]
	if !ok {
		t.Fatalf("expected users_email_key index, got %v", table.Indexes)
	}
	if !index.IsUnique || index.Method != "btree" {
		t.Errorf("unexpected index: %s", index)
	}
	if len(index.Columns) != 1 || index.Columns[0] != "email" {
		t.Errorf("expected index on (email), got %v", index.Columns)
	}
}

func TestFileProviderInlinePrimaryKey(t *testing.T) {
	provider := parseFile(t, `
		CREATE TABLE events (
			id bigserial PRIMARY KEY,
			kind text NOT NULL
		);
	`)

	schema, err := provider.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("Snapshot() failed: %v", err)
	}

	table := schema.Tables["events"]
	if table == nil {
		t.Fatal("expected events table")
	}
	if len(table.PrimaryKey) != 1 || table.PrimaryKey[0] != "id" {
		t.Errorf("expected primary key (id), got %v", table.PrimaryKey)
	}
	id := table.Columns["id"]
	if id.DataType != "bigint" {
		t.Errorf("bigserial should normalize to bigint, got %q", id.DataType)
	}
	if id.IsNullable {
		t.Error("primary key column must be NOT NULL")
	}
}

func TestFileProviderCompositePrimaryKeyOrder(t *testing.T) {
	provider := parseFile(t, `
		CREATE TABLE order_items (
			order_id bigint NOT NULL,
			item_id bigint NOT NULL,
			qty integer NOT NULL,
			PRIMARY KEY (order_id, item_id)
		);
	`)

	schema, err := provider.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("Snapshot() failed: %v", err)
	}

	table := schema.Tables["order_items"]
	want := []string{"order_id", "item_id"}
	if len(table.PrimaryKey) != 2 || table.PrimaryKey[0] != want[0] || table.PrimaryKey[1] != want[1] {
		t.Errorf("primary key order must be preserved, got %v", table.PrimaryKey)
	}
}

func TestFileProviderIgnoresOtherStatements(t *testing.T) {
	provider := parseFile(t, `
		CREATE TABLE users (id integer NOT NULL);
		CREATE VIEW active_users AS SELECT id FROM users;
		INSERT INTO users (id) VALUES (1);
		GRANT SELECT ON users TO readonly;
	`)

	schema, err := provider.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("Snapshot() failed: %v", err)
	}
	if len(schema.Tables) != 1 {
		t.Errorf("only CREATE TABLE should contribute tables, got %v", schema.Tables)
	}
}

func TestFileProviderMissingFile(t *testing.T) {
	provider := NewFileProvider(filepath.Join(t.TempDir(), "absent.sql"))
	if _, err := provider.Snapshot(context.Background()); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestFileProviderInvalidSQL(t *testing.T) {
	provider := parseFile(t, "CREATE TABLE (")
	if _, err := provider.Snapshot(context.Background()); err == nil {
		t.Error("expected error for invalid SQL")
	}
}
