package inspect

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/schemagate/schemagate/internal/compare"
	"github.com/schemagate/schemagate/testutil"
)

const integrationDDL = `
CREATE TABLE users (
	id integer PRIMARY KEY,
	email varchar(255) NOT NULL,
	bio text
);

CREATE UNIQUE INDEX users_email_key ON users (email);

CREATE TABLE orders (
	id bigint NOT NULL,
	user_id integer NOT NULL,
	created_at timestamptz NOT NULL,
	PRIMARY KEY (id, user_id)
);
`

// TestPostgresInspectorAgainstContainer verifies that the Postgres
// inspector materializes the same snapshot the DDL file provider produces
// for the same schema, so a checked-in .sql file can gate a live database.
func TestPostgresInspectorAgainstContainer(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()
	container := testutil.SetupPostgresContainer(ctx, t)
	defer container.Terminate(ctx, t)

	if _, err := container.Conn.ExecContext(ctx, integrationDDL); err != nil {
		t.Fatalf("Failed to apply DDL: %v", err)
	}

	inspector := NewPostgresInspector(container.DSN, "public")
	schema, err := inspector.Snapshot(ctx)
	if err != nil {
		t.Fatalf("Snapshot() failed: %v", err)
	}

	if len(schema.Tables) != 2 {
		t.Fatalf("expected 2 tables, got %v", schema.Tables)
	}

	users := schema.Tables["users"]
	if users == nil {
		t.Fatal("expected users table")
	}
	if len(users.PrimaryKey) != 1 || users.PrimaryKey[0] != "id" {
		t.Errorf("expected users primary key (id), got %v", users.PrimaryKey)
	}
	email := users.Columns["email"]
	if email == nil {
		t.Fatal("expected users.email column")
	}
	if email.DataType != "character varying" || email.IsNullable {
		t.Errorf("unexpected email column: %s", email)
	}
	if email.MaxLength == nil || *email.MaxLength != 255 {
		t.Errorf("expected max length 255, got %v", email.MaxLength)
	}

	index := users.Indexes["users_email_key"]
	if index == nil {
		t.Fatalf("expected users_email_key index, got %v", users.Indexes)
	}
	if !index.IsUnique || index.Method != "btree" {
		t.Errorf("unexpected index: %s", index)
	}

	// The primary-key index must not leak into the index map.
	for name := range users.Indexes {
		if name == "users_pkey" {
			t.Error("primary key index should be excluded from the index map")
		}
	}

	orders := schema.Tables["orders"]
	if orders == nil {
		t.Fatal("expected orders table")
	}
	if len(orders.PrimaryKey) != 2 || orders.PrimaryKey[0] != "id" || orders.PrimaryKey[1] != "user_id" {
		t.Errorf("expected orders primary key (id, user_id), got %v", orders.PrimaryKey)
	}
	if len(orders.Options) != 0 {
		t.Errorf("default table options should be empty, got %v", orders.Options)
	}

	// Cross-provider check: the same DDL parsed from a file must compare
	// clean against the live database.
	path := filepath.Join(t.TempDir(), "expected.sql")
	if err := os.WriteFile(path, []byte(integrationDDL), 0644); err != nil {
		t.Fatalf("Failed to write schema file: %v", err)
	}
	fileSchema, err := NewFileProvider(path).Snapshot(ctx)
	if err != nil {
		t.Fatalf("file Snapshot() failed: %v", err)
	}

	result := compare.Compare(fileSchema, schema)
	if len(result.Findings()) != 0 {
		t.Errorf("expected clean comparison between file and database, got %v", result.Findings())
	}
}
