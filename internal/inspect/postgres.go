package inspect

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	"golang.org/x/sync/errgroup"

	"github.com/schemagate/schemagate/internal/logger"
	"github.com/schemagate/schemagate/internal/snapshot"
)

// PostgresInspector builds snapshots from a live PostgreSQL database by
// reading information_schema and pg_catalog.
type PostgresInspector struct {
	dsn        string
	schemaName string
}

// NewPostgresInspector creates an inspector for the given DSN and
// namespace.
func NewPostgresInspector(dsn, schemaName string) *PostgresInspector {
	return &PostgresInspector{dsn: dsn, schemaName: schemaName}
}

// Snapshot reads the full schema structure. The table list is loaded
// first; the per-concern detail queries (columns, indexes, primary keys,
// options) then run concurrently, each covering the whole namespace in a
// single round trip.
func (p *PostgresInspector) Snapshot(ctx context.Context) (*snapshot.Schema, error) {
	log := logger.Get()
	log.Debug("inspecting postgres schema", "schema", p.schemaName)

	db, err := sql.Open("pgx", p.dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	schema := snapshot.NewSchema(p.schemaName)
	if err := p.buildTables(ctx, db, schema); err != nil {
		return nil, fmt.Errorf("failed to read tables: %w", err)
	}

	var eg errgroup.Group
	eg.Go(func() error { return p.buildColumns(ctx, db, schema) })
	eg.Go(func() error { return p.buildIndexes(ctx, db, schema) })
	eg.Go(func() error { return p.buildPrimaryKeys(ctx, db, schema) })
	eg.Go(func() error { return p.buildOptions(ctx, db, schema) })
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	log.Debug("postgres inspection complete", "schema", p.schemaName, "tables", len(schema.Tables))
	return schema, nil
}

func (p *PostgresInspector) buildTables(ctx context.Context, db *sql.DB, schema *snapshot.Schema) error {
	rows, err := db.QueryContext(ctx, `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = $1 AND table_type = 'BASE TABLE'
		ORDER BY table_name
	`, p.schemaName)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return err
		}
		schema.Tables[name] = snapshot.NewTable(name)
	}
	return rows.Err()
}

func (p *PostgresInspector) buildColumns(ctx context.Context, db *sql.DB, schema *snapshot.Schema) error {
	rows, err := db.QueryContext(ctx, `
		SELECT
			table_name,
			column_name,
			data_type,
			is_nullable,
			column_default,
			character_maximum_length,
			numeric_precision,
			numeric_scale,
			collation_name
		FROM information_schema.columns
		WHERE table_schema = $1
		ORDER BY table_name, ordinal_position
	`, p.schemaName)
	if err != nil {
		return fmt.Errorf("failed to read columns: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var tableName, columnName, dataType, nullable string
		var defaultValue, collation sql.NullString
		var maxLength, precision, scale sql.NullInt64
		if err := rows.Scan(&tableName, &columnName, &dataType, &nullable,
			&defaultValue, &maxLength, &precision, &scale, &collation); err != nil {
			return fmt.Errorf("failed to scan column: %w", err)
		}

		table, ok := schema.Tables[tableName]
		if !ok {
			continue // view or foreign-table column
		}

		column := &snapshot.Column{
			Name:       columnName,
			DataType:   dataType,
			IsNullable: nullable == "YES",
		}
		if defaultValue.Valid {
			v := defaultValue.String
			column.Default = &v
		}
		if collation.Valid {
			column.Collation = collation.String
		}
		// information_schema reports precision for every numeric type;
		// record it only where the DDL could have specified it, so
		// snapshots from catalogs and from DDL files line up.
		if maxLength.Valid && isCharacterType(dataType) {
			v := int(maxLength.Int64)
			column.MaxLength = &v
		}
		if precision.Valid && isDecimalType(dataType) {
			v := int(precision.Int64)
			column.Precision = &v
			if scale.Valid {
				s := int(scale.Int64)
				column.Scale = &s
			}
		}

		table.Columns[columnName] = column
	}
	return rows.Err()
}

func (p *PostgresInspector) buildIndexes(ctx context.Context, db *sql.DB, schema *snapshot.Schema) error {
	// The primary key index is excluded here; primary keys are compared
	// separately as an ordered column list.
	rows, err := db.QueryContext(ctx, `
		SELECT
			t.relname AS table_name,
			i.relname AS index_name,
			ix.indisunique,
			am.amname,
			a.attname,
			k.ord
		FROM pg_index ix
		JOIN pg_class t ON t.oid = ix.indrelid
		JOIN pg_namespace n ON n.oid = t.relnamespace
		JOIN pg_class i ON i.oid = ix.indexrelid
		JOIN pg_am am ON am.oid = i.relam
		JOIN LATERAL unnest(ix.indkey) WITH ORDINALITY AS k(attnum, ord) ON true
		JOIN pg_attribute a ON a.attrelid = t.oid AND a.attnum = k.attnum
		WHERE n.nspname = $1 AND t.relkind = 'r' AND NOT ix.indisprimary
		ORDER BY t.relname, i.relname, k.ord
	`, p.schemaName)
	if err != nil {
		return fmt.Errorf("failed to read indexes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var tableName, indexName, method, columnName string
		var isUnique bool
		var ord int
		if err := rows.Scan(&tableName, &indexName, &isUnique, &method, &columnName, &ord); err != nil {
			return fmt.Errorf("failed to scan index: %w", err)
		}

		table, ok := schema.Tables[tableName]
		if !ok {
			continue
		}

		index, ok := table.Indexes[indexName]
		if !ok {
			index = &snapshot.Index{
				Name:     indexName,
				IsUnique: isUnique,
				Method:   method,
			}
			table.Indexes[indexName] = index
		}
		index.Columns = append(index.Columns, columnName)
	}
	return rows.Err()
}

func (p *PostgresInspector) buildPrimaryKeys(ctx context.Context, db *sql.DB, schema *snapshot.Schema) error {
	rows, err := db.QueryContext(ctx, `
		SELECT
			t.relname AS table_name,
			a.attname,
			k.ord
		FROM pg_index ix
		JOIN pg_class t ON t.oid = ix.indrelid
		JOIN pg_namespace n ON n.oid = t.relnamespace
		JOIN LATERAL unnest(ix.indkey) WITH ORDINALITY AS k(attnum, ord) ON true
		JOIN pg_attribute a ON a.attrelid = t.oid AND a.attnum = k.attnum
		WHERE n.nspname = $1 AND t.relkind = 'r' AND ix.indisprimary
		ORDER BY t.relname, k.ord
	`, p.schemaName)
	if err != nil {
		return fmt.Errorf("failed to read primary keys: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var tableName, columnName string
		var ord int
		if err := rows.Scan(&tableName, &columnName, &ord); err != nil {
			return fmt.Errorf("failed to scan primary key: %w", err)
		}
		if table, ok := schema.Tables[tableName]; ok {
			table.PrimaryKey = append(table.PrimaryKey, columnName)
		}
	}
	return rows.Err()
}

func (p *PostgresInspector) buildOptions(ctx context.Context, db *sql.DB, schema *snapshot.Schema) error {
	// Only non-default settings are recorded, so an untouched table has an
	// empty option map on every provider.
	rows, err := db.QueryContext(ctx, `
		SELECT
			c.relname AS table_name,
			am.amname,
			COALESCE(ts.spcname, '') AS tablespace
		FROM pg_class c
		JOIN pg_namespace n ON n.oid = c.relnamespace
		LEFT JOIN pg_am am ON am.oid = c.relam
		LEFT JOIN pg_tablespace ts ON ts.oid = c.reltablespace
		WHERE n.nspname = $1 AND c.relkind = 'r'
	`, p.schemaName)
	if err != nil {
		return fmt.Errorf("failed to read table options: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var tableName, accessMethod, tablespace string
		if err := rows.Scan(&tableName, &accessMethod, &tablespace); err != nil {
			return fmt.Errorf("failed to scan table options: %w", err)
		}
		table, ok := schema.Tables[tableName]
		if !ok {
			continue
		}
		if accessMethod != "" && accessMethod != "heap" {
			table.Options["access_method"] = accessMethod
		}
		if tablespace != "" {
			table.Options["tablespace"] = tablespace
		}
	}
	return rows.Err()
}

func isCharacterType(dataType string) bool {
	switch dataType {
	case "character varying", "character", "varchar", "char", "bit", "bit varying":
		return true
	}
	return false
}

func isDecimalType(dataType string) bool {
	switch dataType {
	case "numeric", "decimal":
		return true
	}
	return false
}
