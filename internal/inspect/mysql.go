package inspect

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/go-sql-driver/mysql"
	"golang.org/x/sync/errgroup"

	"github.com/schemagate/schemagate/internal/logger"
	"github.com/schemagate/schemagate/internal/snapshot"
)

// MySQLInspector builds snapshots from a live MySQL database by reading
// information_schema.
type MySQLInspector struct {
	dsn    string
	dbName string
}

// NewMySQLInspector creates an inspector for the given driver DSN and
// database name.
func NewMySQLInspector(dsn, dbName string) *MySQLInspector {
	return &MySQLInspector{dsn: dsn, dbName: dbName}
}

// Snapshot reads the full schema structure, mirroring the Postgres
// inspector: tables first, then the detail queries concurrently.
func (m *MySQLInspector) Snapshot(ctx context.Context) (*snapshot.Schema, error) {
	log := logger.Get()
	log.Debug("inspecting mysql schema", "database", m.dbName)

	db, err := sql.Open("mysql", m.dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mysql: %w", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping mysql: %w", err)
	}

	schema := snapshot.NewSchema(m.dbName)
	if err := m.buildTables(ctx, db, schema); err != nil {
		return nil, fmt.Errorf("failed to read tables: %w", err)
	}

	var eg errgroup.Group
	eg.Go(func() error { return m.buildColumns(ctx, db, schema) })
	eg.Go(func() error { return m.buildIndexes(ctx, db, schema) })
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	log.Debug("mysql inspection complete", "database", m.dbName, "tables", len(schema.Tables))
	return schema, nil
}

func (m *MySQLInspector) buildTables(ctx context.Context, db *sql.DB, schema *snapshot.Schema) error {
	rows, err := db.QueryContext(ctx, `
		SELECT
			t.TABLE_NAME,
			t.ENGINE,
			t.TABLE_COLLATION,
			ccsa.CHARACTER_SET_NAME
		FROM information_schema.TABLES t
		LEFT JOIN information_schema.COLLATION_CHARACTER_SET_APPLICABILITY ccsa
			ON ccsa.COLLATION_NAME = t.TABLE_COLLATION
		WHERE t.TABLE_SCHEMA = ? AND t.TABLE_TYPE = 'BASE TABLE'
		ORDER BY t.TABLE_NAME
	`, m.dbName)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var name string
		var engine, collation, charset sql.NullString
		if err := rows.Scan(&name, &engine, &collation, &charset); err != nil {
			return err
		}

		table := snapshot.NewTable(name)
		if engine.Valid {
			table.Options["engine"] = engine.String
		}
		if charset.Valid {
			table.Options["charset"] = charset.String
		}
		if collation.Valid {
			table.Options["collation"] = collation.String
		}
		schema.Tables[name] = table
	}
	return rows.Err()
}

func (m *MySQLInspector) buildColumns(ctx context.Context, db *sql.DB, schema *snapshot.Schema) error {
	rows, err := db.QueryContext(ctx, `
		SELECT
			TABLE_NAME,
			COLUMN_NAME,
			DATA_TYPE,
			IS_NULLABLE,
			COLUMN_DEFAULT,
			CHARACTER_MAXIMUM_LENGTH,
			NUMERIC_PRECISION,
			NUMERIC_SCALE,
			COLLATION_NAME
		FROM information_schema.COLUMNS
		WHERE TABLE_SCHEMA = ?
		ORDER BY TABLE_NAME, ORDINAL_POSITION
	`, m.dbName)
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
			continue
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
		if maxLength.Valid && isMySQLCharacterType(dataType) {
			v := int(maxLength.Int64)
			column.MaxLength = &v
		}
		if precision.Valid && strings.EqualFold(dataType, "decimal") {
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

func (m *MySQLInspector) buildIndexes(ctx context.Context, db *sql.DB, schema *snapshot.Schema) error {
	// STATISTICS reports one row per index column; the PRIMARY index feeds
	// the primary-key list instead of the index map.
	rows, err := db.QueryContext(ctx, `
		SELECT
			TABLE_NAME,
			INDEX_NAME,
			NON_UNIQUE,
			INDEX_TYPE,
			COLUMN_NAME
		FROM information_schema.STATISTICS
		WHERE TABLE_SCHEMA = ?
		ORDER BY TABLE_NAME, INDEX_NAME, SEQ_IN_INDEX
	`, m.dbName)
	if err != nil {
		return fmt.Errorf("failed to read indexes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var tableName, indexName, indexType, columnName string
		var nonUnique int
		if err := rows.Scan(&tableName, &indexName, &nonUnique, &indexType, &columnName); err != nil {
			return fmt.Errorf("failed to scan index: %w", err)
		}

		table, ok := schema.Tables[tableName]
		if !ok {
			continue
		}

		if indexName == "PRIMARY" {
			table.PrimaryKey = append(table.PrimaryKey, columnName)
			continue
		}

		index, ok := table.Indexes[indexName]
		if !ok {
			index = &snapshot.Index{
				Name:     indexName,
				IsUnique: nonUnique == 0,
				Method:   strings.ToLower(indexType),
			}
			table.Indexes[indexName] = index
		}
		index.Columns = append(index.Columns, columnName)
	}
	return rows.Err()
}

func isMySQLCharacterType(dataType string) bool {
	switch strings.ToLower(dataType) {
	case "varchar", "char", "varbinary", "binary":
		return true
	}
	return false
}
