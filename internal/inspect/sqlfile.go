package inspect

import (
	"context"
	"fmt"
	"os"
	"strings"

	pg_query "github.com/pganalyze/pg_query_go/v6"

	"github.com/schemagate/schemagate/internal/logger"
	"github.com/schemagate/schemagate/internal/snapshot"
)

// FileProvider builds a snapshot from a DDL file instead of a live
// database, so the expected side of the gate can be a checked-in schema
// file. CREATE TABLE and CREATE [UNIQUE] INDEX statements contribute to
// the snapshot; all other statements are ignored.
type FileProvider struct {
	path string
}

// NewFileProvider creates a provider reading DDL from the given path.
func NewFileProvider(path string) *FileProvider {
	return &FileProvider{path: path}
}

// Snapshot parses the DDL file into a schema snapshot.
func (f *FileProvider) Snapshot(ctx context.Context) (*snapshot.Schema, error) {
	log := logger.Get()
	log.Debug("parsing schema file", "path", f.path)

	content, err := os.ReadFile(f.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema file: %w", err)
	}

	parsed, err := pg_query.Parse(string(content))
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", f.path, err)
	}

	schema := snapshot.NewSchema(f.path)
	for _, raw := range parsed.Stmts {
		if raw.Stmt == nil {
			continue
		}
		switch node := raw.Stmt.Node.(type) {
		case *pg_query.Node_CreateStmt:
			if err := f.applyCreateTable(schema, node.CreateStmt); err != nil {
				return nil, err
			}
		case *pg_query.Node_IndexStmt:
			f.applyCreateIndex(schema, node.IndexStmt)
		}
	}

	log.Debug("schema file parsed", "path", f.path, "tables", len(schema.Tables))
	return schema, nil
}

func (f *FileProvider) applyCreateTable(schema *snapshot.Schema, stmt *pg_query.CreateStmt) error {
	tableName := stmt.Relation.GetRelname()
	table := snapshot.NewTable(tableName)

	for _, element := range stmt.TableElts {
		switch elt := element.Node.(type) {
		case *pg_query.Node_ColumnDef:
			column, pkColumn := f.parseColumnDef(elt.ColumnDef)
			table.Columns[column.Name] = column
			if pkColumn {
				table.PrimaryKey = append(table.PrimaryKey, column.Name)
			}
		case *pg_query.Node_Constraint:
			cons := elt.Constraint
			if cons.Contype == pg_query.ConstrType_CONSTR_PRIMARY {
				for _, key := range cons.Keys {
					if str := key.GetString_(); str != nil {
						table.PrimaryKey = append(table.PrimaryKey, str.Sval)
					}
				}
			}
		}
	}

	// Primary-key columns are implicitly NOT NULL.
	for _, name := range table.PrimaryKey {
		if column, ok := table.Columns[name]; ok {
			column.IsNullable = false
		}
	}

	schema.Tables[tableName] = table
	return nil
}

func (f *FileProvider) parseColumnDef(colDef *pg_query.ColumnDef) (*snapshot.Column, bool) {
	column := &snapshot.Column{
		Name:       colDef.Colname,
		IsNullable: true, // nullable unless explicitly NOT NULL
	}
	isPrimaryKey := false

	if colDef.TypeName != nil {
		column.DataType = parseTypeName(colDef.TypeName)
		applyTypeModifiers(column, colDef.TypeName)
	}

	for _, constraint := range colDef.Constraints {
		cons := constraint.GetConstraint()
		if cons == nil {
			continue
		}
		switch cons.Contype {
		case pg_query.ConstrType_CONSTR_NOTNULL:
			column.IsNullable = false
		case pg_query.ConstrType_CONSTR_NULL:
			column.IsNullable = true
		case pg_query.ConstrType_CONSTR_DEFAULT:
			if cons.RawExpr != nil {
				if v := renderExpr(cons.RawExpr); v != "" {
					column.Default = &v
				}
			}
		case pg_query.ConstrType_CONSTR_PRIMARY:
			isPrimaryKey = true
			column.IsNullable = false
		}
	}

	if colDef.CollClause != nil {
		var parts []string
		for _, name := range colDef.CollClause.Collname {
			if str := name.GetString_(); str != nil {
				parts = append(parts, str.Sval)
			}
		}
		column.Collation = strings.Join(parts, ".")
	}

	return column, isPrimaryKey
}

func (f *FileProvider) applyCreateIndex(schema *snapshot.Schema, stmt *pg_query.IndexStmt) {
	tableName := stmt.Relation.GetRelname()
	table, ok := schema.Tables[tableName]
	if !ok || stmt.Idxname == "" {
		return
	}

	method := stmt.AccessMethod
	if method == "" {
		method = "btree"
	}
	index := &snapshot.Index{
		Name:     stmt.Idxname,
		IsUnique: stmt.Unique,
		Method:   method,
	}
	for _, param := range stmt.IndexParams {
		if elem := param.GetIndexElem(); elem != nil && elem.Name != "" {
			index.Columns = append(index.Columns, elem.Name)
		}
	}
	table.Indexes[stmt.Idxname] = index
}

// parseTypeName joins the qualified type name and maps internal names to
// the verbose forms information_schema reports, so file snapshots line up
// with catalog snapshots.
func parseTypeName(typeName *pg_query.TypeName) string {
	var parts []string
	for _, name := range typeName.Names {
		if str := name.GetString_(); str != nil && str.Sval != "pg_catalog" {
			parts = append(parts, str.Sval)
		}
	}
	dataType := normalizeTypeName(strings.Join(parts, "."))
	if len(typeName.ArrayBounds) > 0 {
		dataType += "[]"
	}
	return dataType
}

var typeNameMap = map[string]string{
	"int2":        "smallint",
	"int4":        "integer",
	"int":         "integer",
	"int8":        "bigint",
	"serial":      "integer",
	"bigserial":   "bigint",
	"smallserial": "smallint",
	"float4":      "real",
	"float8":      "double precision",
	"bool":        "boolean",
	"varchar":     "character varying",
	"bpchar":      "character",
	"char":        "character",
	"decimal":     "numeric",
	"timestamptz": "timestamp with time zone",
	"timestamp":   "timestamp without time zone",
	"timetz":      "time with time zone",
	"time":        "time without time zone",
}

func normalizeTypeName(name string) string {
	if mapped, ok := typeNameMap[name]; ok {
		return mapped
	}
	return name
}

func applyTypeModifiers(column *snapshot.Column, typeName *pg_query.TypeName) {
	var mods []int
	for _, mod := range typeName.Typmods {
		if aConst := mod.GetAConst(); aConst != nil {
			if intVal := aConst.GetIval(); intVal != nil {
				mods = append(mods, int(intVal.Ival))
			}
		}
	}
	if len(mods) == 0 {
		return
	}

	switch column.DataType {
	case "character varying", "character":
		length := mods[0]
		column.MaxLength = &length
	case "numeric":
		precision := mods[0]
		column.Precision = &precision
		if len(mods) > 1 {
			scale := mods[1]
			column.Scale = &scale
		}
	}
}

// renderExpr renders the simple default expressions that occur in table
// DDL: constants, NULL, function calls like now(), and casts.
func renderExpr(expr *pg_query.Node) string {
	switch node := expr.Node.(type) {
	case *pg_query.Node_AConst:
		return renderConst(node.AConst)
	case *pg_query.Node_FuncCall:
		var parts []string
		for _, name := range node.FuncCall.Funcname {
			if str := name.GetString_(); str != nil && str.Sval != "pg_catalog" {
				parts = append(parts, str.Sval)
			}
		}
		return strings.Join(parts, ".") + "()"
	case *pg_query.Node_TypeCast:
		if node.TypeCast.Arg != nil {
			return renderExpr(node.TypeCast.Arg)
		}
	case *pg_query.Node_SqlvalueFunction:
		switch node.SqlvalueFunction.Op {
		case pg_query.SQLValueFunctionOp_SVFOP_CURRENT_TIMESTAMP:
			return "CURRENT_TIMESTAMP"
		case pg_query.SQLValueFunctionOp_SVFOP_CURRENT_DATE:
			return "CURRENT_DATE"
		case pg_query.SQLValueFunctionOp_SVFOP_CURRENT_TIME:
			return "CURRENT_TIME"
		}
	}
	return ""
}

func renderConst(aConst *pg_query.A_Const) string {
	if aConst.Isnull {
		return "NULL"
	}
	switch val := aConst.Val.(type) {
	case *pg_query.A_Const_Sval:
		return fmt.Sprintf("'%s'", val.Sval.Sval)
	case *pg_query.A_Const_Ival:
		return fmt.Sprintf("%d", val.Ival.Ival)
	case *pg_query.A_Const_Fval:
		return val.Fval.Fval
	case *pg_query.A_Const_Boolval:
		if val.Boolval.Boolval {
			return "true"
		}
		return "false"
	}
	return ""
}
