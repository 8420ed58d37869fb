package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"github.com/askdb/askdb/internal/database"
	"github.com/askdb/askdb/internal/schema"
)

// Repository implements the database.Executor and schema.Discoverer ports
// against PostgreSQL. Every statement it issues is read-only; the connection
// should additionally use a read-only role as defense-in-depth, but the
// firewall upstream is the logical boundary.
type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) HealthCheck(ctx context.Context) error {
	if err := r.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}
	return nil
}

// ExecuteSelect runs a validated SELECT and returns all rows. Values arrive
// as driver-native types; []byte values are converted to string so they
// serialize readably.
func (r *Repository) ExecuteSelect(ctx context.Context, query string) (database.Result, error) {
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return database.Result{}, fmt.Errorf("execute select: %w", err)
	}
	defer func() { _ = rows.Close() }()

	columns, err := rows.Columns()
	if err != nil {
		return database.Result{}, fmt.Errorf("read result columns: %w", err)
	}

	result := database.Result{Columns: columns, Rows: make([][]any, 0)}
	for rows.Next() {
		values := make([]any, len(columns))
		pointers := make([]any, len(columns))
		for i := range values {
			pointers[i] = &values[i]
		}
		if err := rows.Scan(pointers...); err != nil {
			return database.Result{}, fmt.Errorf("scan result row: %w", err)
		}
		for i, value := range values {
			if b, ok := value.([]byte); ok {
				values[i] = string(b)
			}
		}
		result.Rows = append(result.Rows, values)
	}
	if err := rows.Err(); err != nil {
		return database.Result{}, fmt.Errorf("iterate result rows: %w", err)
	}
	return result, nil
}

func (r *Repository) ListTables(ctx context.Context, schemaName string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT table_name
FROM information_schema.tables
WHERE table_schema = $1
AND table_type = 'BASE TABLE'
ORDER BY table_name`, schemaName)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	defer func() { _ = rows.Close() }()

	names := make([]string, 0)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan table name: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate table names: %w", err)
	}
	return names, nil
}

func (r *Repository) GetColumns(ctx context.Context, tableName, schemaName string) ([]schema.ColumnInfo, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT
    c.column_name,
    c.data_type,
    c.is_nullable,
    c.column_default,
    c.udt_name,
    pg_catalog.col_description(format('%s.%s', c.table_schema, c.table_name)::regclass::oid, c.ordinal_position) AS column_description
FROM information_schema.columns c
WHERE c.table_schema = $1 AND c.table_name = $2
ORDER BY c.ordinal_position`, schemaName, tableName)
	if err != nil {
		return nil, fmt.Errorf("get columns: %w", err)
	}
	defer func() { _ = rows.Close() }()

	columns := make([]schema.ColumnInfo, 0)
	for rows.Next() {
		var (
			col         schema.ColumnInfo
			isNullable  string
			defaultVal  sql.NullString
			description sql.NullString
		)
		if err := rows.Scan(&col.Name, &col.DataType, &isNullable, &defaultVal, &col.UDTName, &description); err != nil {
			return nil, fmt.Errorf("scan column info: %w", err)
		}
		col.Nullable = isNullable == "YES"
		col.Default = defaultVal.String
		col.Description = description.String
		columns = append(columns, col)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate column info: %w", err)
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("table %s.%s not found", schemaName, tableName)
	}
	return columns, nil
}

func (r *Repository) GetEnumValues(ctx context.Context, typeName string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT enumlabel
FROM pg_enum
JOIN pg_type ON pg_enum.enumtypid = pg_type.oid
WHERE pg_type.typname = $1
ORDER BY enumsortorder`, typeName)
	if err != nil {
		return nil, fmt.Errorf("get enum values: %w", err)
	}
	defer func() { _ = rows.Close() }()

	values := make([]string, 0)
	for rows.Next() {
		var value string
		if err := rows.Scan(&value); err != nil {
			return nil, fmt.Errorf("scan enum value: %w", err)
		}
		values = append(values, value)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate enum values: %w", err)
	}
	return values, nil
}

// GetRelationships returns every foreign key edge between tables in the
// schema. The cache narrows the result to allowlisted tables.
func (r *Repository) GetRelationships(ctx context.Context, schemaName string) ([]schema.Relationship, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT
    tc.table_name AS source_table,
    kcu.column_name AS source_column,
    ccu.table_name AS target_table,
    ccu.column_name AS target_column
FROM information_schema.table_constraints AS tc
JOIN information_schema.key_column_usage AS kcu
    ON tc.constraint_name = kcu.constraint_name
JOIN information_schema.constraint_column_usage AS ccu
    ON ccu.constraint_name = tc.constraint_name
WHERE tc.constraint_type = 'FOREIGN KEY'
  AND tc.table_schema = $1`, schemaName)
	if err != nil {
		return nil, fmt.Errorf("get relationships: %w", err)
	}
	defer func() { _ = rows.Close() }()

	relationships := make([]schema.Relationship, 0)
	for rows.Next() {
		var rel schema.Relationship
		if err := rows.Scan(&rel.SourceTable, &rel.SourceColumn, &rel.TargetTable, &rel.TargetColumn); err != nil {
			return nil, fmt.Errorf("scan relationship: %w", err)
		}
		relationships = append(relationships, rel)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate relationships: %w", err)
	}
	return relationships, nil
}

// GetSampleRows fetches up to limit rows from the table. The identifiers are
// quoted rather than parameterized because PostgreSQL does not accept bind
// parameters in identifier position; callers only pass allowlisted names.
func (r *Repository) GetSampleRows(ctx context.Context, tableName, schemaName string, limit int) ([]map[string]any, error) {
	if limit <= 0 {
		limit = 3
	}
	query := "SELECT * FROM " + quoteIdent(schemaName) + "." + quoteIdent(tableName) +
		" LIMIT " + strconv.Itoa(limit)

	result, err := r.ExecuteSelect(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("get sample rows: %w", err)
	}
	return result.Maps(), nil
}

func quoteIdent(value string) string {
	return `"` + strings.ReplaceAll(value, `"`, `""`) + `"`
}
