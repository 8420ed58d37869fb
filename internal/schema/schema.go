// Package schema discovers and caches column, enum and sample-row metadata
// for the allowlisted tables that the SQL generator is permitted to see.
package schema

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"
)

// ColumnInfo is the raw per-column discovery record returned by the
// database port.
type ColumnInfo struct {
	Name        string
	DataType    string
	Nullable    bool
	Default     string
	UDTName     string
	Description string
}

// Relationship is one foreign key edge between two tables in the same
// schema. Table names are unqualified; the cache filters edges to
// allowlisted tables before publishing them.
type Relationship struct {
	SourceTable  string
	SourceColumn string
	TargetTable  string
	TargetColumn string
}

// Discoverer is the database-side port the cache rebuilds from. All calls
// are read-only by contract.
type Discoverer interface {
	ListTables(ctx context.Context, schemaName string) ([]string, error)
	GetColumns(ctx context.Context, tableName, schemaName string) ([]ColumnInfo, error)
	GetEnumValues(ctx context.Context, typeName string) ([]string, error)
	GetSampleRows(ctx context.Context, tableName, schemaName string, limit int) ([]map[string]any, error)
	GetRelationships(ctx context.Context, schemaName string) ([]Relationship, error)
}

// Column is the processed column metadata carried in a snapshot. Enum-typed
// columns have Type "ENUM" and their legal values resolved.
type Column struct {
	Type        string
	Nullable    bool
	Default     string
	Description string
	EnumValues  []string
}

// Table holds discovery results for one allowlisted table. A failed
// discovery marks only this table via Err; the snapshot as a whole still
// succeeds.
type Table struct {
	Columns    map[string]Column
	SampleRows []map[string]any
	Err        string
}

// Snapshot is an immutable point-in-time copy of discovered metadata, keyed
// by fully qualified "schema.table" name. Once published by the cache it is
// never mutated; rebuilds replace the whole snapshot.
type Snapshot struct {
	Tables        map[string]Table
	Relationships []Relationship
	CreatedAt     time.Time
}

// AllFailed reports whether every table in the snapshot carries a discovery
// error. The pipeline treats this as fatal; a partial failure only degrades
// the schema context.
func (s *Snapshot) AllFailed() bool {
	if len(s.Tables) == 0 {
		return false
	}
	for _, table := range s.Tables {
		if table.Err == "" {
			return false
		}
	}
	return true
}

// PromptContext renders the snapshot as the schema context block handed to
// the SQL generator. Tables and columns are emitted in sorted order so the
// same snapshot always produces the same prompt.
func (s *Snapshot) PromptContext() string {
	var b strings.Builder
	b.WriteString("=== DATABASE SCHEMA ===\n")

	tableNames := make([]string, 0, len(s.Tables))
	for name := range s.Tables {
		tableNames = append(tableNames, name)
	}
	sort.Strings(tableNames)

	for _, name := range tableNames {
		table := s.Tables[name]
		if table.Err != "" {
			continue
		}

		fmt.Fprintf(&b, "\nTable: %s\nColumns:\n", name)

		columnNames := make([]string, 0, len(table.Columns))
		for colName := range table.Columns {
			columnNames = append(columnNames, colName)
		}
		sort.Strings(columnNames)

		for _, colName := range columnNames {
			col := table.Columns[colName]
			if col.Type == "ENUM" {
				fmt.Fprintf(&b, "  - %s: ENUM (values: %s)\n", colName, strings.Join(col.EnumValues, ", "))
				continue
			}
			line := fmt.Sprintf("  - %s: %s", colName, col.Type)
			if !col.Nullable {
				line += " NOT NULL"
			}
			if col.Description != "" {
				line += " -- " + col.Description
			}
			b.WriteString(line + "\n")
		}

		if len(table.SampleRows) > 0 {
			samples := table.SampleRows
			if len(samples) > 2 {
				samples = samples[:2]
			}
			fmt.Fprintf(&b, "Sample data: %v\n", samples)
		}
	}

	if len(s.Relationships) > 0 {
		b.WriteString("\nRelationships:\n")
		for _, rel := range s.Relationships {
			fmt.Fprintf(&b, "  %s.%s -> %s.%s\n",
				rel.SourceTable, rel.SourceColumn, rel.TargetTable, rel.TargetColumn)
		}
	}

	return b.String()
}

// NormalizeTableName qualifies a bare table name with the default "public"
// schema. Matching against the allowlist is case-sensitive and exact.
func NormalizeTableName(name string) string {
	name = strings.TrimSpace(name)
	if !strings.Contains(name, ".") {
		return "public." + name
	}
	return name
}

func splitQualified(qualified string) (schemaName, tableName string) {
	parts := strings.SplitN(qualified, ".", 2)
	if len(parts) == 1 {
		return "public", parts[0]
	}
	return parts[0], parts[1]
}
