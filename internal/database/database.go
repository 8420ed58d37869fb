// Package database defines the read-only database port the pipeline
// executes validated SQL through.
package database

import "context"

// Result holds the rows returned by one SELECT.
type Result struct {
	Columns []string
	Rows    [][]any
}

// Maps re-keys the rows by column name, the shape the answer formatter
// serializes into its prompt.
func (r Result) Maps() []map[string]any {
	out := make([]map[string]any, 0, len(r.Rows))
	for _, row := range r.Rows {
		m := make(map[string]any, len(r.Columns))
		for i, col := range r.Columns {
			if i < len(row) {
				m[col] = row[i]
			}
		}
		out = append(out, m)
	}
	return out
}

// Executor runs SELECT statements that have already passed the firewall.
// Implementations must not be handed unvalidated SQL.
type Executor interface {
	ExecuteSelect(ctx context.Context, sql string) (Result, error)
}
