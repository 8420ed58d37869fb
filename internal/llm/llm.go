// Package llm defines the chat completion port the pipeline generates
// intent checks, SQL, and answers through.
package llm

import (
	"context"
	"strings"
)

type Client interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// CleanSQL strips the markdown code fence models wrap generated SQL in.
func CleanSQL(value string) string {
	trimmed := strings.TrimSpace(value)
	if strings.HasPrefix(trimmed, "```") {
		trimmed = strings.TrimPrefix(trimmed, "```sql")
		trimmed = strings.TrimPrefix(trimmed, "```")
		trimmed = strings.TrimSuffix(trimmed, "```")
		return strings.TrimSpace(trimmed)
	}
	return trimmed
}
