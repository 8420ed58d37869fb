package security

import (
	"strconv"
	"strings"
)

// Sanitize normalizes SQL that has already passed Validate: it strips one
// trailing semicolon and appends a LIMIT clause when the query has no limit
// token of its own. This is a textual append, not a rewrite; it relies on
// the multiple-statement layer having guaranteed a single top-level
// statement. Calling it on rejected input is a caller bug.
func Sanitize(accepted string) string {
	out := strings.TrimSpace(accepted)
	out = strings.TrimSuffix(out, ";")
	out = strings.TrimSpace(out)

	if !limitToken.MatchString(out) {
		out += " LIMIT " + strconv.Itoa(MaxResultRows)
	}
	return out
}
