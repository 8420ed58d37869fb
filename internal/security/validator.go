// Package security is the read-only query firewall: it decides whether an
// arbitrary, untrusted SQL string may ever reach the database. The input is
// assumed adversarial because it is produced by a non-deterministic
// generator; the rules here are hardcoded and run in a fixed order.
package security

import (
	"fmt"
	"strings"
)

// Verdict reason codes. BLOCKED_KEYWORD and BLOCKED_PATTERN verdicts carry
// the offending token or pattern source after the colon.
const (
	ReasonEmptyQuery         = "EMPTY_QUERY"
	ReasonLengthExceeded     = "LENGTH_EXCEEDED"
	ReasonNotSelect          = "NOT_SELECT"
	ReasonBlockedKeyword     = "BLOCKED_KEYWORD"
	ReasonBlockedPattern     = "BLOCKED_PATTERN"
	ReasonMultipleStatements = "MULTIPLE_STATEMENTS"
)

// Verdict is the structured result of one validation run. IsValid true
// implies both message fields are empty. BlockedReason is a stable
// machine-readable code; ErrorMessage is for humans and never echoes the
// input SQL back.
type Verdict struct {
	IsValid       bool
	ErrorMessage  string
	BlockedReason string
}

func reject(message, reason string) Verdict {
	return Verdict{IsValid: false, ErrorMessage: message, BlockedReason: reason}
}

// Validate runs the six firewall layers in order and returns the verdict of
// the first layer that rejects. It is deterministic, performs no I/O, and
// accepts any string: the input is not assumed to be valid SQL.
func Validate(raw string) Verdict {
	trimmed := strings.TrimSpace(raw)

	// Layer 1: emptiness.
	if trimmed == "" {
		return reject("empty query is not allowed", ReasonEmptyQuery)
	}

	// Layer 2: length cap.
	if len(trimmed) > MaxQueryLength {
		return reject(
			fmt.Sprintf("query exceeds the maximum length of %d characters", MaxQueryLength),
			ReasonLengthExceeded,
		)
	}

	lower := strings.ToLower(trimmed)

	// Layer 3: statement whitelist. Plain SELECT, or a CTE that resolves to
	// a SELECT somewhere in its body.
	isSelect := strings.HasPrefix(lower, "select")
	isCTE := strings.HasPrefix(lower, "with") && strings.Contains(lower, "select")
	if !isSelect && !isCTE {
		return reject("only SELECT statements are allowed in read-only mode", ReasonNotSelect)
	}

	// Layer 4: keyword blacklist, whole-word matches only.
	for _, rule := range keywordRules {
		if rule.re.MatchString(lower) {
			return reject(
				fmt.Sprintf("query contains forbidden keyword %q", rule.token),
				ReasonBlockedKeyword+":"+strings.ToUpper(rule.token),
			)
		}
	}

	// Layer 5: pattern blacklist.
	for _, rule := range patternRules {
		if rule.re.MatchString(lower) {
			return reject(
				"query contains a suspicious pattern",
				ReasonBlockedPattern+":"+rule.source,
			)
		}
	}

	// Layer 6: multiple-statement detection. String literals are stripped
	// first so a semicolon inside a quoted value does not false-positive.
	stripped := singleQuoted.ReplaceAllString(lower, "")
	stripped = doubleQuoted.ReplaceAllString(stripped, "")
	if strings.Count(stripped, ";") > 1 || statementTail.MatchString(stripped) {
		return reject("multiple statements are not allowed", ReasonMultipleStatements)
	}

	return Verdict{IsValid: true}
}
