package security

import "regexp"

// Hardcoded firewall registries. These are compiled once at init and are
// deliberately not configurable: the whole point of the firewall is that a
// compromised or hallucinating SQL generator cannot widen them at runtime.

const (
	// MaxQueryLength caps the accepted SQL string size in characters.
	MaxQueryLength = 2000

	// MaxResultRows is the row cap appended by Sanitize when the accepted
	// query carries no LIMIT of its own.
	MaxResultRows = 200
)

// blockedKeywords is the canonical forbidden-token registry. Order matters:
// the validator reports the first matching token, so the slice is declared in
// a fixed order to keep verdicts deterministic.
var blockedKeywords = []string{
	// data modification
	"delete", "update", "insert", "merge", "upsert", "replace",
	// data definition
	"drop", "alter", "create", "truncate", "rename",
	// permissions
	"grant", "revoke", "deny",
	// transaction control
	"commit", "rollback", "savepoint",
	// administration
	"vacuum", "analyze", "reindex", "cluster",
	// execution
	"exec", "execute", "call", "prepare",
	// file and system operations
	"copy", "pg_dump", "pg_restore", "load",
	"pg_read_file", "pg_write_file", "lo_import", "lo_export",
	"into outfile", "into dumpfile", "load_file",
	// role management
	"createuser", "dropuser", "createrole", "droprole",
	"set role", "set session",
	// object creation
	"create function", "create procedure", "create trigger",
	"create extension", "create type",
	// timing and exfiltration helpers
	"benchmark", "sleep", "waitfor",
	// catalog probing
	"information_schema", "pg_catalog", "pg_shadow", "pg_authid",
}

// blockedPatterns catches injection shapes that keyword scanning alone
// misses. All patterns are matched case-insensitively; the first match wins.
//
// Stacked ";select" is intentionally absent: a second SELECT after a
// semicolon is the multiple-statement layer's job, and reporting it there
// keeps the verdict code stable for callers.
var blockedPatterns = []string{
	// comment injection
	`--`,
	`/\*`,
	`\*/`,
	// escape and char-code tricks
	`\\x[0-9a-fA-F]+`,
	`chr\s*\(`,
	`char\s*\(`,
	`ascii\s*\(`,
	// union-based injection
	`union\s+all\s+select`,
	`union\s+select`,
	// stacked mutating statements
	`;\s*insert`,
	`;\s*update`,
	`;\s*delete`,
	`;\s*drop`,
	`;\s*create`,
	// timing attacks
	`pg_sleep\s*\(`,
	`sleep\s*\(`,
	`waitfor\s+delay`,
	`benchmark\s*\(`,
	// boolean injection
	`'\s*or\s+'`,
	`'\s*and\s+'`,
	`1\s*=\s*1`,
	`'='`,
	// engine-specific command execution
	`xp_cmdshell`,
	`sp_executesql`,
	`dbms_`,
	`utl_`,
	// out-of-band exfiltration helpers
	`dns\s*\(`,
	`http\s*\(`,
	`load_file\s*\(`,
}

type keywordRule struct {
	token string
	re    *regexp.Regexp
}

type patternRule struct {
	source string
	re     *regexp.Regexp
}

var (
	keywordRules []keywordRule
	patternRules []patternRule

	singleQuoted = regexp.MustCompile(`'[^']*'`)
	doubleQuoted = regexp.MustCompile(`"[^"]*"`)

	// statementTail matches a semicolon followed by further statement text.
	statementTail = regexp.MustCompile(`;\s*\S`)

	limitToken = regexp.MustCompile(`(?i)\blimit\b`)
)

func init() {
	keywordRules = make([]keywordRule, 0, len(blockedKeywords))
	for _, token := range blockedKeywords {
		// Word-boundary matching so "selected" or "payload" never
		// false-positive on "select" or "load".
		keywordRules = append(keywordRules, keywordRule{
			token: token,
			re:    regexp.MustCompile(`\b` + regexp.QuoteMeta(token) + `\b`),
		})
	}

	patternRules = make([]patternRule, 0, len(blockedPatterns))
	for _, source := range blockedPatterns {
		patternRules = append(patternRules, patternRule{
			source: source,
			re:     regexp.MustCompile(`(?i)` + source),
		})
	}
}
