package security

import "testing"

func TestSanitizeAppendsRowCap(t *testing.T) {
	got := Sanitize("select count(*) from checklist")
	if got != "select count(*) from checklist LIMIT 200" {
		t.Fatalf("Sanitize() = %q", got)
	}
}

func TestSanitizeStripsTrailingSemicolon(t *testing.T) {
	got := Sanitize("select 1;")
	if got != "select 1 LIMIT 200" {
		t.Fatalf("Sanitize() = %q", got)
	}
}

func TestSanitizeIdempotentOnLimitedInput(t *testing.T) {
	got := Sanitize("select 1 limit 10")
	if got != "select 1 limit 10" {
		t.Fatalf("Sanitize() = %q", got)
	}
	if again := Sanitize(got); again != got {
		t.Fatalf("Sanitize(Sanitize()) = %q", again)
	}
}

func TestSanitizeRespectsUppercaseLimit(t *testing.T) {
	got := Sanitize("select * from users LIMIT 5;")
	if got != "select * from users LIMIT 5" {
		t.Fatalf("Sanitize() = %q", got)
	}
}

func TestSanitizeLimitTokenNotSubstring(t *testing.T) {
	// A column merely containing "limit" is not a LIMIT clause.
	got := Sanitize("select rate_limits from plans")
	if got != "select rate_limits from plans LIMIT 200" {
		t.Fatalf("Sanitize() = %q", got)
	}
}
