package pipeline

import (
	"regexp"
	"strings"
	"unicode"
)

type Language string

const (
	LanguageEnglish  Language = "english"
	LanguageHinglish Language = "hinglish"
)

// Romanized Hindi words and phrase shapes that mark a question as Hinglish.
var hinglishIndicators = compilePatterns([]string{
	`\bkitne\b`, `\bkitna\b`, `\bkitni\b`, `\bkya\b`, `\bkaise\b`,
	`\bkaun\b`, `\bkahan\b`, `\bkab\b`, `\bkyun\b`, `\bkyu\b`,
	`\bdikhao\b`, `\bdikha\b`, `\bbatao\b`, `\bbata\b`,
	`\bdedo\b`, `\bkaro\b`, `\bhain\b`, `\bhai\b`,
	`\btha\b`, `\bthi\b`, `\bhoga\b`,
	`\bsabhi\b`, `\bsab\b`, `\bsaare\b`, `\bpura\b`, `\bpuri\b`,
	`\buser\b.*\bko\b`, `\btask\b.*\bka\b`, `\blist\b.*\bdo\b`,
	`\bwale\b`, `\bwali\b`, `\bwala\b`, `\bmein\b`,
	`\bka\b`, `\bki\b`, `\bke\b`, `\bko\b`,
	`\baur\b`, `\bnahi\b`, `\bnahin\b`, `\bhaan\b`, `\baccha\b`,
	`\btheek\b`, `\bthik\b`, `\bzaroor\b`, `\bjaroor\b`,
	`\bpehle\b`, `\babhi\b`, `\baaj\b`,
	`\bparso\b`, `\bhafta\b`, `\bmahina\b`, `\bsaal\b`,
	`\bzyada\b`, `\bjyada\b`, `\bbahut\b`, `\bthoda\b`,
	`\bpending\b.*\bwale\b`, `\bcomplete\b.*\bhua\b`,
	`\bdepartment\b.*\bke\b`, `\bactive\b.*\bwale\b`,
	`\bkonsa\b`, `\bkonsi\b`, `\bjinke\b`, `\bjinka\b`, `\bjinki\b`,
	`\bunke\b`, `\bunka\b`, `\bunki\b`, `\biske\b`, `\biski\b`,
	`\biska\b`, `\buska\b`, `\buski\b`, `\buske\b`,
	`\btask\b.*\bpure\b`, `\btask\b.*\bnahi\b`, `\boverdue\b.*\bwale\b`,
	`\blate\b.*\bsubmit\b`, `\bdelay\b.*\bhua\b`,
})

func compilePatterns(sources []string) []*regexp.Regexp {
	compiled := make([]*regexp.Regexp, 0, len(sources))
	for _, src := range sources {
		compiled = append(compiled, regexp.MustCompile(src))
	}
	return compiled
}

// DetectLanguage classifies a question as Hinglish when two or more
// indicators match, or when it contains Devanagari script. Pure Hindi is
// answered in Hinglish too.
func DetectLanguage(text string) Language {
	lower := strings.ToLower(text)

	hits := 0
	for _, pattern := range hinglishIndicators {
		if pattern.MatchString(lower) {
			hits++
			if hits >= 2 {
				return LanguageHinglish
			}
		}
	}

	for _, r := range text {
		if unicode.Is(unicode.Devanagari, r) {
			return LanguageHinglish
		}
	}
	return LanguageEnglish
}
