package pipeline

import (
	"encoding/json"
	"fmt"
	"strings"
)

const maxAnswerRows = 50

const hinglishIntentGuide = `
NOTE: The user's question is in HINGLISH (Hindi + English mix).
Common Hinglish patterns to understand:
- "dikhao" / "dikha do" = show
- "batao" = tell/show
- "kitne" / "kitna" = how many/much
- "sabhi" / "sab" / "saare" = all
- "wale" / "wali" = those who/which
- "karo" = do
- "hai" / "hain" = is/are
- "nahi" / "nahin" = not/no
- "complete nahi hua" = not completed
- "pending wale" = pending ones
- "department ke" = of department
`

const hinglishSQLGuide = `
=== HINGLISH QUERY TRANSLATION GUIDE ===
The user is asking in Hinglish. Translate these common patterns:
- "sabhi users dikhao" = SELECT * FROM users
- "kitne tasks hain" = SELECT COUNT(*) FROM checklist
- "pending wale tasks" = rows that are not completed
- "active users batao" = WHERE status = 'active'
- "task count department wise" = GROUP BY department
- "top 5 departments" = ORDER BY ... LIMIT 5
- "recent ..." = ORDER BY created_at DESC
- "jinka task complete nahi hua" = tasks not completed
`

const hinglishAnswerGuide = `
=== CRITICAL: RESPOND IN HINGLISH ===
The user asked in Hinglish (Hindi + English mix), so you MUST respond in Hinglish.
1. Mix Hindi words (in Roman script) with English naturally
2. Use phrases like "Yeh raha data...", "Total X mile", "Koi data nahi mila"
3. Keep technical terms in English (department, task, user, status)
4. Be friendly and conversational in Hinglish tone
`

const englishAnswerGuide = `
=== RESPOND IN ENGLISH ===
The user asked in English, so respond in clear, professional English.
`

func buildIntentPrompt(question, schemaContext string, language Language) string {
	var b strings.Builder
	b.WriteString("Analyze the user's question and determine:\n")
	b.WriteString("1. Which tables are relevant\n")
	b.WriteString("2. Whether JOINs are needed\n")
	b.WriteString("3. What type of aggregation/filtering is required\n\n")
	b.WriteString("CRITICAL RULE: This is READ-ONLY. No modifications allowed.\n")
	if language == LanguageHinglish {
		b.WriteString(hinglishIntentGuide)
	}
	b.WriteString("\nAvailable Tables:\n")
	b.WriteString(schemaContext)
	b.WriteString("\n\nUser Question: ")
	b.WriteString(question)
	b.WriteString("\n\nRespond in JSON format:\n")
	b.WriteString(`{"tables": ["table1", "table2"], "needs_join": true/false, "query_type": "simple/aggregate/join", "notes": "brief analysis"}`)
	return b.String()
}

func buildSQLPrompt(question, schemaContext, intent string, language Language) string {
	var b strings.Builder
	b.WriteString("You are a PostgreSQL SQL generator for a READ-ONLY chatbot.\n")
	if language == LanguageHinglish {
		b.WriteString(hinglishSQLGuide)
	}
	b.WriteString(`
=== CRITICAL SAFETY RULES (NEVER BREAK) ===
1. ONLY generate SELECT queries
2. NEVER use: DELETE, UPDATE, TRUNCATE, DROP, INSERT, ALTER, CREATE, GRANT, REVOKE
3. If the user asks to modify data, return: SELECT 'READ_ONLY_MODE: Cannot modify data' as message

=== SCOPE RULES ===
- Use ONLY the tables listed in the schema below
- Use JOINs when needed between tables
- Always qualify columns with table names in JOINs
- For ENUM columns, use ONLY the exact values listed in the schema

=== OUTPUT RULES ===
- Return ONLY ONE SQL query (single statement)
- NEVER return multiple SQL statements separated by semicolons
- No explanations, no markdown
- Use proper PostgreSQL syntax

=== SEARCH / LIKE QUERIES ===
For name searches, use ILIKE for case-insensitive matching:
WHERE user_name ILIKE '%term%'
`)
	b.WriteString("\nDatabase Schema:\n")
	b.WriteString(schemaContext)
	b.WriteString("\n\nIntent Analysis:\n")
	b.WriteString(intent)
	b.WriteString("\n\nUser Question:\n")
	b.WriteString(question)
	b.WriteString("\n\nReturn ONLY ONE SQL statement:")
	return b.String()
}

func buildAnswerPrompt(question string, rows []map[string]any, language Language) string {
	display := rows
	truncated := false
	if len(rows) > maxAnswerRows {
		display = rows[:maxAnswerRows]
		truncated = true
	}
	encoded, err := json.MarshalIndent(display, "", "  ")
	if err != nil {
		encoded = []byte(fmt.Sprintf("%v", display))
	}

	var b strings.Builder
	b.WriteString("You are a friendly database assistant. Convert database results into a clear, natural language response.\n")
	if language == LanguageHinglish {
		b.WriteString(hinglishAnswerGuide)
	} else {
		b.WriteString(englishAnswerGuide)
	}
	b.WriteString(`
=== FORMATTING RULES ===
1. ALWAYS respond in natural, conversational language
2. INCLUDE the actual data from the results in your answer
3. Use bullet points or numbered lists for multiple items
4. Summarize if there are many results
5. Be concise but complete
`)
	b.WriteString("\nUser Question: ")
	b.WriteString(question)
	fmt.Fprintf(&b, "\n\nDatabase Result (%d rows", len(rows))
	if truncated {
		fmt.Fprintf(&b, ", showing first %d", maxAnswerRows)
	}
	b.WriteString("):\n")
	b.Write(encoded)
	b.WriteString("\n\nProvide a natural, friendly response with the actual data formatted nicely.")
	return b.String()
}

func emptyResultMessage(language Language) string {
	if language == LanguageHinglish {
		return "Koi data nahi mila aapki query ke liye. Search mein zero results aaye."
	}
	return "No data found for your query. The search returned zero results."
}

func errorMessage(language Language, detail string) string {
	if language == LanguageHinglish {
		return "Error ho gaya: " + detail
	}
	return "Error: " + detail
}

func truncationNote(language Language, total int) string {
	if language == LanguageHinglish {
		return fmt.Sprintf("\n\nTotal %d results mein se %d dikha rahe hain. Zyada specific data ke liye query refine karein.", total, maxAnswerRows)
	}
	return fmt.Sprintf("\n\nShowing %d of %d total results. Refine your query for more specific data.", maxAnswerRows, total)
}
