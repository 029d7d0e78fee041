package core

import (
	"strings"

	"medassist/pkg"
)

// ComposePrompt builds the single request sent to the model: persona,
// records (or a notice that there are none), prior turns in order, the new
// query and the reply language.  History is rendered from canonical content
// so the model sees one consistent language whatever is on screen.
func ComposePrompt(contextBlock string, history []pkg.Turn, query, language string) string {
	var b strings.Builder

	b.WriteString(PersonaPrompt)
	b.WriteString("\n\n")

	if strings.TrimSpace(contextBlock) == "" {
		b.WriteString(noRecordsNotice)
	} else {
		b.WriteString(recordsStart)
		b.WriteString("\n")
		b.WriteString(contextBlock)
		b.WriteString("\n")
		b.WriteString(recordsEnd)
	}
	b.WriteString("\n\n")

	if len(history) > 0 {
		b.WriteString("CONVERSATION HISTORY:\n")
		for _, t := range history {
			b.WriteString(strings.ToUpper(string(t.Role)))
			b.WriteString(": ")
			b.WriteString(t.CanonicalContent)
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	b.WriteString("USER QUERY: ")
	b.WriteString(query)
	b.WriteString("\n\n")
	b.WriteString("Respond in ")
	b.WriteString(language)
	b.WriteString(".")
	return b.String()
}
