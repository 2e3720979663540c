package usecase

import (
	"fmt"
	"strings"

	"github.com/jmattila/document-intelligence/internal/core/domain"
)

// personaProfile fixes the system instructions and sampling temperature for
// one response style. Persona choice never changes retrieval.
type personaProfile struct {
	system      string
	temperature float64
}

var personaProfiles = map[domain.Persona]personaProfile{
	domain.PersonaPlain: {
		system: "You are a helpful assistant. Answer using only the provided document excerpts. " +
			"If the excerpts do not contain the answer, say so plainly instead of guessing.",
		temperature: 0.1,
	},
	domain.PersonaAnalytical: {
		system: "You are a data analyst. Ground every claim in the provided document excerpts, " +
			"cite concrete figures, and point out trends, anomalies and comparisons where the data supports them.",
		temperature: 0.2,
	},
	domain.PersonaCreative: {
		system: "You are an engaging writer. Answer based on the provided document excerpts, " +
			"but present the findings as a vivid, readable story. Never invent facts beyond the excerpts.",
		temperature: 0.7,
	},
	domain.PersonaExecutive: {
		system: "You are briefing an executive. Answer from the provided document excerpts in at most " +
			"five short sentences, leading with the conclusion and the key numbers.",
		temperature: 0.3,
	},
}

// resolvePersona falls back to the plain persona for unknown values.
func resolvePersona(p domain.Persona) personaProfile {
	if profile, ok := personaProfiles[p]; ok {
		return profile
	}
	return personaProfiles[domain.PersonaPlain]
}

const contextSeparator = "\n\n---\n\n"

// buildContext labels each chunk with its source type and filename, then
// joins the chunks in ranking order.
func buildContext(chunks []domain.ScoredChunk) string {
	parts := make([]string, 0, len(chunks))
	for _, chunk := range chunks {
		parts = append(parts, fmt.Sprintf("[%s] %s:\n%s", chunk.FileType, chunk.Filename, chunk.Text))
	}
	return strings.Join(parts, contextSeparator)
}

func buildPrompt(question, contextText string) string {
	var b strings.Builder
	b.WriteString("Use the following document excerpts to answer the question.\n\n")
	b.WriteString("DOCUMENT EXCERPTS:\n")
	b.WriteString(contextText)
	b.WriteString("\n\nQUESTION: ")
	b.WriteString(question)
	b.WriteString("\n\nANSWER:")
	return b.String()
}
