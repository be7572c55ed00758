package services

import (
	"fmt"
	"strings"

	"asistente/models"
)

// metacognitiveTemplate asks the model for an internal reasoning pass that
// must never appear in the visible answer. %s is the organization name.
const metacognitiveTemplate = `Eres un asistente virtual para %s. Utiliza el siguiente proceso de pensamiento INTERNO para generar respuestas precisas, pero NO MUESTRES este proceso al usuario:

1. Interpreta exactamente qué está pidiendo el usuario.
2. Verifica si tienes toda la información necesaria en la base de conocimientos proporcionada.
3. Identifica posibles ambigüedades o riesgos de proporcionar información incorrecta.
4. Planifica una respuesta concisa, precisa y útil.
5. Revisa mentalmente tu respuesta antes de proporcionarla.

IMPORTANTE: Este proceso es SOLO PARA TU USO INTERNO. NO muestres estos pasos ni tu razonamiento en la respuesta final. La respuesta debe ser directa, profesional y basada en la información proporcionada, sin mencionar este proceso metacognitivo.`

// systemTemplate sets the assistant's role, honesty policy and
// do-not-invent policy. %s is the organization name (twice).
const systemTemplate = `Eres un asistente virtual para %s. Responde de manera amable y profesional. Usa la información proporcionada para responder preguntas sobre la empresa y sus servicios.

IMPORTANTE: Mantén SIEMPRE tu rol como asistente. NUNCA generes texto como si fueras el usuario. NUNCA uses formatos como 'Usuario: [texto]' o similares. NUNCA simules una conversación entre múltiples participantes. Responde ÚNICAMENTE como el asistente de %s.

Cuando NO tengas información específica sobre un tema en la base de conocimientos:
1. Sé honesto y directo, indicando que no tienes información específica sobre ese tema.
2. NUNCA inventes servicios o productos que no estén explícitamente mencionados en la base de conocimientos.
3. Puedes sugerir contactar a la empresa para consultar sobre servicios que no están en tu base de conocimientos, incluyendo un email o teléfono de la información de contacto disponible.
4. NUNCA repitas la información de contacto en cada mensaje.
5. Mantén una conversación natural y fluida, y responde de manera concisa y profesional.`

const knowledgeHeader = "Información de la base de conocimientos:"
const historyHeader = "Historial de la conversación:"

// MetacognitivePrompt renders the internal reasoning instructions for the
// given organization.
func MetacognitivePrompt(organization string) string {
	return fmt.Sprintf(metacognitiveTemplate, organization)
}

// SystemPrompt renders the behavioral instructions for the given organization.
func SystemPrompt(organization string) string {
	return fmt.Sprintf(systemTemplate, organization, organization)
}

// Composer assembles the full model input. The section order is fixed:
// metacognitive block, system instructions, retrieved knowledge (omitted
// entirely when empty), windowed conversation history, current query.
type Composer struct {
	HistoryWindow int
}

// NewComposer creates a composer. historyWindow <= 0 defaults to 10 turns.
func NewComposer(historyWindow int) *Composer {
	if historyWindow <= 0 {
		historyWindow = 10
	}
	return &Composer{HistoryWindow: historyWindow}
}

// Compose builds the prompt text. The result is an opaque blob; the composer
// knows nothing about how the model interprets it.
func (c *Composer) Compose(metacognitive, system string, fragments []models.KnowledgeFragment, history []models.ConversationTurn, query string) string {
	var b strings.Builder

	b.WriteString(metacognitive)
	b.WriteString("\n\n")
	b.WriteString(system)
	b.WriteString("\n\n")

	// No dangling header when nothing was retrieved.
	if len(fragments) > 0 {
		b.WriteString(knowledgeHeader)
		b.WriteString("\n")
		for i, f := range fragments {
			if i > 0 {
				b.WriteString("\n")
			}
			b.WriteString(f.Text)
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	windowed := windowHistory(history, c.HistoryWindow)
	if len(windowed) > 0 {
		b.WriteString(historyHeader)
		b.WriteString("\n")
		for _, turn := range windowed {
			b.WriteString(roleLabel(turn.Role))
			b.WriteString(": ")
			b.WriteString(turn.Content)
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	b.WriteString("Usuario: ")
	b.WriteString(query)
	b.WriteString("\nAsistente:")

	return b.String()
}

// windowHistory returns the most recent n turns, oldest dropped first. The
// session store keeps the full history; only the rendered suffix is bounded.
func windowHistory(history []models.ConversationTurn, n int) []models.ConversationTurn {
	if len(history) <= n {
		return history
	}
	return history[len(history)-n:]
}

func roleLabel(role string) string {
	if role == models.RoleAssistant {
		return "Asistente"
	}
	return "Usuario"
}
