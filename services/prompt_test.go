package services

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"asistente/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func turn(role, content string) models.ConversationTurn {
	return models.ConversationTurn{Role: role, Content: content, Timestamp: time.Now()}
}

func TestComposeSectionOrder(t *testing.T) {
	c := NewComposer(10)
	meta := MetacognitivePrompt("Tech Support Argentina")
	system := SystemPrompt("Tech Support Argentina")

	fragments := []models.KnowledgeFragment{{Source: "faqs", Text: "P: ¿Horario?\nR: Atendemos de 9 a 18hs", Score: 2}}
	history := []models.ConversationTurn{
		turn(models.RoleUser, "hola"),
		turn(models.RoleAssistant, "¡Hola! ¿En qué puedo ayudarte?"),
	}

	prompt := c.Compose(meta, system, fragments, history, "¿cuál es el horario?")

	metaIdx := strings.Index(prompt, "proceso de pensamiento INTERNO")
	systemIdx := strings.Index(prompt, "Responde de manera amable y profesional")
	knowledgeIdx := strings.Index(prompt, knowledgeHeader)
	historyIdx := strings.Index(prompt, historyHeader)
	queryIdx := strings.Index(prompt, "Usuario: ¿cuál es el horario?")

	for _, idx := range []int{metaIdx, systemIdx, knowledgeIdx, historyIdx, queryIdx} {
		require.GreaterOrEqual(t, idx, 0)
	}
	assert.Less(t, metaIdx, systemIdx)
	assert.Less(t, systemIdx, knowledgeIdx)
	assert.Less(t, knowledgeIdx, historyIdx)
	assert.Less(t, historyIdx, queryIdx)
	assert.True(t, strings.HasSuffix(prompt, "Asistente:"))
}

func TestComposeContainsFragmentVerbatim(t *testing.T) {
	c := NewComposer(10)
	fragments := []models.KnowledgeFragment{{Source: "faqs", Text: "Atendemos de 9 a 18hs", Score: 1}}

	prompt := c.Compose(MetacognitivePrompt("X"), SystemPrompt("X"), fragments, nil, "¿horario?")

	assert.Contains(t, prompt, "Atendemos de 9 a 18hs")
}

func TestComposeOmitsKnowledgeSectionWhenEmpty(t *testing.T) {
	c := NewComposer(10)

	prompt := c.Compose(MetacognitivePrompt("X"), SystemPrompt("X"), nil, nil, "cuéntame un chiste")

	assert.NotContains(t, prompt, knowledgeHeader)
	assert.NotContains(t, prompt, historyHeader)
	assert.Contains(t, prompt, "Usuario: cuéntame un chiste")
	assert.True(t, strings.HasSuffix(prompt, "Asistente:"))
}

func TestComposeWindowsHistory(t *testing.T) {
	c := NewComposer(4)

	var history []models.ConversationTurn
	for i := 0; i < 9; i++ {
		role := models.RoleUser
		if i%2 == 1 {
			role = models.RoleAssistant
		}
		history = append(history, turn(role, fmt.Sprintf("mensaje %d", i)))
	}

	prompt := c.Compose(MetacognitivePrompt("X"), SystemPrompt("X"), nil, history, "pregunta actual")

	// Only the most recent 4 turns survive, in order.
	for i := 0; i < 5; i++ {
		assert.NotContains(t, prompt, fmt.Sprintf("mensaje %d\n", i))
	}
	last := -1
	for i := 5; i < 9; i++ {
		idx := strings.Index(prompt, fmt.Sprintf("mensaje %d", i))
		require.GreaterOrEqual(t, idx, 0)
		assert.Greater(t, idx, last)
		last = idx
	}
}

func TestComposeRoleLabels(t *testing.T) {
	c := NewComposer(10)
	history := []models.ConversationTurn{
		turn(models.RoleUser, "hola"),
		turn(models.RoleAssistant, "buenas"),
	}

	prompt := c.Compose(MetacognitivePrompt("X"), SystemPrompt("X"), nil, history, "sigo")

	assert.Contains(t, prompt, "Usuario: hola\n")
	assert.Contains(t, prompt, "Asistente: buenas\n")
}

func TestPromptTemplatesCarryOrganization(t *testing.T) {
	meta := MetacognitivePrompt("Acme SRL")
	system := SystemPrompt("Acme SRL")

	assert.Contains(t, meta, "Acme SRL")
	assert.Contains(t, meta, "NO MUESTRES")
	assert.Contains(t, system, "Acme SRL")
	assert.Contains(t, system, "NUNCA inventes servicios o productos")
}
