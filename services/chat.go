package services

import (
	"context"
	"strings"
	"time"

	"asistente/models"

	log "github.com/sirupsen/logrus"
)

// defaultOrganization is used in prompts while no knowledge base is loaded.
const defaultOrganization = "la empresa"

// ChatService runs the full pipeline for one query: session lookup,
// retrieval, prompt composition, model call, history append.
type ChatService struct {
	knowledge *KnowledgeStore
	sessions  *SessionStore
	retriever *Retriever
	composer  *Composer
	llm       *LLMService

	// Retry policy for the gateway call. Attempts <= 1 means single-shot.
	RetryAttempts int
	RetryBackoff  time.Duration
}

// ChatResult is a successful reply plus the session it belongs to.
type ChatResult struct {
	SessionID string
	Reply     string
}

// NewChatService wires the injected stores and services together.
func NewChatService(knowledge *KnowledgeStore, sessions *SessionStore, retriever *Retriever, composer *Composer, llm *LLMService) *ChatService {
	return &ChatService{
		knowledge:     knowledge,
		sessions:      sessions,
		retriever:     retriever,
		composer:      composer,
		llm:           llm,
		RetryAttempts: 1,
		RetryBackoff:  time.Second,
	}
}

// HandleChat processes one user message end to end. On gateway failure the
// user turn stays in the session history and no assistant turn is appended,
// so a retry reuses the same state; the error propagates instead of a
// fabricated reply.
func (c *ChatService) HandleChat(ctx context.Context, sessionID, message string, useKnowledgeBase bool) (*ChatResult, error) {
	message = strings.TrimSpace(message)

	sess := c.sessions.GetOrCreate(sessionID)

	// History is sampled before the current message is appended; the query
	// closes the prompt on its own.
	history := c.sessions.GetHistory(sess.ID)

	if err := c.sessions.Append(sess.ID, models.ConversationTurn{
		Role:      models.RoleUser,
		Content:   message,
		Timestamp: time.Now(),
	}); err != nil {
		return &ChatResult{SessionID: sess.ID}, err
	}

	var fragments []models.KnowledgeFragment
	if useKnowledgeBase {
		fragments = c.retriever.Retrieve(message, c.knowledge.GetAll())
	}

	org := c.organizationName()
	prompt := c.composer.Compose(
		MetacognitivePrompt(org),
		SystemPrompt(org),
		fragments,
		history,
		message,
	)

	reply, err := c.llm.GenerateWithRetry(ctx, prompt, c.RetryAttempts, c.RetryBackoff)
	if err != nil {
		log.WithField("session_id", sess.ID).Errorf("Model call failed: %v", err)
		// The session id still travels back so the caller can retry
		// against the same (user-turn-preserving) history.
		return &ChatResult{SessionID: sess.ID}, err
	}

	if err := c.sessions.Append(sess.ID, models.ConversationTurn{
		Role:      models.RoleAssistant,
		Content:   reply,
		Timestamp: time.Now(),
	}); err != nil {
		return nil, err
	}

	log.WithField("session_id", sess.ID).Debugf("Reply generated with %d fragments", len(fragments))

	return &ChatResult{SessionID: sess.ID, Reply: reply}, nil
}

// HandleClear empties the session's history. Clearing an unknown session is
// a no-op and reports false.
func (c *ChatService) HandleClear(sessionID string) bool {
	return c.sessions.Clear(sessionID)
}

// HandleHistory returns the session's full history; empty for unknown ids.
func (c *ChatService) HandleHistory(sessionID string) []models.ConversationTurn {
	return c.sessions.GetHistory(sessionID)
}

// ModelName returns the configured model identifier.
func (c *ChatService) ModelName() string {
	return c.llm.GetModel()
}

// GetStatus returns the status of the chat service and its collaborators
func (c *ChatService) GetStatus() map[string]interface{} {
	return map[string]interface{}{
		"knowledge": c.knowledge.GetStatus(),
		"model":     c.llm.GetStatus(),
		"sessions":  c.sessions.Count(),
		"retrieval": map[string]interface{}{
			"max_results": c.retriever.MaxResults,
			"min_score":   c.retriever.MinScore,
		},
		"history_window": c.composer.HistoryWindow,
	}
}

func (c *ChatService) organizationName() string {
	if kb := c.knowledge.GetAll(); kb != nil && kb.Organization.Name != "" {
		return kb.Organization.Name
	}
	return defaultOrganization
}
