package controllers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"asistente/models"
	"asistente/services"
)

// ChatHandler processes a chat message through the full pipeline
func (c *Controller) ChatHandler(w http.ResponseWriter, r *http.Request) {
	var req models.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		c.writeJSON(w, http.StatusBadRequest, models.ChatResponse{
			Status:    models.StatusError,
			Error:     "Formato JSON inválido",
			Timestamp: time.Now(),
		})
		return
	}

	if strings.TrimSpace(req.Message) == "" {
		c.writeJSON(w, http.StatusBadRequest, models.ChatResponse{
			Status:    models.StatusError,
			Error:     "Mensaje vacío",
			Timestamp: time.Now(),
		})
		return
	}

	useKB := true
	if req.UseKnowledgeBase != nil {
		useKB = *req.UseKnowledgeBase
	}

	result, err := c.chat.HandleChat(r.Context(), req.SessionID, req.Message, useKB)
	if err != nil {
		// The user's turn is already in the history; the caller gets a
		// structured error, never a fabricated reply.
		statusCode := http.StatusBadGateway
		message := "No se pudo obtener una respuesta del asistente"
		if errors.Is(err, services.ErrModelTimeout) {
			statusCode = http.StatusGatewayTimeout
			message = "El asistente tardó demasiado en responder"
		}
		sessionID := ""
		if result != nil {
			sessionID = result.SessionID
		}
		c.writeJSON(w, statusCode, models.ChatResponse{
			Status:    models.StatusError,
			Error:     message,
			SessionID: sessionID,
			Timestamp: time.Now(),
		})
		return
	}

	c.writeJSON(w, http.StatusOK, models.ChatResponse{
		Response:  result.Reply,
		SessionID: result.SessionID,
		Status:    models.StatusSuccess,
		Timestamp: time.Now(),
	})
}

// HistoryHandler returns the full conversation history of a session
func (c *Controller) HistoryHandler(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" {
		c.writeJSON(w, http.StatusBadRequest, models.ChatResponse{
			Status:    models.StatusError,
			Error:     "Falta el parámetro session_id",
			Timestamp: time.Now(),
		})
		return
	}

	history := c.chat.HandleHistory(sessionID)
	if history == nil {
		history = []models.ConversationTurn{}
	}

	c.writeJSON(w, http.StatusOK, models.HistoryResponse{
		SessionID: sessionID,
		History:   history,
	})
}

// ClearHandler empties a session's history. Idempotent: clearing an unknown
// or already-empty session succeeds.
func (c *Controller) ClearHandler(w http.ResponseWriter, r *http.Request) {
	var req models.ClearRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		c.writeJSON(w, http.StatusBadRequest, models.ChatResponse{
			Status:    models.StatusError,
			Error:     "Formato JSON inválido",
			Timestamp: time.Now(),
		})
		return
	}

	if req.SessionID == "" {
		c.writeJSON(w, http.StatusBadRequest, models.ChatResponse{
			Status:    models.StatusError,
			Error:     "Falta session_id",
			Timestamp: time.Now(),
		})
		return
	}

	c.chat.HandleClear(req.SessionID)
	c.writeJSON(w, http.StatusOK, models.ChatResponse{
		Status:    models.StatusSuccess,
		SessionID: req.SessionID,
		Timestamp: time.Now(),
	})
}
