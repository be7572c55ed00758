package controllers

import (
	"encoding/json"
	"html/template"
	"net/http"
	"path/filepath"
	"time"

	"asistente/services"

	log "github.com/sirupsen/logrus"
)

// Controller handles the HTTP boundary around the chat core
type Controller struct {
	chat      *services.ChatService
	discord   *services.DiscordService
	startTime time.Time
}

// NewController creates a new controller instance
func NewController(chat *services.ChatService, discord *services.DiscordService) *Controller {
	return &Controller{
		chat:      chat,
		discord:   discord,
		startTime: time.Now(),
	}
}

// StartServices starts the background services (Discord bot)
func (c *Controller) StartServices(enableDiscord bool) error {
	if enableDiscord && c.discord.IsEnabled() {
		if err := c.discord.Start(); err != nil {
			log.Errorf("Failed to start Discord service: %v", err)
			return err
		}
	} else if enableDiscord {
		log.Warn("Discord service requested but not configured (missing bot token)")
	}
	return nil
}

// StopServices stops the background services
func (c *Controller) StopServices() error {
	if c.discord != nil {
		return c.discord.Stop()
	}
	return nil
}

// writeJSON writes a JSON response with the given status code
func (c *Controller) writeJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Errorf("Error encoding response: %v", err)
	}
}

// renderTemplate renders an HTML template with data
func (c *Controller) renderTemplate(w http.ResponseWriter, templatePath string, data interface{}) {
	absPath, err := filepath.Abs(templatePath)
	if err != nil {
		log.Errorf("Error resolving template %s: %v", templatePath, err)
		http.Error(w, "Template error", http.StatusInternalServerError)
		return
	}

	tmpl, err := template.ParseFiles(absPath)
	if err != nil {
		log.Errorf("Error parsing template %s: %v", templatePath, err)
		http.Error(w, "Template parsing error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if err := tmpl.Execute(w, data); err != nil {
		log.Errorf("Error executing template %s: %v", templatePath, err)
	}
}
