package controllers

import (
	"net/http"
	"time"
)

// HealthHandler provides a health check endpoint
func (c *Controller) HealthHandler(w http.ResponseWriter, r *http.Request) {
	c.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"service":   "asistente",
		"uptime":    time.Since(c.startTime).String(),
		"endpoints": []string{"/", "/api/chat", "/api/history", "/api/clear", "/api/status", "/health"},
	})
}

// StatusHandler reports the status of every service
func (c *Controller) StatusHandler(w http.ResponseWriter, r *http.Request) {
	status := c.chat.GetStatus()
	status["discord"] = c.discord.GetStatus()
	status["uptime"] = time.Since(c.startTime).String()
	c.writeJSON(w, http.StatusOK, status)
}
