package controllers

import (
	"net/http"
)

// IndexHandler serves the chat page
func (c *Controller) IndexHandler(w http.ResponseWriter, r *http.Request) {
	c.renderTemplate(w, "views/index.html", map[string]interface{}{
		"Model": c.chat.ModelName(),
	})
}
