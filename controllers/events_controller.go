package controllers

import (
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/blogem/registros/services"
	"github.com/blogem/registros/userctx"
)

// EventsController renders the audit log
type EventsController struct {
	services *services.Services
}

// NewEventsController creates a new events controller
func NewEventsController(services *services.Services) *EventsController {
	return &EventsController{services: services}
}

// Index handles GET /eventos
func (c *EventsController) Index(w http.ResponseWriter, r *http.Request) {
	user, _ := userctx.GetUser(r.Context())

	events, err := c.services.Audit.ViewLog(r.Context(), user.Username)
	if err != nil {
		log.Error().Err(err).Msg("Failed to load audit log")
		http.Error(w, "Failed to load events", http.StatusInternalServerError)
		return
	}

	data := pageData(user, "Eventos", "eventos")
	data.Events = events
	renderTemplate(w, "eventos.html", data)
}
