package controllers

import (
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/blogem/registros/respond"
)

// HealthController reports service health
type HealthController struct {
	db Pinger
}

// NewHealthController creates a new health controller
func NewHealthController(db Pinger) *HealthController {
	return &HealthController{db: db}
}

// Check handles GET /health
func (c *HealthController) Check(w http.ResponseWriter, r *http.Request) {
	if err := c.db.PingContext(r.Context()); err != nil {
		log.Warn().Err(err).Msg("Health check failed")
		respond.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	respond.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
