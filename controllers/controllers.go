package controllers

import (
	"context"
	"html/template"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/blogem/registros/models"
	"github.com/blogem/registros/policy"
	"github.com/blogem/registros/services"
	"github.com/blogem/registros/web"
)

// renderTemplate creates a template set and renders it with the provided data
func renderTemplate(w http.ResponseWriter, pageTemplate string, data models.PageData) error {
	return renderTemplateWithStatus(w, http.StatusOK, pageTemplate, data)
}

// renderTemplateWithStatus creates a template set and renders it with the provided data and status code
func renderTemplateWithStatus(w http.ResponseWriter, statusCode int, pageTemplate string, data models.PageData) error {
	tmpl, err := template.ParseFS(web.Templates, "templates/layout.html", "templates/"+pageTemplate)
	if err != nil {
		log.Error().Err(err).Str("template", pageTemplate).Msg("Failed to parse template")
		http.Error(w, "Failed to parse template", http.StatusInternalServerError)
		return err
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if statusCode != http.StatusOK {
		w.WriteHeader(statusCode)
	}

	if err := tmpl.ExecuteTemplate(w, "layout.html", data); err != nil {
		log.Error().Err(err).Str("template", pageTemplate).Msg("Failed to render template")
		return err
	}
	return nil
}

// pageData fills the fields every authenticated page shares
func pageData(user *models.User, title, currentPage string) models.PageData {
	data := models.PageData{
		Title:       title,
		CurrentPage: currentPage,
		User:        user,
	}
	if user != nil {
		data.CanUpload = policy.Can(user.Role, policy.ImportRecords)
		data.CanViewEvents = policy.Can(user.Role, policy.ViewAuditLog)
	}
	return data
}

// Pinger checks that the database answers.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Controllers holds all controller instances
type Controllers struct {
	Auth      *AuthController
	Dashboard *DashboardController
	Records   *RecordsController
	Events    *EventsController
	Health    *HealthController
}

// NewControllers creates and initializes all controller instances
func NewControllers(services *services.Services, db Pinger, uploadMaxBytes int64) *Controllers {
	return &Controllers{
		Auth:      NewAuthController(services),
		Dashboard: NewDashboardController(),
		Records:   NewRecordsController(services, uploadMaxBytes),
		Events:    NewEventsController(services),
		Health:    NewHealthController(db),
	}
}
