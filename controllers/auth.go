package controllers

import (
	"errors"
	"net/http"
	"strings"

	"gitea.com/go-chi/session"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	"github.com/blogem/registros/middleware"
	"github.com/blogem/registros/models"
	"github.com/blogem/registros/services"
	"github.com/blogem/registros/userctx"
)

const loginFailedMessage = "Invalid username or password"

// AuthController handles login and logout
type AuthController struct {
	services *services.Services
	validate *validator.Validate
}

// NewAuthController creates a new auth controller
func NewAuthController(services *services.Services) *AuthController {
	return &AuthController{
		services: services,
		validate: validator.New(),
	}
}

// ShowLogin handles GET /login
func (c *AuthController) ShowLogin(w http.ResponseWriter, r *http.Request) {
	renderTemplate(w, "login.html", models.PageData{Title: "Iniciar sesión", CurrentPage: "login"})
}

// Login handles POST /login
func (c *AuthController) Login(w http.ResponseWriter, r *http.Request) {
	form := models.LoginForm{
		Username: strings.TrimSpace(r.PostFormValue("username")),
		Password: r.PostFormValue("password"),
	}

	failed := models.PageData{
		Title:       "Iniciar sesión",
		CurrentPage: "login",
		Error:       loginFailedMessage,
		Username:    form.Username,
	}

	if err := c.validate.Struct(form); err != nil {
		renderTemplate(w, "login.html", failed)
		return
	}

	user, err := c.services.Auth.Authenticate(r.Context(), form.Username, form.Password)
	if errors.Is(err, services.ErrInvalidCredentials) {
		log.Info().Str("username", form.Username).Msg("Login failed")
		renderTemplate(w, "login.html", failed)
		return
	}
	if err != nil {
		log.Error().Err(err).Msg("Failed to authenticate")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	sess := session.GetSession(r)
	sess.Set(middleware.SessionUserID, user.ID)
	sess.Set(middleware.SessionUsername, user.Username)
	sess.Set(middleware.SessionRole, string(user.Role))

	if err := c.services.Audit.Record(r.Context(), user.Username, models.ActionLogin); err != nil {
		log.Error().Err(err).Msg("Failed to record login event")
		if err := sess.Flush(); err != nil {
			log.Warn().Err(err).Msg("Failed to flush session")
		}
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	log.Info().Str("username", user.Username).Str("role", string(user.Role)).Msg("User logged in")
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// Logout handles GET /logout
func (c *AuthController) Logout(w http.ResponseWriter, r *http.Request) {
	username := userctx.GetUsername(r.Context())

	if err := c.services.Audit.Record(r.Context(), username, models.ActionLogout); err != nil {
		log.Error().Err(err).Msg("Failed to record logout event")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	if err := session.GetSession(r).Flush(); err != nil {
		log.Warn().Err(err).Msg("Failed to flush session")
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}
