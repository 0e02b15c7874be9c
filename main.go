package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gitea.com/go-chi/session"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/blogem/registros/config"
	"github.com/blogem/registros/controllers"
	"github.com/blogem/registros/database"
	"github.com/blogem/registros/logger"
	appmiddleware "github.com/blogem/registros/middleware"
	"github.com/blogem/registros/models"
	"github.com/blogem/registros/policy"
	"github.com/blogem/registros/repositories"
	"github.com/blogem/registros/services"
	"github.com/blogem/registros/web"
)

func main() {
	if err := run(); err != nil {
		log.Error().Err(err).Msg("Startup failed")
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger.Init(cfg.Log.Level, cfg.Log.Pretty)
	log.Info().Str("config", cfg.String()).Msg("Configuration loaded")

	db, err := database.Open(cfg.Database.Driver, cfg.Database.DSN())
	if err != nil {
		return err
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := database.WaitForDB(ctx, db, cfg.Database.ConnectAttempts, cfg.Database.ConnectInterval); err != nil {
		return err
	}

	seeds, err := seedUsers(cfg.Seed)
	if err != nil {
		return err
	}
	schema := database.NewSchema(db, seeds...)
	if err := schema.Bootstrap(ctx); err != nil {
		return fmt.Errorf("failed to bootstrap schema: %w", err)
	}
	log.Info().Str("driver", cfg.Database.Driver).Msg("Database initialized")

	repos := repositories.NewRepositories(db, schema)
	srvs := services.NewServices(repos, cfg.Audit.Location())
	ctrl := controllers.NewControllers(srvs, db, cfg.Server.UploadMaxBytes)

	r, err := setupRouter(ctrl, srvs.Auth, cfg.Server)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      90 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Server.Port).Msg("Server starting")
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}
	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Info().Msg("Server exiting")
	return nil
}

// seedUsers hashes the default account passwords.
func seedUsers(cfg config.SeedConfig) ([]database.SeedUser, error) {
	defaults := []struct {
		username string
		password string
		role     models.Role
	}{
		{"admin", cfg.AdminPassword, models.RoleUploader},
		{"viewer", cfg.ViewerPassword, models.RoleViewer},
	}

	seeds := make([]database.SeedUser, 0, len(defaults))
	for _, d := range defaults {
		hash, err := services.HashPassword(d.password)
		if err != nil {
			return nil, err
		}
		seeds = append(seeds, database.SeedUser{Username: d.username, PasswordHash: hash, Role: string(d.role)})
	}
	return seeds, nil
}

// setupRouter configures all routes
func setupRouter(ctrl *controllers.Controllers, users appmiddleware.UserLoader, cfg config.ServerConfig) (*chi.Mux, error) {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(appmiddleware.RequestLogger)
	r.Use(middleware.Recoverer)
	r.Use(appmiddleware.Metrics)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(middleware.Compress(5))

	// Session middleware
	sessionHandler, err := session.Sessioner(session.Options{
		Provider:       "memory",
		ProviderConfig: "",
		CookieName:     cfg.SessionCookie,
		Secure:         cfg.SecureCookies,
		Gclifetime:     cfg.SessionLifetime,
		Maxlifetime:    cfg.SessionLifetime,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize session: %w", err)
	}

	staticFiles, err := fs.Sub(web.Static, "static")
	if err != nil {
		return nil, fmt.Errorf("failed to load static files: %w", err)
	}

	// PUBLIC ROUTES (no session required)
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(staticFiles))))
	r.Get("/health", ctrl.Health.Check)
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(sessionHandler)

		r.Get("/login", ctrl.Auth.ShowLogin)
		r.Post("/login", ctrl.Auth.Login)

		// PROTECTED ROUTES (authentication required)
		r.Group(func(r chi.Router) {
			r.Use(appmiddleware.RequireAuth(users))

			r.Get("/", ctrl.Dashboard.Index)
			r.Get("/logout", ctrl.Auth.Logout)
			r.With(appmiddleware.RequirePermission(policy.ReadRecords)).Get("/data", ctrl.Records.Data)
			r.With(appmiddleware.RequirePermission(policy.ExportRecords)).Get("/download", ctrl.Records.Download)
			r.With(appmiddleware.RequirePermission(policy.ImportRecords)).Post("/upload", ctrl.Records.Upload)
			r.With(appmiddleware.RequirePermission(policy.ViewAuditLog)).Get("/eventos", ctrl.Events.Index)
		})
	})

	return r, nil
}
