package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"recalltrainer/internal/config"
	"recalltrainer/internal/database"
	"recalltrainer/internal/deck"
	"recalltrainer/internal/handlers"
	"recalltrainer/internal/repository"
	"recalltrainer/internal/security"
	"recalltrainer/internal/service"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize database with config (supports sqlite, postgres, mysql)
	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	log.Printf("Database connection established (type: %s)", cfg.DatabaseType)

	// Run migrations
	if err := db.RunMigrations(cfg.MigrationsPath); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	log.Println("Migrations completed successfully")

	// Load the deck library. Broken deck files are reported but do not
	// stop the server.
	library, warnings := deck.LoadLibrary(cfg.DecksPath)
	for _, warning := range warnings {
		log.Printf("Warning: %v", warning)
	}
	log.Printf("Loaded %d decks from %s", len(library.Names()), cfg.DecksPath)

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	telemetryRepo := repository.NewTelemetryRepository(db)
	reportRepo := repository.NewReportRepository(db)

	// Initialize services
	emailService, err := service.NewEmailService(cfg.AWSRegion, cfg.SESFromEmail, cfg.SESFromName, cfg.AppBaseURL)
	if err != nil {
		log.Fatalf("Failed to initialize email service: %v", err)
	}
	authService := service.NewAuthService(userRepo, emailService)

	googleOAuth := &oauth2.Config{
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
		Endpoint:     google.Endpoint,
		Scopes:       []string{"openid", "email", "profile"},
	}

	// Initialize handlers
	limiter := security.NewRateLimiter(10, time.Minute)
	middleware := handlers.NewMiddleware(cfg.AdminSessionSecret, limiter)
	authHandler := handlers.NewAuthHandler(authService, cfg.AuthSessionSecret, cfg.UserSessionDuration, googleOAuth, cfg.OAuthRedirectBase)
	adminHandler := handlers.NewAdminHandler(authService, reportRepo, cfg.AdminSessionSecret, cfg.AdminPassword, cfg.AdminSessionDuration)
	telemetryHandler := handlers.NewTelemetryHandler(telemetryRepo)
	deckHandler := handlers.NewDeckHandler(library)

	// Setup routes
	mux := http.NewServeMux()

	// Public routes
	mux.HandleFunc("GET /", deckHandler.Home)
	mux.HandleFunc("GET /auth", authHandler.SignInPage)
	mux.HandleFunc("GET /api/decks", deckHandler.ListDecks)
	mux.HandleFunc("GET /api/decks/{name}", deckHandler.GetDeck)

	// Telemetry ingestion
	mux.HandleFunc("POST /api/telemetry", telemetryHandler.Ingest)
	mux.HandleFunc("GET /api/telemetry", telemetryHandler.Health)

	// User auth
	mux.HandleFunc("POST /api/auth/register", middleware.RateLimit(authHandler.Register))
	mux.HandleFunc("POST /api/auth/login", middleware.RateLimit(authHandler.Login))
	mux.HandleFunc("GET /api/auth/session", authHandler.Session)
	mux.HandleFunc("POST /api/auth/logout", authHandler.Logout)
	mux.HandleFunc("GET /api/auth/google/start", authHandler.StartGoogleOAuth)
	mux.HandleFunc("GET /api/auth/google/callback", authHandler.GoogleOAuthCallback)

	// Admin surface
	mux.HandleFunc("POST /api/admin/login", middleware.RateLimit(adminHandler.Login))
	mux.HandleFunc("GET /api/admin/session", adminHandler.Session)
	mux.HandleFunc("POST /api/admin/logout", adminHandler.Logout)
	mux.HandleFunc("POST /api/admin/users/promote", middleware.RequireAdmin(adminHandler.PromoteUser))
	mux.HandleFunc("GET /api/admin/reports/top-difficult-cards", middleware.RequireAdmin(adminHandler.TopDifficultCards))
	mux.HandleFunc("GET /api/admin/reports/employee-progress", middleware.RequireAdmin(adminHandler.LearnerProgress))
	mux.HandleFunc("GET /api/admin/reports/mode/{mode}", middleware.RequireAdmin(adminHandler.ModeReport))

	// Wrap with logging middleware
	handler := handlers.Logging(mux)

	// Start server
	addr := ":" + cfg.ServerPort
	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on http://localhost%s", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Server shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Shutdown error: %v", err)
	}
}
