package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"recalltrainer/internal/config"
	"recalltrainer/internal/database"
	"recalltrainer/internal/repository"
	"recalltrainer/internal/service"
)

func main() {
	email := flag.String("email", "", "Email of the account to promote (required)")
	flag.Parse()

	if *email == "" {
		fmt.Println("Error: -email flag is required")
		fmt.Println("Usage: promote-admin -email user@example.com")
		flag.PrintDefaults()
		os.Exit(1)
	}

	// Load configuration
	cfg := config.Load()

	// Initialize database
	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	// Run migrations to ensure schema is up to date
	if err := db.RunMigrations(cfg.MigrationsPath); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	emailService, err := service.NewEmailService(cfg.AWSRegion, cfg.SESFromEmail, cfg.SESFromName, cfg.AppBaseURL)
	if err != nil {
		log.Fatalf("Failed to initialize email service: %v", err)
	}
	authService := service.NewAuthService(repository.NewUserRepository(db), emailService)

	user, err := authService.PromoteToAdmin(*email)
	if err != nil {
		log.Fatalf("Failed to promote %s: %v", *email, err)
	}

	fmt.Printf("Promoted %s (%s) to role %s\n", user.Email, user.UserID, user.Role)
}
