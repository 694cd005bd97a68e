package main

import (
	"context"
	"os"

	"quadras/internal/audit"
	"quadras/internal/auth"
	"quadras/internal/directory"
	"quadras/internal/gateway/handler"
	"quadras/internal/gateway/service"
	"quadras/internal/gateway/validator"
	"quadras/internal/gcal"
	"quadras/internal/ownership"
	"quadras/internal/timewindow"
	"quadras/pkg/app"
	"quadras/pkg/config"
)

const ServiceName = "gateway"

func main() {
	cfg := config.Load(ServiceName)
	ctx := context.Background()

	dir, err := directory.Load(cfg.DirectoryFile)
	if err != nil {
		cfg.Log.Fatal("Failed to load court directory", "file", cfg.DirectoryFile, "error", err)
	}

	keyJSON, err := os.ReadFile(cfg.ServiceAccountKeyFile)
	if err != nil {
		cfg.Log.Fatal("Failed to read service account key", "file", cfg.ServiceAccountKeyFile, "error", err)
	}

	engine, err := gcal.NewClient(ctx, keyJSON, cfg.ImpersonationUser, cfg.Log)
	if err != nil {
		cfg.Log.Fatal("Failed to initialize calendar client", "error", err)
	}

	verifier, err := auth.NewGoogleVerifier(ctx, cfg.GoogleClientID)
	if err != nil {
		cfg.Log.Fatal("Failed to initialize ID token verifier", "error", err)
	}
	authenticator := auth.NewAuthenticator(verifier, dir, cfg.Log)

	auditPublisher := initAudit(cfg)
	defer func() {
		if err := auditPublisher.Close(); err != nil {
			cfg.Log.Error("Failed to close audit publisher", "error", err)
		}
	}()

	bookingService := service.NewBookingService(
		dir,
		engine,
		ownership.NewGate(engine, cfg.Log),
		timewindow.NewBuilder(engine, cfg.Log),
		validator.NewEventValidator(cfg.Log),
		auditPublisher,
		cfg.DefaultTimezone,
		cfg.Log,
	)

	cfg.Log.Info("Starting booking gateway", "courts", len(dir.Aliases()))

	serverApp := app.NewApplication(cfg)
	serverApp.SetApp(
		handler.NewBookingHandler(bookingService, cfg.Log),
		handler.NewHealthHandler(cfg.Log),
		auth.Middleware(authenticator),
	)
	serverApp.Run()
}

func initAudit(cfg *config.Config) audit.Publisher {
	if len(cfg.KafkaBrokers) == 0 {
		cfg.Log.Info("Audit publishing disabled, no Kafka brokers configured")
		return audit.NewNoopPublisher()
	}
	publisher, err := audit.NewKafkaPublisher(cfg.KafkaBrokers, cfg.AuditTopic, cfg.Log)
	if err != nil {
		cfg.Log.Fatal("Failed to initialize audit publisher", "error", err)
	}
	cfg.Log.Info("Audit publishing enabled", "topic", cfg.AuditTopic)
	return publisher
}
