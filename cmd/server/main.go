// @title           LayerText Backend API
// @version         1.0.0
// @description     Credit-gated background removal for text-behind-image compositions. Handles uploads, paid AI processing, Stripe credit purchases and export history.

// @contact.name   API Support
// @contact.email  support@example.com

// @license.name  MIT
// @license.url   https://opensource.org/licenses/MIT

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey Bearer
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"layertext-backend/docs"
	"layertext-backend/internal/config"
	"layertext-backend/internal/database"
	"layertext-backend/internal/fal"
	"layertext-backend/internal/handlers"
	"layertext-backend/internal/logger"
	"layertext-backend/internal/router"
	"layertext-backend/internal/services"
	"layertext-backend/internal/stripe"
	"layertext-backend/internal/supabase"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "server: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	log, err := logger.New(cfg.Environment)
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Point Swagger at the public host
	if baseURL, err := url.Parse(cfg.BaseURL); err == nil && baseURL.Host != "" {
		docs.SwaggerInfo.Host = baseURL.Host
		if baseURL.Scheme == "https" {
			docs.SwaggerInfo.Schemes = []string{"https", "http"}
		} else {
			docs.SwaggerInfo.Schemes = []string{"http", "https"}
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := supabase.NewDatabaseClient(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to initialize database client: %w", err)
	}
	defer dbClient.Close()

	if err := database.NewMigrator(dbClient.DB(), log.Named("migrator")).Run(ctx); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	log.Info("migrations completed")

	supabaseClient, err := supabase.NewClient(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize supabase client: %w", err)
	}
	storageClient := supabase.NewStorageClient(cfg.SupabaseURL, cfg.SupabaseServiceRoleKey, cfg.SupabaseStorageBucket)
	realtimeClient := supabase.NewRealtimeClient(supabaseClient.Supabase)

	falClient := fal.NewClient(cfg.FalBaseURL, cfg.FalKey, cfg.FalModel, cfg.FalTimeout)
	stripeClient := stripe.NewClient(stripe.Config{
		SecretKey:         cfg.StripeSecretKey,
		WebhookSecret:     cfg.StripeWebhookSecret,
		PriceID:           cfg.StripePriceID,
		AppURL:            cfg.AppURL,
		CreditsPerPackage: cfg.CreditsPerPackage,
	})

	ledger := services.NewLedger(dbClient, cfg.StartingCredits, log)
	lifecycle := services.NewLifecycle(dbClient, cfg.ProcessingLease, log)
	processor := services.NewProcessor(dbClient, ledger, lifecycle, falClient, realtimeClient, log)
	reconciler := services.NewReconciler(dbClient, dbClient, ledger, cfg.CreditsPerPackage, log)
	storageService := services.NewStorageService(storageClient, lifecycle, dbClient, log)
	paymentService := services.NewPaymentService(stripeClient, dbClient, log)

	engine := router.SetupRoutes(cfg, router.Handlers{
		Health:   handlers.NewHealthHandler(dbClient),
		Credits:  handlers.NewCreditsHandler(ledger, cfg.AllowCreditTopUp),
		Uploads:  handlers.NewUploadHandler(storageService, lifecycle),
		Process:  handlers.NewProcessHandler(processor),
		Payments: handlers.NewPaymentsHandler(paymentService),
		Exports:  handlers.NewExportsHandler(storageService),
		Webhook:  handlers.NewWebhookHandler(stripeClient, reconciler, log),
	}, log)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server starting", zap.String("port", cfg.Port), zap.String("environment", cfg.Environment))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down")
	// In-flight processing may be mid AI call; give it the full FAL timeout to finish.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.FalTimeout+5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down cleanly: %w", err)
	}
	return nil
}
