package main

import (
	"context"
	"crypto/tls"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/andeslabs/eventos-platform/internal/api/router"
	"github.com/andeslabs/eventos-platform/internal/calendar"
	"github.com/andeslabs/eventos-platform/internal/clients"
	appconfig "github.com/andeslabs/eventos-platform/internal/config"
	"github.com/andeslabs/eventos-platform/internal/conversation"
	"github.com/andeslabs/eventos-platform/internal/messaging"
	"github.com/andeslabs/eventos-platform/internal/notify"
	"github.com/andeslabs/eventos-platform/internal/observability/metrics"
	"github.com/andeslabs/eventos-platform/pkg/logging"
)

func main() {
	_ = godotenv.Load()
	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting eventos-platform API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	captureMetrics := metrics.NewCaptureMetrics(nil)

	// Storage: Postgres when configured, in-memory otherwise (local dev).
	var (
		store     conversation.Store
		repo      clients.Repository
		converter clients.Converter
	)
	if cfg.DatabaseURL != "" {
		db, err := sql.Open("pgx", cfg.DatabaseURL)
		if err != nil {
			logger.Error("failed to open database", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		if err := db.Ping(); err != nil {
			logger.Error("failed to ping database", "error", err)
			os.Exit(1)
		}

		pool, err := pgxpool.New(context.Background(), cfg.DatabaseURL)
		if err != nil {
			logger.Error("failed to create pgx pool", "error", err)
			os.Exit(1)
		}
		defer pool.Close()

		store = conversation.NewPostgresStore(db)
		repo = clients.NewPostgresRepository(pool)
		converter = clients.NewPostgresConverter(pool)
	} else {
		logger.Warn("DATABASE_URL not set, using in-memory storage")
		memStore := conversation.NewMemoryStore()
		memRepo := clients.NewInMemoryRepository()
		store = memStore
		repo = memRepo
		converter = clients.NewMemoryConverter(memStore, memRepo)
	}

	// Webhook dedupe via Redis SETNX.
	redisOpts := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		redisOpts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	redisClient := redis.NewClient(redisOpts)
	defer redisClient.Close()
	deduper := messaging.NewInboundDeduper(redisClient, cfg.DedupeTTL)

	// Operator alerts.
	var emailSender notify.EmailSender = notify.NewStubEmailSender(logger)
	if sg := notify.NewSendGridSender(notify.SendGridConfig{
		APIKey:    cfg.SendGridAPIKey,
		FromEmail: cfg.SendGridFromEmail,
		FromName:  cfg.SendGridFromName,
	}, logger); sg != nil {
		emailSender = sg
	}
	notifier := notify.NewService(emailSender, cfg.OperatorAlertEmail, cfg.BusinessName, logger)

	// Follow-up scheduling for hot leads.
	var scheduler calendar.Scheduler = calendar.NewNoopScheduler(logger)
	if cfg.GoogleCredentialsJSON != "" {
		gs, err := calendar.NewGoogleScheduler(context.Background(),
			[]byte(cfg.GoogleCredentialsJSON), cfg.GoogleCalendarID, logger)
		if err != nil {
			logger.Error("failed to init google calendar, follow-ups disabled", "error", err)
		} else {
			scheduler = gs
		}
	}

	messenger := messaging.NewWhatsAppSender(
		cfg.WhatsAppAccessToken, cfg.WhatsAppPhoneNumberID, cfg.WhatsAppAPIBaseURL, logger)

	// Process-wide channel session. The Cloud API has no pairing flow, so
	// connecting is a credential check against the phone number endpoint.
	session := messaging.NewSession(func(ctx context.Context, _ func(string)) error {
		return messenger.CheckCredentials(ctx)
	}, logger)

	svc := conversation.NewService(store, messenger, logger,
		conversation.WithNotifier(notifier),
		conversation.WithMetrics(captureMetrics),
	)

	webhookHandler := messaging.NewHandler(cfg.WhatsAppVerifyToken, svc, deduper, captureMetrics, logger)
	conversationHandler := conversation.NewHandler(svc, logger)
	clientsHandler := clients.NewHandler(converter, repo, store, scheduler,
		cfg.FollowUpDuration, captureMetrics, logger)

	r := router.New(&router.Config{
		Logger:              logger,
		WebhookHandler:      webhookHandler,
		ChannelHandler:      messaging.NewChannelHandler(session),
		ConversationHandler: conversationHandler,
		ClientsHandler:      clientsHandler,
		MetricsHandler:      promhttp.Handler(),
		CORSAllowedOrigins:  cfg.CORSOrigins,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
