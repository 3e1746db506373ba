package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"payment-failure-monitor/config"
	httpHandler "payment-failure-monitor/internal/adapter/http/handler"
	"payment-failure-monitor/internal/adapter/http/middleware"
	"payment-failure-monitor/internal/adapter/mail"
	"payment-failure-monitor/internal/adapter/storage/airtable"
	pgStorage "payment-failure-monitor/internal/adapter/storage/postgres"
	redisStorage "payment-failure-monitor/internal/adapter/storage/redis"
	"payment-failure-monitor/internal/core/domain"
	"payment-failure-monitor/internal/core/ports"
	"payment-failure-monitor/internal/service"
	"payment-failure-monitor/pkg/apperror"
	"payment-failure-monitor/pkg/logger"

	"github.com/gin-gonic/gin"
)

var version = "dev"

// unavailableStore stands in for a record backend that failed to start, so
// every record attempt reports the startup error instead of crashing.
type unavailableStore struct{ err error }

func (s unavailableStore) CreateRecord(context.Context, *domain.SinkRecord) (string, error) {
	return "", s.err
}

func main() {
	cfg, err := config.Load(os.Getenv("PFM_CONFIG"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Log.Level, cfg.Log.Pretty)
	gin.SetMode(cfg.Server.Mode)

	log.Info().
		Str("mode", cfg.Server.Mode).
		Int("port", cfg.Server.Port).
		Str("version", version).
		Msg("Starting Payment Failure Monitor")

	ctx := context.Background()
	startedAt := time.Now()

	// Diagnostic buffer and the pipeline logger that feeds it
	buffer := service.NewLogBuffer()
	activity := logger.Activity(log, buffer)

	var checkers []ports.HealthChecker

	// Signature verification
	verifier := service.NewStripeVerifier(cfg.Stripe.WebhookSecret, cfg.Stripe.SignatureTolerance)
	if !verifier.Authenticated() {
		log.Warn().Msg("stripe.webhook_secret not set: webhook bodies are accepted without signature verification")
	}

	// Email sink
	sender := mail.NewSMTPSender(cfg.Email, log)
	go func() {
		probeCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
		defer cancel()
		if err := sender.Probe(probeCtx); err != nil {
			log.Error().Err(apperror.ErrInitialization("smtp", err)).Msg("Email transport check failed; alerts may not be delivered")
			return
		}
		log.Info().Str("addr", cfg.Email.Addr()).Msg("Email transport ready")
	}()
	checkers = append(checkers, sender)
	email := service.NewEmailSink(sender, cfg.Email.Sender(), cfg.Email.Recipient(), activity)

	// Record sink
	var store ports.RecordStore
	switch cfg.Record.Backend {
	case config.RecordBackendPostgres:
		pool, err := pgStorage.NewPool(ctx, cfg.Database, log)
		if err != nil {
			initErr := apperror.ErrInitialization("postgresql", err)
			log.Error().Err(initErr).Msg("Record store unavailable")
			store = unavailableStore{err: initErr}
			break
		}
		defer pool.Close()

		repo := pgStorage.NewRecordRepo(pool)
		if err := repo.EnsureSchema(ctx); err != nil {
			log.Error().Err(err).Msg("Could not ensure failure_records schema")
		}
		store = repo
		checkers = append(checkers, pgStorage.NewHealthCheck(pool))
	default:
		if cfg.Airtable.APIKey == "" || cfg.Airtable.BaseID == "" {
			log.Warn().Msg("airtable.api_key or airtable.base_id not set: record creation will fail")
		}
		client := airtable.NewClient(
			&http.Client{Timeout: cfg.Airtable.Timeout},
			cfg.Airtable.BaseURL, cfg.Airtable.APIKey, cfg.Airtable.BaseID, log,
		)
		store = airtable.NewRecordStore(client, cfg.Airtable.Table)
	}
	record := service.NewRecordSink(store, activity)

	// Fanout and dispatch
	mode, err := service.ParseSinkFailureMode(cfg.Notify.SinkFailureMode)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid sink failure mode")
	}
	notifier := service.NewNotificationService(email, record, mode, activity)
	dispatcher := service.NewDispatcher(notifier, activity)
	webhookSvc := service.NewWebhookService(verifier, dispatcher, activity)
	harness := service.NewSinkTestHarness(email, record, activity)

	// Optional rate limiting for the sink test endpoint
	var limiter middleware.Limiter
	if cfg.Redis.Enabled {
		rdb, err := redisStorage.NewClient(ctx, cfg.Redis, log)
		if err != nil {
			log.Error().Err(apperror.ErrInitialization("redis", err)).Msg("Rate limiting disabled")
		} else {
			defer rdb.Close()
			limiter = redisStorage.NewRateLimitStore(rdb)
			checkers = append(checkers, redisStorage.NewHealthCheck(rdb))
		}
	}

	// Optional operator auth
	var tokenSvc ports.TokenService
	if cfg.Operator.JWTSecret != "" {
		tokenSvc = service.NewJWTTokenService(cfg.Operator.JWTSecret, cfg.Operator.TokenTTL, cfg.Operator.Issuer)
	} else {
		log.Warn().Msg("operator.jwt_secret not set: /logs and /test are unauthenticated")
	}

	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		WebhookSvc:     webhookSvc,
		Tester:         harness,
		ActivityLog:    buffer,
		TokenSvc:       tokenSvc,
		RateLimitStore: limiter,
		HealthCheckers: checkers,
		Status: httpHandler.StatusInfo{
			Service:     "payment-failure-monitor",
			Version:     version,
			RecordStore: cfg.Record.Backend,
			SinkFailure: string(mode),
			Configured: map[string]bool{
				"stripe_api_key":       cfg.Stripe.APIKey != "",
				"webhook_signature":    verifier.Authenticated(),
				"email":                cfg.Email.Username != "" && cfg.Email.Password != "",
				"airtable":             cfg.Airtable.APIKey != "" && cfg.Airtable.BaseID != "",
				"operator_auth":        tokenSvc != nil,
				"sink_test_rate_limit": limiter != nil,
			},
		},
		StartedAt: startedAt,
		Logger:    log,
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}
