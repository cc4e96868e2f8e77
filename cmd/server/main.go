package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"sms-otp-authenticator/internal/authenticator"
	"sms-otp-authenticator/internal/config"
	"sms-otp-authenticator/internal/db"
	"sms-otp-authenticator/internal/devotp"
	healthhandler "sms-otp-authenticator/internal/health/handler"
	"sms-otp-authenticator/internal/mfa"
	"sms-otp-authenticator/internal/mfa/sms"
	"sms-otp-authenticator/internal/server"
	"sms-otp-authenticator/internal/session"
	"sms-otp-authenticator/internal/telemetry"
	telemetryotel "sms-otp-authenticator/internal/telemetry/otel"
	"sms-otp-authenticator/internal/telemetry/producer"
	userrepo "sms-otp-authenticator/internal/user/repository"
)

const shutdownTimeout = 15 * time.Second

func main() {
	if err := run(); err != nil {
		log.Fatalf("server: %v", err)
	}
}

// run wires the service and blocks until SIGINT/SIGTERM or a serve failure. Postgres,
// Redis, Kafka and OTel are closed on every return path.
func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	deliveryCfg, err := mfa.ParseDeliveryConfig(cfg.AuthenticatorConfig())
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	providers, err := telemetryotel.NewProviders(ctx, cfg.OTLPEndpoint, "", cfg.OTLPInsecure)
	if err != nil {
		return fmt.Errorf("otel: %w", err)
	}
	providers.SetGlobal()

	events := telemetry.Fanout{telemetryotel.NewEventEmitter(providers.LoggerProvider)}
	kafkaProducer := producer.NewKafkaProducer(cfg.KafkaBrokersList(), cfg.TelemetryKafkaTopic)
	if kafkaProducer != nil {
		events = append(events, kafkaProducer)
		log.Printf("telemetry: publishing events to kafka topic %s", cfg.TelemetryKafkaTopic)
	}
	defer func() {
		// Let in-flight async emits finish before tearing down exporters.
		time.Sleep(telemetry.ShutdownDrainDuration)
		if err := kafkaProducer.Close(); err != nil {
			log.Printf("kafka: close: %v", err)
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := providers.Shutdown(shutdownCtx); err != nil {
			log.Printf("otel: shutdown: %v", err)
		}
	}()

	checks := map[string]healthhandler.Pinger{}

	var users userrepo.Repository = userrepo.NewMemoryRepository()
	if cfg.DatabaseURL != "" {
		database, err := db.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("db: %w", err)
		}
		defer database.Close()
		users = userrepo.NewPostgresRepository(database)
		checks["postgres"] = database
	} else {
		log.Println("db: DATABASE_URL not set, keeping user attributes in memory")
	}

	var notes session.Store = session.NewMemoryStore(cfg.NoteTTL())
	if cfg.RedisURL != "" {
		client, err := session.NewRedisClient(cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("redis: %w", err)
		}
		defer client.Close()
		notes = session.NewRedisStore(client, cfg.NoteTTL())
		checks["redis"] = healthhandler.PingerFunc(func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		})
	}

	deps := server.Deps{
		Users:  users,
		Events: events,
		Health: healthhandler.NewHandler(checks),
	}
	var outbox sms.Outbox
	if cfg.DevOTPEnabled() {
		store := devotp.NewMemoryStore(devotp.DefaultRetention)
		outbox = store
		deps.DevOTP = store
		log.Println("devotp: GET /dev/otp is enabled; never enable in production")
	}

	httpClient := &http.Client{Timeout: cfg.GatewayTimeout()}
	dispatcher := sms.NewDispatcher(httpClient, outbox)
	lifecycle := mfa.NewLifecycle(notes, nil)
	deps.Auth = authenticator.New(deliveryCfg, lifecycle, dispatcher, authenticator.WithEvents(events))
	deps.Phone = authenticator.NewPhoneUpdater(users, events)

	handler, err := server.NewRouter(deps)
	if err != nil {
		return err
	}
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	log.Printf("HTTP server listening on %s (simulation=%t)", cfg.HTTPAddr, deliveryCfg.SimulationMode)
	if err := serve(ctx, srv, shutdownTimeout); err != nil {
		return err
	}
	log.Println("HTTP server stopped")
	return nil
}

// serve runs srv until ctx is cancelled, then shuts it down gracefully within timeout.
// A listen or serve failure is returned without waiting for ctx.
func serve(ctx context.Context, srv *http.Server, timeout time.Duration) error {
	serveErr := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Println("shutting down HTTP server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
