// Worker forwards authentication events (otp_issued, otp_validated, sms_delivery_failed, ...)
// published by the server on Kafka to Loki, labelled by event type, source and result.
// Needs KAFKA_BROKERS and LOKI_URL; TELEMETRY_KAFKA_TOPIC and KAFKA_GROUP_ID have defaults.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/segmentio/kafka-go"

	"sms-otp-authenticator/internal/config"
	"sms-otp-authenticator/internal/telemetry/loki"
)

const pushTimeout = 10 * time.Second

// eventSource yields authentication events in the order they were published.
type eventSource interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
}

// eventSink stores one JSON-encoded authentication event.
type eventSink interface {
	PushEventJSON(ctx context.Context, raw []byte) error
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	brokers := cfg.KafkaBrokersList()
	if len(brokers) == 0 {
		log.Fatal("worker: KAFKA_BROKERS is required")
	}
	if cfg.LokiURL == "" {
		log.Fatal("worker: LOKI_URL is required")
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		Topic:          cfg.TelemetryKafkaTopic,
		GroupID:        cfg.KafkaGroupID,
		MinBytes:       1,
		MaxBytes:       1 << 20,
		MaxWait:        time.Second,
		CommitInterval: time.Second,
	})
	defer reader.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Printf("worker: forwarding auth events from topic %s (group %s) to loki at %s",
		cfg.TelemetryKafkaTopic, cfg.KafkaGroupID, cfg.LokiURL)
	n := forward(ctx, reader, loki.NewClient(cfg.LokiURL, &http.Client{Timeout: pushTimeout}))
	log.Printf("worker: stopped after forwarding %d auth events", n)
}

// forward copies events from src to sink until ctx is done and returns how many were
// stored. Read and push failures are logged and skipped; an event that Loki rejects is
// not retried.
func forward(ctx context.Context, src eventSource, sink eventSink) int {
	forwarded := 0
	for {
		msg, err := src.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return forwarded
			}
			log.Printf("worker: read auth event: %v", err)
			continue
		}
		pushCtx, cancel := context.WithTimeout(ctx, pushTimeout)
		err = sink.PushEventJSON(pushCtx, msg.Value)
		cancel()
		if err != nil {
			log.Printf("worker: push auth event (session %s) to loki: %v", string(msg.Key), err)
			continue
		}
		forwarded++
	}
}
