// Worker consumes governance events from Kafka and re-exports them as OTel log
// records (or stdout when no OTLP endpoint is configured). Set KAFKA_BROKERS,
// EVENTS_KAFKA_TOPIC, KAFKA_GROUP_ID, and optionally OTLP_ENDPOINT.
package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/segmentio/kafka-go"

	"startup-dataroom/backend/internal/config"
	"startup-dataroom/backend/internal/telemetry/domain"
	otelx "startup-dataroom/backend/internal/telemetry/otel"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	brokers := cfg.EventsKafkaBrokersList()
	if len(brokers) == 0 {
		log.Fatal("worker: KAFKA_BROKERS is required")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	providers, err := otelx.NewProviders(ctx, cfg.OTLPEndpoint, "dataroom-worker", cfg.OTLPInsecure)
	if err != nil {
		log.Fatalf("telemetry: %v", err)
	}
	emitter := otelx.NewEventEmitter(providers.LoggerProvider)

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		Topic:          cfg.EventsKafkaTopic,
		GroupID:        cfg.KafkaGroupID,
		MinBytes:       1,
		MaxBytes:       10e6, // 10MB
		MaxWait:        1 * time.Second,
		CommitInterval: time.Second,
	})
	defer reader.Close()

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		log.Println("worker: shutting down...")
		cancel()
	}()

	log.Printf("worker: consuming from %s (group %s)", cfg.EventsKafkaTopic, cfg.KafkaGroupID)

	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			log.Printf("worker: kafka read error: %v", err)
			continue
		}

		var event domain.Event
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			log.Printf("worker: skipping malformed event: %v", err)
			continue
		}
		log.Printf("worker: %s session=%s workflow=%s actor=%s",
			event.EventType, event.SessionID, event.WorkflowID, event.Actor)

		emitCtx, emitCancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := emitter.Emit(emitCtx, &event); err != nil {
			log.Printf("worker: emit failed: %v", err)
		}
		emitCancel()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := providers.Shutdown(shutdownCtx); err != nil {
		log.Printf("worker: telemetry shutdown: %v", err)
	}
	log.Println("worker: stopped")
}
