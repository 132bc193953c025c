package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"startup-dataroom/backend/internal/approval"
	approvalhandler "startup-dataroom/backend/internal/approval/handler"
	approvalrepo "startup-dataroom/backend/internal/approval/repository"
	"startup-dataroom/backend/internal/audit"
	audithandler "startup-dataroom/backend/internal/audit/handler"
	auditrepo "startup-dataroom/backend/internal/audit/repository"
	"startup-dataroom/backend/internal/config"
	"startup-dataroom/backend/internal/db"
	documenthandler "startup-dataroom/backend/internal/document/handler"
	documentrepo "startup-dataroom/backend/internal/document/repository"
	"startup-dataroom/backend/internal/nda"
	ndadomain "startup-dataroom/backend/internal/nda/domain"
	ndahandler "startup-dataroom/backend/internal/nda/handler"
	ndarepo "startup-dataroom/backend/internal/nda/repository"
	"startup-dataroom/backend/internal/notify"
	"startup-dataroom/backend/internal/security"
	"startup-dataroom/backend/internal/server"
	sessionhandler "startup-dataroom/backend/internal/sharesession/handler"
	sessionrepo "startup-dataroom/backend/internal/sharesession/repository"
	sessionservice "startup-dataroom/backend/internal/sharesession/service"
	"startup-dataroom/backend/internal/telemetry"
	otelx "startup-dataroom/backend/internal/telemetry/otel"
	"startup-dataroom/backend/internal/telemetry/producer"
	visibilityengine "startup-dataroom/backend/internal/visibility/engine"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx := context.Background()
	providers, err := otelx.NewProviders(ctx, cfg.OTLPEndpoint, "dataroom-server", cfg.OTLPInsecure)
	if err != nil {
		log.Fatalf("telemetry: %v", err)
	}
	providers.SetGlobal()

	kafkaProducer := producer.NewKafkaProducer(cfg.EventsKafkaBrokersList(), cfg.EventsKafkaTopic)
	emitter := telemetry.MultiEmitter{otelx.NewEventEmitter(providers.LoggerProvider)}
	if kafkaProducer != nil {
		emitter = append(emitter, kafkaProducer)
	}

	privateKey, err := security.ParsePrivateKey(cfg.JWTPrivateKey)
	if err != nil {
		log.Fatalf("jwt private key: %v", err)
	}
	publicKey, err := security.ParsePublicKey(cfg.JWTPublicKey)
	if err != nil {
		log.Fatalf("jwt public key: %v", err)
	}
	tokens := security.NewTokenProvider(privateKey, publicKey, cfg.JWTIssuer, cfg.JWTAudience, cfg.AccessTTL())

	// Repositories: Postgres when a DSN is configured, in-memory otherwise.
	var (
		documents documentrepo.Repository
		sessions  sessionrepo.Repository
		ndas      ndarepo.Repository
		workflows approvalrepo.Repository
		auditLog  auditrepo.Repository
	)
	if cfg.DatabaseURL != "" {
		pool, err := db.Open(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("db: %v", err)
		}
		defer pool.Close()
		documents = documentrepo.NewPostgresRepository(pool)
		sessions = sessionrepo.NewPostgresRepository(pool)
		ndas = ndarepo.NewPostgresRepository(pool)
		workflows = approvalrepo.NewPostgresRepository(pool)
		auditLog = auditrepo.NewPostgresRepository(pool)
	} else {
		log.Println("DATABASE_URL not set, using in-memory repositories")
		documents = documentrepo.NewMemoryRepository()
		sessions = sessionrepo.NewMemoryRepository()
		ndas = ndarepo.NewMemoryRepository()
		workflows = approvalrepo.NewMemoryRepository()
		auditLog = auditrepo.NewMemoryRepository()
	}

	var policies []string
	if cfg.VisibilityPolicyPath != "" {
		policy, err := os.ReadFile(cfg.VisibilityPolicyPath)
		if err != nil {
			log.Fatalf("visibility policy: %v", err)
		}
		policies = append(policies, string(policy))
	}
	evaluator := visibilityengine.NewOPAEvaluator(policies)
	if err := evaluator.HealthCheck(ctx); err != nil {
		log.Fatalf("visibility policy engine: %v", err)
	}

	auditSvc := audit.NewService(auditLog)
	auditor := audit.NewLogger(auditSvc)
	approvalSvc := approval.NewService(workflows, notify.LogNotifier{}, emitter)
	sessionSvc := sessionservice.NewService(
		sessions, documents, evaluator,
		auditor, approvalSvc, emitter, cfg.BaseURL,
	)
	ndaSvc := nda.NewService(ndas, sessions, auditor, emitter, ndadomain.DeadlinePolicy(cfg.NDADefaultDeadline))

	sessionH := sessionhandler.New(sessionSvc, ndaSvc)
	ndaH := ndahandler.New(ndaSvc)
	router := server.NewRouter(tokens, server.Features{
		Management: []server.ManagementRoutes{
			sessionH,
			ndaH,
			approvalhandler.New(approvalSvc),
			audithandler.New(auditSvc),
			documenthandler.New(documents),
		},
		Public: []server.PublicRoutes{sessionH, ndaH},
	})

	srv := server.New(cfg.HTTPAddr, router)
	go func() {
		log.Printf("HTTP server listening on %s", cfg.HTTPAddr)
		if err := srv.Start(); err != nil {
			log.Fatalf("serve: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("shutting down HTTP server...")
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("shutdown: %v", err)
	}

	// Give in-flight async emits time to land before tearing telemetry down.
	time.Sleep(telemetry.ShutdownDrainDuration)
	if err := kafkaProducer.Close(); err != nil {
		log.Printf("kafka close: %v", err)
	}
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := providers.Shutdown(shutdownCtx); err != nil {
		log.Printf("telemetry shutdown: %v", err)
	}
	log.Println("HTTP server stopped")
}
