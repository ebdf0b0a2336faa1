// package main wires the cloudmend-backend microservice: database, risk
// scoring, the remediation engine, the Kafka finding consumer and the
// REST/GraphQL API.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/cloudmend/cloudmend-backend/database"
	"github.com/cloudmend/cloudmend-backend/events/modules/findings"
	"github.com/cloudmend/cloudmend-backend/internal/api"
	"github.com/cloudmend/cloudmend-backend/internal/cloud"
	"github.com/cloudmend/cloudmend-backend/internal/config"
	"github.com/cloudmend/cloudmend-backend/internal/engine"
	"github.com/cloudmend/cloudmend-backend/internal/kafka"
	"github.com/cloudmend/cloudmend-backend/internal/risk"
	"github.com/cloudmend/cloudmend-backend/internal/services"
	"github.com/cloudmend/cloudmend-backend/internal/threat"
	"github.com/cloudmend/cloudmend-backend/model"
	"github.com/cloudmend/cloudmend-backend/restapi"
)

func main() {
	zapLogger := database.InitLogger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize database connection
	db := database.InitializeDatabase()
	store := database.NewStore(db)

	// Cloud clients for state snapshots and direct API remediations
	clients, err := cloud.LoadClientSet(context.Background(), cfg.AWSRegion)
	if err != nil {
		log.Fatalf("Failed to load AWS configuration: %v", err)
	}
	snapshots := cloud.NewSnapshotService(clients, zapLogger)
	invoker := cloud.NewInvoker(clients, zapLogger)

	// Task executors, one per plan task type
	executors := map[string]engine.TaskExecutor{
		model.TaskTypeTerraform:      &engine.TerraformExecutor{Runner: engine.ExecRunner{}},
		model.TaskTypeCloudFormation: &engine.CloudFormationExecutor{Runner: engine.ExecRunner{}},
		model.TaskTypeBoto3:          &engine.Boto3Executor{Invoker: invoker},
		model.TaskTypeManual:         &engine.ManualExecutor{},
	}

	assessor := risk.NewAssessor(threat.NewDetector(), zapLogger)
	rollback := engine.NewRollbackManager(snapshots, executors, zapLogger)

	eng := engine.New(
		cfg.EngineConfig(),
		store,
		assessor,
		executors,
		rollback,
		engine.NewRetryRecovery(zapLogger),
		engine.NewResilienceManager(zapLogger),
		engine.NewPerformanceMonitor(zapLogger),
		store,
		zapLogger,
	)
	eng.RegisterAdvisor(&services.HistoryAdvisor{Store: store})

	// Finding ingestion service, with the scored-event producer when Kafka is on
	service := &services.FindingServiceWrapper{Store: store}
	if cfg.Kafka.Enabled {
		producer := findings.NewScoreProducer([]string{cfg.Kafka.Broker}, cfg.Kafka.Topic+"-scored")
		defer producer.Close()
		service.Producer = producer
	}

	rescorer := risk.NewBatchScorer(store, store, cfg.Rescore.BatchSize, cfg.Rescore.MaxConcurrency, zapLogger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Kafka.Enabled {
		go func() {
			if err := kafka.RunEventProcessor(ctx, cfg.Kafka, service); err != nil {
				log.Printf("WARNING: Kafka event processor stopped: %v", err)
			}
		}()
	}

	app := api.NewFiberApp(restapi.Deps{
		Store:    store,
		Engine:   eng,
		Service:  service,
		Rescorer: rescorer,
	})

	go func() {
		<-ctx.Done()
		log.Printf("Shutdown signal received, stopping")
		eng.Shutdown()
		if err := app.Shutdown(); err != nil {
			log.Printf("WARNING: Fiber shutdown: %v", err)
		}
	}()

	// Start server
	log.Printf("Starting server on port %s", cfg.APIPort)
	log.Printf("GraphQL endpoint available at /api/v1/graphql")
	if err := app.Listen(":" + cfg.APIPort); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
