package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"retrain-orchestrator/api/rest/routes"
	"retrain-orchestrator/config"
	"retrain-orchestrator/core/monitoring"
	"retrain-orchestrator/core/repository"
	"retrain-orchestrator/core/trigger"
	awsprovider "retrain-orchestrator/providers/aws"

	"github.com/gorilla/mux"
)

func main() {
	cfg := config.Load()
	if cfg.PipelineName == "" {
		log.Fatalf("PIPELINE_NAME environment variable not set")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client, err := awsprovider.NewClient(ctx, cfg.AWSRegion)
	if err != nil {
		log.Fatalf("Failed to create AWS client: %v", err)
	}

	// Execution lock store is optional; without it dedup relies on the
	// status listing alone.
	var locks trigger.LockStore
	if cfg.DatabaseURL != "" {
		db, err := repository.NewDB(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer db.Close()

		lockRepo := repository.NewExecutionLockRepository(db)
		if err := lockRepo.EnsureSchema(ctx); err != nil {
			log.Fatalf("Failed to prepare lock table: %v", err)
		}
		locks = lockRepo
		log.Println("Execution lock store connected")
	}

	handler := trigger.NewHandler(client, locks, cfg.PipelineName)

	// Log execution status transitions in the background
	monitor := monitoring.NewExecutionMonitor(client, cfg.PipelineName)
	go monitor.Start(ctx)

	r := mux.NewRouter()
	routes.SetupRoutes(r, handler, client, cfg.PipelineName)

	// Health check endpoint
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}).Methods("GET")

	server := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: r,
	}

	// Graceful shutdown
	go func() {
		log.Printf("Starting server on port %s", cfg.ServerPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	if err := server.Shutdown(context.Background()); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}
	log.Println("Server exited")
}
