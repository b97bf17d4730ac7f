package routes

import (
	"retrain-orchestrator/api/rest/handlers"
	"retrain-orchestrator/core/trigger"

	"github.com/gorilla/mux"
)

// SetupRoutes configures all API routes
func SetupRoutes(r *mux.Router, h *trigger.Handler, client trigger.PipelineClient, pipelineName string) {
	triggerHandler := handlers.NewTriggerHandler(h)
	executionHandler := handlers.NewExecutionHandler(client, pipelineName)

	api := r.PathPrefix("/v1").Subrouter()

	api.HandleFunc("/trigger", triggerHandler.Trigger).Methods("POST")
	api.HandleFunc("/executions", executionHandler.ListExecutions).Methods("GET")
}
