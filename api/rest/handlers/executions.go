package handlers

import (
	"encoding/json"
	"net/http"

	"retrain-orchestrator/core/trigger"
)

// ExecutionHandler serves read-only views of recent pipeline executions.
type ExecutionHandler struct {
	client       trigger.PipelineClient
	pipelineName string
}

// NewExecutionHandler creates a new execution handler
func NewExecutionHandler(client trigger.PipelineClient, pipelineName string) *ExecutionHandler {
	return &ExecutionHandler{client: client, pipelineName: pipelineName}
}

// ListExecutions handles GET /v1/executions
func (h *ExecutionHandler) ListExecutions(w http.ResponseWriter, r *http.Request) {
	executions, err := h.client.ListRecentExecutions(r.Context(), h.pipelineName, 5)
	if err != nil {
		http.Error(w, "Failed to list executions: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"pipeline_name": h.pipelineName,
		"items":         executions,
	})
}
