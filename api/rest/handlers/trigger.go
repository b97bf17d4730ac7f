package handlers

import (
	"encoding/json"
	"net/http"

	"retrain-orchestrator/core/models"
	"retrain-orchestrator/core/trigger"
)

// TriggerHandler exposes the pipeline trigger over HTTP for local testing
// and manual retriggers, with the same response bodies as the event-driven
// entry point.
type TriggerHandler struct {
	handler *trigger.Handler
}

// NewTriggerHandler creates a new trigger handler
func NewTriggerHandler(h *trigger.Handler) *TriggerHandler {
	return &TriggerHandler{handler: h}
}

// Trigger handles POST /v1/trigger
func (h *TriggerHandler) Trigger(w http.ResponseWriter, r *http.Request) {
	var event models.TriggerEvent
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	resp := h.handler.Handle(r.Context(), event)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(resp.StatusCode)
	w.Write([]byte(resp.Body))
}
