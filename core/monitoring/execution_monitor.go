package monitoring

import (
	"context"
	"log"
	"time"

	"retrain-orchestrator/core/models"
	"retrain-orchestrator/core/trigger"
)

// ExecutionMonitor periodically lists recent pipeline executions and logs
// status transitions. Read-only observability; it never starts or stops
// anything.
type ExecutionMonitor struct {
	client       trigger.PipelineClient
	pipelineName string
	interval     time.Duration
	seen         map[string]models.ExecutionStatus
}

// NewExecutionMonitor creates a new execution monitor
func NewExecutionMonitor(client trigger.PipelineClient, pipelineName string) *ExecutionMonitor {
	return &ExecutionMonitor{
		client:       client,
		pipelineName: pipelineName,
		interval:     30 * time.Second,
		seen:         make(map[string]models.ExecutionStatus),
	}
}

// Start runs the monitoring loop until ctx is cancelled.
func (m *ExecutionMonitor) Start(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.poll(ctx)
		}
	}
}

func (m *ExecutionMonitor) poll(ctx context.Context) {
	executions, err := m.client.ListRecentExecutions(ctx, m.pipelineName, 5)
	if err != nil {
		log.Printf("Failed to list pipeline executions: %v", err)
		return
	}

	for _, e := range executions {
		prev, ok := m.seen[e.ARN]
		if !ok {
			log.Printf("Execution %s (%s): %s", e.DisplayName, e.ARN, e.Status)
		} else if prev != e.Status {
			log.Printf("Execution %s (%s): %s -> %s", e.DisplayName, e.ARN, prev, e.Status)
		}
		m.seen[e.ARN] = e.Status
	}
}
