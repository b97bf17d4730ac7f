package models

import "time"

// ExecutionStatus is the status vocabulary the managed pipeline service
// reports for an execution.
type ExecutionStatus string

const (
	ExecutionStatusExecuting ExecutionStatus = "Executing"
	ExecutionStatusStopping  ExecutionStatus = "Stopping"
	ExecutionStatusStopped   ExecutionStatus = "Stopped"
	ExecutionStatusSucceeded ExecutionStatus = "Succeeded"
	ExecutionStatusFailed    ExecutionStatus = "Failed"
)

// IsActive reports whether the execution still occupies the pipeline.
func (s ExecutionStatus) IsActive() bool {
	return s == ExecutionStatusExecuting || s == ExecutionStatusStopping
}

// ExecutionSummary is one pipeline execution record as reported by the
// service. The trigger handler only reads these; it never mutates them.
type ExecutionSummary struct {
	ARN         string          `json:"arn"`
	DisplayName string          `json:"display_name"`
	Status      ExecutionStatus `json:"status"`
	CreatedAt   time.Time       `json:"created_at"`
}
