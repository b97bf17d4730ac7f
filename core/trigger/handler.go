package trigger

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"retrain-orchestrator/core/models"

	"github.com/google/uuid"
)

// maxExecutionsChecked bounds the dedup lookback over recent executions.
const maxExecutionsChecked = 5

// DefaultInstanceType is passed through to every auto-triggered execution.
const DefaultInstanceType = "ml.m5.large"

// SkippedMessage is the body message when an active execution suppressed
// the start.
const SkippedMessage = "Skipped - pipeline already executing"

// defaultLockTTL bounds how long an execution lock may outlive a crashed
// holder before another trigger can reclaim it.
const defaultLockTTL = 15 * time.Minute

// Parameter is one named pipeline parameter passed at start.
type Parameter struct {
	Name  string
	Value string
}

// StartRequest carries everything needed to start one pipeline execution.
type StartRequest struct {
	PipelineName string
	DisplayName  string
	Description  string
	Parameters   []Parameter
	RequestToken string
}

// PipelineClient is the surface of the managed pipeline service the
// handler needs.
type PipelineClient interface {
	ListRecentExecutions(ctx context.Context, pipelineName string, max int32) ([]models.ExecutionSummary, error)
	StartExecution(ctx context.Context, req StartRequest) (string, error)
}

// LockStore guards against concurrent starts with a conditional write
// keyed by pipeline name.
type LockStore interface {
	Acquire(ctx context.Context, pipelineName, owner string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, pipelineName, owner string) error
}

// Handler decides whether an upload notification starts a new pipeline
// execution. It holds no shared state across invocations; the hosting
// layer may invoke it concurrently for distinct events.
type Handler struct {
	client       PipelineClient
	locks        LockStore
	pipelineName string
	lockTTL      time.Duration
	now          func() time.Time
}

// NewHandler creates a trigger handler. locks may be nil, in which case
// dedup relies on the execution status listing alone.
func NewHandler(client PipelineClient, locks LockStore, pipelineName string) *Handler {
	return &Handler{
		client:       client,
		locks:        locks,
		pipelineName: pipelineName,
		lockTTL:      defaultLockTTL,
		now:          time.Now,
	}
}

// Handle processes one upload notification.
func (h *Handler) Handle(ctx context.Context, event models.TriggerEvent) models.TriggerResponse {
	if h.pipelineName == "" {
		return models.NewTriggerResponse(http.StatusInternalServerError,
			models.ErrorBody{Error: "PIPELINE_NAME environment variable not set"})
	}

	if err := event.Validate(); err != nil {
		return models.NewTriggerResponse(http.StatusBadRequest,
			models.ErrorBody{Error: err.Error()})
	}

	bucket := event.Detail.Bucket.Name
	key := event.Detail.Object.Key
	log.Printf("Triggered by S3 upload: s3://%s/%s", bucket, key)

	if h.isPipelineRunning(ctx) {
		log.Printf("Pipeline %q is already running. Skipping new execution trigger.", h.pipelineName)
		return h.skipped(bucket, key)
	}

	owner := uuid.New().String()
	if h.locks != nil {
		acquired, err := h.locks.Acquire(ctx, h.pipelineName, owner, h.lockTTL)
		if err != nil {
			// Fail open, same as the status check: a lock-store outage must
			// not deadlock future runs.
			log.Printf("Could not acquire execution lock: %v. Proceeding anyway.", err)
		} else if !acquired {
			log.Printf("Execution lock for %q held elsewhere. Skipping new execution trigger.", h.pipelineName)
			return h.skipped(bucket, key)
		}
	}

	executionName := fmt.Sprintf("auto-trigger-%s", h.now().UTC().Format("20060102-150405"))
	log.Printf("Starting pipeline execution: %s", executionName)

	arn, err := h.client.StartExecution(ctx, StartRequest{
		PipelineName: h.pipelineName,
		DisplayName:  executionName,
		Description:  fmt.Sprintf("Auto triggered by S3 upload at s3://%s/%s", bucket, key),
		Parameters:   []Parameter{{Name: "InstanceType", Value: DefaultInstanceType}},
		RequestToken: owner,
	})
	if err != nil {
		if h.locks != nil {
			if rerr := h.locks.Release(ctx, h.pipelineName, owner); rerr != nil {
				log.Printf("Could not release execution lock: %v", rerr)
			}
		}
		return models.NewTriggerResponse(http.StatusInternalServerError,
			models.ErrorBody{Error: fmt.Sprintf("Error starting pipeline: %v", err)})
	}

	// On success the lock is left to expire with its TTL; it stands in for
	// the execution being in flight.

	log.Printf("Pipeline execution started: %s", arn)
	return models.NewTriggerResponse(http.StatusOK, models.StartedBody{
		Message:      "Pipeline execution started",
		PipelineName: h.pipelineName,
		ExecutionARN: arn,
		Trigger:      models.TriggerInfo{Bucket: bucket, Key: key},
	})
}

// isPipelineRunning reports whether any of the most recent executions is
// still active. A failed status check counts as not running: the design
// accepts a possible double start over deadlocking future runs on an
// observability failure.
func (h *Handler) isPipelineRunning(ctx context.Context) bool {
	executions, err := h.client.ListRecentExecutions(ctx, h.pipelineName, maxExecutionsChecked)
	if err != nil {
		log.Printf("Could not check pipeline execution status: %v. Proceeding anyway.", err)
		return false
	}

	for _, e := range executions {
		if e.Status.IsActive() {
			log.Printf("Found active execution: %s (status: %s)", e.ARN, e.Status)
			return true
		}
	}
	return false
}

func (h *Handler) skipped(bucket, key string) models.TriggerResponse {
	return models.NewTriggerResponse(http.StatusOK, models.SkippedBody{
		Message:      SkippedMessage,
		PipelineName: h.pipelineName,
		Trigger:      models.TriggerInfo{Bucket: bucket, Key: key},
	})
}
