package models

import (
	"encoding/json"
	"errors"
)

// TriggerEvent is the S3 upload notification delivered by the event bus.
//
// Event structure:
//
//	{
//	    "detail": {
//	        "bucket": {"name": "bucket-name"},
//	        "object": {"key": "data/train/new-data.csv"}
//	    }
//	}
type TriggerEvent struct {
	Detail struct {
		Bucket struct {
			Name string `json:"name"`
		} `json:"bucket"`
		Object struct {
			Key string `json:"key"`
		} `json:"object"`
	} `json:"detail"`
}

// Validate checks that the event carries the fields the trigger needs.
func (e *TriggerEvent) Validate() error {
	if e.Detail.Bucket.Name == "" {
		return errors.New("invalid event structure: missing detail.bucket.name")
	}
	if e.Detail.Object.Key == "" {
		return errors.New("invalid event structure: missing detail.object.key")
	}
	return nil
}

// TriggerResponse is the handler result in the event-layer contract shape.
type TriggerResponse struct {
	StatusCode int    `json:"statusCode"`
	Body       string `json:"body"`
}

// TriggerInfo echoes the upload that caused the invocation.
type TriggerInfo struct {
	Bucket string `json:"bucket"`
	Key    string `json:"key"`
}

// StartedBody is the response body when a new execution was started.
type StartedBody struct {
	Message      string      `json:"message"`
	PipelineName string      `json:"pipeline_name"`
	ExecutionARN string      `json:"execution_arn"`
	Trigger      TriggerInfo `json:"trigger"`
}

// SkippedBody is the response body when an active execution suppressed the start.
type SkippedBody struct {
	Message      string      `json:"message"`
	PipelineName string      `json:"pipeline_name"`
	Trigger      TriggerInfo `json:"trigger"`
}

// ErrorBody is the response body for configuration, input and service failures.
type ErrorBody struct {
	Error string `json:"error"`
}

// NewTriggerResponse marshals body into the event-layer response shape.
func NewTriggerResponse(statusCode int, body interface{}) TriggerResponse {
	b, err := json.Marshal(body)
	if err != nil {
		// The body types above cannot fail to marshal.
		b = []byte(`{"error":"failed to encode response body"}`)
	}
	return TriggerResponse{StatusCode: statusCode, Body: string(b)}
}
