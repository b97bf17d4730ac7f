package aws

import (
	"context"

	"retrain-orchestrator/core/models"
	"retrain-orchestrator/core/trigger"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sagemaker"
	"github.com/aws/aws-sdk-go-v2/service/sagemaker/types"
)

// Client is the AWS client for the managed pipeline service.
type Client struct {
	sm *sagemaker.Client
}

// NewClient creates a new AWS client
func NewClient(ctx context.Context, region string) (*Client, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, err
	}

	return &Client{sm: sagemaker.NewFromConfig(cfg)}, nil
}

// ListRecentExecutions lists the newest executions of the pipeline,
// ordered newest-first by creation time.
func (c *Client) ListRecentExecutions(ctx context.Context, pipelineName string, max int32) ([]models.ExecutionSummary, error) {
	out, err := c.sm.ListPipelineExecutions(ctx, &sagemaker.ListPipelineExecutionsInput{
		PipelineName: aws.String(pipelineName),
		SortBy:       types.SortPipelineExecutionsByCreationTime,
		SortOrder:    types.SortOrderDescending,
		MaxResults:   aws.Int32(max),
	})
	if err != nil {
		return nil, err
	}

	summaries := make([]models.ExecutionSummary, 0, len(out.PipelineExecutionSummaries))
	for _, s := range out.PipelineExecutionSummaries {
		summary := models.ExecutionSummary{
			ARN:         aws.ToString(s.PipelineExecutionArn),
			DisplayName: aws.ToString(s.PipelineExecutionDisplayName),
			Status:      models.ExecutionStatus(s.PipelineExecutionStatus),
		}
		if s.StartTime != nil {
			summary.CreatedAt = *s.StartTime
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

// StartExecution starts a new pipeline execution and returns its ARN.
func (c *Client) StartExecution(ctx context.Context, req trigger.StartRequest) (string, error) {
	params := make([]types.Parameter, 0, len(req.Parameters))
	for _, p := range req.Parameters {
		params = append(params, types.Parameter{
			Name:  aws.String(p.Name),
			Value: aws.String(p.Value),
		})
	}

	input := &sagemaker.StartPipelineExecutionInput{
		PipelineName:                 aws.String(req.PipelineName),
		PipelineExecutionDisplayName: aws.String(req.DisplayName),
		PipelineExecutionDescription: aws.String(req.Description),
		PipelineParameters:           params,
	}
	if req.RequestToken != "" {
		input.ClientRequestToken = aws.String(req.RequestToken)
	}

	out, err := c.sm.StartPipelineExecution(ctx, input)
	if err != nil {
		return "", err
	}
	return aws.ToString(out.PipelineExecutionArn), nil
}
