package batch

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsbatch "github.com/aws/aws-sdk-go-v2/service/batch"
	"github.com/aws/aws-sdk-go-v2/service/batch/types"
	"go.uber.org/zap"

	"github.com/heritage-archive/archive-service/internal/config"
)

// JobSpec describes one submission to the external batch-compute service.
type JobSpec struct {
	Name        string
	Environment map[string]string
}

// JobDetail is the subset of external job state the service consumes.
type JobDetail struct {
	JobID        string
	JobName      string
	Status       string
	StatusReason string
	CreatedAt    *time.Time
	StartedAt    *time.Time
	StoppedAt    *time.Time
}

// JobRunner abstracts the batch-compute service so the task tracker can be
// exercised without AWS. Every call is bounded by the configured timeout.
type JobRunner interface {
	SubmitJob(ctx context.Context, spec JobSpec) (string, error)
	DescribeJobs(ctx context.Context, jobIDs []string) ([]JobDetail, error)
	ListQueueJobs(ctx context.Context) ([]JobDetail, error)
	Configured() bool
}

// Client wraps the AWS Batch API.
type Client struct {
	api    *awsbatch.Client
	cfg    config.BatchConfig
	logger *zap.Logger
}

// NewClient builds a batch client from the default AWS credential chain.
func NewClient(ctx context.Context, cfg config.BatchConfig, logger *zap.Logger) (*Client, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return &Client{
		api:    awsbatch.NewFromConfig(awsCfg),
		cfg:    cfg,
		logger: logger,
	}, nil
}

// Configured reports whether job submission is possible.
func (c *Client) Configured() bool {
	return c.cfg.Configured()
}

// SubmitJob hands a job to the batch queue and returns the external job id.
func (c *Client) SubmitJob(ctx context.Context, spec JobSpec) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.RequestTimeout())
	defer cancel()

	env := make([]types.KeyValuePair, 0, len(spec.Environment))
	for name, value := range spec.Environment {
		env = append(env, types.KeyValuePair{Name: aws.String(name), Value: aws.String(value)})
	}

	out, err := c.api.SubmitJob(ctx, &awsbatch.SubmitJobInput{
		JobName:       aws.String(spec.Name),
		JobQueue:      aws.String(c.cfg.JobQueue),
		JobDefinition: aws.String(c.cfg.JobDefinition),
		ContainerOverrides: &types.ContainerOverrides{
			Environment: env,
		},
	})
	if err != nil {
		return "", fmt.Errorf("submit batch job: %w", err)
	}
	return aws.ToString(out.JobId), nil
}

// DescribeJobs fetches live state for the given external job ids.
func (c *Client) DescribeJobs(ctx context.Context, jobIDs []string) ([]JobDetail, error) {
	if len(jobIDs) == 0 {
		return nil, nil
	}
	ctx, cancel := context.WithTimeout(ctx, c.cfg.RequestTimeout())
	defer cancel()

	out, err := c.api.DescribeJobs(ctx, &awsbatch.DescribeJobsInput{Jobs: jobIDs})
	if err != nil {
		return nil, fmt.Errorf("describe batch jobs: %w", err)
	}

	details := make([]JobDetail, 0, len(out.Jobs))
	for _, job := range out.Jobs {
		details = append(details, jobDetailFrom(job))
	}
	return details, nil
}

var listStatuses = []types.JobStatus{
	types.JobStatusSubmitted,
	types.JobStatusPending,
	types.JobStatusRunnable,
	types.JobStatusStarting,
	types.JobStatusRunning,
	types.JobStatusSucceeded,
	types.JobStatusFailed,
}

// ListQueueJobs aggregates jobs across every state in the configured queue.
// Per-state list failures are logged and skipped so one bad state cannot
// blank the whole overview.
func (c *Client) ListQueueJobs(ctx context.Context) ([]JobDetail, error) {
	var all []JobDetail
	for _, status := range listStatuses {
		ids, err := c.listJobIDs(ctx, status)
		if err != nil {
			c.logger.Warn("list batch jobs failed for status",
				zap.String("status", string(status)), zap.Error(err))
			continue
		}
		if len(ids) == 0 {
			continue
		}
		details, err := c.DescribeJobs(ctx, ids)
		if err != nil {
			c.logger.Warn("describe batch jobs failed",
				zap.String("status", string(status)), zap.Error(err))
			continue
		}
		all = append(all, details...)
	}
	return all, nil
}

func (c *Client) listJobIDs(ctx context.Context, status types.JobStatus) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.RequestTimeout())
	defer cancel()

	out, err := c.api.ListJobs(ctx, &awsbatch.ListJobsInput{
		JobQueue:   aws.String(c.cfg.JobQueue),
		JobStatus:  status,
		MaxResults: aws.Int32(100),
	})
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(out.JobSummaryList))
	for _, summary := range out.JobSummaryList {
		ids = append(ids, aws.ToString(summary.JobId))
	}
	return ids, nil
}

func jobDetailFrom(job types.JobDetail) JobDetail {
	return JobDetail{
		JobID:        aws.ToString(job.JobId),
		JobName:      aws.ToString(job.JobName),
		Status:       string(job.Status),
		StatusReason: aws.ToString(job.StatusReason),
		CreatedAt:    millisToTime(job.CreatedAt),
		StartedAt:    millisToTime(job.StartedAt),
		StoppedAt:    millisToTime(job.StoppedAt),
	}
}

func millisToTime(millis *int64) *time.Time {
	if millis == nil {
		return nil
	}
	t := time.UnixMilli(*millis)
	return &t
}
