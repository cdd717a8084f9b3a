package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/hibiken/asynq"

	"github.com/leadscout/api/internal/model"
)

// JobRunner executes a scrape job under a fixed id
type JobRunner interface {
	RunJob(ctx context.Context, jobID string, req model.JobRequest) (*model.RunResult, error)
}

// ScrapeWorker processes queued scrape jobs
type ScrapeWorker struct {
	runner JobRunner
}

// NewScrapeWorker creates a new scrape worker
func NewScrapeWorker(runner JobRunner) *ScrapeWorker {
	return &ScrapeWorker{runner: runner}
}

// ProcessTask handles scrape task processing. The runner finalizes the job
// record itself, so failed tasks are never retried.
func (w *ScrapeWorker) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload model.ScrapeJobPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal task payload: %v: %w", err, asynq.SkipRetry)
	}
	if payload.JobID == "" {
		return fmt.Errorf("task payload has no job id: %w", asynq.SkipRetry)
	}

	log.Printf("Starting scrape job: %s", payload.JobID)

	result, err := w.runner.RunJob(ctx, payload.JobID, payload.Request)
	if err != nil {
		return fmt.Errorf("scrape job %s failed: %v: %w", payload.JobID, err, asynq.SkipRetry)
	}

	log.Printf("Scrape job %s completed with %d records", payload.JobID, len(result.Results))
	return nil
}
