package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"runtime/debug"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/leadscout/api/internal/apperr"
	"github.com/leadscout/api/internal/client"
	"github.com/leadscout/api/internal/model"
	"github.com/leadscout/api/internal/store"
)

const (
	TaskTypeScrape = "scrape:run"
	QueueScrape    = "scrape"

	finalizeTimeout = 5 * time.Second
)

// Pipeline steps reported to subscribers
const (
	StepCreated    = "Job created"
	StepPreparing  = "Preparing query"
	StepGenerating = "Generating records"
	StepArchiving  = "Archiving results"
	StepCompleted  = "Completed"
)

// RecordGenerator produces business records for a query
type RecordGenerator interface {
	Generate(queryText, location string, resultLimit int) ([]model.BusinessRecord, error)
}

// ProgressPublisher receives live progress of running jobs
type ProgressPublisher interface {
	PublishProgress(jobID string, progress int, state model.JobState, step string)
	PublishComplete(jobID string, totalFound int, resultsURL string)
	PublishError(jobID string, code, message string)
}

type nopPublisher struct{}

func (nopPublisher) PublishProgress(string, int, model.JobState, string) {}
func (nopPublisher) PublishComplete(string, int, string)                 {}
func (nopPublisher) PublishError(string, string, string)                 {}

// ScrapeService is the job runner: it owns the record lifecycle of every scrape job
type ScrapeService struct {
	store       store.JobStore
	generator   RecordGenerator
	publisher   ProgressPublisher
	archive     client.StorageClient
	validate    *validator.Validate
	asynqClient *asynq.Client
	inspector   *asynq.Inspector
}

// Option configures optional collaborators of the service
type Option func(*ScrapeService)

// WithPublisher streams job progress to p
func WithPublisher(p ProgressPublisher) Option {
	return func(s *ScrapeService) {
		s.publisher = p
	}
}

// WithArchive uploads completed results to object storage
func WithArchive(c client.StorageClient) Option {
	return func(s *ScrapeService) {
		s.archive = c
	}
}

// WithQueue enables asynchronous submission through asynq
func WithQueue(asynqClient *asynq.Client, inspector *asynq.Inspector) Option {
	return func(s *ScrapeService) {
		s.asynqClient = asynqClient
		s.inspector = inspector
	}
}

func NewScrapeService(jobStore store.JobStore, gen RecordGenerator, opts ...Option) *ScrapeService {
	s := &ScrapeService{
		store:     jobStore,
		generator: gen,
		publisher: nopPublisher{},
		validate:  validator.New(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// QueueEnabled reports whether Enqueue can accept jobs
func (s *ScrapeService) QueueEnabled() bool {
	return s.asynqClient != nil
}

// ArchiveEnabled reports whether results are uploaded on completion
func (s *ScrapeService) ArchiveEnabled() bool {
	return s.archive != nil
}

// Validate checks a job request before any record is created
func (s *ScrapeService) Validate(req model.JobRequest) error {
	if err := s.validate.Struct(req); err != nil {
		return apperr.Wrap(apperr.KindInvalidArgument, err, "invalid job request")
	}
	if strings.TrimSpace(req.QueryText) == "" {
		return apperr.New(apperr.KindInvalidArgument, "queryText must not be empty")
	}
	return nil
}

// Run executes a scrape job synchronously and returns its results
func (s *ScrapeService) Run(ctx context.Context, req model.JobRequest) (*model.RunResult, error) {
	return s.RunJob(ctx, uuid.New().String(), req)
}

// RunJob executes a scrape job under a caller-provided id.
// The record is always completed or failed by the time RunJob returns.
func (s *ScrapeService) RunJob(ctx context.Context, jobID string, req model.JobRequest) (result *model.RunResult, err error) {
	if err := s.Validate(req); err != nil {
		return nil, err
	}

	if _, err := s.store.Create(ctx, jobID, req); err != nil {
		return nil, apperr.Wrap(apperr.KindRunnerFailure, err, "failed to create job")
	}

	log.Printf("[Scrape] Job %s started: query=%q location=%q limit=%d", jobID, req.QueryText, req.Location, req.ResultLimit)
	s.publisher.PublishProgress(jobID, 0, model.JobStateRunning, StepCreated)

	run := &jobRun{id: jobID}
	defer func() {
		if p := recover(); p != nil {
			log.Printf("[Scrape] Job %s panicked: %v\n%s", jobID, p, debug.Stack())
			result = nil
			err = apperr.New(apperr.KindRunnerFailure, "job runner panicked: %v", p)
		}
		if err != nil && !run.finalized {
			s.fail(ctx, jobID, err)
		}
	}()

	return s.execute(ctx, run, req)
}

type jobRun struct {
	id        string
	progress  int
	finalized bool
}

func (s *ScrapeService) execute(ctx context.Context, run *jobRun, req model.JobRequest) (*model.RunResult, error) {
	if err := s.advance(ctx, run, 10, StepPreparing); err != nil {
		return nil, err
	}
	if err := s.advance(ctx, run, 30, StepGenerating); err != nil {
		return nil, err
	}

	records, err := s.generator.Generate(req.QueryText, req.Location, req.ResultLimit)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindRunnerFailure, err, "failed to generate records")
	}
	if len(records) > req.ResultLimit {
		records = records[:req.ResultLimit]
	}
	if records == nil {
		records = []model.BusinessRecord{}
	}

	var resultsURL string
	if s.archive != nil {
		if err := s.advance(ctx, run, 90, StepArchiving); err != nil {
			return nil, err
		}
		resultsURL, err = s.archiveResults(ctx, run.id, records)
		if err != nil {
			log.Printf("[Scrape] Failed to archive results of job %s: %v", run.id, err)
		}
	}

	now := time.Now().UTC()
	upd := model.JobUpdate{
		State:           model.Ptr(model.JobStateCompleted),
		ProgressPercent: model.Ptr(100),
		CurrentStep:     model.Ptr(StepCompleted),
		CompletedAt:     &now,
		ResultCount:     model.Ptr(len(records)),
		Results:         records,
	}
	if resultsURL != "" {
		upd.ResultsURL = &resultsURL
	}

	fctx, cancel := finalizeContext(ctx)
	defer cancel()
	if err := s.store.Update(fctx, run.id, upd); err != nil {
		return nil, apperr.Wrap(apperr.KindRunnerFailure, err, "failed to complete job")
	}
	run.finalized = true

	s.publisher.PublishComplete(run.id, len(records), resultsURL)
	log.Printf("[Scrape] Job %s completed with %d records", run.id, len(records))

	return &model.RunResult{JobID: run.id, Results: records}, nil
}

// advance raises the job's progress; it never lowers it
func (s *ScrapeService) advance(ctx context.Context, run *jobRun, percent int, step string) error {
	if err := ctx.Err(); err != nil {
		return apperr.Wrap(apperr.KindCancelled, err, "job cancelled")
	}
	if percent <= run.progress {
		return nil
	}

	if err := s.store.Update(ctx, run.id, model.JobUpdate{
		ProgressPercent: &percent,
		CurrentStep:     &step,
	}); err != nil {
		return apperr.Wrap(apperr.KindRunnerFailure, err, "failed to update progress")
	}

	run.progress = percent
	s.publisher.PublishProgress(run.id, percent, model.JobStateRunning, step)
	return nil
}

func (s *ScrapeService) fail(ctx context.Context, jobID string, cause error) {
	detail := apperr.Detail(cause)
	now := time.Now().UTC()

	fctx, cancel := finalizeContext(ctx)
	defer cancel()
	if err := s.store.Update(fctx, jobID, model.JobUpdate{
		State:       model.Ptr(model.JobStateFailed),
		CompletedAt: &now,
		ErrorDetail: &detail,
	}); err != nil {
		log.Printf("[Scrape] Failed to mark job %s as failed: %v", jobID, err)
	}

	kind := apperr.KindOf(cause)
	if kind == "" {
		kind = apperr.KindRunnerFailure
	}
	s.publisher.PublishError(jobID, string(kind), detail)
	log.Printf("[Scrape] Job %s failed: %v", jobID, cause)
}

func (s *ScrapeService) archiveResults(ctx context.Context, jobID string, records []model.BusinessRecord) (string, error) {
	data, err := json.Marshal(records)
	if err != nil {
		return "", fmt.Errorf("failed to marshal results: %w", err)
	}
	key := fmt.Sprintf("jobs/%s/results.json", jobID)
	return s.archive.Upload(ctx, key, bytes.NewReader(data), "application/json")
}

// finalizeContext detaches terminal writes from the caller's cancellation
func finalizeContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), finalizeTimeout)
}

// Enqueue queues a scrape job for the background worker
func (s *ScrapeService) Enqueue(ctx context.Context, req model.JobRequest) (*model.ScrapeEnqueueResponse, error) {
	if err := s.Validate(req); err != nil {
		return nil, err
	}
	if s.asynqClient == nil {
		return nil, apperr.New(apperr.KindConfigurationMissing, "job queue is not enabled")
	}

	jobID := uuid.New().String()
	task, err := newScrapeTask(jobID, req)
	if err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	_, err = s.asynqClient.EnqueueContext(ctx, task,
		asynq.Queue(QueueScrape),
		asynq.TaskID(jobID),
		asynq.MaxRetry(0),
		asynq.Retention(24*time.Hour),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to enqueue task: %w", err)
	}

	log.Printf("[Scrape] Job %s queued", jobID)
	return &model.ScrapeEnqueueResponse{
		JobID: jobID,
		State: model.JobStatePending,
	}, nil
}

// Get returns the job record, or a pending placeholder for queued jobs not yet picked up
func (s *ScrapeService) Get(ctx context.Context, jobID string) (*model.JobRecord, error) {
	rec, err := s.store.Get(ctx, jobID)
	if err == nil {
		return rec, nil
	}
	if !errors.Is(err, apperr.ErrNotFound) || s.inspector == nil {
		return nil, err
	}

	info, ierr := s.inspector.GetTaskInfo(QueueScrape, jobID)
	if ierr != nil {
		return nil, err
	}
	switch info.State {
	case asynq.TaskStatePending, asynq.TaskStateScheduled, asynq.TaskStateActive, asynq.TaskStateRetry:
	default:
		return nil, err
	}

	var payload model.ScrapeJobPayload
	if jerr := json.Unmarshal(info.Payload, &payload); jerr != nil {
		return nil, fmt.Errorf("failed to unmarshal task payload: %w", jerr)
	}

	return &model.JobRecord{
		ID:      jobID,
		Request: payload.Request,
		State:   model.JobStatePending,
	}, nil
}

func newScrapeTask(jobID string, req model.JobRequest) (*asynq.Task, error) {
	data, err := json.Marshal(model.ScrapeJobPayload{JobID: jobID, Request: req})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeScrape, data), nil
}
