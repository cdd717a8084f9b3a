// Package orchestrator drives scrape jobs on a remote runner, one at a time,
// and relays their progress to the caller.
package orchestrator

import (
	"context"
	"errors"
	"log"
	"sync"

	"github.com/leadscout/api/internal/apperr"
	"github.com/leadscout/api/internal/client"
	"github.com/leadscout/api/internal/model"
)

// State is the orchestrator-local lifecycle of the in-flight job
type State string

const (
	StateIdle      State = "idle"
	StateStarting  State = "starting"
	StateRunning   State = "running"
	StateCompleted State = "completed"
	StateFailed    State = "failed"
	StateCancelled State = "cancelled"
)

// Progress reported by the orchestrator itself
const (
	percentSubmitting = 25
	percentProcessing = 85

	messageStarted    = "Job started"
	messageSubmitting = "Submitting job"
	messageProcessing = "Processing results"
	messageCompleted  = "Job completed"

	// Started, two updates and the terminal event, with headroom
	eventBuffer = 8
)

// Orchestrator enforces at most one in-flight job and owns its cancellation.
// Use one instance per scraping session.
type Orchestrator struct {
	remote client.JobRunner

	mu        sync.Mutex
	state     State
	current   *Run // owner of the single-flight guard
	latest    *Run
	cancel    context.CancelFunc
	lastEvent *model.ProgressEvent
	lastJobID string
}

// StartOption configures a single run
type StartOption func(*Run)

// WithProgress registers a callback invoked with every event of the run, in
// emission order. It is never called after the run's terminal event.
func WithProgress(fn func(model.ProgressEvent)) StartOption {
	return func(r *Run) {
		r.onProgress = fn
	}
}

// New creates an idle orchestrator submitting jobs to remote
func New(remote client.JobRunner) *Orchestrator {
	return &Orchestrator{
		remote: remote,
		state:  StateIdle,
	}
}

// Start submits req to the runner. It fails with AlreadyRunning while another
// job is in flight. The Started event is queued before Start returns.
func (o *Orchestrator) Start(ctx context.Context, req model.JobRequest, opts ...StartOption) (*Run, error) {
	if cfg, ok := o.remote.(interface{ IsConfigured() bool }); ok && !cfg.IsConfigured() {
		return nil, apperr.New(apperr.KindConfigurationMissing, "runner API base URL and token are required")
	}

	o.mu.Lock()
	if o.current != nil {
		o.mu.Unlock()
		return nil, apperr.New(apperr.KindAlreadyRunning, "a scrape job is already running")
	}
	runCtx, cancel := context.WithCancel(ctx)
	run := newRun()
	for _, opt := range opts {
		opt(run)
	}
	o.current = run
	o.latest = run
	o.cancel = cancel
	o.state = StateStarting
	o.mu.Unlock()

	o.emit(run, model.ProgressEvent{
		Kind:    model.ProgressStarted,
		Message: messageStarted,
		Percent: model.Ptr(0),
	})

	go o.execute(runCtx, cancel, run, req)

	return run, nil
}

func (o *Orchestrator) execute(ctx context.Context, cancel context.CancelFunc, run *Run, req model.JobRequest) {
	var (
		jobID   string
		records []model.BusinessRecord
		err     error
	)
	defer cancel()
	defer func() {
		if p := recover(); p != nil {
			log.Printf("[Orchestrator] remote call panicked: %v", p)
			err = apperr.New(apperr.KindRemoteCallFailed, "remote call panicked: %v", p)
		}
		if err == nil && ctx.Err() != nil {
			err = apperr.Wrap(apperr.KindCancelled, ctx.Err(), "job cancelled")
		}
		o.finish(run, jobID, records, err)
	}()

	o.transition(run, StateRunning)
	o.emit(run, model.ProgressEvent{
		Kind:    model.ProgressUpdate,
		Message: messageSubmitting,
		Percent: model.Ptr(percentSubmitting),
	})

	resp, err := o.remote.StartJob(ctx, req)
	if err != nil {
		if ctx.Err() != nil && !errors.Is(err, apperr.ErrCancelled) {
			err = apperr.Wrap(apperr.KindCancelled, err, "job cancelled")
		}
		return
	}
	if ctx.Err() != nil {
		return
	}

	jobID = resp.JobID
	o.mu.Lock()
	if o.latest == run {
		o.lastJobID = jobID
	}
	o.mu.Unlock()

	o.emit(run, model.ProgressEvent{
		Kind:    model.ProgressUpdate,
		JobID:   jobID,
		Message: messageProcessing,
		Percent: model.Ptr(percentProcessing),
	})

	records = truncate(resp.Results, req.ResultLimit)
}

// finish emits the terminal event, settles the run and releases the guard if
// the run still owns it.
func (o *Orchestrator) finish(run *Run, jobID string, records []model.BusinessRecord, err error) {
	outcome := StateCompleted
	ev := model.ProgressEvent{
		Kind:    model.ProgressCompleted,
		JobID:   jobID,
		Message: messageCompleted,
		Percent: model.Ptr(100),
		Payload: records,
	}
	if err != nil {
		records = nil
		kind := apperr.KindOf(err)
		outcome = StateFailed
		if kind == apperr.KindCancelled {
			outcome = StateCancelled
		}
		if kind == "" {
			kind = apperr.KindRemoteCallFailed
			err = apperr.Wrap(kind, err, "remote call failed")
		}
		ev = model.ProgressEvent{
			Kind:         model.ProgressError,
			JobID:        jobID,
			Message:      err.Error(),
			ErrorMessage: err.Error(),
			ErrorKind:    string(kind),
		}
	}

	o.emit(run, ev)

	o.mu.Lock()
	if o.current == run {
		o.current = nil
		o.cancel = nil
		o.state = StateIdle
	}
	o.mu.Unlock()

	run.settle(outcome, records, err)
}

// Stop cancels the in-flight job, if any, and releases the guard at once.
// It emits no event; the cancelled run reports its own terminal Error event.
func (o *Orchestrator) Stop() {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.cancel != nil {
		o.cancel()
		o.cancel = nil
	}
	if o.current != nil {
		log.Printf("[Orchestrator] stop requested")
		o.current = nil
		o.state = StateIdle
	}
}

// IsActive reports whether a job holds the guard. The answer may be stale
// by the time the caller acts on it.
func (o *Orchestrator) IsActive() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.current != nil
}

// State returns the lifecycle state of the in-flight job, or Idle
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Status fetches the authoritative job record from the runner
func (o *Orchestrator) Status(ctx context.Context, jobID string) (*model.JobRecord, error) {
	return o.remote.GetJob(ctx, jobID)
}

// LastEvent returns the most recent event of the latest run
func (o *Orchestrator) LastEvent() (model.ProgressEvent, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.lastEvent == nil {
		return model.ProgressEvent{}, false
	}
	return *o.lastEvent, true
}

// LastJobID returns the runner's id of the latest run, once known
func (o *Orchestrator) LastJobID() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.lastJobID
}

func (o *Orchestrator) transition(run *Run, to State) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.current == run {
		o.state = to
	}
}

// emit is only ever called by one goroutine per run at a time, so events
// reach the channel and the callback in order.
func (o *Orchestrator) emit(run *Run, ev model.ProgressEvent) {
	o.mu.Lock()
	if o.latest == run {
		mirror := ev
		o.lastEvent = &mirror
	}
	o.mu.Unlock()

	run.events <- ev
	if ev.Kind.Terminal() {
		close(run.events)
	}
	if run.onProgress != nil {
		run.onProgress(ev)
	}
}

func truncate(records []model.BusinessRecord, limit int) []model.BusinessRecord {
	if limit < 0 {
		limit = 0
	}
	if len(records) > limit {
		records = records[:limit]
	}
	if records == nil {
		records = []model.BusinessRecord{}
	}
	return records
}
