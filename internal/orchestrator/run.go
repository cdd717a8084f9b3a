package orchestrator

import (
	"context"

	"github.com/leadscout/api/internal/model"
)

// Run is the handle of one submitted job
type Run struct {
	events     chan model.ProgressEvent
	done       chan struct{}
	onProgress func(model.ProgressEvent)

	outcome State
	records []model.BusinessRecord
	err     error
}

func newRun() *Run {
	return &Run{
		events: make(chan model.ProgressEvent, eventBuffer),
		done:   make(chan struct{}),
	}
}

// Events yields the run's progress in emission order and is closed after the
// terminal Completed or Error event.
func (r *Run) Events() <-chan model.ProgressEvent {
	return r.events
}

// Done is closed once the run has settled
func (r *Run) Done() <-chan struct{} {
	return r.done
}

// Wait blocks until the run settles or ctx is done
func (r *Run) Wait(ctx context.Context) ([]model.BusinessRecord, error) {
	select {
	case <-r.done:
		return r.records, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Outcome returns Completed, Failed or Cancelled once settled, Running before
func (r *Run) Outcome() State {
	select {
	case <-r.done:
		return r.outcome
	default:
		return StateRunning
	}
}

func (r *Run) settle(outcome State, records []model.BusinessRecord, err error) {
	r.outcome = outcome
	r.records = records
	r.err = err
	close(r.done)
}
