// Package store persists scrape job records.
package store

import (
	"context"

	"github.com/leadscout/api/internal/apperr"
	"github.com/leadscout/api/internal/model"
)

// JobStore is a keyed table of job records. Every operation is atomic per record.
type JobStore interface {
	// Create inserts a record in state running with progress 0
	Create(ctx context.Context, id string, req model.JobRequest) (*model.JobRecord, error)
	// Update applies a partial write; NotFound if id is unknown
	Update(ctx context.Context, id string, upd model.JobUpdate) error
	// Get returns a snapshot of the record; NotFound if id is unknown
	Get(ctx context.Context, id string) (*model.JobRecord, error)
}

func errNotFound(id string) error {
	return apperr.New(apperr.KindNotFound, "job %s not found", id)
}

func errDuplicate(id string) error {
	return apperr.New(apperr.KindInvalidArgument, "job %s already exists", id)
}
