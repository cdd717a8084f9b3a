package store

import (
	"context"
	"sync"
	"time"

	"github.com/leadscout/api/internal/model"
)

// MemoryStore keeps job records in process memory
type MemoryStore struct {
	mu   sync.RWMutex
	jobs map[string]*model.JobRecord
	now  func() time.Time
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		jobs: make(map[string]*model.JobRecord),
		now:  time.Now,
	}
}

func (s *MemoryStore) Create(ctx context.Context, id string, req model.JobRequest) (*model.JobRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[id]; exists {
		return nil, errDuplicate(id)
	}

	rec := newRecord(id, req, s.now())
	s.jobs[id] = rec
	return rec.Clone(), nil
}

func (s *MemoryStore) Update(ctx context.Context, id string, upd model.JobUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.jobs[id]
	if !ok {
		return errNotFound(id)
	}
	upd.Apply(rec, s.now())
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) (*model.JobRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.jobs[id]
	if !ok {
		return nil, errNotFound(id)
	}
	return rec.Clone(), nil
}

func newRecord(id string, req model.JobRequest, now time.Time) *model.JobRecord {
	return &model.JobRecord{
		ID:              id,
		Request:         req,
		State:           model.JobStateRunning,
		ProgressPercent: 0,
		CreatedAt:       now,
		UpdatedAt:       now,
		StartedAt:       &now,
	}
}
