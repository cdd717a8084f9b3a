package model

import "time"

// JobState is the lifecycle state of a scrape job record
type JobState string

const (
	JobStatePending   JobState = "pending"
	JobStateRunning   JobState = "running"
	JobStateCompleted JobState = "completed"
	JobStateFailed    JobState = "failed"
)

// Terminal reports whether no further transitions are allowed from s
func (s JobState) Terminal() bool {
	return s == JobStateCompleted || s == JobStateFailed
}

// JobRequest holds the parameters of one scrape job. Immutable once accepted.
type JobRequest struct {
	QueryText   string `json:"queryText" validate:"required,max=200"`
	Location    string `json:"location" validate:"max=100"`
	ResultLimit int    `json:"resultLimit" validate:"required,min=1"`
	SubmitterID string `json:"submitterId" validate:"max=128"`
}

// JobRecord is the persisted record of a scrape job
type JobRecord struct {
	ID              string           `json:"id"`
	Request         JobRequest       `json:"request"`
	State           JobState         `json:"state"`
	ProgressPercent int              `json:"progressPercent"`
	CurrentStep     string           `json:"currentStep,omitempty"`
	CreatedAt       time.Time        `json:"createdAt"`
	UpdatedAt       time.Time        `json:"updatedAt"`
	StartedAt       *time.Time       `json:"startedAt,omitempty"`
	CompletedAt     *time.Time       `json:"completedAt,omitempty"`
	ResultCount     *int             `json:"resultCount,omitempty"`
	Results         []BusinessRecord `json:"results,omitempty"`
	ErrorDetail     *string          `json:"errorDetail,omitempty"`
	ResultsURL      *string          `json:"resultsUrl,omitempty"`
}

// Clone returns a deep copy of the record
func (r *JobRecord) Clone() *JobRecord {
	if r == nil {
		return nil
	}
	c := *r
	c.StartedAt = clonePtr(r.StartedAt)
	c.CompletedAt = clonePtr(r.CompletedAt)
	c.ResultCount = clonePtr(r.ResultCount)
	c.ErrorDetail = clonePtr(r.ErrorDetail)
	c.ResultsURL = clonePtr(r.ResultsURL)
	if r.Results != nil {
		c.Results = make([]BusinessRecord, len(r.Results))
		for i := range r.Results {
			c.Results[i] = r.Results[i].Clone()
		}
	}
	return &c
}

// JobUpdate is a partial write to a JobRecord. Nil fields are left unchanged.
type JobUpdate struct {
	State           *JobState
	ProgressPercent *int
	CurrentStep     *string
	StartedAt       *time.Time
	CompletedAt     *time.Time
	ResultCount     *int
	Results         []BusinessRecord
	ErrorDetail     *string
	ResultsURL      *string
}

// Apply writes the set fields of u into rec and stamps UpdatedAt
func (u JobUpdate) Apply(rec *JobRecord, now time.Time) {
	if u.State != nil {
		rec.State = *u.State
	}
	if u.ProgressPercent != nil {
		rec.ProgressPercent = *u.ProgressPercent
	}
	if u.CurrentStep != nil {
		rec.CurrentStep = *u.CurrentStep
	}
	if u.StartedAt != nil {
		rec.StartedAt = clonePtr(u.StartedAt)
	}
	if u.CompletedAt != nil {
		rec.CompletedAt = clonePtr(u.CompletedAt)
	}
	if u.ResultCount != nil {
		rec.ResultCount = clonePtr(u.ResultCount)
	}
	if u.Results != nil {
		rec.Results = make([]BusinessRecord, len(u.Results))
		for i := range u.Results {
			rec.Results[i] = u.Results[i].Clone()
		}
	}
	if u.ErrorDetail != nil {
		rec.ErrorDetail = clonePtr(u.ErrorDetail)
	}
	if u.ResultsURL != nil {
		rec.ResultsURL = clonePtr(u.ResultsURL)
	}
	rec.UpdatedAt = now
}

// RunResult is what the job runner hands back to its caller
type RunResult struct {
	JobID   string
	Results []BusinessRecord
}

// ScrapeJobPayload is the asynq task payload for queued scrape jobs
type ScrapeJobPayload struct {
	JobID   string     `json:"jobId"`
	Request JobRequest `json:"request"`
}

// Ptr returns a pointer to v
func Ptr[T any](v T) *T {
	return &v
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
