package model

// ProgressKind is the type of a progress event
type ProgressKind string

const (
	ProgressStarted   ProgressKind = "started"
	ProgressUpdate    ProgressKind = "update"
	ProgressCompleted ProgressKind = "completed"
	ProgressError     ProgressKind = "error"
)

// Terminal reports whether no further events follow an event of kind k
func (k ProgressKind) Terminal() bool {
	return k == ProgressCompleted || k == ProgressError
}

// ProgressEvent is a transient progress notification for one job
type ProgressEvent struct {
	Kind         ProgressKind     `json:"kind"`
	JobID        string           `json:"jobId,omitempty"`
	Message      string           `json:"message,omitempty"`
	Percent      *int             `json:"percent,omitempty"`
	Payload      []BusinessRecord `json:"payload,omitempty"`
	ErrorMessage string           `json:"errorMessage,omitempty"`
	ErrorKind    string           `json:"errorKind,omitempty"`
}
