package model

// ScrapeStartResponse is the success body of POST /api/scrape/start
type ScrapeStartResponse struct {
	Success    bool             `json:"success"`
	JobID      string           `json:"jobId"`
	Results    []BusinessRecord `json:"results"`
	TotalFound int              `json:"totalFound"`
}

// ScrapeFailureResponse is the failure body of the scrape endpoints
type ScrapeFailureResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// ScrapeEnqueueResponse is returned when a job is queued for background execution
type ScrapeEnqueueResponse struct {
	JobID string   `json:"jobId"`
	State JobState `json:"state"`
}
