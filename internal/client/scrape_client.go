package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/leadscout/api/internal/apperr"
	"github.com/leadscout/api/internal/config"
	"github.com/leadscout/api/internal/model"
)

// JobRunner is the remote side of the scrape orchestrator
type JobRunner interface {
	StartJob(ctx context.Context, req model.JobRequest) (*model.ScrapeStartResponse, error)
	GetJob(ctx context.Context, jobID string) (*model.JobRecord, error)
}

// ScrapeClient implements JobRunner over the runner's HTTP API
type ScrapeClient struct {
	httpClient *http.Client
	baseURL    string
	apiToken   string
}

// RemoteError is a non-2xx answer of the runner API
type RemoteError struct {
	StatusCode int
	Message    string
	Details    string
}

func (e *RemoteError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s", e.Message, e.Details)
	}
	return e.Message
}

// NewScrapeClient creates a runner API client
func NewScrapeClient(cfg *config.ClientConfig) *ScrapeClient {
	timeout := time.Duration(cfg.Timeout) * time.Second
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &ScrapeClient{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		apiToken: cfg.APIToken,
	}
}

// WithHTTPClient replaces the underlying HTTP client
func (c *ScrapeClient) WithHTTPClient(hc *http.Client) *ScrapeClient {
	c.httpClient = hc
	return c
}

// IsConfigured returns true if the client has valid configuration
func (c *ScrapeClient) IsConfigured() bool {
	return c.baseURL != "" && c.apiToken != ""
}

// StartJob runs a job on the remote runner and returns its results
func (c *ScrapeClient) StartJob(ctx context.Context, req model.JobRequest) (*model.ScrapeStartResponse, error) {
	var result model.ScrapeStartResponse
	if err := c.post(ctx, "/api/scrape/start", req, &result); err != nil {
		return nil, err
	}
	if !result.Success {
		return nil, apperr.New(apperr.KindRemoteCallFailed, "runner reported an unsuccessful job %s", result.JobID)
	}
	return &result, nil
}

// GetJob retrieves the job record by id
func (c *ScrapeClient) GetJob(ctx context.Context, jobID string) (*model.JobRecord, error) {
	endpoint := fmt.Sprintf("/api/scrape/jobs/%s", url.PathEscape(jobID))
	var result model.JobRecord
	if err := c.get(ctx, endpoint, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// post sends a POST request with JSON body
func (c *ScrapeClient) post(ctx context.Context, endpoint string, body interface{}, result interface{}) error {
	if !c.IsConfigured() {
		return apperr.New(apperr.KindConfigurationMissing, "runner API base URL and token are required")
	}

	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	return c.doRequest(req, result)
}

// get sends a GET request and parses JSON response
func (c *ScrapeClient) get(ctx context.Context, endpoint string, result interface{}) error {
	if !c.IsConfigured() {
		return apperr.New(apperr.KindConfigurationMissing, "runner API base URL and token are required")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	return c.doRequest(req, result)
}

// doRequest executes an HTTP request and parses the response
func (c *ScrapeClient) doRequest(req *http.Request, result interface{}) error {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiToken)

	log.Printf("[Runner API] → %s %s", req.Method, req.URL.String())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := req.Context().Err(); ctxErr != nil {
			log.Printf("[Runner API] ✗ %s %s: cancelled", req.Method, req.URL.String())
			return apperr.Wrap(apperr.KindCancelled, ctxErr, "request cancelled")
		}
		log.Printf("[Runner API] ✗ %s %s: request failed: %v", req.Method, req.URL.String(), err)
		return apperr.Wrap(apperr.KindRemoteCallFailed, err, "failed to send request")
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		if ctxErr := req.Context().Err(); ctxErr != nil {
			return apperr.Wrap(apperr.KindCancelled, ctxErr, "request cancelled")
		}
		log.Printf("[Runner API] ✗ %s %s: failed to read response: %v", req.Method, req.URL.String(), err)
		return apperr.Wrap(apperr.KindRemoteCallFailed, err, "failed to read response")
	}

	log.Printf("[Runner API] ← %d %s %s (%d bytes)", resp.StatusCode, req.Method, req.URL.String(), len(respBody))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		remoteErr := parseRemoteError(resp.StatusCode, respBody)
		if resp.StatusCode == http.StatusNotFound {
			return apperr.Wrap(apperr.KindNotFound, remoteErr, "runner API error (status %d)", resp.StatusCode)
		}
		return apperr.Wrap(apperr.KindRemoteCallFailed, remoteErr, "runner API error (status %d)", resp.StatusCode)
	}

	if err := json.Unmarshal(respBody, result); err != nil {
		log.Printf("[Runner API] ✗ unmarshal error for %s %s: %v", req.Method, req.URL.String(), err)
		return apperr.Wrap(apperr.KindRemoteCallFailed, err, "failed to unmarshal response")
	}

	return nil
}

// parseRemoteError reads both the flat {error, details} body of the scrape
// endpoints and the nested {error: {code, message}} body of the middleware.
func parseRemoteError(status int, body []byte) *RemoteError {
	remoteErr := &RemoteError{
		StatusCode: status,
		Message:    http.StatusText(status),
	}

	var envelope struct {
		Error   json.RawMessage `json:"error"`
		Details json.RawMessage `json:"details"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		if text := strings.TrimSpace(string(body)); text != "" {
			remoteErr.Details = text
		}
		return remoteErr
	}

	var flat string
	var nested struct {
		Message string `json:"message"`
	}
	switch {
	case json.Unmarshal(envelope.Error, &flat) == nil && flat != "":
		remoteErr.Message = flat
	case json.Unmarshal(envelope.Error, &nested) == nil && nested.Message != "":
		remoteErr.Message = nested.Message
	}

	if len(envelope.Details) > 0 && string(envelope.Details) != "null" {
		var details string
		if json.Unmarshal(envelope.Details, &details) == nil {
			remoteErr.Details = details
		} else {
			remoteErr.Details = string(envelope.Details)
		}
	}

	return remoteErr
}
