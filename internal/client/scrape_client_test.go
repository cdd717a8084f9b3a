package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leadscout/api/internal/apperr"
	"github.com/leadscout/api/internal/config"
	"github.com/leadscout/api/internal/model"
)

func newTestClient(baseURL string) *ScrapeClient {
	return NewScrapeClient(&config.ClientConfig{BaseURL: baseURL, APIToken: "token", Timeout: 5})
}

func TestScrapeClient_RequiresConfiguration(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()

	cases := map[string]*config.ClientConfig{
		"missing token":    {BaseURL: srv.URL},
		"missing base url": {APIToken: "token"},
	}
	for name, cfg := range cases {
		t.Run(name, func(t *testing.T) {
			c := NewScrapeClient(cfg)
			assert.False(t, c.IsConfigured())

			_, err := c.StartJob(context.Background(), model.JobRequest{QueryText: "Hotel", ResultLimit: 1})
			assert.True(t, errors.Is(err, apperr.ErrConfigurationMissing), "got %v", err)

			_, err = c.GetJob(context.Background(), "abc")
			assert.True(t, errors.Is(err, apperr.ErrConfigurationMissing), "got %v", err)
		})
	}
	assert.Equal(t, int32(0), hits.Load())
}

func TestScrapeClient_StartJob(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/scrape/start", r.URL.Path)
		assert.Equal(t, "Bearer token", r.Header.Get("Authorization"))

		var req model.JobRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "Hotel", req.QueryText)

		_ = json.NewEncoder(w).Encode(model.ScrapeStartResponse{
			Success:    true,
			JobID:      "job-1",
			Results:    []model.BusinessRecord{{ID: "a", Name: "Hotel Adler"}},
			TotalFound: 1,
		})
	}))
	defer srv.Close()

	resp, err := newTestClient(srv.URL+"/").StartJob(context.Background(), model.JobRequest{QueryText: "Hotel", ResultLimit: 1})
	require.NoError(t, err)
	assert.Equal(t, "job-1", resp.JobID)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "Hotel Adler", resp.Results[0].Name)
}

func TestScrapeClient_RemoteFailures(t *testing.T) {
	cases := []struct {
		name    string
		status  int
		body    string
		kind    apperr.Kind
		message string
		details string
	}{
		{"flat body", 500, `{"error":"Scrape job failed","details":"table unavailable"}`, apperr.KindRemoteCallFailed, "Scrape job failed", "table unavailable"},
		{"nested body", 401, `{"error":{"code":"UNAUTHORIZED","message":"Invalid or expired token"}}`, apperr.KindRemoteCallFailed, "Invalid or expired token", ""},
		{"validation details", 400, `{"error":"Validation failed","details":{"QueryText":"required"}}`, apperr.KindRemoteCallFailed, "Validation failed", `{"QueryText":"required"}`},
		{"plain text", 502, `bad gateway`, apperr.KindRemoteCallFailed, "Bad Gateway", "bad gateway"},
		{"unsuccessful flag", 200, `{"success":false,"jobId":"x"}`, apperr.KindRemoteCallFailed, "", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			_, err := newTestClient(srv.URL).StartJob(context.Background(), model.JobRequest{QueryText: "Hotel", ResultLimit: 1})
			require.Error(t, err)
			assert.Equal(t, tc.kind, apperr.KindOf(err))

			var remoteErr *RemoteError
			if tc.message == "" {
				assert.False(t, errors.As(err, &remoteErr))
				return
			}
			require.True(t, errors.As(err, &remoteErr))
			assert.Equal(t, tc.status, remoteErr.StatusCode)
			assert.Equal(t, tc.message, remoteErr.Message)
			assert.Equal(t, tc.details, remoteErr.Details)
		})
	}
}

func TestScrapeClient_GetJob(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/scrape/jobs/job-1" {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":"job not found"}`))
			return
		}
		_ = json.NewEncoder(w).Encode(model.JobRecord{ID: "job-1", State: model.JobStateCompleted, ProgressPercent: 100})
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	rec, err := c.GetJob(context.Background(), "job-1")
	require.NoError(t, err)
	assert.Equal(t, model.JobStateCompleted, rec.State)

	_, err = c.GetJob(context.Background(), "job-2")
	assert.True(t, errors.Is(err, apperr.ErrNotFound), "got %v", err)
}

func TestScrapeClient_Cancellation(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-release:
		}
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(50*time.Millisecond, cancel)

	_, err := newTestClient(srv.URL).StartJob(ctx, model.JobRequest{QueryText: "Hotel", ResultLimit: 1})
	assert.True(t, errors.Is(err, apperr.ErrCancelled), "got %v", err)
}
