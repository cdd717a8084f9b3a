package e2e

import (
	"net/http"
	"testing"
	"time"
)

func TestHealth(t *testing.T) {
	ta := setupApp(t)

	resp, err := doRequest(ta.app, http.MethodGet, "/health", "", nil)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}

	assertStatus(t, resp, http.StatusOK)

	body := parseJSON(t, resp)
	services, ok := body["services"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected 'services' object, got %v", body["services"])
	}
	if services["redis"] != true {
		t.Errorf("expected redis to be healthy, got %v", services["redis"])
	}
	if services["queue"] != true {
		t.Errorf("expected queue to be enabled, got %v", services["queue"])
	}
}

func TestScrapeStart_NoToken(t *testing.T) {
	ta := setupApp(t)

	resp, err := doRequest(ta.app, http.MethodPost, "/api/scrape/start",
		`{"queryText":"Restaurant","location":"Berlin","resultLimit":3}`, nil)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}

	assertStatus(t, resp, http.StatusUnauthorized)
}

func TestScrapeStart_CompletesJob(t *testing.T) {
	ta := setupApp(t)

	resp, err := doAuthRequest(t, ta.app, http.MethodPost, "/api/scrape/start",
		`{"queryText":"Restaurant","location":"Berlin","resultLimit":3}`)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusOK)

	body := parseJSON(t, resp)
	if body["success"] != true {
		t.Errorf("expected success true, got %v", body["success"])
	}
	if body["totalFound"] != float64(3) {
		t.Errorf("expected totalFound 3, got %v", body["totalFound"])
	}
	if resp.Header.Get("X-RateLimit-Limit") != "10000" {
		t.Errorf("expected rate limit header, got %q", resp.Header.Get("X-RateLimit-Limit"))
	}

	jobID, _ := body["jobId"].(string)
	resp, err = doAuthRequest(t, ta.app, http.MethodGet, "/api/scrape/jobs/"+jobID, "")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusOK)

	job := parseJSON(t, resp)
	if job["state"] != "completed" {
		t.Errorf("expected state completed, got %v", job["state"])
	}
	request, _ := job["request"].(map[string]interface{})
	if request["submitterId"] != testUserID {
		t.Errorf("expected submitter %s, got %v", testUserID, request["submitterId"])
	}
}

func TestScrapeEnqueue_WorkerCompletesJob(t *testing.T) {
	ta := setupApp(t)

	resp, err := doAuthRequest(t, ta.app, http.MethodPost, "/api/scrape/enqueue",
		`{"queryText":"Zahnarzt","location":"München","resultLimit":4}`)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusAccepted)

	body := parseJSON(t, resp)
	if body["state"] != "pending" {
		t.Errorf("expected state pending, got %v", body["state"])
	}
	jobID, _ := body["jobId"].(string)
	if jobID == "" {
		t.Fatal("expected a job id")
	}

	deadline := time.Now().Add(15 * time.Second)
	for {
		resp, err := doAuthRequest(t, ta.app, http.MethodGet, "/api/scrape/jobs/"+jobID, "")
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		assertStatus(t, resp, http.StatusOK)

		job := parseJSON(t, resp)
		if job["state"] == "completed" {
			if job["resultCount"] != float64(4) {
				t.Errorf("expected resultCount 4, got %v", job["resultCount"])
			}
			return
		}
		if job["state"] == "failed" {
			t.Fatalf("job failed: %v", job["errorDetail"])
		}
		if time.Now().After(deadline) {
			t.Fatalf("job %s still %v", jobID, job["state"])
		}
		time.Sleep(200 * time.Millisecond)
	}
}

func TestScrapeJob_NotFound(t *testing.T) {
	ta := setupApp(t)

	resp, err := doAuthRequest(t, ta.app, http.MethodGet, "/api/scrape/jobs/00000000-0000-0000-0000-000000000000", "")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}

	assertStatus(t, resp, http.StatusNotFound)

	body := parseJSON(t, resp)
	if body["error"] != "job not found" {
		t.Errorf("expected 'job not found', got %v", body["error"])
	}
}
