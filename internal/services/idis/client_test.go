package idis

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"anonpipe/internal/config"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := config.Default()
	cfg.IDIS.BaseURL = server.URL
	cfg.IDIS.Username = "z123456"
	cfg.IDIS.Token = "secret"
	return NewClient(&cfg)
}

func TestSubmit(t *testing.T) {
	var got submitRequest
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/jobs" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Token secret" {
			t.Errorf("authorization header = %q", auth)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_ = json.NewEncoder(w).Encode(submitResponse{JobID: "idis-991"})
	}))

	id, err := client.Submit(context.Background(), []string{"/a.dcm", "/b.dcm"}, "basic", "/output/project1")
	if err != nil {
		t.Fatal(err)
	}
	if id != "idis-991" {
		t.Fatalf("correlation id = %q, want idis-991", id)
	}
	if len(got.SourcePaths) != 2 || got.Profile != "basic" || got.DestinationPath != "/output/project1" {
		t.Fatalf("submit request = %+v", got)
	}
}

func TestSubmitServerError(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "profile not found", http.StatusBadRequest)
	}))

	if _, err := client.Submit(context.Background(), []string{"/a.dcm"}, "missing", "/out"); err == nil {
		t.Fatal("expected error from 400 response")
	}
}

func TestStatusStates(t *testing.T) {
	responses := map[string]statusResponse{
		"job-done":    {Status: "DONE"},
		"job-failed":  {Status: "ERROR", Error: "pixel data rejected"},
		"job-active":  {Status: "ACTIVE"},
		"job-unknown": {Status: "WEDGED"},
	}
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp, ok := responses[r.URL.Path[len("/api/jobs/"):]]
		if !ok {
			http.NotFound(w, r)
			return
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	ctx := context.Background()

	status, err := client.Status(ctx, "job-done")
	if err != nil || status.State != StateDone {
		t.Fatalf("done status = %+v, err = %v", status, err)
	}

	status, err = client.Status(ctx, "job-failed")
	if err != nil || status.State != StateFailed || status.Message != "pixel data rejected" {
		t.Fatalf("failed status = %+v, err = %v", status, err)
	}

	status, err = client.Status(ctx, "job-active")
	if err != nil || status.State != StatePending {
		t.Fatalf("active status = %+v, err = %v", status, err)
	}

	if _, err := client.Status(ctx, "job-unknown"); err == nil {
		t.Fatal("expected error for unrecognized engine status")
	}

	if _, err := client.Status(ctx, "gone"); err == nil {
		t.Fatal("expected error for 404 response")
	}
}
