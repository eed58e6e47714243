package idis

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"anonpipe/internal/config"
)

const userAgent = "anonpipe/0.1.0"

// State is the engine-reported lifecycle of a submitted batch.
type State string

const (
	StatePending State = "pending"
	StateDone    State = "done"
	StateFailed  State = "failed"
)

// JobStatus is the engine's answer for one correlation id.
type JobStatus struct {
	State   State
	Message string
}

// Connection is the outbound surface the pipeline needs from the engine.
type Connection interface {
	// Submit hands a batch of files to the engine and returns the
	// correlation id under which their outcome can be queried.
	Submit(ctx context.Context, paths []string, profile, destination string) (string, error)
	// Status reports the engine's progress for a correlation id.
	Status(ctx context.Context, correlationID string) (JobStatus, error)
}

// Client implements Connection against the IDIS web API.
type Client struct {
	baseURL    string
	username   string
	token      string
	httpClient *http.Client
}

// NewClient builds a client from configuration.
func NewClient(cfg *config.Config) *Client {
	timeout := time.Duration(cfg.IDIS.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(cfg.IDIS.BaseURL), "/"),
		username:   cfg.IDIS.Username,
		token:      cfg.IDIS.Token,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type submitRequest struct {
	SourcePaths     []string `json:"source_paths"`
	Profile         string   `json:"profile"`
	DestinationPath string   `json:"destination_path"`
}

type submitResponse struct {
	JobID string `json:"job_id"`
}

type statusResponse struct {
	Status string `json:"status"`
	Error  string `json:"error"`
}

// Submit posts a batch of files for anonymization.
func (c *Client) Submit(ctx context.Context, paths []string, profile, destination string) (string, error) {
	if c.baseURL == "" {
		return "", fmt.Errorf("idis base_url not configured")
	}

	body, err := json.Marshal(submitRequest{
		SourcePaths:     paths,
		Profile:         profile,
		DestinationPath: destination,
	})
	if err != nil {
		return "", fmt.Errorf("marshal submit request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/jobs", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build submit request: %w", err)
	}
	c.applyHeaders(req)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("submit to idis: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return "", fmt.Errorf("submit to idis: %s", responseError(resp))
	}

	var parsed submitResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode submit response: %w", err)
	}
	if strings.TrimSpace(parsed.JobID) == "" {
		return "", fmt.Errorf("submit to idis: response carried no job id")
	}
	return parsed.JobID, nil
}

// Status polls the engine for the outcome of an earlier submission.
func (c *Client) Status(ctx context.Context, correlationID string) (JobStatus, error) {
	if c.baseURL == "" {
		return JobStatus{}, fmt.Errorf("idis base_url not configured")
	}

	target := c.baseURL + "/api/jobs/" + url.PathEscape(correlationID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return JobStatus{}, fmt.Errorf("build status request: %w", err)
	}
	c.applyHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return JobStatus{}, fmt.Errorf("query idis status: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return JobStatus{}, fmt.Errorf("query idis status: %s", responseError(resp))
	}

	var parsed statusResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return JobStatus{}, fmt.Errorf("decode status response: %w", err)
	}

	switch strings.ToUpper(strings.TrimSpace(parsed.Status)) {
	case "DONE":
		return JobStatus{State: StateDone}, nil
	case "ERROR", "FAILED":
		message := strings.TrimSpace(parsed.Error)
		if message == "" {
			message = "anonymization failed"
		}
		return JobStatus{State: StateFailed, Message: message}, nil
	case "ACTIVE", "PENDING", "UPLOADED", "":
		return JobStatus{State: StatePending}, nil
	default:
		return JobStatus{}, fmt.Errorf("query idis status: unknown status %q", parsed.Status)
	}
}

func (c *Client) applyHeaders(req *http.Request) {
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")
	if c.username != "" {
		req.Header.Set("X-Idis-User", c.username)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Token "+c.token)
	}
}

func responseError(resp *http.Response) string {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
	text := strings.TrimSpace(string(body))
	if text == "" {
		return resp.Status
	}
	return fmt.Sprintf("%s: %s", resp.Status, text)
}
