package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	apperrors "go-video-inspector/internal/errors"
	"go-video-inspector/pkg/models"
)

// Client talks to the analysis service. Every call carries the bearer
// credential; the credential is injected at construction and never read
// from ambient state.
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewClient creates an API client.
func NewClient(baseURL, apiKey string, requestTimeout time.Duration) *Client {
	transport := &http.Transport{
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 2,
		IdleConnTimeout:     30 * time.Second,

		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client: &http.Client{
			Transport: transport,
			Timeout:   requestTimeout,
		},
	}
}

// PresignUpload requests a one-time upload target for a video file.
func (c *Client) PresignUpload(ctx context.Context, req models.PresignRequest) (*models.PresignResponse, error) {
	var resp models.PresignResponse
	if err := c.postJSON(ctx, "/upload/presign", req, &resp); err != nil {
		return nil, err
	}
	if resp.UploadURL == "" || resp.VideoKey == "" {
		return nil, apperrors.NewInternalError("presign response missing upload_url or video_key", nil)
	}
	return &resp, nil
}

// StartAnalysis starts a job for an uploaded video and returns its id.
func (c *Client) StartAnalysis(ctx context.Context, req models.StartAnalysisRequest) (string, error) {
	var resp models.StartAnalysisResponse
	if err := c.postJSON(ctx, "/analyze/start", req, &resp); err != nil {
		return "", err
	}
	if resp.ID == "" {
		return "", apperrors.NewInternalError("start response missing job id", nil)
	}
	return resp.ID, nil
}

// GetJobStatus fetches the lightweight status record for a job.
func (c *Client) GetJobStatus(ctx context.Context, jobID string) (*models.JobStatusResponse, error) {
	var resp models.JobStatusResponse
	if err := c.getJSON(ctx, fmt.Sprintf("/analyze/jobs/%s/status", jobID), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetJob fetches the full job record, including the result payload on a
// completed job.
func (c *Client) GetJob(ctx context.Context, jobID string) (*models.AnalysisJob, error) {
	var resp models.AnalysisJob
	if err := c.getJSON(ctx, fmt.Sprintf("/analyze/jobs/%s", jobID), &resp); err != nil {
		return nil, err
	}
	if resp.ID == "" {
		resp.ID = jobID
	}
	return &resp, nil
}

func (c *Client) postJSON(ctx context.Context, path string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return apperrors.NewInternalError("failed to encode request body", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return apperrors.NewInternalError("failed to build request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) getJSON(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return apperrors.NewInternalError("failed to build request", err)
	}
	return c.do(req, out)
}

// do executes one request. No retries: presign targets are single-use and
// jobs are server-owned, so a failed call is surfaced as-is.
func (c *Client) do(req *http.Request, out interface{}) error {
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return apperrors.NewNetworkError(
			"could not reach the analysis service; check your internet connection", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return apperrors.NewNetworkError("failed to read response from the analysis service", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return apperrors.FromHTTPStatus(resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return apperrors.NewInternalError("malformed response from the analysis service", err)
	}
	return nil
}
