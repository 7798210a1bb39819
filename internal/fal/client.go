package fal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Queue states reported by the status endpoint.
const (
	StatusInQueue    = "IN_QUEUE"
	StatusInProgress = "IN_PROGRESS"
	StatusCompleted  = "COMPLETED"
)

// Client talks to the fal.ai queue API: submit a request, poll its status, then
// fetch the result.
type Client struct {
	baseURL      string
	apiKey       string
	model        string
	timeout      time.Duration
	pollInterval time.Duration
	backoffs     []time.Duration
	httpClient   *http.Client
}

type removeBackgroundInput struct {
	ImageURL string `json:"image_url"`
}

type QueueResponse struct {
	RequestID   string `json:"request_id"`
	StatusURL   string `json:"status_url"`
	ResponseURL string `json:"response_url"`
	CancelURL   string `json:"cancel_url"`
}

type StatusResponse struct {
	Status        string `json:"status"`
	QueuePosition int    `json:"queue_position,omitempty"`
	Error         string `json:"error,omitempty"`
}

type RemoveBackgroundResult struct {
	Image struct {
		URL         string `json:"url"`
		ContentType string `json:"content_type"`
		Width       int    `json:"width"`
		Height      int    `json:"height"`
	} `json:"image"`
}

// APIError is a non-2xx answer from fal.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("fal api: status %d, body: %s", e.StatusCode, e.Body)
}

func NewClient(baseURL, apiKey, model string, timeout time.Duration) *Client {
	return &Client{
		baseURL:      strings.TrimSuffix(baseURL, "/"),
		apiKey:       apiKey,
		model:        strings.Trim(model, "/"),
		timeout:      timeout,
		pollInterval: 500 * time.Millisecond,
		backoffs:     []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second},
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// WithPolling overrides the status poll interval and the retry backoff schedule.
func (c *Client) WithPolling(interval time.Duration, backoffs ...time.Duration) *Client {
	c.pollInterval = interval
	c.backoffs = backoffs
	return c
}

// RemoveBackground runs the configured model on imageURL and returns the URL of
// the cut-out image. The whole exchange is bounded by the client timeout.
func (c *Client) RemoveBackground(ctx context.Context, imageURL string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var queued *QueueResponse
	err := c.RetryWithBackoff(ctx, func() error {
		var err error
		queued, err = c.Submit(ctx, imageURL)
		return err
	}, len(c.backoffs)+1)
	if err != nil {
		return "", err
	}

	if err := c.waitForCompletion(ctx, queued.StatusURL); err != nil {
		return "", fmt.Errorf("request %s: %w", queued.RequestID, err)
	}

	var result *RemoveBackgroundResult
	err = c.RetryWithBackoff(ctx, func() error {
		var err error
		result, err = c.GetResult(ctx, queued.ResponseURL)
		return err
	}, len(c.backoffs)+1)
	if err != nil {
		return "", fmt.Errorf("request %s: %w", queued.RequestID, err)
	}
	if result.Image.URL == "" {
		return "", fmt.Errorf("request %s: no image url in response", queued.RequestID)
	}
	return result.Image.URL, nil
}

func (c *Client) Submit(ctx context.Context, imageURL string) (*QueueResponse, error) {
	jsonData, err := json.Marshal(removeBackgroundInput{ImageURL: imageURL})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	var result QueueResponse
	if err := c.do(ctx, http.MethodPost, c.baseURL+"/"+c.model, jsonData, &result); err != nil {
		return nil, fmt.Errorf("failed to submit request: %w", err)
	}
	if result.StatusURL == "" || result.ResponseURL == "" {
		return nil, fmt.Errorf("queue response is missing status or response url")
	}
	return &result, nil
}

func (c *Client) GetStatus(ctx context.Context, statusURL string) (*StatusResponse, error) {
	var result StatusResponse
	if err := c.do(ctx, http.MethodGet, statusURL, nil, &result); err != nil {
		return nil, fmt.Errorf("failed to get status: %w", err)
	}
	return &result, nil
}

func (c *Client) GetResult(ctx context.Context, responseURL string) (*RemoveBackgroundResult, error) {
	var result RemoveBackgroundResult
	if err := c.do(ctx, http.MethodGet, responseURL, nil, &result); err != nil {
		return nil, fmt.Errorf("failed to get result: %w", err)
	}
	return &result, nil
}

func (c *Client) waitForCompletion(ctx context.Context, statusURL string) error {
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		status, err := c.GetStatus(ctx, statusURL)
		if err != nil && !retryable(err) {
			return err
		}
		if err == nil {
			switch status.Status {
			case StatusCompleted:
				if status.Error != "" {
					return fmt.Errorf("processing failed: %s", status.Error)
				}
				return nil
			case StatusInQueue, StatusInProgress:
			default:
				return fmt.Errorf("unexpected queue status %q", status.Status)
			}
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("timed out waiting for result: %w", ctx.Err())
		case <-ticker.C:
		}
	}
}

func (c *Client) do(ctx context.Context, method, endpoint string, body []byte, out interface{}) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Key "+c.apiKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to decode response: %w, body: %s", err, string(respBody))
	}
	return nil
}

// RetryWithBackoff retries fn while it fails with a transient error, sleeping per
// the backoff schedule between attempts.
func (c *Client) RetryWithBackoff(ctx context.Context, fn func() error, maxAttempts int) error {
	var lastErr error
	for i := 0; i < maxAttempts; i++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err
		if !retryable(err) || i == maxAttempts-1 {
			break
		}

		wait := time.Second
		if i < len(c.backoffs) {
			wait = c.backoffs[i]
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("gave up after %d attempts: %w", i+1, lastErr)
		case <-time.After(wait):
		}
	}
	return lastErr
}

// retryable: rate limiting, server errors and transport failures. A 4xx other than
// 429 means the request itself is wrong.
func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusTooManyRequests || apiErr.StatusCode >= 500
	}
	var urlErr *url.Error
	return errors.As(err, &urlErr)
}
