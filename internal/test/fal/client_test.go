package fal_test

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
	"layertext-backend/internal/fal"
)

const model = "fal-ai/bria/background/remove"

// queueServer fakes the fal queue: submit, a few IN_PROGRESS polls, then the result.
type queueServer struct {
	*httptest.Server
	submitFailures atomic.Int32
	pollsUntilDone int32
	polls          atomic.Int32
	completedError string
	submits        atomic.Int32
	lastAuth       atomic.Value
}

func newQueueServer(t *testing.T) *queueServer {
	t.Helper()
	q := &queueServer{pollsUntilDone: 2}
	mux := http.NewServeMux()
	mux.HandleFunc("/"+model, func(w http.ResponseWriter, r *http.Request) {
		q.submits.Add(1)
		q.lastAuth.Store(r.Header.Get("Authorization"))
		if q.submitFailures.Load() > 0 {
			q.submitFailures.Add(-1)
			http.Error(w, `{"detail":"overloaded"}`, http.StatusServiceUnavailable)
			return
		}
		var body struct {
			ImageURL string `json:"image_url"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.ImageURL == "" {
			http.Error(w, `{"detail":"image_url is required"}`, http.StatusUnprocessableEntity)
			return
		}
		writeJSON(w, fal.QueueResponse{
			RequestID:   "req-1",
			StatusURL:   q.URL + "/requests/req-1/status",
			ResponseURL: q.URL + "/requests/req-1",
		})
	})
	mux.HandleFunc("/requests/req-1/status", func(w http.ResponseWriter, r *http.Request) {
		if q.polls.Add(1) < q.pollsUntilDone {
			writeJSON(w, fal.StatusResponse{Status: fal.StatusInProgress})
			return
		}
		writeJSON(w, fal.StatusResponse{Status: fal.StatusCompleted, Error: q.completedError})
	})
	mux.HandleFunc("/requests/req-1", func(w http.ResponseWriter, r *http.Request) {
		var result fal.RemoveBackgroundResult
		result.Image.URL = "https://fal.media/files/cutout.png"
		result.Image.ContentType = "image/png"
		writeJSON(w, result)
	})
	q.Server = httptest.NewServer(mux)
	t.Cleanup(q.Close)
	return q
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func newClient(q *queueServer, timeout time.Duration) *fal.Client {
	return fal.NewClient(q.URL+"/", "test-key", model, timeout).
		WithPolling(5*time.Millisecond, time.Millisecond, time.Millisecond, time.Millisecond)
}

func TestClient_RemoveBackground(t *testing.T) {
	q := newQueueServer(t)
	client := newClient(q, 5*time.Second)

	url, err := client.RemoveBackground(context.Background(), "https://cdn.test/photo.jpg")

	require.NoError(t, err)
	assert.Equal(t, "https://fal.media/files/cutout.png", url)
	assert.Equal(t, "Key test-key", q.lastAuth.Load())
	assert.GreaterOrEqual(t, q.polls.Load(), int32(2))
}

func TestClient_RemoveBackgroundRetriesTransientSubmitFailures(t *testing.T) {
	q := newQueueServer(t)
	q.submitFailures.Store(2)
	client := newClient(q, 5*time.Second)

	_, err := client.RemoveBackground(context.Background(), "https://cdn.test/photo.jpg")

	require.NoError(t, err)
	assert.Equal(t, int32(3), q.submits.Load())
}

func TestClient_RemoveBackgroundGivesUp(t *testing.T) {
	q := newQueueServer(t)
	q.submitFailures.Store(100)
	client := newClient(q, 5*time.Second)

	_, err := client.RemoveBackground(context.Background(), "https://cdn.test/photo.jpg")

	var apiErr *fal.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusServiceUnavailable, apiErr.StatusCode)
	assert.Equal(t, int32(4), q.submits.Load())
}

func TestClient_RemoveBackgroundDoesNotRetryClientErrors(t *testing.T) {
	q := newQueueServer(t)
	client := newClient(q, 5*time.Second)

	_, err := client.RemoveBackground(context.Background(), "")

	var apiErr *fal.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnprocessableEntity, apiErr.StatusCode)
	assert.Equal(t, int32(1), q.submits.Load())
}

func TestClient_RemoveBackgroundCompletedWithError(t *testing.T) {
	q := newQueueServer(t)
	q.completedError = "image could not be decoded"
	client := newClient(q, 5*time.Second)

	_, err := client.RemoveBackground(context.Background(), "https://cdn.test/photo.jpg")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "image could not be decoded")
}

func TestClient_RemoveBackgroundTimesOut(t *testing.T) {
	q := newQueueServer(t)
	q.pollsUntilDone = 1 << 30
	client := newClient(q, 50*time.Millisecond)

	_, err := client.RemoveBackground(context.Background(), "https://cdn.test/photo.jpg")

	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded), err.Error())
}

func TestClient_RetryWithBackoff(t *testing.T) {
	client := fal.NewClient("https://queue.test", "test-key", model, time.Second).WithPolling(time.Millisecond, time.Millisecond)

	callCount := 0
	err := client.RetryWithBackoff(context.Background(), func() error {
		callCount++
		if callCount < 3 {
			return &fal.APIError{StatusCode: http.StatusTooManyRequests}
		}
		return nil
	}, 3)

	assert.NoError(t, err)
	assert.Equal(t, 3, callCount)
}

func TestClient_RetryWithBackoff_NonRetryable(t *testing.T) {
	client := fal.NewClient("https://queue.test", "test-key", model, time.Second).WithPolling(time.Millisecond, time.Millisecond)

	callCount := 0
	err := client.RetryWithBackoff(context.Background(), func() error {
		callCount++
		return assert.AnError
	}, 3)

	assert.ErrorIs(t, err, assert.AnError)
	assert.Equal(t, 1, callCount)
}
