// Package inference calls the external pose-inference service over HTTP.
package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/morphoslabs/morphos/internal/domain"
)

// Result is one decoded inference response. Raw holds the full payload so
// the session loop can relay it to the client enriched but otherwise
// untouched; Keypoints is the typed view of its "keypoints" field.
type Result struct {
	Keypoints []domain.Keypoint
	Raw       map[string]any
}

// HasKeypoints reports whether the response carried a keypoints field at
// all, even an empty one.
func (r *Result) HasKeypoints() bool {
	_, ok := r.Raw["keypoints"]
	return ok
}

// Client wraps the inference endpoint with a hard per-call timeout. Every
// failure mode comes back as a typed error so callers can forward it over
// the session channel instead of tearing the connection down.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client for the given base URL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Infer submits one encoded frame and returns the detected keypoints.
// Errors are always one of ErrTimeout, *StatusError, or *UnreachableError.
func (c *Client) Infer(ctx context.Context, frame string) (*Result, error) {
	body, err := json.Marshal(map[string]string{"image": frame})
	if err != nil {
		return nil, &UnreachableError{Cause: fmt.Errorf("encode request: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/inference", bytes.NewReader(body))
	if err != nil {
		return nil, &UnreachableError{Cause: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if isTimeout(err) {
			return nil, ErrTimeout
		}
		return nil, &UnreachableError{Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &StatusError{Code: resp.StatusCode}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		if isTimeout(err) {
			return nil, ErrTimeout
		}
		return nil, &UnreachableError{Cause: fmt.Errorf("read response: %w", err)}
	}

	result := &Result{}
	if err := json.Unmarshal(data, &result.Raw); err != nil {
		return nil, &UnreachableError{Cause: fmt.Errorf("decode response: %w", err)}
	}

	// A malformed keypoints shape degrades to "no keypoints" rather than
	// failing the frame.
	var typed struct {
		Keypoints []domain.Keypoint `json:"keypoints"`
	}
	if err := json.Unmarshal(data, &typed); err == nil {
		result.Keypoints = typed.Keypoints
	}

	return result, nil
}

func isTimeout(err error) bool {
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}
