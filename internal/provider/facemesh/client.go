package facemesh

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	jsoniter "github.com/json-iterator/go"
)

var codec = jsoniter.ConfigCompatibleWithStandardLibrary

// Config holds the configuration for the FaceMesh sidecar client
type Config struct {
	BaseURL                string
	Timeout                time.Duration
	RetryCount             int
	BaseBackoff            time.Duration
	MinDetectionConfidence float64
	RefineLandmarks        bool
}

// DefaultConfig returns a Config with sensible defaults.
// Frames arrive every ~150ms, so retries are short and few.
func DefaultConfig() Config {
	return Config{
		BaseURL:                "http://localhost:5010",
		Timeout:                10 * time.Second,
		RetryCount:             2,
		BaseBackoff:            100 * time.Millisecond,
		MinDetectionConfidence: 0.5,
		RefineLandmarks:        true,
	}
}

// Client is the HTTP client for the FaceMesh sidecar
type Client struct {
	httpClient *http.Client
	config     Config
}

// NewClient creates a new FaceMesh client
func NewClient(config Config) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		config: config,
	}
}

// Landmarks calls POST /landmarks to run the face mesh on an image
func (c *Client) Landmarks(ctx context.Context, imageBase64 string) (*LandmarksResponse, error) {
	req := LandmarksRequest{
		Img:                    imageBase64,
		MaxNumFaces:            1,
		RefineLandmarks:        c.config.RefineLandmarks,
		MinDetectionConfidence: c.config.MinDetectionConfidence,
	}

	var resp LandmarksResponse
	if err := c.doRequestWithRetry(ctx, http.MethodPost, "/landmarks", req, &resp); err != nil {
		return nil, err
	}

	return &resp, nil
}

// Ping calls GET /health on the sidecar
func (c *Client) Ping(ctx context.Context) error {
	return c.doRequest(ctx, http.MethodGet, "/health", nil, nil)
}

// maxBackoff is the maximum backoff duration for retries
const maxBackoff = 2 * time.Second

// calculateBackoff doubles base for every attempt after the first, capped at maxBackoff
func calculateBackoff(base time.Duration, attempt int) time.Duration {
	if base <= 0 {
		base = 100 * time.Millisecond
	}
	if attempt <= 1 {
		return base
	}
	backoff := base
	for i := 1; i < attempt && backoff < maxBackoff; i++ {
		backoff *= 2
	}
	if backoff > maxBackoff {
		backoff = maxBackoff
	}
	return backoff
}

// doRequestWithRetry retries transport failures and 5xx answers
func (c *Client) doRequestWithRetry(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	var lastErr error

	for attempt := 0; attempt <= c.config.RetryCount; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(calculateBackoff(c.config.BaseBackoff, attempt)):
			}
		}

		lastErr = c.doRequest(ctx, method, path, body, result)
		if lastErr == nil {
			return nil
		}

		if ctx.Err() != nil {
			return ctx.Err()
		}

		if !isRetryable(lastErr) {
			return lastErr
		}
	}

	return fmt.Errorf("%w: %v", ErrServiceUnavailable, lastErr)
}

func isRetryable(err error) bool {
	if errors.Is(err, ErrInvalidResponse) {
		return false
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Temporary()
	}
	return true
}

// doRequest executes a single HTTP request
func (c *Client) doRequest(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	var bodyReader io.Reader
	if body != nil {
		bodyBytes, err := codec.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(bodyBytes)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.config.BaseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return &StatusError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	if result != nil {
		if err := codec.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidResponse, err)
		}
	}

	return nil
}
