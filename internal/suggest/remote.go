package suggest

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"
)

// Remote calls a GeoCLIP inference sidecar over HTTP. The sidecar owns
// the model; this client sends image bytes and receives candidates.
type Remote struct {
	baseURL    string
	topK       int
	httpClient *http.Client
	logger     *slog.Logger
}

// Option configures the Remote client during construction.
type Option func(*remoteConfig) error

type remoteConfig struct {
	httpClient *http.Client
	logger     *slog.Logger
	timeout    time.Duration
	topK       int
}

// NewRemote creates a client for the sidecar at baseURL.
func NewRemote(baseURL string, opts ...Option) (*Remote, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("suggest: baseURL is required")
	}
	baseURL = strings.TrimSuffix(baseURL, "/")

	cfg := &remoteConfig{topK: DefaultTopK}
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	httpClient := cfg.httpClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if cfg.timeout > 0 {
		httpClient.Timeout = cfg.timeout
	}

	logger := cfg.logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Remote{
		baseURL:    baseURL,
		topK:       cfg.topK,
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(cfg *remoteConfig) error {
		cfg.httpClient = c
		return nil
	}
}

// WithLogger configures structured logging.
func WithLogger(l *slog.Logger) Option {
	return func(cfg *remoteConfig) error {
		cfg.logger = l
		return nil
	}
}

// WithTimeout sets a timeout on the HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(cfg *remoteConfig) error {
		cfg.timeout = d
		return nil
	}
}

// WithTopK sets how many candidates each prediction requests.
func WithTopK(k int) Option {
	return func(cfg *remoteConfig) error {
		if k < 1 {
			return fmt.Errorf("suggest: top-k must be at least 1, got %d", k)
		}
		cfg.topK = k
		return nil
	}
}

// Name identifies the backend for logs and reports.
func (r *Remote) Name() string { return "remote" }

// Close is a no-op; the HTTP client owns no resources worth releasing.
func (r *Remote) Close() error { return nil }

type predictRQ struct {
	Image string `json:"image"` // base64-encoded file content
	Name  string `json:"name,omitempty"`
	TopK  int    `json:"top_k"`
}

type predictRS struct {
	Predictions []Candidate `json:"predictions"`
}

// ErrorRS is the sidecar's error response body.
type ErrorRS struct {
	Error string `json:"error"`
}

// Predict sends the image at path to the sidecar and returns its top-k
// candidates. Each call is a single attempt; per-image failures are the
// caller's to report.
func (r *Remote) Predict(ctx context.Context, path string) (*Prediction, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("predict: read image: %w", err)
	}

	rq := predictRQ{
		Image: base64.StdEncoding.EncodeToString(data),
		Name:  filepath.Base(path),
		TopK:  r.topK,
	}
	body, err := json.Marshal(rq)
	if err != nil {
		return nil, fmt.Errorf("predict: marshal request: %w", err)
	}

	var rs predictRS
	u := r.baseURL + "/v1/predict"
	if err := r.doJSON(ctx, http.MethodPost, u, "predict", bytes.NewReader(body), &rs); err != nil {
		return nil, err
	}

	pred := &Prediction{Candidates: rs.Predictions}
	if err := pred.validate(); err != nil {
		return nil, fmt.Errorf("predict: %w", err)
	}
	return pred, nil
}

// WaitReady polls the sidecar's health endpoint until it answers 200 or
// maxWait elapses. A sidecar that is still loading the model answers 503.
func (r *Remote) WaitReady(ctx context.Context, maxWait time.Duration) error {
	b := retry.NewFibonacci(500 * time.Millisecond)
	return retry.Do(ctx, retry.WithMaxDuration(maxWait, b), func(ctx context.Context) error {
		if err := r.doJSON(ctx, http.MethodGet, r.baseURL+"/v1/health", "health", nil, nil); err != nil {
			r.logger.DebugContext(ctx, "sidecar not ready", "error", err)
			return retry.RetryableError(err)
		}
		return nil
	})
}

// doJSON executes an HTTP request and decodes the JSON response into dst.
// If the response has an error status, it returns an *APIError.
func (r *Remote) doJSON(ctx context.Context, method, url, operation string, body io.Reader, dst any) error {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return fmt.Errorf("%s: create request: %w", operation, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	r.logger.DebugContext(ctx, "API request", "operation", operation, "method", method, "url", url)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s: do request: %w", operation, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		var errRS ErrorRS
		if json.Unmarshal(respBody, &errRS) == nil && errRS.Error != "" {
			return newAPIError(operation, resp.StatusCode, errRS.Error)
		}
		msg := string(respBody)
		if msg == "" {
			msg = resp.Status
		}
		return newAPIError(operation, resp.StatusCode, msg)
	}

	if dst != nil {
		if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
			return fmt.Errorf("%s: decode response: %w", operation, err)
		}
	}
	return nil
}
