// Package arr provides typed clients for the Radarr and Sonarr v3 APIs,
// built on a shared HTTP layer with explicit retry and backoff.
package arr

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

	"github.com/rs/zerolog"
)

const (
	defaultAPIPath     = "/api/v3"
	defaultTimeout     = 15 * time.Second
	defaultMaxAttempts = 3
	defaultBackoff     = 500 * time.Millisecond
	maxBackoff         = 30 * time.Second

	// Error bodies are truncated to keep log lines readable.
	maxErrorBody = 512
)

// RetryConfig controls the explicit retry loop of the shared HTTP layer.
type RetryConfig struct {
	// MaxAttempts is the total number of attempts, including the first.
	MaxAttempts int
	// Backoff is the base delay; attempt n waits Backoff * 2^(n-1).
	Backoff time.Duration
}

// ClientConfig contains configuration for creating a catalog client.
type ClientConfig struct {
	URL     string
	APIKey  string
	APIPath string // defaults to /api/v3
	Timeout time.Duration
	Retry   RetryConfig
	Logger  zerolog.Logger
}

// client is the shared HTTP layer and the operations common to both services.
// Radarr and Sonarr embed it, promoting its exported methods.
type client struct {
	baseURL    string
	apiPath    string
	apiKey     string
	httpClient *http.Client
	retry      RetryConfig
	logger     zerolog.Logger
}

func newClient(name string, cfg ClientConfig) (*client, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("%s URL is required", name)
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%s API key is required", name)
	}

	apiPath := cfg.APIPath
	if apiPath == "" {
		apiPath = defaultAPIPath
	}
	if !strings.HasPrefix(apiPath, "/") {
		apiPath = "/" + apiPath
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	retry := cfg.Retry
	if retry.MaxAttempts <= 0 {
		retry.MaxAttempts = defaultMaxAttempts
	}
	if retry.Backoff <= 0 {
		retry.Backoff = defaultBackoff
	}

	logger := cfg.Logger.With().
		Str("component", name+"-client").
		Str("url", cfg.URL).
		Logger()

	return &client{
		baseURL:    strings.TrimSuffix(cfg.URL, "/"),
		apiPath:    strings.TrimSuffix(apiPath, "/"),
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: timeout},
		retry:      retry,
		logger:     logger,
	}, nil
}

// retryableStatus reports whether a response status warrants another attempt.
func retryableStatus(code int) bool {
	switch code {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

// backoffDelay computes the capped exponential delay before attempt n (1-based
// retry index, so the first retry waits the base backoff).
func backoffDelay(base time.Duration, attempt int) time.Duration {
	d := base << (attempt - 1)
	if d > maxBackoff || d <= 0 {
		return maxBackoff
	}
	return d
}

// request executes one HTTP call with retries and returns the raw body.
// Connection failures and the usual transient status codes (429, 5xx gateway
// family) are retried with capped exponential backoff; other non-2xx codes
// fail immediately with a *StatusError.
func (c *client) request(ctx context.Context, method, path string, query url.Values, body any) ([]byte, error) {
	reqURL := c.baseURL + c.apiPath + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
	}

	var lastErr error
	for attempt := 1; attempt <= c.retry.MaxAttempts; attempt++ {
		if attempt > 1 {
			delay := backoffDelay(c.retry.Backoff, attempt-1)
			c.logger.Warn().
				Err(lastErr).
				Str("method", method).
				Str("path", path).
				Int("attempt", attempt).
				Dur("backoff", delay).
				Msg("retrying request")
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		var reqBody io.Reader
		if payload != nil {
			reqBody = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, reqURL, reqBody)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Authorization", c.apiKey)
		req.Header.Set("X-Api-Key", c.apiKey)
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = &TransportError{Err: err}
			continue
		}

		data, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			lastErr = &TransportError{Err: readErr}
			continue
		}

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return data, nil
		}

		bodyText := string(data)
		if len(bodyText) > maxErrorBody {
			bodyText = bodyText[:maxErrorBody]
		}
		lastErr = &StatusError{Code: resp.StatusCode, Body: bodyText}
		if !retryableStatus(resp.StatusCode) {
			return nil, lastErr
		}
	}

	return nil, lastErr
}

// getJSON fetches path and decodes the response into out. An empty body is
// treated as an empty result rather than an error.
func (c *client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	data, err := c.request(ctx, http.MethodGet, path, query, nil)
	if err != nil {
		return err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", path, err)
	}
	return nil
}

// EnsureTag looks up a tag by label and creates it if absent. It is
// idempotent: calling it repeatedly with the same label yields the same ID.
func (c *client) EnsureTag(ctx context.Context, label string) (int64, error) {
	var tags []Tag
	if err := c.getJSON(ctx, "/tag", nil, &tags); err != nil {
		return 0, fmt.Errorf("failed to list tags: %w", err)
	}
	for _, t := range tags {
		if t.Label == label {
			return t.ID, nil
		}
	}

	data, err := c.request(ctx, http.MethodPost, "/tag", nil, Tag{Label: label})
	if err != nil {
		return 0, fmt.Errorf("failed to create tag %q: %w", label, err)
	}
	var created Tag
	if err := json.Unmarshal(data, &created); err != nil {
		return 0, fmt.Errorf("failed to decode created tag: %w", err)
	}
	c.logger.Info().Str("label", label).Int64("tagId", created.ID).Msg("created tag")
	return created.ID, nil
}

// QualityProfileCutoffs returns profile ID to custom-format cutoff score.
func (c *client) QualityProfileCutoffs(ctx context.Context) (map[int64]int, error) {
	var profiles []QualityProfile
	if err := c.getJSON(ctx, "/qualityprofile", nil, &profiles); err != nil {
		return nil, fmt.Errorf("failed to list quality profiles: %w", err)
	}
	cutoffs := make(map[int64]int, len(profiles))
	for _, p := range profiles {
		cutoffs[p.ID] = p.CutoffFormatScore
	}
	return cutoffs, nil
}

// Queue returns the current download/import queue. Depending on version the
// endpoint returns either a bare list or a paged {records: [...]} object.
func (c *client) Queue(ctx context.Context) ([]QueueItem, error) {
	data, err := c.request(ctx, http.MethodGet, "/queue", nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch queue: %w", err)
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, nil
	}
	if trimmed[0] == '[' {
		var items []QueueItem
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, fmt.Errorf("failed to decode queue list: %w", err)
		}
		return items, nil
	}

	var page struct {
		Records []QueueItem `json:"records"`
	}
	if err := json.Unmarshal(trimmed, &page); err != nil {
		return nil, fmt.Errorf("failed to decode queue page: %w", err)
	}
	return page.Records, nil
}

// Command enqueues a named background job on the service.
func (c *client) Command(ctx context.Context, name string, payload map[string]any) error {
	body := map[string]any{"name": name}
	for k, v := range payload {
		body[k] = v
	}
	if _, err := c.request(ctx, http.MethodPost, "/command", nil, body); err != nil {
		return fmt.Errorf("failed to run command %s: %w", name, err)
	}
	return nil
}

// modifyTags re-fetches the full resource document, applies fn to its tag set
// and writes the document back. Working on the raw document keeps fields this
// package does not model intact across the PUT, and the fresh GET avoids
// acting on stale tag state from an earlier listing.
func (c *client) modifyTags(ctx context.Context, resource string, id int64, fn func([]int64) []int64) error {
	path := fmt.Sprintf("/%s/%d", resource, id)

	var doc map[string]any
	if err := c.getJSON(ctx, path, nil, &doc); err != nil {
		return fmt.Errorf("failed to fetch %s %d: %w", resource, id, err)
	}
	if doc == nil {
		return fmt.Errorf("%s %d not found", resource, id)
	}

	var tags []int64
	if raw, ok := doc["tags"].([]any); ok {
		for _, v := range raw {
			if f, ok := v.(float64); ok {
				tags = append(tags, int64(f))
			}
		}
	}
	doc["tags"] = fn(tags)

	if _, err := c.request(ctx, http.MethodPut, path, nil, doc); err != nil {
		return fmt.Errorf("failed to update %s %d: %w", resource, id, err)
	}
	return nil
}

// addTag unions tagID into the tag set, sorted and without duplicates.
func addTag(tags []int64, tagID int64) []int64 {
	for _, t := range tags {
		if t == tagID {
			return tags
		}
	}
	tags = append(tags, tagID)
	for i := len(tags) - 1; i > 0 && tags[i] < tags[i-1]; i-- {
		tags[i], tags[i-1] = tags[i-1], tags[i]
	}
	return tags
}

// removeTag strips tagID from the tag set.
func removeTag(tags []int64, tagID int64) []int64 {
	out := make([]int64, 0, len(tags))
	for _, t := range tags {
		if t != tagID {
			out = append(out, t)
		}
	}
	return out
}
