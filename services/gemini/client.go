// Package gemini is a small client for the Gemini generateContent API, used
// to edit photos into university profile frames.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/YHTerrance/UniFrames/config"
)

const (
	// BaseURL is the Gemini API base URL
	BaseURL = "https://generativelanguage.googleapis.com"
	// DefaultModel edits and returns images
	DefaultModel = "gemini-2.5-flash-image-preview"
	// DefaultTimeout covers one generateContent call; image generation is slow
	DefaultTimeout = 120 * time.Second
)

// ErrNoImage is returned when a response carries no inline image
var ErrNoImage = errors.New("no image data in Gemini response")

// Client handles Gemini API interactions
type Client struct {
	apiKey      string
	baseURL     string
	model       string
	httpClient  *http.Client
	retryConfig RetryConfig
	rateLimiter *RateLimiter
}

// Config holds configuration for the Gemini client
type Config struct {
	APIKey            string
	BaseURL           string
	Model             string
	Timeout           time.Duration
	RetryConfig       *RetryConfig       // Optional custom retry config
	RateLimiterConfig *RateLimiterConfig // Optional rate limiter config
}

// RetryConfig holds retry configuration for failed requests
type RetryConfig struct {
	MaxRetries     int           // Maximum number of retry attempts (default: 2)
	InitialBackoff time.Duration // Initial backoff duration (default: 500ms)
	MaxBackoff     time.Duration // Maximum backoff duration (default: 30s)
}

// DefaultRetryConfig returns the default retry configuration
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:     2,
		InitialBackoff: 500 * time.Millisecond,
		MaxBackoff:     30 * time.Second,
	}
}

// ConfigFromSettings adapts the application Gemini settings
func ConfigFromSettings(g config.GeminiConfig) Config {
	return Config{
		APIKey:  g.APIKey,
		BaseURL: g.BaseURL,
		Model:   g.Model,
		Timeout: g.Timeout,
	}
}

// NewClient creates a new Gemini API client
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = BaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	retryConfig := DefaultRetryConfig()
	if cfg.RetryConfig != nil {
		retryConfig = *cfg.RetryConfig
	}

	rateLimiterConfig := DefaultRateLimiterConfig()
	if cfg.RateLimiterConfig != nil {
		rateLimiterConfig = *cfg.RateLimiterConfig
	}

	return &Client{
		apiKey:      cfg.APIKey,
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		model:       cfg.Model,
		httpClient:  &http.Client{Timeout: cfg.Timeout},
		retryConfig: retryConfig,
		rateLimiter: NewRateLimiter(rateLimiterConfig),
	}
}

// Model returns the model the client calls
func (c *Client) Model() string {
	return c.model
}

// IsRetryableStatusCode checks if an HTTP status code should trigger a retry
// Retryable codes: 408 (Timeout), 429 (Rate Limit), 5xx (Server errors)
func IsRetryableStatusCode(statusCode int) bool {
	return statusCode == http.StatusRequestTimeout || statusCode == http.StatusTooManyRequests || statusCode >= 500
}

// CalculateBackoff returns initialBackoff * 2^attempt, capped at maxBackoff
func CalculateBackoff(attempt int, config RetryConfig) time.Duration {
	backoff := config.InitialBackoff * time.Duration(1<<uint(attempt))
	if backoff > config.MaxBackoff {
		return config.MaxBackoff
	}
	return backoff
}

// ParseRetryAfter extracts the Retry-After header in seconds, 0 when absent
func ParseRetryAfter(resp *http.Response) time.Duration {
	if resp == nil {
		return 0
	}
	if seconds, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}
	return 0
}

// EditImage sends a prompt and an image and returns the first image of the answer
func (c *Client) EditImage(ctx context.Context, prompt, mimeType string, image []byte) (*Image, error) {
	resp, err := c.GenerateContent(ctx, &GenerateContentRequest{
		Contents: []Content{{
			Parts: []Part{
				{Text: prompt},
				NewImagePart(mimeType, image),
			},
		}},
		GenerationConfig: DefaultGenerationConfig(),
	})
	if err != nil {
		return nil, err
	}
	return resp.FirstImage()
}

// GenerateContent calls models/{model}:generateContent, retrying timeouts,
// rate limits and server errors with exponential backoff.
func (c *Client) GenerateContent(ctx context.Context, req *GenerateContentRequest) (*GenerateContentResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s",
		c.baseURL, url.PathEscape(c.model), url.QueryEscape(c.apiKey))

	var lastErr error
	for attempt := 0; attempt <= c.retryConfig.MaxRetries; attempt++ {
		if attempt > 0 {
			wait := CalculateBackoff(attempt-1, c.retryConfig)
			var apiErr *APIError
			if errors.As(lastErr, &apiErr) && apiErr.retryAfter > wait {
				wait = apiErr.retryAfter
			}
			timer := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				timer.Stop()
				return nil, ctx.Err()
			case <-timer.C:
			}
		}

		if err := c.rateLimiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter wait cancelled: %w", err)
		}

		var result GenerateContentResponse
		lastErr = c.doRequest(ctx, endpoint, body, &result)
		if lastErr == nil {
			return &result, nil
		}
		if !isRetryable(ctx, lastErr) {
			return nil, lastErr
		}
	}

	return nil, fmt.Errorf("gemini request failed after %d retries: %w", c.retryConfig.MaxRetries, lastErr)
}

func isRetryable(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return IsRetryableStatusCode(apiErr.StatusCode)
	}
	var decodeErr *decodeError
	return !errors.As(err, &decodeErr)
}

type decodeError struct{ err error }

func (e *decodeError) Error() string { return "failed to decode response: " + e.err.Error() }
func (e *decodeError) Unwrap() error { return e.err }

func (c *Client) doRequest(ctx context.Context, endpoint string, body []byte, result *GenerateContentResponse) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode, retryAfter: ParseRetryAfter(resp)}
		var envelope struct {
			Error *APIError `json:"error"`
		}
		if json.Unmarshal(respBody, &envelope) == nil && envelope.Error != nil {
			apiErr.Code = envelope.Error.Code
			apiErr.Message = envelope.Error.Message
			apiErr.Status = envelope.Error.Status
		} else {
			apiErr.Message = strings.TrimSpace(string(respBody))
		}
		return apiErr
	}

	if err := json.Unmarshal(respBody, result); err != nil {
		return &decodeError{err: err}
	}
	return nil
}
