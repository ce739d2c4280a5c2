package gemini

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewClient(Config{
		APIKey:  "test-key",
		BaseURL: srv.URL,
		RetryConfig: &RetryConfig{
			MaxRetries:     2,
			InitialBackoff: time.Millisecond,
			MaxBackoff:     5 * time.Millisecond,
		},
		RateLimiterConfig: &RateLimiterConfig{MaxTokens: 100, RefillRate: 100},
	})
}

func imageResponse(key, mimeKey string, data []byte) string {
	return fmt.Sprintf(`{"candidates":[{"content":{"parts":[{"text":"here you go"},{"%s":{"%s":"image/png","data":"%s"}}]}}]}`,
		key, mimeKey, base64.StdEncoding.EncodeToString(data))
}

func TestEditImage_SendsPromptAndImage(t *testing.T) {
	var got map[string]any
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1beta/models/"+DefaultModel+":generateContent", r.URL.Path)
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))

		raw, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(raw, &got))
		fmt.Fprint(w, imageResponse("inlineData", "mimeType", []byte("PNGDATA")))
	})

	img, err := client.EditImage(context.Background(), "make a frame", "image/jpeg", []byte("JPEG"))
	require.NoError(t, err)
	assert.Equal(t, "image/png", img.MimeType)
	assert.Equal(t, []byte("PNGDATA"), img.Data)

	contents := got["contents"].([]any)
	parts := contents[0].(map[string]any)["parts"].([]any)
	assert.Equal(t, "make a frame", parts[0].(map[string]any)["text"])
	inline := parts[1].(map[string]any)["inline_data"].(map[string]any)
	assert.Equal(t, "image/jpeg", inline["mime_type"])
	assert.Equal(t, base64.StdEncoding.EncodeToString([]byte("JPEG")), inline["data"])

	gen := got["generation_config"].(map[string]any)
	assert.Equal(t, 0.4, gen["temperature"])
	assert.Equal(t, 0.95, gen["top_p"])
	assert.EqualValues(t, 32, gen["top_k"])
	assert.EqualValues(t, 8192, gen["max_output_tokens"])
}

func TestEditImage_AcceptsSnakeCaseParts(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, imageResponse("inline_data", "mime_type", []byte("JPG")))
	})

	img, err := client.EditImage(context.Background(), "p", "image/jpeg", []byte("x"))
	require.NoError(t, err)
	assert.Equal(t, []byte("JPG"), img.Data)
}

func TestEditImage_NoImage(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"candidates":[{"content":{"parts":[{"text":"I can't do that"}]}}]}`)
	})

	_, err := client.EditImage(context.Background(), "p", "image/jpeg", []byte("x"))
	assert.ErrorIs(t, err, ErrNoImage)
}

func TestEditImage_BlockedPrompt(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"promptFeedback":{"blockReason":"SAFETY"}}`)
	})

	_, err := client.EditImage(context.Background(), "p", "image/jpeg", []byte("x"))
	require.ErrorIs(t, err, ErrNoImage)
	assert.Contains(t, err.Error(), "SAFETY")
}

func TestGenerateContent_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			fmt.Fprint(w, `{"error":{"code":503,"message":"overloaded","status":"UNAVAILABLE"}}`)
			return
		}
		fmt.Fprint(w, imageResponse("inlineData", "mimeType", []byte("ok")))
	})

	img, err := client.EditImage(context.Background(), "p", "image/jpeg", []byte("x"))
	require.NoError(t, err)
	assert.Equal(t, []byte("ok"), img.Data)
	assert.EqualValues(t, 3, calls.Load())
}

func TestGenerateContent_GivesUpAfterMaxRetries(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
		fmt.Fprint(w, `{"error":{"code":429,"message":"quota","status":"RESOURCE_EXHAUSTED"}}`)
	})

	_, err := client.EditImage(context.Background(), "p", "image/jpeg", []byte("x"))
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusTooManyRequests, apiErr.StatusCode)
	assert.Equal(t, "RESOURCE_EXHAUSTED", apiErr.Status)
	assert.EqualValues(t, 3, calls.Load())
}

func TestGenerateContent_DoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"error":{"code":400,"message":"API key not valid","status":"INVALID_ARGUMENT"}}`)
	})

	_, err := client.EditImage(context.Background(), "p", "image/jpeg", []byte("x"))
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "API key not valid", apiErr.Message)
	assert.EqualValues(t, 1, calls.Load())
}

func TestGenerateContent_NonJSONError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		fmt.Fprint(w, "forbidden")
	})

	_, err := client.EditImage(context.Background(), "p", "image/jpeg", []byte("x"))
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "forbidden", apiErr.Message)
}

func TestCalculateBackoff(t *testing.T) {
	cfg := RetryConfig{InitialBackoff: 100 * time.Millisecond, MaxBackoff: time.Second}
	assert.Equal(t, 100*time.Millisecond, CalculateBackoff(0, cfg))
	assert.Equal(t, 400*time.Millisecond, CalculateBackoff(2, cfg))
	assert.Equal(t, time.Second, CalculateBackoff(5, cfg))
}

func TestIsRetryableStatusCode(t *testing.T) {
	for _, code := range []int{408, 429, 500, 503} {
		assert.True(t, IsRetryableStatusCode(code), code)
	}
	for _, code := range []int{400, 401, 403, 404, 409} {
		assert.False(t, IsRetryableStatusCode(code), code)
	}
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{MaxTokens: 2, RefillRate: 0.001})
	assert.True(t, rl.TryAcquire())
	assert.True(t, rl.TryAcquire())
	assert.False(t, rl.TryAcquire())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, rl.Wait(ctx), context.DeadlineExceeded)
}
