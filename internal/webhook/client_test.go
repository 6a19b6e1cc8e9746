package webhook

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/zinc-sig/kaas/internal/output"
)

func testPayload() *output.ExecutionResponse {
	result := output.NewResult("Feature: ping")
	result.Scenarios = output.ScenarioCounts{Total: 1, Passed: 1}
	return &output.ExecutionResponse{
		Success:     true,
		Output:      result,
		RawOutput:   "scenarios: 1 | passed: 1 | failed: 0",
		ExecutionID: "abcd1234",
	}
}

func fastRetries(maxRetries int) *RetryConfig {
	return &RetryConfig{
		MaxRetries:   maxRetries,
		InitialDelay: 10 * time.Millisecond,
		MaxDelay:     100 * time.Millisecond,
		Multiplier:   2.0,
	}
}

func TestNewClient(t *testing.T) {
	config := &Config{URL: "https://example.com/webhook"}

	client := NewClient(config, nil, nil)

	if client.config.Method != http.MethodPost {
		t.Errorf("Method = %s, want POST", client.config.Method)
	}
	if client.config.Timeout != 30*time.Second {
		t.Errorf("Timeout = %v, want 30s", client.config.Timeout)
	}
	if client.retryConfig.MaxRetries != 3 {
		t.Errorf("MaxRetries = %d, want 3", client.retryConfig.MaxRetries)
	}
	if client.logger == nil {
		t.Error("logger should default to slog.Default()")
	}
}

func TestClientSend_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if got := r.Header.Get("Content-Type"); got != "application/json" {
			t.Errorf("Content-Type = %s, want application/json", got)
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			t.Errorf("failed to read request body: %v", err)
		}

		var payload output.ExecutionResponse
		if err := json.Unmarshal(body, &payload); err != nil {
			t.Errorf("failed to unmarshal payload: %v", err)
		}
		if payload.ExecutionID != "abcd1234" {
			t.Errorf("executionId = %q, want abcd1234", payload.ExecutionID)
		}
		if payload.Output == nil || payload.Output.Scenarios.Passed != 1 {
			t.Errorf("output = %+v, want one passed scenario", payload.Output)
		}

		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClient(&Config{URL: server.URL, Timeout: 5 * time.Second}, DefaultRetryConfig(), nil)

	if err := client.Send(context.Background(), testPayload()); err != nil {
		t.Errorf("Send() error = %v", err)
	}
}

func TestClientSend_Headers(t *testing.T) {
	tests := []struct {
		name      string
		authType  string
		authToken string
		header    string
		want      string
	}{
		{"bearer auth", AuthBearer, "test-token", "Authorization", "Bearer test-token"},
		{"api-key auth", AuthAPIKey, "api-key-value", "X-API-Key", "api-key-value"},
		{"no auth", AuthNone, "", "Authorization", ""},
		{"custom header", "", "", "X-Source", "kaas"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if got := r.Header.Get(tt.header); got != tt.want {
					t.Errorf("%s header = %q, want %q", tt.header, got, tt.want)
				}
				w.WriteHeader(http.StatusNoContent)
			}))
			defer server.Close()

			config := &Config{
				URL:       server.URL,
				Headers:   map[string]string{"X-Source": "kaas"},
				AuthType:  tt.authType,
				AuthToken: tt.authToken,
				Timeout:   5 * time.Second,
			}
			client := NewClient(config, DefaultRetryConfig(), nil)

			if err := client.Send(context.Background(), testPayload()); err != nil {
				t.Errorf("Send() error = %v", err)
			}
		})
	}
}

func TestClientSend_CustomMethod(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			t.Errorf("method = %s, want PUT", r.Method)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClient(&Config{URL: server.URL, Method: http.MethodPut}, nil, nil)
	if err := client.Send(context.Background(), testPayload()); err != nil {
		t.Errorf("Send() error = %v", err)
	}
}

func TestClientSend_RetryOnFailure(t *testing.T) {
	var attempts int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&attempts, 1) <= 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClient(&Config{URL: server.URL, Timeout: 10 * time.Second}, fastRetries(3), nil)

	if err := client.Send(context.Background(), testPayload()); err != nil {
		t.Errorf("Send() error = %v, want success after retries", err)
	}
	if got := atomic.LoadInt32(&attempts); got != 3 {
		t.Errorf("attempts = %d, want 3", got)
	}
}

func TestClientSend_NonRetryableStatus(t *testing.T) {
	var attempts int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attempts, 1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	client := NewClient(&Config{URL: server.URL, Timeout: 5 * time.Second}, fastRetries(3), nil)

	err := client.Send(context.Background(), testPayload())
	if err == nil {
		t.Fatal("Send() expected error for non-retryable status")
	}
	if !strings.Contains(err.Error(), "status 400") {
		t.Errorf("error = %v, want status 400", err)
	}
	if got := atomic.LoadInt32(&attempts); got != 1 {
		t.Errorf("attempts = %d, want 1", got)
	}
}

func TestClientSend_MaxRetriesExceeded(t *testing.T) {
	var attempts int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attempts, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewClient(&Config{URL: server.URL, Timeout: 5 * time.Second}, fastRetries(2), nil)

	err := client.Send(context.Background(), testPayload())
	if err == nil {
		t.Fatal("Send() expected error after max retries")
	}
	if !strings.Contains(err.Error(), "after 3 attempts") {
		t.Errorf("error = %v, want attempt count", err)
	}
	if got := atomic.LoadInt32(&attempts); got != 3 {
		t.Errorf("attempts = %d, want 3", got)
	}
}

func TestClientSend_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClient(&Config{URL: server.URL, Timeout: 50 * time.Millisecond}, &RetryConfig{MaxRetries: 0}, nil)

	if err := client.Send(context.Background(), testPayload()); err == nil {
		t.Error("Send() expected timeout error")
	}
}

func TestClientSend_UnmarshalablePayload(t *testing.T) {
	client := NewClient(&Config{URL: "http://127.0.0.1:1"}, nil, nil)

	err := client.Send(context.Background(), map[string]any{"bad": make(chan int)})
	if err == nil || !strings.Contains(err.Error(), "failed to marshal webhook payload") {
		t.Errorf("Send() error = %v, want marshal error", err)
	}
}
