package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/calliq/insights-backend/internal/shared"
)

func TestCompleteSendsDeterministicRequest(t *testing.T) {
	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if auth := r.Header.Get("Authorization"); auth != "Bearer test-key" {
			t.Errorf("Authorization = %q, want Bearer test-key", auth)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"role": "assistant", "content": `{"ok":true}`}},
			},
		})
	}))
	defer srv.Close()

	client := NewOpenAIClient("test-key", nil, WithBaseURL(srv.URL), WithModel("gpt-4o-mini"))
	out, err := client.Complete(context.Background(), "you are an analyst", "analyze this")
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if out != `{"ok":true}` {
		t.Errorf("output = %q", out)
	}

	if got.Temperature != 0 {
		t.Errorf("Temperature = %v, want 0", got.Temperature)
	}
	if got.ResponseFormat == nil || got.ResponseFormat.Type != "json_object" {
		t.Errorf("ResponseFormat = %+v, want json_object", got.ResponseFormat)
	}
	if len(got.Messages) != 2 || got.Messages[0].Role != "system" || got.Messages[1].Role != "user" {
		t.Errorf("Messages = %+v", got.Messages)
	}
}

func TestCompleteUpstreamError(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		wantInvalid bool
	}{
		{"invalid key", http.StatusUnauthorized, true},
		{"rate limited", http.StatusTooManyRequests, false},
		{"server error", http.StatusInternalServerError, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(`{"error":{"message":"nope"}}`))
			}))
			defer srv.Close()

			client := NewOpenAIClient("bad-key", nil, WithBaseURL(srv.URL))
			_, err := client.Complete(context.Background(), "sys", "user")

			var upstream *shared.UpstreamError
			if !errors.As(err, &upstream) {
				t.Fatalf("error = %v, want UpstreamError", err)
			}
			if upstream.StatusCode != tt.status {
				t.Errorf("StatusCode = %d, want %d", upstream.StatusCode, tt.status)
			}
			if upstream.KeyInvalid() != tt.wantInvalid {
				t.Errorf("KeyInvalid() = %v, want %v", upstream.KeyInvalid(), tt.wantInvalid)
			}
		})
	}
}

func TestCompleteEmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	client := NewOpenAIClient("key", nil, WithBaseURL(srv.URL))
	_, err := client.Complete(context.Background(), "sys", "user")

	var parseErr *shared.ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("error = %v, want ParseError", err)
	}
}
