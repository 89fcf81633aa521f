package transcription

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/calliq/insights-backend/internal/shared"
)

const listenReply = `{"results":{"channels":[{"alternatives":[` +
	`{"transcript":"Speaker 0: Thanks for calling.","confidence":0.98},` +
	`{"transcript":"thanks for calling","confidence":0.61}]}]}}`

func TestTranscribe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("diarize") != "true" || q.Get("smart_format") != "true" {
			t.Errorf("query = %v, want diarize and smart_format enabled", q)
		}
		if q.Get("model") != "nova-2" {
			t.Errorf("model = %q, want nova-2", q.Get("model"))
		}
		if ct := r.Header.Get("Content-Type"); ct != "audio/wav" {
			t.Errorf("Content-Type = %q, want audio/wav", ct)
		}
		if auth := r.Header.Get("Authorization"); auth != "Token dg-key" {
			t.Errorf("Authorization = %q", auth)
		}
		body, _ := io.ReadAll(r.Body)
		if string(body) != "RIFFdata" {
			t.Errorf("body = %q", body)
		}
		w.Write([]byte(listenReply))
	}))
	defer srv.Close()

	client := NewDeepgramClient("dg-key", nil, WithBaseURL(srv.URL))
	got, err := client.Transcribe(context.Background(), strings.NewReader("RIFFdata"), "audio/wav")
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if got != "Speaker 0: Thanks for calling." {
		t.Errorf("transcript = %q, want top alternative", got)
	}
}

func TestTranscribeUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"err_msg":"invalid credentials"}`))
	}))
	defer srv.Close()

	client := NewDeepgramClient("bad", nil, WithBaseURL(srv.URL))
	_, err := client.Transcribe(context.Background(), strings.NewReader("x"), "audio/mpeg")

	var upstream *shared.UpstreamError
	if !errors.As(err, &upstream) {
		t.Fatalf("error = %v, want UpstreamError", err)
	}
	if upstream.Provider != "deepgram" || !upstream.KeyInvalid() {
		t.Errorf("upstream = %+v", upstream)
	}
}

func TestTranscribeEmptyResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results":{"channels":[]}}`))
	}))
	defer srv.Close()

	client := NewDeepgramClient("dg-key", nil, WithBaseURL(srv.URL))
	_, err := client.Transcribe(context.Background(), strings.NewReader("x"), "audio/wav")

	var parseErr *shared.ParseError
	if !errors.As(err, &parseErr) {
		t.Errorf("error = %v, want ParseError", err)
	}
}
