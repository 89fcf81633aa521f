package audio

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/calliq/insights-backend/internal/auth"
)

func TestIsAudio(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		filename    string
		want        bool
	}{
		{"wav", "audio/wav", "call.wav", true},
		{"mpeg with params", "audio/mpeg; charset=binary", "call.mp3", true},
		{"pdf", "application/pdf", "invoice.pdf", false},
		{"video", "video/mp4", "call.mp4", false},
		{"empty type audio extension", "", "call.wav", true},
		{"empty type unknown extension", "", "call.xyz", false},
		{"garbage type", ";;;", "call.wav", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isAudio(tt.contentType, tt.filename); got != tt.want {
				t.Errorf("isAudio(%q, %q) = %v, want %v", tt.contentType, tt.filename, got, tt.want)
			}
		})
	}
}

func multipartUpload(t *testing.T, contentType string, payload []byte) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	h := make(map[string][]string)
	h["Content-Disposition"] = []string{`form-data; name="file"; filename="call.bin"`}
	h["Content-Type"] = []string{contentType}
	part, err := w.CreatePart(h)
	if err != nil {
		t.Fatalf("create part: %v", err)
	}
	part.Write(payload)
	w.Close()

	req := httptest.NewRequest(http.MethodPost, "/v1/transcripts/audio", &buf)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	return req
}

// A non-audio upload must be refused before the pipeline, and therefore any
// provider, is touched. The nil pipeline makes a violation panic loudly.
func TestUploadRejectsNonAudioBeforePipeline(t *testing.T) {
	h := NewHandler(nil, nil)

	req := multipartUpload(t, "application/pdf", []byte("%PDF-1.4"))
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(req, rec)
	auth.SetOrgForTest(c, "org_1")

	err := h.Upload(c)
	he, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("error = %v, want HTTPError", err)
	}
	if he.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", he.Code)
	}
}

// A reply the extractor cannot parse surfaces as a server failure, not a
// client error.
func TestUploadUnparseableAnalysisIsServerError(t *testing.T) {
	analyzer, _ := newAnalyzerWithReply(t, "sorry, I cannot produce structured output")
	p := NewPipeline(&copyTranscoder{}, &stubSTT{text: "agent: hello"}, analyzer, nil)
	h := NewHandler(p, nil)

	req := multipartUpload(t, "audio/wav", []byte("RIFF"))
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(req, rec)
	auth.SetOrgForTest(c, "org_1")

	err := h.Upload(c)
	he, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("error = %v, want HTTPError", err)
	}
	if he.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", he.Code)
	}
}

func TestUploadRequiresTenant(t *testing.T) {
	h := NewHandler(nil, nil)

	req := multipartUpload(t, "audio/wav", []byte("RIFF"))
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(req, rec)

	err := h.Upload(c)
	he, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("error = %v, want HTTPError", err)
	}
	if he.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", he.Code)
	}
}
