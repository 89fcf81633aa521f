package transcription

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/calliq/insights-backend/internal/shared"
)

const (
	defaultBaseURL = "https://api.deepgram.com"
	defaultModel   = "nova-2"
	defaultTimeout = 5 * time.Minute
)

// DeepgramClient runs batch speech-to-text over HTTP. Diarization and smart
// formatting are always on: the analysis prompt needs speaker turns and
// readable punctuation to score a call.
type DeepgramClient struct {
	baseURL    string
	apiKey     string
	model      string
	language   string
	httpClient *http.Client
	logger     *slog.Logger
}

type DeepgramOption func(*DeepgramClient)

func WithBaseURL(url string) DeepgramOption {
	return func(c *DeepgramClient) { c.baseURL = url }
}

func WithModel(model string) DeepgramOption {
	return func(c *DeepgramClient) { c.model = model }
}

func WithLanguage(lang string) DeepgramOption {
	return func(c *DeepgramClient) { c.language = lang }
}

func WithHTTPClient(hc *http.Client) DeepgramOption {
	return func(c *DeepgramClient) { c.httpClient = hc }
}

func NewDeepgramClient(apiKey string, logger *slog.Logger, opts ...DeepgramOption) *DeepgramClient {
	if logger == nil {
		logger = slog.Default()
	}
	c := &DeepgramClient{
		baseURL:    defaultBaseURL,
		apiKey:     apiKey,
		model:      defaultModel,
		httpClient: &http.Client{Timeout: defaultTimeout},
		logger:     logger.With("component", "transcription"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type listenResponse struct {
	Results struct {
		Channels []struct {
			Alternatives []struct {
				Transcript string  `json:"transcript"`
				Confidence float64 `json:"confidence"`
			} `json:"alternatives"`
		} `json:"channels"`
	} `json:"results"`
}

func (c *DeepgramClient) Transcribe(ctx context.Context, audio io.Reader, mimeType string) (string, error) {
	params := url.Values{}
	params.Set("model", c.model)
	params.Set("smart_format", "true")
	params.Set("diarize", "true")
	if c.language != "" {
		params.Set("language", c.language)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/listen?"+params.Encode(), audio)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", mimeType)
	req.Header.Set("Authorization", "Token "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("transcription request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return "", fmt.Errorf("transcription response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &shared.UpstreamError{
			Provider:   "deepgram",
			StatusCode: resp.StatusCode,
			Body:       string(body),
		}
	}

	var parsed listenResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("transcription response: %w", err)
	}

	if len(parsed.Results.Channels) == 0 || len(parsed.Results.Channels[0].Alternatives) == 0 {
		return "", &shared.ParseError{Reason: "transcription result had no alternatives", Raw: string(body)}
	}

	alt := parsed.Results.Channels[0].Alternatives[0]
	c.logger.Debug("transcription finished", "model", c.model, "confidence", alt.Confidence)

	return alt.Transcript, nil
}
