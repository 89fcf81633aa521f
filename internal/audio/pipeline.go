package audio

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/calliq/insights-backend/internal/analysis"
	"github.com/calliq/insights-backend/internal/shared"
	"github.com/calliq/insights-backend/internal/transcript"
	"github.com/calliq/insights-backend/internal/transcription"
)

// Input carries the call metadata that accompanies an audio file through
// transcription and analysis.
type Input struct {
	OrganizationID string
	AgentID        *string
	Source         shared.Source
	CallType       string
	CallDetails    transcript.CallDetails
}

type Pipeline struct {
	transcoder Transcoder
	stt        transcription.Client
	analyzer   *analysis.Service
	logger     *slog.Logger
}

func NewPipeline(transcoder Transcoder, stt transcription.Client, analyzer *analysis.Service, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		transcoder: transcoder,
		stt:        stt,
		analyzer:   analyzer,
		logger:     logger.With("component", "audio"),
	}
}

// Process takes ownership of the file at audioPath: it is removed before
// Process returns, along with the transcoded copy, on every path. Audio
// files are large and uploads fail often enough that leaking them would
// fill the disk.
func (p *Pipeline) Process(ctx context.Context, audioPath string, in Input) (*transcript.Transcript, error) {
	defer p.remove(audioPath)

	wavPath := audioPath + ".norm.wav"
	defer p.remove(wavPath)

	if err := p.transcoder.ToWAV(ctx, audioPath, wavPath); err != nil {
		return nil, fmt.Errorf("normalize audio: %w", err)
	}

	wav, err := os.Open(wavPath)
	if err != nil {
		return nil, err
	}
	defer wav.Close()

	text, err := p.stt.Transcribe(ctx, wav, "audio/wav")
	if err != nil {
		return nil, err
	}
	if text == "" {
		return nil, &shared.ParseError{Reason: "transcription produced no text"}
	}

	return p.analyzer.Analyze(ctx, analysis.Request{
		OrganizationID: in.OrganizationID,
		AgentID:        in.AgentID,
		Source:         in.Source,
		CallType:       in.CallType,
		RawTranscript:  text,
		CallDetails:    in.CallDetails,
	})
}

func (p *Pipeline) remove(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		p.logger.Warn("temp file not removed", "path", path, "error", err)
	}
}
