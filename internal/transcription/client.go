package transcription

import (
	"context"
	"io"
)

// Client converts recorded audio into transcript text. Implementations
// return *shared.UpstreamError on provider rejection.
type Client interface {
	Transcribe(ctx context.Context, audio io.Reader, mimeType string) (string, error)
}
