package audio

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

var commandContext = exec.CommandContext

// Transcoder normalizes uploaded audio before it goes to the speech-to-text
// provider.
type Transcoder interface {
	ToWAV(ctx context.Context, inputPath, outputPath string) error
}

// FFmpeg shells out to the ffmpeg binary, downmixing to 16 kHz mono WAV.
// Providers bill by duration and channel, and diarization works on a single
// normalized stream, so everything is converted regardless of input format.
type FFmpeg struct {
	binary string
}

type FFmpegOption func(*FFmpeg)

func WithBinary(binary string) FFmpegOption {
	return func(f *FFmpeg) {
		if binary != "" {
			f.binary = binary
		}
	}
}

func NewFFmpeg(opts ...FFmpegOption) *FFmpeg {
	f := &FFmpeg{binary: "ffmpeg"}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func transcodeArgs(inputPath, outputPath string) []string {
	return []string{
		"-hide_banner",
		"-loglevel", "error",
		"-i", inputPath,
		"-ar", "16000",
		"-ac", "1",
		"-f", "wav",
		"-y",
		outputPath,
	}
}

func (f *FFmpeg) ToWAV(ctx context.Context, inputPath, outputPath string) error {
	cmd := commandContext(ctx, f.binary, transcodeArgs(inputPath, outputPath)...)
	var stderr strings.Builder
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return fmt.Errorf("ffmpeg transcode: %s", msg)
	}
	return nil
}
