package bootstrap

import (
	"log/slog"

	"github.com/calliq/insights-backend/internal/agent"
	"github.com/calliq/insights-backend/internal/analysis"
	"github.com/calliq/insights-backend/internal/audio"
	"github.com/calliq/insights-backend/internal/calltype"
	"github.com/calliq/insights-backend/internal/events"
	"github.com/calliq/insights-backend/internal/llm"
	"github.com/calliq/insights-backend/internal/metrics"
	"github.com/calliq/insights-backend/internal/transcript"
	"github.com/calliq/insights-backend/internal/transcription"
	"go.uber.org/fx"
)

func ProvideLLMClient(cfg *Config, logger *slog.Logger) llm.Client {
	opts := []llm.OpenAIOption{llm.WithModel(cfg.OpenAIModel)}
	if cfg.OpenAIBaseURL != "" {
		opts = append(opts, llm.WithBaseURL(cfg.OpenAIBaseURL))
	}
	return llm.NewOpenAIClient(cfg.OpenAIAPIKey, logger, opts...)
}

func ProvideTranscriptionClient(cfg *Config, logger *slog.Logger) transcription.Client {
	opts := []transcription.DeepgramOption{
		transcription.WithModel(cfg.DeepgramModel),
		transcription.WithLanguage(cfg.DeepgramLanguage),
	}
	if cfg.DeepgramBaseURL != "" {
		opts = append(opts, transcription.WithBaseURL(cfg.DeepgramBaseURL))
	}
	return transcription.NewDeepgramClient(cfg.DeepgramAPIKey, logger, opts...)
}

func ProvideEventHub(logger *slog.Logger) *events.Hub {
	return events.NewHub(logger)
}

func ProvideAnalysisService(
	transcripts *transcript.Store,
	callTypes *calltype.Store,
	llmClient llm.Client,
	hub *events.Hub,
	logger *slog.Logger,
) *analysis.Service {
	return analysis.NewService(transcripts, callTypes, llmClient, hub, logger)
}

func ProvideAggregator(
	transcripts *transcript.Store,
	agents *agent.Store,
	hub *events.Hub,
	logger *slog.Logger,
) *metrics.Aggregator {
	return metrics.NewAggregator(transcripts, agents, hub, logger)
}

func ProvideTranscoder(cfg *Config) audio.Transcoder {
	return audio.NewFFmpeg(audio.WithBinary(cfg.FFmpegBinary))
}

func ProvideAudioPipeline(
	transcoder audio.Transcoder,
	stt transcription.Client,
	analyzer *analysis.Service,
	logger *slog.Logger,
) *audio.Pipeline {
	return audio.NewPipeline(transcoder, stt, analyzer, logger)
}

var ClientsModule = fx.Options(
	fx.Provide(
		ProvideLLMClient,
		ProvideTranscriptionClient,
		ProvideEventHub,
		ProvideAnalysisService,
		ProvideAggregator,
		ProvideTranscoder,
		ProvideAudioPipeline,
	),
)
