package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/exec"

	"github.com/calliq/insights-backend/internal/agent"
	"github.com/calliq/insights-backend/internal/analysis"
	"github.com/calliq/insights-backend/internal/apikey"
	"github.com/calliq/insights-backend/internal/audio"
	"github.com/calliq/insights-backend/internal/auth"
	"github.com/calliq/insights-backend/internal/calltype"
	"github.com/calliq/insights-backend/internal/events"
	"github.com/calliq/insights-backend/internal/health"
	"github.com/calliq/insights-backend/internal/metrics"
	"github.com/calliq/insights-backend/internal/organization"
	"github.com/calliq/insights-backend/internal/transcript"
	"github.com/calliq/insights-backend/internal/user"
	"github.com/calliq/insights-backend/internal/webhook"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	echoSwagger "github.com/swaggo/echo-swagger"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func ProvideLogger(cfg *Config) *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	}))
}

func ProvideJWTService(cfg *Config) *auth.JWTService {
	return auth.NewJWTService(cfg.HMACKey)
}

func ProvideAPIKeyValidator(store *apikey.Store, redisClient *redis.Client) *apikey.Validator {
	return apikey.NewValidator(store, redisClient)
}

func ProvideAuthMiddleware(jwtService *auth.JWTService, validator *apikey.Validator) *auth.Middleware {
	return auth.NewMiddleware(jwtService, validator)
}

func ProvideGoogleProvider(cfg *Config) user.Provider {
	if cfg.GoogleClientID == "" {
		return nil
	}
	return user.NewGoogleProvider(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleRedirectURL)
}

func ProvideUserHandler(store *user.Store, jwtService *auth.JWTService, google user.Provider, logger *slog.Logger) *user.Handler {
	return user.NewHandler(store, jwtService, google, logger.With("handler", "user"))
}

func ProvideOrganizationHandler(store *organization.Store, logger *slog.Logger) *organization.Handler {
	return organization.NewHandler(store, logger.With("handler", "organization"))
}

func ProvideAgentHandler(store *agent.Store, logger *slog.Logger) *agent.Handler {
	return agent.NewHandler(store, logger.With("handler", "agent"))
}

func ProvideCallTypeHandler(store *calltype.Store, logger *slog.Logger) *calltype.Handler {
	return calltype.NewHandler(store, logger.With("handler", "calltype"))
}

func ProvideTranscriptAnalyzer(svc *analysis.Service) transcript.Analyzer {
	return svc
}

func ProvideTranscriptHandler(store *transcript.Store, agents *agent.Store, analyzer transcript.Analyzer, logger *slog.Logger) *transcript.Handler {
	return transcript.NewHandler(store, agents, analyzer, logger.With("handler", "transcript"))
}

func ProvideMetricsHandler(aggregator *metrics.Aggregator, logger *slog.Logger) *metrics.Handler {
	return metrics.NewHandler(aggregator, logger.With("handler", "metrics"))
}

func ProvideAPIKeyHandler(store *apikey.Store, logger *slog.Logger) *apikey.Handler {
	return apikey.NewHandler(store, logger.With("handler", "apikey"))
}

func ProvideAudioHandler(pipeline *audio.Pipeline, logger *slog.Logger) *audio.Handler {
	return audio.NewHandler(pipeline, logger.With("handler", "audio"))
}

func ProvideWebhookHandler(pipeline *audio.Pipeline, agents *agent.Store, orgs *organization.Store, logger *slog.Logger) *webhook.Handler {
	return webhook.NewHandler(pipeline, agents, orgs, logger.With("handler", "webhook"))
}

func ProvideEventsHandler(hub *events.Hub, logger *slog.Logger) *events.Handler {
	return events.NewHandler(hub, logger.With("handler", "events"))
}

func ProvideHealthHandler(db *gorm.DB, redisClient *redis.Client, cfg *Config) *health.Handler {
	h := health.NewHandler(db, redisClient, cfg.Version)
	h.AddCheck("llm", configuredCheck("OPENAI_API_KEY", cfg.OpenAIAPIKey))
	h.AddCheck("transcription", configuredCheck("DEEPGRAM_API_KEY", cfg.DeepgramAPIKey))
	h.AddCheck("ffmpeg", func(context.Context) error {
		_, err := exec.LookPath(cfg.FFmpegBinary)
		return err
	})
	return h
}

func configuredCheck(name, value string) health.CheckFunc {
	return func(context.Context) error {
		if value == "" {
			return errors.New(name + " is not set")
		}
		return nil
	}
}

type HandlerParams struct {
	fx.In

	UserHandler         *user.Handler
	OrganizationHandler *organization.Handler
	AgentHandler        *agent.Handler
	CallTypeHandler     *calltype.Handler
	TranscriptHandler   *transcript.Handler
	MetricsHandler      *metrics.Handler
	APIKeyHandler       *apikey.Handler
	AudioHandler        *audio.Handler
	WebhookHandler      *webhook.Handler
	EventsHandler       *events.Handler
	HealthHandler       *health.Handler
	Auth                *auth.Middleware
}

func RegisterRoutes(e *echo.Echo, params HandlerParams) {
	api := e.Group("/v1")

	authGroup := api.Group("/auth")
	params.UserHandler.RegisterAuthRoutes(authGroup)

	meGroup := api.Group("/auth")
	meGroup.Use(params.Auth.Authenticate)
	params.UserHandler.RegisterMeRoutes(meGroup)

	usersGroup := api.Group("/users")
	usersGroup.Use(params.Auth.Authenticate, params.Auth.TenantContext)
	params.UserHandler.RegisterRoutes(usersGroup)

	orgsGroup := api.Group("/organizations")
	orgsGroup.Use(params.Auth.Authenticate, params.Auth.RequireMasterAdmin)
	params.OrganizationHandler.RegisterRoutes(orgsGroup)

	agentsGroup := api.Group("/agents")
	agentsGroup.Use(params.Auth.TenantContext)
	params.AgentHandler.RegisterRoutes(agentsGroup)
	params.MetricsHandler.RegisterRoutes(agentsGroup)

	callTypesGroup := api.Group("/call-types")
	callTypesGroup.Use(params.Auth.Authenticate)
	params.CallTypeHandler.RegisterRoutes(callTypesGroup)

	transcriptsGroup := api.Group("/transcripts")
	transcriptsGroup.Use(params.Auth.TenantContext)
	params.TranscriptHandler.RegisterRoutes(transcriptsGroup)
	params.AudioHandler.RegisterRoutes(transcriptsGroup)

	apikeysGroup := api.Group("/api-keys")
	apikeysGroup.Use(params.Auth.Authenticate, params.Auth.TenantContext)
	params.APIKeyHandler.RegisterRoutes(apikeysGroup)

	eventsGroup := api.Group("/events")
	eventsGroup.Use(params.Auth.TenantContext)
	params.EventsHandler.RegisterRoutes(eventsGroup)

	params.WebhookHandler.RegisterRoutes(api.Group("/webhooks"))

	params.HealthHandler.RegisterRoutes(e)

	e.GET("/swagger/*", echoSwagger.EchoWrapHandler())
}

var HandlersModule = fx.Options(
	fx.Provide(
		ProvideLogger,
		ProvideJWTService,
		ProvideAPIKeyValidator,
		ProvideAuthMiddleware,
		ProvideGoogleProvider,
		ProvideTranscriptAnalyzer,
		ProvideUserHandler,
		ProvideOrganizationHandler,
		ProvideAgentHandler,
		ProvideCallTypeHandler,
		ProvideTranscriptHandler,
		ProvideMetricsHandler,
		ProvideAPIKeyHandler,
		ProvideAudioHandler,
		ProvideWebhookHandler,
		ProvideEventsHandler,
		ProvideHealthHandler,
	),
	fx.Invoke(RegisterRoutes),
)
