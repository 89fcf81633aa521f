package audio

import (
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/calliq/insights-backend/internal/auth"
	"github.com/calliq/insights-backend/internal/shared"
	"github.com/labstack/echo/v4"
)

// MaxUploadBytes caps a single audio upload at 25 MB, roughly an hour of
// compressed call audio.
const MaxUploadBytes = 25 << 20

type Handler struct {
	pipeline *Pipeline
	logger   *slog.Logger
}

func NewHandler(pipeline *Pipeline, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{pipeline: pipeline, logger: logger}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.POST("/audio", h.Upload)
}

// Upload godoc
// @Summary      Analyze an uploaded call recording
// @Description  Transcodes, transcribes and analyzes one audio file. Only audio/* content is accepted.
// @Tags         transcripts
// @Accept       multipart/form-data
// @Produce      json
// @Param        file      formData file   true  "Audio recording"
// @Param        call_type formData string false "Call type code"
// @Param        agent_id  formData string false "Agent to link the transcript to"
// @Success      201 {object} transcript.Transcript
// @Failure      400 {object} shared.APIError
// @Failure      413 {object} shared.APIError
// @Router       /transcripts/audio [post]
func (h *Handler) Upload(c echo.Context) error {
	orgID, err := auth.GetOrgID(c)
	if err != nil {
		return err
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return shared.BadRequest("missing_file", "audio file is required")
	}

	if fileHeader.Size > MaxUploadBytes {
		return shared.NewAPIError("file_too_large", "audio file exceeds the upload limit").
			ToHTTP(http.StatusRequestEntityTooLarge)
	}

	// Reject non-audio uploads before any disk or provider work.
	if !isAudio(fileHeader.Header.Get("Content-Type"), fileHeader.Filename) {
		return shared.BadRequest("unsupported_media_type", "only audio files are accepted")
	}

	src, err := fileHeader.Open()
	if err != nil {
		return shared.InternalError("upload_read_failed", "failed to read upload")
	}
	defer src.Close()

	tmp, err := os.CreateTemp("", "upload-*"+filepath.Ext(fileHeader.Filename))
	if err != nil {
		return shared.InternalError("upload_store_failed", "failed to store upload")
	}
	tmpPath := tmp.Name()

	if _, err := io.Copy(tmp, io.LimitReader(src, MaxUploadBytes)); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return shared.InternalError("upload_store_failed", "failed to store upload")
	}
	tmp.Close()

	var agentID *string
	if v := c.FormValue("agent_id"); v != "" {
		agentID = &v
	}

	in := Input{
		OrganizationID: orgID,
		AgentID:        agentID,
		Source:         shared.SourceAudio,
		CallType:       c.FormValue("call_type"),
	}

	// The pipeline owns tmpPath from here and removes it on every path.
	t, err := h.pipeline.Process(c.Request().Context(), tmpPath, in)
	if err != nil {
		var upstream *shared.UpstreamError
		if errors.As(err, &upstream) {
			h.logger.Error("audio pipeline provider failure", "error", err, "org_id", orgID)
			return shared.NewAPIError("provider_unavailable", "transcription or analysis provider failed").
				ToHTTP(http.StatusBadGateway)
		}
		var parseErr *shared.ParseError
		if errors.As(err, &parseErr) {
			h.logger.Error("analysis reply unparseable", "error", err, "org_id", orgID)
			return shared.InternalError("analysis_unparseable", "failed to analyze")
		}
		h.logger.Error("audio pipeline failed", "error", err, "org_id", orgID)
		return shared.InternalError("audio_pipeline_failed", "failed to process audio")
	}

	return c.JSON(http.StatusCreated, t)
}

func isAudio(contentType, filename string) bool {
	if contentType == "" {
		contentType = mime.TypeByExtension(filepath.Ext(filename))
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return strings.HasPrefix(mediaType, "audio/")
}
