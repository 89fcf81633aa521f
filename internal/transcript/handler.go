package transcript

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/calliq/insights-backend/internal/agent"
	"github.com/calliq/insights-backend/internal/auth"
	"github.com/calliq/insights-backend/internal/shared"
	"github.com/labstack/echo/v4"
)

// Analyzer runs the analysis pipeline for raw transcript text. Implemented
// by the analysis service; declared here to keep the dependency one-way.
type Analyzer interface {
	AnalyzeText(ctx context.Context, orgID string, req AnalyzeTextRequest) (*Transcript, error)
}

type Handler struct {
	store    *Store
	agents   *agent.Store
	analyzer Analyzer
	logger   *slog.Logger
}

func NewHandler(store *Store, agents *agent.Store, analyzer Analyzer, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{store: store, agents: agents, analyzer: analyzer, logger: logger}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("", h.List)
	g.POST("", h.Analyze)
	g.GET("/:id", h.Get)
	g.DELETE("/:id", h.Delete)
	g.PUT("/:id/agent", h.LinkAgent)
}

type AnalyzeTextRequest struct {
	RawTranscript string      `json:"raw_transcript"`
	CallType      string      `json:"call_type,omitempty"`
	AgentID       *string     `json:"agent_id,omitempty"`
	Source        string      `json:"source,omitempty"`
	CallDetails   CallDetails `json:"call_details"`
}

// Analyze godoc
// @Summary      Analyze a transcript
// @Description  Runs the LLM analysis over raw transcript text and stores the result.
// @Tags         transcripts
// @Accept       json
// @Produce      json
// @Param        request body AnalyzeTextRequest true "Transcript to analyze"
// @Success      201 {object} Transcript
// @Failure      400 {object} shared.APIError
// @Failure      502 {object} shared.APIError
// @Router       /transcripts [post]
func (h *Handler) Analyze(c echo.Context) error {
	orgID, err := auth.GetOrgID(c)
	if err != nil {
		return err
	}

	var req AnalyzeTextRequest
	if err := c.Bind(&req); err != nil {
		return shared.BadRequest("invalid_request", "invalid request body")
	}
	if req.RawTranscript == "" {
		return shared.BadRequest("missing_transcript", "raw_transcript is required")
	}

	t, err := h.analyzer.AnalyzeText(c.Request().Context(), orgID, req)
	if err != nil {
		var upstream *shared.UpstreamError
		if errors.As(err, &upstream) {
			h.logger.Error("analysis provider failure", "error", err, "org_id", orgID)
			return shared.NewAPIError("provider_unavailable", "analysis provider failed").
				ToHTTP(http.StatusBadGateway)
		}
		var parseErr *shared.ParseError
		if errors.As(err, &parseErr) {
			h.logger.Error("analysis reply unparseable", "error", err, "org_id", orgID)
			return shared.InternalError("analysis_unparseable", "failed to analyze")
		}
		var httpErr *echo.HTTPError
		if errors.As(err, &httpErr) {
			return httpErr
		}
		h.logger.Error("analysis failed", "error", err, "org_id", orgID)
		return shared.InternalError("analysis_failed", "failed to analyze transcript")
	}

	return c.JSON(http.StatusCreated, t)
}

// List godoc
// @Summary      List transcripts for the acting organization
// @Tags         transcripts
// @Produce      json
// @Param        limit  query int false "Page size"
// @Param        offset query int false "Page offset"
// @Success      200 {array} Transcript
// @Router       /transcripts [get]
func (h *Handler) List(c echo.Context) error {
	orgID, err := auth.GetOrgID(c)
	if err != nil {
		return err
	}

	limit, offset := shared.Pagination(c)
	transcripts, err := h.store.ListByOrganization(c.Request().Context(), orgID, limit, offset)
	if err != nil {
		return shared.InternalError("transcript_list_failed", "failed to list transcripts")
	}
	return c.JSON(http.StatusOK, transcripts)
}

// Get godoc
// @Summary      Get a transcript
// @Tags         transcripts
// @Produce      json
// @Param        id path string true "Transcript ID"
// @Success      200 {object} Transcript
// @Failure      404 {object} shared.APIError
// @Router       /transcripts/{id} [get]
func (h *Handler) Get(c echo.Context) error {
	orgID, err := auth.GetOrgID(c)
	if err != nil {
		return err
	}

	t, err := h.store.GetByID(c.Request().Context(), orgID, c.Param("id"))
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return shared.NotFound("transcript_not_found", "transcript not found")
		}
		return shared.InternalError("transcript_get_failed", "failed to load transcript")
	}
	return c.JSON(http.StatusOK, t)
}

// Delete godoc
// @Summary      Delete a transcript
// @Tags         transcripts
// @Param        id path string true "Transcript ID"
// @Success      204
// @Failure      404 {object} shared.APIError
// @Router       /transcripts/{id} [delete]
func (h *Handler) Delete(c echo.Context) error {
	orgID, err := auth.GetOrgID(c)
	if err != nil {
		return err
	}

	if err := h.store.Delete(c.Request().Context(), orgID, c.Param("id")); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return shared.NotFound("transcript_not_found", "transcript not found")
		}
		return shared.InternalError("transcript_delete_failed", "failed to delete transcript")
	}
	return c.NoContent(http.StatusNoContent)
}

type LinkAgentRequest struct {
	AgentID string `json:"agent_id"`
}

// LinkAgent godoc
// @Summary      Link a transcript to an agent
// @Description  The only mutation a stored transcript supports.
// @Tags         transcripts
// @Accept       json
// @Param        id      path string           true "Transcript ID"
// @Param        request body LinkAgentRequest true "Agent to link"
// @Success      204
// @Failure      404 {object} shared.APIError
// @Router       /transcripts/{id}/agent [put]
func (h *Handler) LinkAgent(c echo.Context) error {
	orgID, err := auth.GetOrgID(c)
	if err != nil {
		return err
	}

	var req LinkAgentRequest
	if err := c.Bind(&req); err != nil {
		return shared.BadRequest("invalid_request", "invalid request body")
	}
	if req.AgentID == "" {
		return shared.BadRequest("missing_agent_id", "agent_id is required")
	}

	ctx := c.Request().Context()

	// Scope check before the unscoped link update.
	if _, err := h.store.GetByID(ctx, orgID, c.Param("id")); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return shared.NotFound("transcript_not_found", "transcript not found")
		}
		return shared.InternalError("transcript_get_failed", "failed to load transcript")
	}

	// The target agent must exist in the same organization.
	if _, err := h.agents.GetByID(ctx, orgID, req.AgentID); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return shared.NotFound("agent_not_found", "agent not found")
		}
		return shared.InternalError("agent_get_failed", "failed to load agent")
	}

	if err := h.store.LinkAgent(ctx, c.Param("id"), req.AgentID); err != nil {
		return shared.InternalError("transcript_link_failed", "failed to link transcript")
	}
	return c.NoContent(http.StatusNoContent)
}
