package webhook

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/calliq/insights-backend/internal/agent"
	"github.com/calliq/insights-backend/internal/audio"
	"github.com/calliq/insights-backend/internal/organization"
	"github.com/calliq/insights-backend/internal/shared"
	"github.com/calliq/insights-backend/internal/transcript"
	"github.com/labstack/echo/v4"
)

// NectarDeskPayload is the call-completed event the Nectar Desk platform
// posts after a recorded call ends.
type NectarDeskPayload struct {
	ID             string   `json:"id"`
	CallRecordings []string `json:"call_recordings"`
	Duration       *float64 `json:"duration,omitempty"`
	TalkTime       *float64 `json:"talk_time,omitempty"`
	WaitingTime    *float64 `json:"waiting_time,omitempty"`
	Direction      string   `json:"direction,omitempty"`
	CallType       string   `json:"call_type,omitempty"`
	Contact        struct {
		Name  string `json:"name,omitempty"`
		Phone string `json:"phone,omitempty"`
	} `json:"contact"`
	Agents []NectarDeskAgent `json:"agents"`
}

type NectarDeskAgent struct {
	ID        string `json:"id"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Email     string `json:"email,omitempty"`
}

type Handler struct {
	pipeline      *audio.Pipeline
	agents        *agent.Store
	organizations *organization.Store
	httpClient    *http.Client
	logger        *slog.Logger
}

func NewHandler(pipeline *audio.Pipeline, agents *agent.Store, organizations *organization.Store, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		pipeline:      pipeline,
		agents:        agents,
		organizations: organizations,
		httpClient:    &http.Client{Timeout: 2 * time.Minute},
		logger:        logger.With("component", "webhook"),
	}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.POST("/nectar-desk/:organizationId", h.HandleNectarDesk)
}

// HandleNectarDesk godoc
// @Summary      Ingest a Nectar Desk call event
// @Description  Downloads the call recording, runs transcription and analysis, and links the transcript to the matching agent.
// @Tags         webhooks
// @Accept       json
// @Produce      json
// @Param        organizationId path string            true "Receiving organization"
// @Param        payload        body NectarDeskPayload true "Call event"
// @Success      201 {object} transcript.Transcript
// @Failure      400 {object} shared.APIError
// @Failure      404 {object} shared.APIError
// @Router       /webhooks/nectar-desk/{organizationId} [post]
func (h *Handler) HandleNectarDesk(c echo.Context) error {
	ctx := c.Request().Context()
	orgID := c.Param("organizationId")

	org, err := h.organizations.GetByID(ctx, orgID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return shared.NotFound("organization_not_found", "organization not found")
		}
		return shared.InternalError("organization_lookup_failed", "failed to look up organization")
	}
	if org.Status != organization.StatusActive {
		return shared.Forbidden("organization_suspended", "organization is not active")
	}

	var payload NectarDeskPayload
	if err := c.Bind(&payload); err != nil {
		return shared.BadRequest("invalid_payload", "invalid webhook payload")
	}
	if len(payload.CallRecordings) == 0 {
		return shared.BadRequest("no_recording", "call event has no recording")
	}

	recordingPath, err := h.downloadRecording(ctx, payload.CallRecordings[0])
	if err != nil {
		h.logger.Error("recording download failed", "error", err, "org_id", orgID, "call_id", payload.ID)
		return shared.NewAPIError("recording_unavailable", "failed to download call recording").
			ToHTTP(http.StatusBadGateway)
	}

	agentID, agentName := h.resolveAgent(ctx, orgID, payload.Agents)

	in := audio.Input{
		OrganizationID: orgID,
		AgentID:        agentID,
		Source:         shared.SourceWebhook,
		CallType:       payload.CallType,
		CallDetails: transcript.CallDetails{
			Duration:    payload.Duration,
			TalkTime:    payload.TalkTime,
			WaitingTime: payload.WaitingTime,
			Agent:       agentName,
			Direction:   payload.Direction,
			ExternalID:  payload.ID,
		},
	}

	t, err := h.pipeline.Process(ctx, recordingPath, in)
	if err != nil {
		h.logger.Error("webhook pipeline failed", "error", err, "org_id", orgID, "call_id", payload.ID)
		return shared.NewAPIError("ingestion_failed", "failed to process call recording").
			ToHTTP(http.StatusBadGateway)
	}

	h.logger.Info("webhook call ingested", "transcript_id", t.ID, "org_id", orgID, "call_id", payload.ID)
	return c.JSON(http.StatusCreated, t)
}

// resolveAgent matches the event's first agent to a stored profile by
// external id, then by name, creating one on a complete miss so the call
// still lands on a linkable agent. Resolution failures degrade to an
// unlinked transcript rather than rejecting the event.
func (h *Handler) resolveAgent(ctx context.Context, orgID string, eventAgents []NectarDeskAgent) (*string, string) {
	if len(eventAgents) == 0 {
		return nil, ""
	}
	ea := eventAgents[0]
	name := strings.TrimSpace(ea.FirstName + " " + ea.LastName)

	if ea.ID != "" {
		if a, err := h.agents.GetByExternalID(ctx, orgID, ea.ID); err == nil {
			return &a.ID, a.FullName()
		}
	}
	if name != "" {
		if a, err := h.agents.FindByName(ctx, orgID, name); err == nil {
			return &a.ID, a.FullName()
		}
	}
	if ea.ID == "" {
		return nil, name
	}

	created := &agent.Agent{
		ExternalID:     ea.ID,
		FirstName:      ea.FirstName,
		LastName:       ea.LastName,
		Email:          ea.Email,
		OrganizationID: orgID,
		Status:         agent.StatusActive,
	}
	if err := h.agents.Create(ctx, created); err != nil {
		h.logger.Warn("agent auto-creation failed", "error", err, "org_id", orgID, "external_id", ea.ID)
		return nil, name
	}

	h.logger.Info("agent auto-created from webhook", "agent_id", created.ID, "org_id", orgID, "external_id", ea.ID)
	return &created.ID, created.FullName()
}

func (h *Handler) downloadRecording(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("recording fetch returned status %d", resp.StatusCode)
	}

	tmp, err := os.CreateTemp("", "recording-*.audio")
	if err != nil {
		return "", err
	}

	// Read one byte past the cap so an oversize recording fails the event
	// instead of analyzing a silently truncated file.
	n, err := io.Copy(tmp, io.LimitReader(resp.Body, audio.MaxUploadBytes+1))
	if err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", err
	}
	if n > audio.MaxUploadBytes {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("recording exceeds %d byte limit", audio.MaxUploadBytes)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", err
	}

	return tmp.Name(), nil
}
