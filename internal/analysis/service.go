package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/calliq/insights-backend/internal/calltype"
	"github.com/calliq/insights-backend/internal/llm"
	"github.com/calliq/insights-backend/internal/shared"
	"github.com/calliq/insights-backend/internal/transcript"
)

// EventPublisher pushes a domain event to dashboard subscribers of one
// organization. Implemented by the websocket hub; nil disables publishing.
type EventPublisher interface {
	Publish(orgID, event string, payload any)
}

const EventTranscriptCreated = "transcript.created"

type Service struct {
	transcripts *transcript.Store
	callTypes   *calltype.Store
	llm         llm.Client
	events      EventPublisher
	logger      *slog.Logger
}

func NewService(transcripts *transcript.Store, callTypes *calltype.Store, llmClient llm.Client, events EventPublisher, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		transcripts: transcripts,
		callTypes:   callTypes,
		llm:         llmClient,
		events:      events,
		logger:      logger.With("component", "analysis"),
	}
}

// Request carries everything needed to analyze one call.
type Request struct {
	OrganizationID string
	AgentID        *string
	Source         shared.Source
	CallType       string
	RawTranscript  string
	CallDetails    transcript.CallDetails
}

// Analyze runs the full pipeline: resolve a prompt, call the model, pull the
// JSON object out of the reply, decode it and persist the transcript. The
// transcript is only written after a successful decode, so a provider or
// parse failure leaves no partial record behind.
func (s *Service) Analyze(ctx context.Context, req Request) (*transcript.Transcript, error) {
	if req.RawTranscript == "" {
		return nil, shared.BadRequest("empty_transcript", "transcript text is required")
	}

	var custom *calltype.CallType
	if req.CallType != "" && req.CallType != CallTypeAuto {
		ct, err := s.callTypes.GetActiveByCode(ctx, req.CallType)
		if err != nil && !errors.Is(err, shared.ErrNotFound) {
			return nil, err
		}
		custom = ct
	}

	systemPrompt, resolvedType := resolvePrompt(custom, req.CallType, req.RawTranscript)

	reply, err := s.llm.Complete(ctx, systemPrompt, req.RawTranscript)
	if err != nil {
		var upstream *shared.UpstreamError
		if errors.As(err, &upstream) && upstream.KeyInvalid() {
			s.logger.Error("llm credentials rejected, analysis is down until the key is rotated",
				"provider", upstream.Provider)
		}
		return nil, err
	}

	result, err := decodeAnalysis(reply)
	if err != nil {
		s.logger.Warn("unparseable llm reply", "error", err, "org_id", req.OrganizationID)
		return nil, err
	}

	t := &transcript.Transcript{
		OrganizationID: req.OrganizationID,
		AgentID:        req.AgentID,
		Source:         req.Source,
		CallType:       resolvedType,
		RawTranscript:  req.RawTranscript,
		Analysis:       *result,
		CallDetails:    req.CallDetails,
	}
	if err := s.transcripts.Create(ctx, t); err != nil {
		return nil, err
	}

	s.logger.Info("transcript analyzed",
		"transcript_id", t.ID,
		"org_id", t.OrganizationID,
		"call_type", t.CallType,
		"source", t.Source)

	if s.events != nil {
		s.events.Publish(t.OrganizationID, EventTranscriptCreated, t)
	}

	return t, nil
}

// AnalyzeText adapts the transcript handler's request shape onto the
// pipeline. An unrecognized source falls back to "api"; interactive callers
// send "web" explicitly.
func (s *Service) AnalyzeText(ctx context.Context, orgID string, req transcript.AnalyzeTextRequest) (*transcript.Transcript, error) {
	source := shared.Source(req.Source)
	switch source {
	case shared.SourceWeb, shared.SourceAPI:
	default:
		source = shared.SourceAPI
	}

	return s.Analyze(ctx, Request{
		OrganizationID: orgID,
		AgentID:        req.AgentID,
		Source:         source,
		CallType:       req.CallType,
		RawTranscript:  req.RawTranscript,
		CallDetails:    req.CallDetails,
	})
}

func decodeAnalysis(reply string) (*transcript.Analysis, error) {
	raw, err := ExtractJSON(reply)
	if err != nil {
		return nil, err
	}

	var result transcript.Analysis
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return nil, &shared.ParseError{Reason: err.Error(), Raw: raw}
	}

	if result.Scorecard == (transcript.Scorecard{}) {
		return nil, &shared.ParseError{Reason: "reply is missing the scorecard", Raw: raw}
	}

	return &result, nil
}
