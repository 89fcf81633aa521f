package transcript

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/calliq/insights-backend/internal/shared"
)

// Scorecard holds the five 0-10 ratings the LLM assigns to a single call.
// Pointers distinguish "provider omitted this dimension" from a real zero;
// the aggregator skips missing values instead of counting them as 0.
type Scorecard struct {
	CustomerService   *float64 `json:"customerService,omitempty"`
	ProductKnowledge  *float64 `json:"productKnowledge,omitempty"`
	ProcessEfficiency *float64 `json:"processEfficiency,omitempty"`
	ProblemSolving    *float64 `json:"problemSolving,omitempty"`
	OverallScore      *float64 `json:"overallScore,omitempty"`
}

type AgentPerformance struct {
	Strengths           []string `json:"strengths,omitempty"`
	AreasForImprovement []string `json:"areasForImprovement,omitempty"`
}

// Analysis is the structured result produced by the LLM for one call.
type Analysis struct {
	CallSummary            shared.StringMap `json:"callSummary,omitempty"`
	AgentPerformance       AgentPerformance `json:"agentPerformance"`
	ImprovementSuggestions []string         `json:"improvementSuggestions,omitempty"`
	Scorecard              Scorecard        `json:"scorecard"`
}

func (a Analysis) Value() (driver.Value, error) {
	return json.Marshal(a)
}

func (a *Analysis) Scan(value any) error {
	if value == nil {
		*a = Analysis{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into Analysis", value)
	}

	return json.Unmarshal(bytes, a)
}

// CallDetails carries call-platform timing metadata when the transcript came
// in through audio ingestion or the webhook. All timings are seconds.
type CallDetails struct {
	Duration    *float64 `json:"duration,omitempty"`
	TalkTime    *float64 `json:"talkTime,omitempty"`
	WaitingTime *float64 `json:"waitingTime,omitempty"`
	Agent       string   `json:"agent,omitempty"`
	Direction   string   `json:"direction,omitempty"`
	ExternalID  string   `json:"externalId,omitempty"`
}

func (d CallDetails) Value() (driver.Value, error) {
	return json.Marshal(d)
}

func (d *CallDetails) Scan(value any) error {
	if value == nil {
		*d = CallDetails{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into CallDetails", value)
	}

	return json.Unmarshal(bytes, d)
}

// Transcript is an analyzed call. Created on successful analysis and
// immutable afterwards, except for a later backfill of AgentID.
type Transcript struct {
	ID             string        `gorm:"primaryKey" json:"id"`
	OrganizationID string        `gorm:"not null;index" json:"organization_id"`
	AgentID        *string       `gorm:"index" json:"agent_id,omitempty"`
	Source         shared.Source `gorm:"not null;default:'web'" json:"source"`
	CallType       string        `gorm:"index" json:"call_type"`
	RawTranscript  string        `gorm:"type:text;not null" json:"raw_transcript"`
	Analysis       Analysis      `gorm:"type:json" json:"analysis"`
	CallDetails    CallDetails   `gorm:"type:json" json:"call_details"`
	CreatedAt      time.Time     `gorm:"index" json:"created_at"`
}
