package metrics

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/calliq/insights-backend/internal/agent"
	"github.com/calliq/insights-backend/internal/shared"
	"github.com/calliq/insights-backend/internal/transcript"
)

const topFeedbackCount = 5

// Window bounds an aggregation run by transcript creation time. Nil edges
// leave that side open.
type Window struct {
	Start *time.Time
	End   *time.Time
}

// EventPublisher notifies dashboard subscribers after a metrics rewrite.
// Nil disables notifications.
type EventPublisher interface {
	Publish(orgID, event string, payload any)
}

const EventMetricsUpdated = "metrics.updated"

type Aggregator struct {
	transcripts *transcript.Store
	agents      *agent.Store
	events      EventPublisher
	logger      *slog.Logger
}

func NewAggregator(transcripts *transcript.Store, agents *agent.Store, events EventPublisher, logger *slog.Logger) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Aggregator{
		transcripts: transcripts,
		agents:      agents,
		events:      events,
		logger:      logger.With("component", "aggregator"),
	}
}

// meanAcc averages only the values that were actually present: each
// dimension divides by its own contributor count, never by the total
// transcript count, and an empty accumulator averages to 0, not NaN.
type meanAcc struct {
	sum float64
	n   int
}

func (m *meanAcc) add(v *float64) {
	if v == nil {
		return
	}
	m.sum += *v
	m.n++
}

func (m *meanAcc) mean() float64 {
	if m.n == 0 {
		return 0
	}
	return round2(m.sum / float64(m.n))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// freqTable counts normalized feedback strings, remembering first-seen order
// so that ties rank stably.
type freqTable struct {
	counts map[string]int
	order  []string
}

func newFreqTable() *freqTable {
	return &freqTable{counts: make(map[string]int)}
}

func (f *freqTable) add(s string) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return
	}
	if _, seen := f.counts[s]; !seen {
		f.order = append(f.order, s)
	}
	f.counts[s]++
}

func (f *freqTable) top(n int) []string {
	ranked := make([]string, len(f.order))
	copy(ranked, f.order)
	sort.SliceStable(ranked, func(i, j int) bool {
		return f.counts[ranked[i]] > f.counts[ranked[j]]
	})
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

// Compute folds a transcript set into period metrics. It is pure so the
// arithmetic can be tested without a database.
func Compute(transcripts []*transcript.Transcript, window Window) agent.PeriodMetrics {
	var customerService, productKnowledge, processEfficiency, problemSolving, overall meanAcc
	var duration, talkTime, waitingTime meanAcc
	strengths := newFreqTable()
	improvements := newFreqTable()

	for _, t := range transcripts {
		sc := t.Analysis.Scorecard
		customerService.add(sc.CustomerService)
		productKnowledge.add(sc.ProductKnowledge)
		processEfficiency.add(sc.ProcessEfficiency)
		problemSolving.add(sc.ProblemSolving)
		overall.add(sc.OverallScore)

		duration.add(t.CallDetails.Duration)
		talkTime.add(t.CallDetails.TalkTime)
		waitingTime.add(t.CallDetails.WaitingTime)

		for _, s := range t.Analysis.AgentPerformance.Strengths {
			strengths.add(s)
		}
		for _, s := range t.Analysis.AgentPerformance.AreasForImprovement {
			improvements.add(s)
		}
	}

	start, end := windowDates(transcripts, window)

	return agent.PeriodMetrics{
		StartDate: start,
		EndDate:   end,
		CallCount: len(transcripts),
		AverageScores: agent.AverageScores{
			CustomerService:   customerService.mean(),
			ProductKnowledge:  productKnowledge.mean(),
			ProcessEfficiency: processEfficiency.mean(),
			ProblemSolving:    problemSolving.mean(),
			OverallScore:      overall.mean(),
		},
		AvgCallDuration:           duration.mean(),
		AvgTalkTime:               talkTime.mean(),
		AvgWaitingTime:            waitingTime.mean(),
		CommonStrengths:           strengths.top(topFeedbackCount),
		CommonAreasForImprovement: improvements.top(topFeedbackCount),
	}
}

func windowDates(transcripts []*transcript.Transcript, window Window) (time.Time, time.Time) {
	var start, end time.Time
	if window.Start != nil {
		start = *window.Start
	}
	if window.End != nil {
		end = *window.End
	}

	for _, t := range transcripts {
		if start.IsZero() || t.CreatedAt.Before(start) {
			if window.Start == nil {
				start = t.CreatedAt
			}
		}
		if end.IsZero() || t.CreatedAt.After(end) {
			if window.End == nil {
				end = t.CreatedAt
			}
		}
	}
	return start, end
}

// Run aggregates one agent's transcripts and replaces the agent's metrics
// document: the fresh result becomes the current period, and a named
// snapshot of it is prepended to the capped historical list. All sums are
// computed before any write, so no partial metrics are ever persisted. When
// no transcripts match, nothing is written and shared.ErrNoData is returned.
func (a *Aggregator) Run(ctx context.Context, orgID, agentID string, window Window) (*agent.PeriodMetrics, error) {
	transcripts, err := a.transcripts.ListByAgent(ctx, orgID, agentID, window.Start, window.End)
	if err != nil {
		return nil, err
	}
	if len(transcripts) == 0 {
		return nil, shared.ErrNoData
	}

	current := Compute(transcripts, window)

	ag, err := a.agents.GetByID(ctx, orgID, agentID)
	if err != nil {
		return nil, err
	}

	snapshot := current
	snapshot.PeriodName = periodName(snapshot.EndDate)

	historical := append([]agent.PeriodMetrics{snapshot}, ag.PerformanceMetrics.Historical...)
	if len(historical) > agent.MaxHistoricalPeriods {
		historical = historical[:agent.MaxHistoricalPeriods]
	}

	metrics := agent.PerformanceMetrics{
		CurrentPeriod: &current,
		Historical:    historical,
	}
	if err := a.agents.ReplaceMetrics(ctx, orgID, agentID, metrics); err != nil {
		return nil, err
	}

	a.logger.Info("agent metrics updated",
		"agent_id", agentID,
		"org_id", orgID,
		"call_count", current.CallCount,
		"overall_score", current.AverageScores.OverallScore)

	if a.events != nil {
		a.events.Publish(orgID, EventMetricsUpdated, map[string]any{
			"agentId":       agentID,
			"currentPeriod": current,
		})
	}

	return &current, nil
}

// BatchResult summarizes a RunAll pass.
type BatchResult struct {
	Processed int `json:"processed"`
	NoData    int `json:"no_data"`
	Failed    int `json:"failed"`
}

// RunAll aggregates every agent in the organization. A failure on one agent
// is logged and never aborts the rest of the batch.
func (a *Aggregator) RunAll(ctx context.Context, orgID string, window Window) (BatchResult, error) {
	agents, err := a.agents.ListByOrganization(ctx, orgID)
	if err != nil {
		return BatchResult{}, err
	}

	var result BatchResult
	for _, ag := range agents {
		if _, err := a.Run(ctx, orgID, ag.ID, window); err != nil {
			if errors.Is(err, shared.ErrNoData) {
				result.NoData++
				continue
			}
			result.Failed++
			a.logger.Error("agent aggregation failed", "error", err, "agent_id", ag.ID, "org_id", orgID)
			continue
		}
		result.Processed++
	}
	return result, nil
}

func periodName(end time.Time) string {
	if end.IsZero() {
		end = time.Now()
	}
	return end.Format("January 2006")
}
