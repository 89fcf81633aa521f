package agent

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

// AverageScores carries the five averaged scorecard dimensions for a period.
type AverageScores struct {
	CustomerService   float64 `json:"customerService"`
	ProductKnowledge  float64 `json:"productKnowledge"`
	ProcessEfficiency float64 `json:"processEfficiency"`
	ProblemSolving    float64 `json:"problemSolving"`
	OverallScore      float64 `json:"overallScore"`
}

// PeriodMetrics is one aggregation result over a date window. CurrentPeriod
// holds the latest run; Historical keeps immutable snapshots of past runs.
type PeriodMetrics struct {
	StartDate                 time.Time     `json:"startDate"`
	EndDate                   time.Time     `json:"endDate"`
	CallCount                 int           `json:"callCount"`
	AverageScores             AverageScores `json:"averageScores"`
	AvgCallDuration           float64       `json:"avgCallDuration"`
	AvgTalkTime               float64       `json:"avgTalkTime"`
	AvgWaitingTime            float64       `json:"avgWaitingTime"`
	PeriodName                string        `json:"periodName,omitempty"`
	CommonStrengths           []string      `json:"commonStrengths,omitempty"`
	CommonAreasForImprovement []string      `json:"commonAreasForImprovement,omitempty"`
}

// MaxHistoricalPeriods bounds the historical metrics list; the oldest entry
// is evicted once a run pushes the list past this.
const MaxHistoricalPeriods = 12

type PerformanceMetrics struct {
	CurrentPeriod *PeriodMetrics  `json:"currentPeriod,omitempty"`
	Historical    []PeriodMetrics `json:"historical,omitempty"`
}

func (m PerformanceMetrics) Value() (driver.Value, error) {
	return json.Marshal(m)
}

func (m *PerformanceMetrics) Scan(value any) error {
	if value == nil {
		*m = PerformanceMetrics{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into PerformanceMetrics", value)
	}

	return json.Unmarshal(bytes, m)
}

// Agent is a per-organization agent profile. ExternalID ties it to the call
// platform's own agent identifier.
type Agent struct {
	ID                 string             `gorm:"primaryKey" json:"id"`
	ExternalID         string             `gorm:"index:idx_org_external,unique" json:"external_id,omitempty"`
	FirstName          string             `gorm:"not null" json:"first_name"`
	LastName           string             `json:"last_name,omitempty"`
	Email              string             `json:"email,omitempty"`
	Phone              string             `json:"phone,omitempty"`
	OrganizationID     string             `gorm:"not null;index;index:idx_org_external,unique" json:"organization_id"`
	Status             Status             `gorm:"default:'active'" json:"status"`
	PerformanceMetrics PerformanceMetrics `gorm:"type:json" json:"performance_metrics"`
	CreatedAt          time.Time          `json:"created_at"`
	UpdatedAt          time.Time          `json:"updated_at"`
}

// FullName is the display name call details refer to.
func (a *Agent) FullName() string {
	if a.LastName == "" {
		return a.FirstName
	}
	return a.FirstName + " " + a.LastName
}
