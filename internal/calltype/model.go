package calltype

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/calliq/insights-backend/internal/shared"
)

// Structure describes the JSON shape the analysis provider must return for
// this call type: which callSummary fields to fill and any extra
// instructions appended to the prompt.
type Structure struct {
	CallSummary  shared.StringMap `json:"callSummary"`
	Instructions string           `json:"instructions,omitempty"`
}

func (s Structure) Value() (driver.Value, error) {
	return json.Marshal(s)
}

func (s *Structure) Scan(value any) error {
	if value == nil {
		*s = Structure{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into Structure", value)
	}

	return json.Unmarshal(bytes, s)
}

// CallType is a named template controlling both the prompt sent to the LLM
// and the expected analysis JSON shape for a category of call.
type CallType struct {
	ID             string    `gorm:"primaryKey" json:"id"`
	Code           string    `gorm:"not null;uniqueIndex" json:"code"`
	Name           string    `gorm:"not null" json:"name"`
	PromptTemplate string    `gorm:"type:text" json:"prompt_template"`
	JSONStructure  Structure `gorm:"type:json" json:"json_structure"`
	Active         bool      `gorm:"default:true" json:"active"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
