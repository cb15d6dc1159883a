package domain

import (
	"time"

	"github.com/google/uuid"
)

// ResearchRecord is the metadata logged for one research run. Result
// contents are not stored, only run statistics.
type ResearchRecord struct {
	ID          string     `json:"id"`
	Query       string     `json:"query"`
	Strategy    Strategy   `json:"strategy"`
	Providers   []Provider `json:"providers"`
	ResultCount int        `json:"result_count"`
	Elapsed     float64    `json:"elapsed"`
	Success     bool       `json:"success"`
	Error       string     `json:"error,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// NewResearchRecord builds a record for a completed run
func NewResearchRecord(query string, strategy Strategy) *ResearchRecord {
	return &ResearchRecord{
		ID:        uuid.NewString(),
		Query:     query,
		Strategy:  strategy,
		CreatedAt: time.Now(),
	}
}
