package models

import "github.com/pfeilbach/cohort/internal/constants"

// Batch is the single tracked cohort instance. The slot in storage holds at
// most one record; completed batches are archived externally.
type Batch struct {
	Name        string                `json:"name"`
	CreatedDate string                `json:"created_date"` // YYYY-MM-DD
	StartDate   string                `json:"start_date"`   // YYYY-MM-DD, Day 1
	EndDate     string                `json:"end_date"`     // YYYY-MM-DD, last day of the span
	Status      constants.BatchStatus `json:"status"`
}

func (b Batch) IsPrePhase() bool {
	return b.Status == constants.BatchPrePhase
}

func (b Batch) IsActive() bool {
	return b.Status == constants.BatchActive
}

func (b Batch) IsCompleted() bool {
	return b.Status == constants.BatchCompleted
}
