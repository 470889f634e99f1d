package models

import "time"

// Habit is a participant's recurring commitment with a weekly target frequency.
//
// Batch is stamped once from the current batch at creation time and is never
// recomputed. Renaming or completing the batch later does not propagate here.
type Habit struct {
	ID          string    `json:"id"`
	Participant string    `json:"participant"`
	Name        string    `json:"name"`
	Frequency   int       `json:"frequency"`    // target count per 7-day window
	MinimalDose string    `json:"minimal_dose"` // e.g. "15 min"
	Domains     []string  `json:"domains,omitempty"`
	Context     string    `json:"context,omitempty"`
	Why         string    `json:"why,omitempty"`
	Batch       string    `json:"batch,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// BatchLabel implements Batched.
func (h Habit) BatchLabel() string { return h.Batch }

// Proof is one dated evidence submission for a habit.
//
// Batch is copied from the owning habit when the proof is created, not from
// whatever batch happens to be current at read time. It is immutable
// historical provenance: editing the habit's batch afterward must leave
// existing proofs untouched.
type Proof struct {
	ID            string `json:"id"`
	HabitID       string `json:"habit_id"`
	Date          string `json:"date"` // YYYY-MM-DD
	Unit          string `json:"unit"` // quantity-with-unit, e.g. "20 min"
	Note          string `json:"note,omitempty"`
	IsMinimalDose bool   `json:"is_minimal_dose"`
	IsCheatDay    bool   `json:"is_cheat_day"`
	Batch         string `json:"batch,omitempty"`
}

// BatchLabel implements Batched.
func (p Proof) BatchLabel() string { return p.Batch }

// Batched is satisfied by any record carrying creation-time batch provenance.
type Batched interface {
	BatchLabel() string
}
