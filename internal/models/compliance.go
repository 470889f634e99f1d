package models

import "time"

type TrendDirection string

const (
	TrendUp     TrendDirection = "up"
	TrendDown   TrendDirection = "down"
	TrendSteady TrendDirection = "steady"
)

// Arrow returns the display glyph for the direction.
func (d TrendDirection) Arrow() string {
	switch d {
	case TrendUp:
		return "↑"
	case TrendDown:
		return "↓"
	default:
		return "→"
	}
}

// Trend is the week-over-week movement of a habit's completion rate.
type Trend struct {
	Direction   TrendDirection `json:"direction"`
	PointChange int            `json:"point_change"` // current rate minus previous rate
}

// Streaks summarizes runs of consecutive proof days across all history.
type Streaks struct {
	Current int     `json:"current"` // 0 when the latest proof is stale (> 1 day old)
	Best    int     `json:"best"`
	Average float64 `json:"average"`
}

// Weekdays tallies proofs by day of week across all history.
type Weekdays struct {
	Counts    [7]int         `json:"counts"` // indexed by time.Weekday
	BestDays  []time.Weekday `json:"best_days"`
	WorstDays []time.Weekday `json:"worst_days"`
}

// HabitAnalysis is the full compliance picture for one habit.
type HabitAnalysis struct {
	HabitID         string   `json:"habit_id"`
	HabitName       string   `json:"habit_name"`
	TargetFrequency int      `json:"target_frequency"`
	ActualProofs    int      `json:"actual_proofs"`
	CompletionRate  int      `json:"completion_rate"` // uncapped, over-performance visible
	MinimalDoses    int      `json:"minimal_doses"`
	Trend           Trend    `json:"trend"`
	Streaks         Streaks  `json:"streaks"`
	Weekdays        Weekdays `json:"weekdays"`
}

// HabitCharge is one habit's weekly shortfall converted to money.
type HabitCharge struct {
	HabitID         string  `json:"habit_id"`
	HabitName       string  `json:"habit_name"`
	TargetFrequency int     `json:"target_frequency"`
	ActualProofs    int     `json:"actual_proofs"`
	MissedCount     int     `json:"missed_count"`
	Charge          float64 `json:"charge"`
	CompletionRate  int     `json:"completion_rate"`
}

// ParticipantCharges aggregates a participant's weekly charges.
type ParticipantCharges struct {
	Participant           string        `json:"participant"`
	Habits                []HabitCharge `json:"habits"`
	TotalCharge           float64       `json:"total_charge"`
	PerfectWeek           bool          `json:"perfect_week"`
	OverallCompletionRate int           `json:"overall_completion_rate"` // per-habit rates capped at 100 before averaging
}

// Assessment is the cohort-level weekly result: the delta to apply to the
// shared pool ledger, never the pool balance itself.
type Assessment struct {
	Participants []ParticipantCharges `json:"participants"`
	TotalCharges float64              `json:"total_charges"`
	PerfectWeeks int                  `json:"perfect_weeks"`
}
