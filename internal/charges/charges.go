// Package charges converts weekly per-habit shortfalls into monetary charges
// and aggregates them per participant and across the cohort.
package charges

import (
	"math"
	"sort"

	"github.com/pfeilbach/cohort/internal/compliance"
	"github.com/pfeilbach/cohort/internal/models"
)

// HabitWeek pairs a habit with its proof count for the assessed week.
type HabitWeek struct {
	Habit        models.Habit
	ActualProofs int
}

// AssessHabit converts one habit's weekly shortfall into a charge.
func AssessHabit(hw HabitWeek, unitCharge float64) models.HabitCharge {
	missed := hw.Habit.Frequency - hw.ActualProofs
	if missed < 0 {
		missed = 0
	}
	return models.HabitCharge{
		HabitID:         hw.Habit.ID,
		HabitName:       hw.Habit.Name,
		TargetFrequency: hw.Habit.Frequency,
		ActualProofs:    hw.ActualProofs,
		MissedCount:     missed,
		Charge:          float64(missed) * unitCharge,
		CompletionRate:  compliance.CompletionRate(hw.Habit.Frequency, hw.ActualProofs),
	}
}

// AssessParticipant aggregates one participant's weekly charges across all
// their habits. A participant with no habits in the window gets a zero total
// and no perfect-week flag; the caller excludes them from charged lists.
func AssessParticipant(participant string, weeks []HabitWeek, unitCharge float64) models.ParticipantCharges {
	pc := models.ParticipantCharges{Participant: participant}

	rateSum := 0
	for _, hw := range weeks {
		hc := AssessHabit(hw, unitCharge)
		pc.Habits = append(pc.Habits, hc)
		pc.TotalCharge += hc.Charge

		// cap per-habit rates at 100 for the displayed cross-habit average
		capped := hc.CompletionRate
		if capped > 100 {
			capped = 100
		}
		rateSum += capped
	}

	if len(pc.Habits) > 0 {
		pc.PerfectWeek = pc.TotalCharge == 0
		pc.OverallCompletionRate = int(math.Round(float64(rateSum) / float64(len(pc.Habits))))
	}

	return pc
}

// Assess computes the cohort-level weekly assessment: every participant's
// charges plus the total delta to apply to the shared pool ledger. The ledger
// itself is an external collaborator; this only computes the delta.
func Assess(byParticipant map[string][]HabitWeek, unitCharge float64) models.Assessment {
	var a models.Assessment

	names := make([]string, 0, len(byParticipant))
	for name := range byParticipant {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		pc := AssessParticipant(name, byParticipant[name], unitCharge)
		if len(pc.Habits) == 0 {
			continue
		}
		a.Participants = append(a.Participants, pc)
		a.TotalCharges += pc.TotalCharge
		if pc.PerfectWeek {
			a.PerfectWeeks++
		}
	}

	return a
}

// Leaderboard orders participants by overall completion rate, best first.
// Ties keep their alphabetical ordering from Assess.
func Leaderboard(a models.Assessment) []models.ParticipantCharges {
	ranked := make([]models.ParticipantCharges, len(a.Participants))
	copy(ranked, a.Participants)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].OverallCompletionRate > ranked[j].OverallCompletionRate
	})
	return ranked
}

// ChargedParticipants returns only participants with a non-zero total charge.
func ChargedParticipants(a models.Assessment) []models.ParticipantCharges {
	var charged []models.ParticipantCharges
	for _, pc := range a.Participants {
		if pc.TotalCharge > 0 {
			charged = append(charged, pc)
		}
	}
	return charged
}
