// Package compliance turns raw proof records into completion rates, streaks,
// week-over-week trends and weekday patterns for a single habit.
package compliance

import (
	"math"
	"sort"
	"time"

	"github.com/pfeilbach/cohort/internal/constants"
	"github.com/pfeilbach/cohort/internal/models"
	"github.com/pfeilbach/cohort/internal/units"
	"github.com/pfeilbach/cohort/internal/utils"
)

// CompletionRate returns round(100 * actual / target). The result is not
// capped: over-performance stays visible in the primary weekly metric.
// A target of zero is a configuration error the caller must prevent.
func CompletionRate(target, actual int) int {
	return int(math.Round(100 * float64(actual) / float64(target)))
}

// Trend classifies the movement from the previous week's rate to the current
// one. Differences within the dead band report as steady so small samples
// don't flap between directions.
func Trend(currentRate, previousRate int) models.Trend {
	diff := currentRate - previousRate
	t := models.Trend{Direction: models.TrendSteady, PointChange: diff}
	if diff > constants.TrendDeadBandPoints {
		t.Direction = models.TrendUp
	} else if diff < -constants.TrendDeadBandPoints {
		t.Direction = models.TrendDown
	}
	return t
}

// CalcStreaks computes streak statistics over the full proof history.
// A streak is a maximal run of distinct dates each exactly one calendar day
// after the previous. Current is the run ending at the most recent proof
// date, reported as 0 when that date is more than one day before today.
func CalcStreaks(dates []string, today time.Time) models.Streaks {
	days := distinctSortedDays(dates)
	if len(days) == 0 {
		return models.Streaks{}
	}

	var runs []int
	run := 1
	for i := 1; i < len(days); i++ {
		if utils.DaysBetween(days[i-1], days[i]) == 1 {
			run++
		} else {
			runs = append(runs, run)
			run = 1
		}
	}
	runs = append(runs, run)

	best := 0
	total := 0
	for _, r := range runs {
		total += r
		if r > best {
			best = r
		}
	}

	current := runs[len(runs)-1]
	latest := days[len(days)-1]
	// The run stops being "current" once more than one full day has elapsed
	// since the most recent proof date's midnight.
	gap := today.Sub(time.Date(latest.Year(), latest.Month(), latest.Day(), 0, 0, 0, 0, today.Location()))
	if gap > 24*time.Hour {
		current = 0
	}

	return models.Streaks{
		Current: current,
		Best:    best,
		Average: float64(total) / float64(len(runs)),
	}
}

// WeekdayAnalysis tallies proofs by day of week across all history. Every
// proof counts, so two proofs on the same date weigh twice; only streaks
// collapse to distinct days. Best days are the day(s) tied for the maximum
// non-zero count; worst days are those tied for the minimum, and days with
// zero proofs are always among the worst.
func WeekdayAnalysis(dates []string) models.Weekdays {
	var w models.Weekdays
	for _, d := range dates {
		day, err := utils.ParseDate(d)
		if err != nil {
			continue
		}
		w.Counts[day.Weekday()]++
	}

	best, worst := 0, math.MaxInt
	for _, c := range w.Counts {
		if c > best {
			best = c
		}
		if c < worst {
			worst = c
		}
	}

	for day := time.Sunday; day <= time.Saturday; day++ {
		c := w.Counts[day]
		if c == best && c > 0 {
			w.BestDays = append(w.BestDays, day)
		}
		if c == worst {
			w.WorstDays = append(w.WorstDays, day)
		}
	}

	return w
}

// Analyze computes the full compliance picture for one habit.
// weekProofs and prevWeekProofs are the proof sets for the current and
// previous 7-day windows; allProofs is the complete history used for streak
// and weekday analysis. Zero proofs in a window is a rate of 0, not an error.
func Analyze(habit models.Habit, weekProofs, prevWeekProofs, allProofs []models.Proof, today time.Time) models.HabitAnalysis {
	rate := CompletionRate(habit.Frequency, len(weekProofs))
	prevRate := CompletionRate(habit.Frequency, len(prevWeekProofs))

	minimalDoses := 0
	for _, p := range weekProofs {
		if p.IsMinimalDose || units.IsExactDose(p.Unit, habit.MinimalDose) {
			minimalDoses++
		}
	}

	return models.HabitAnalysis{
		HabitID:         habit.ID,
		HabitName:       habit.Name,
		TargetFrequency: habit.Frequency,
		ActualProofs:    len(weekProofs),
		CompletionRate:  rate,
		MinimalDoses:    minimalDoses,
		Trend:           Trend(rate, prevRate),
		Streaks:         CalcStreaks(proofDates(allProofs), today),
		Weekdays:        WeekdayAnalysis(proofDates(allProofs)),
	}
}

func proofDates(proofs []models.Proof) []string {
	dates := make([]string, 0, len(proofs))
	for _, p := range proofs {
		dates = append(dates, p.Date)
	}
	return dates
}

// distinctSortedDays parses, dedupes and sorts YYYY-MM-DD strings ascending.
// Unparseable dates are skipped rather than failing the whole analysis.
func distinctSortedDays(dates []string) []time.Time {
	seen := make(map[string]bool, len(dates))
	var days []time.Time
	for _, d := range dates {
		if seen[d] {
			continue
		}
		t, err := utils.ParseDate(d)
		if err != nil {
			continue
		}
		seen[d] = true
		days = append(days, t)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })
	return days
}
