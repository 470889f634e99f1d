package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/pfeilbach/cohort/internal/batch"
	"github.com/pfeilbach/cohort/internal/charges"
	"github.com/pfeilbach/cohort/internal/compliance"
	"github.com/pfeilbach/cohort/internal/models"
)

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	perfectStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	chargeStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

type ReportCmd struct {
	Week    ReportWeekCmd    `cmd:"" help:"Per-habit compliance for the current batch week."`
	Charges ReportChargesCmd `cmd:"" help:"Weekly charges and pool contribution per participant."`
	Stats   ReportStatsCmd   `cmd:"" help:"Streak and weekday statistics for one habit."`
}

// batchHabits returns the habits belonging to the current batch, the batch
// week number, and the date windows for the current and previous week.
func batchHabits(ctx *Context) ([]models.Habit, *models.Batch, int, error) {
	svc, err := ctx.Batch()
	if err != nil {
		return nil, nil, 0, err
	}

	current, err := svc.Current()
	if err != nil {
		return nil, nil, 0, err
	}

	week, ok, err := svc.CurrentWeek()
	if err != nil {
		return nil, nil, 0, err
	}
	if current == nil || !ok {
		return nil, nil, 0, fmt.Errorf("no active batch, register one with 'cohort batch start'")
	}

	habits, err := ctx.Store.GetAllHabits()
	if err != nil {
		return nil, nil, 0, err
	}
	return batch.Filter(habits, current), current, week, nil
}

type ReportWeekCmd struct {
	Participant string `help:"Only report habits of this participant."`
}

func (c *ReportWeekCmd) Run(ctx *Context) error {
	habits, b, week, err := batchHabits(ctx)
	if err != nil {
		return err
	}

	svc, err := ctx.Batch()
	if err != nil {
		return err
	}
	from, to, err := svc.WeekBounds(week)
	if err != nil {
		return err
	}
	var prevFrom, prevTo string
	if week > 1 {
		prevFrom, prevTo, err = svc.WeekBounds(week - 1)
		if err != nil {
			return err
		}
	}

	loc, err := ctx.Location()
	if err != nil {
		return err
	}
	now := time.Now().In(loc)

	fmt.Println(headerStyle.Render(fmt.Sprintf("Batch %q, week %d (%s to %s)", b.Name, week, from, to)))

	printed := 0
	for _, h := range habits {
		if c.Participant != "" && h.Participant != c.Participant {
			continue
		}

		weekProofs, err := ctx.Store.GetProofs(h.ID, from, to)
		if err != nil {
			return err
		}
		var prevProofs []models.Proof
		if week > 1 {
			prevProofs, err = ctx.Store.GetProofs(h.ID, prevFrom, prevTo)
			if err != nil {
				return err
			}
		}
		allProofs, err := ctx.Store.GetProofs(h.ID, "", "")
		if err != nil {
			return err
		}

		a := compliance.Analyze(h, weekProofs, prevProofs, allProofs, now)
		line := fmt.Sprintf("%-24s %s  %d/%d proofs, %d%% %s",
			a.HabitName, h.Participant, a.ActualProofs, a.TargetFrequency,
			a.CompletionRate, a.Trend.Direction.Arrow())
		if a.MinimalDoses > 0 {
			line += dimStyle.Render(fmt.Sprintf("  (%d minimal)", a.MinimalDoses))
		}
		fmt.Println(line)
		printed++
	}

	if printed == 0 {
		fmt.Println("No habits in this batch.")
	}
	return nil
}

type ReportChargesCmd struct {
	Week int `help:"Batch week to assess (default: current week)." default:"0"`
}

func (c *ReportChargesCmd) Run(ctx *Context) error {
	habits, b, currentWeek, err := batchHabits(ctx)
	if err != nil {
		return err
	}

	week := c.Week
	if week == 0 {
		week = currentWeek
	}
	if week < 1 || week > currentWeek {
		return fmt.Errorf("week %d is out of range, batch is in week %d", week, currentWeek)
	}

	svc, err := ctx.Batch()
	if err != nil {
		return err
	}
	from, to, err := svc.WeekBounds(week)
	if err != nil {
		return err
	}

	settings, err := ctx.Settings()
	if err != nil {
		return err
	}

	byParticipant := make(map[string][]charges.HabitWeek)
	for _, h := range habits {
		proofs, err := ctx.Store.GetProofs(h.ID, from, to)
		if err != nil {
			return err
		}
		byParticipant[h.Participant] = append(byParticipant[h.Participant], charges.HabitWeek{
			Habit:        h,
			ActualProofs: len(proofs),
		})
	}

	a := charges.Assess(byParticipant, settings.ChargePerMiss)

	fmt.Println(headerStyle.Render(fmt.Sprintf("Batch %q, week %d charges (%s to %s)", b.Name, week, from, to)))
	for _, pc := range a.Participants {
		if pc.PerfectWeek {
			fmt.Printf("%-16s %s  %d%% overall\n", pc.Participant,
				perfectStyle.Render("perfect week"), pc.OverallCompletionRate)
			continue
		}
		fmt.Printf("%-16s %s  %d%% overall\n", pc.Participant,
			chargeStyle.Render(fmt.Sprintf("%.2f EUR", pc.TotalCharge)), pc.OverallCompletionRate)
		for _, hc := range pc.Habits {
			if hc.MissedCount == 0 {
				continue
			}
			fmt.Printf("  %-22s missed %d of %d  %s\n", hc.HabitName, hc.MissedCount,
				hc.TargetFrequency, dimStyle.Render(fmt.Sprintf("%.2f EUR", hc.Charge)))
		}
	}

	fmt.Println(strings.Repeat("-", 40))
	fmt.Printf("Pool contribution this week: %s (%d perfect weeks)\n",
		chargeStyle.Render(fmt.Sprintf("%.2f EUR", a.TotalCharges)), a.PerfectWeeks)

	ranked := charges.Leaderboard(a)
	if len(ranked) > 1 {
		fmt.Println(headerStyle.Render("Leaderboard"))
		for i, pc := range ranked {
			fmt.Printf("%d. %-16s %d%%\n", i+1, pc.Participant, pc.OverallCompletionRate)
		}
	}
	return nil
}

type ReportStatsCmd struct {
	Habit string `arg:"" help:"Habit name."`
}

func (c *ReportStatsCmd) Run(ctx *Context) error {
	h, err := ctx.Store.GetHabitByName(c.Habit)
	if err != nil {
		return fmt.Errorf("habit %q not found", c.Habit)
	}

	proofs, err := ctx.Store.GetProofs(h.ID, "", "")
	if err != nil {
		return err
	}
	if len(proofs) == 0 {
		fmt.Println("No proofs recorded yet.")
		return nil
	}

	loc, err := ctx.Location()
	if err != nil {
		return err
	}
	now := time.Now().In(loc)

	dates := make([]string, 0, len(proofs))
	for _, p := range proofs {
		dates = append(dates, p.Date)
	}

	streaks := compliance.CalcStreaks(dates, now)
	weekdays := compliance.WeekdayAnalysis(dates)

	fmt.Println(headerStyle.Render(fmt.Sprintf("Stats for %q", h.Name)))
	fmt.Printf("Proofs:         %d\n", len(proofs))
	fmt.Printf("Current streak: %d days\n", streaks.Current)
	fmt.Printf("Best streak:    %d days\n", streaks.Best)
	fmt.Printf("Average streak: %.1f days\n", streaks.Average)
	fmt.Printf("Best days:      %s\n", weekdayNames(weekdays.BestDays))
	fmt.Printf("Worst days:     %s\n", weekdayNames(weekdays.WorstDays))
	return nil
}

func weekdayNames(days []time.Weekday) string {
	if len(days) == 0 {
		return "none"
	}
	names := make([]string, 0, len(days))
	for _, d := range days {
		names = append(names, d.String()[:3])
	}
	return strings.Join(names, ", ")
}
