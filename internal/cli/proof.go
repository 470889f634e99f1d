package cli

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/pfeilbach/cohort/internal/logger"
	"github.com/pfeilbach/cohort/internal/models"
	"github.com/pfeilbach/cohort/internal/units"
	"github.com/pfeilbach/cohort/internal/utils"
)

type ProofCmd struct {
	Add      ProofAddCmd      `cmd:"" help:"Record a proof for a habit."`
	List     ProofListCmd     `cmd:"" help:"List proofs for a habit."`
	Validate ProofValidateCmd `cmd:"" help:"Check a quantity against a minimal dose without recording anything."`
}

type ProofAddCmd struct {
	Habit    string `arg:"" help:"Habit name."`
	Quantity string `required:"" help:"Quantity with unit, e.g. '30 min'."`
	Date     string `help:"Date in YYYY-MM-DD format (default: today)." default:""`
	Note     string `help:"Optional note." default:""`
	CheatDay bool   `help:"Record as a cheat day, skipping dose validation."`
}

func (c *ProofAddCmd) Run(ctx *Context) error {
	habit, err := ctx.Store.GetHabitByName(c.Habit)
	if err != nil {
		return fmt.Errorf("habit %q not found", c.Habit)
	}

	settings, err := ctx.Settings()
	if err != nil {
		return err
	}

	day := c.Date
	if day == "" {
		day, err = utils.TodayInTimezone(settings.Timezone)
		if err != nil {
			return err
		}
	} else if _, err := utils.ParseDate(day); err != nil {
		return fmt.Errorf("invalid date format: %s (expected YYYY-MM-DD)", day)
	}

	isMinimal := false
	if !c.CheatDay {
		res := units.Validate(c.Quantity, habit.MinimalDose)
		if !res.Valid {
			return fmt.Errorf("proof rejected: %s", res.Reason)
		}
		isMinimal = res.MinimalDose
	}

	// The proof inherits the habit's batch label, not whatever batch is
	// current right now. Provenance stays with the habit's cohort.
	proof := models.Proof{
		ID:            uuid.New().String(),
		HabitID:       habit.ID,
		Date:          day,
		Unit:          c.Quantity,
		Note:          c.Note,
		IsMinimalDose: isMinimal,
		IsCheatDay:    c.CheatDay,
		Batch:         habit.Batch,
	}

	if err := ctx.Store.AddProof(proof); err != nil {
		return err
	}

	logger.Info("Proof recorded", "habit", habit.Name, "date", day, "unit", c.Quantity, "minimal", isMinimal)
	switch {
	case c.CheatDay:
		fmt.Printf("Recorded cheat day for %q on %s.\n", habit.Name, day)
	case isMinimal:
		fmt.Printf("Recorded minimal dose for %q on %s: %s\n", habit.Name, day, c.Quantity)
	default:
		fmt.Printf("Recorded proof for %q on %s: %s\n", habit.Name, day, c.Quantity)
	}
	return nil
}

type ProofListCmd struct {
	Habit string `arg:"" help:"Habit name."`
	From  string `help:"Start date in YYYY-MM-DD format." default:""`
	To    string `help:"End date in YYYY-MM-DD format." default:""`
}

func (c *ProofListCmd) Run(ctx *Context) error {
	habit, err := ctx.Store.GetHabitByName(c.Habit)
	if err != nil {
		return fmt.Errorf("habit %q not found", c.Habit)
	}

	proofs, err := ctx.Store.GetProofs(habit.ID, c.From, c.To)
	if err != nil {
		return err
	}

	if len(proofs) == 0 {
		fmt.Println("No proofs found.")
		return nil
	}

	for _, p := range proofs {
		marker := ""
		if p.IsCheatDay {
			marker = " [cheat]"
		} else if p.IsMinimalDose {
			marker = " [minimal]"
		}
		if p.Note != "" {
			fmt.Printf("%s  %-12s%s  %s\n", p.Date, p.Unit, marker, p.Note)
		} else {
			fmt.Printf("%s  %-12s%s\n", p.Date, p.Unit, marker)
		}
	}
	return nil
}

type ProofValidateCmd struct {
	Unit string `arg:"" help:"Quantity with unit, e.g. '30 min'."`
	Dose string `arg:"" help:"Minimal dose to check against, e.g. '15 min'."`
}

func (c *ProofValidateCmd) Run(ctx *Context) error {
	res := units.Validate(c.Unit, c.Dose)
	switch {
	case res.Valid && res.MinimalDose:
		fmt.Printf("Valid (minimal dose): %s\n", res.Reason)
	case res.Valid:
		fmt.Printf("Valid: %s\n", res.Reason)
	default:
		fmt.Printf("Invalid: %s\n", res.Reason)
	}
	return nil
}
