package cli

import (
	"fmt"

	"github.com/charmbracelet/huh"

	"github.com/pfeilbach/cohort/internal/logger"
	"github.com/pfeilbach/cohort/internal/utils"
)

type BatchCmd struct {
	Start    BatchStartCmd    `cmd:"" help:"Register a new batch."`
	Info     BatchInfoCmd     `cmd:"" help:"Show the current batch and its day counter."`
	Activate BatchActivateCmd `cmd:"" help:"Activate the batch if its start date has arrived."`
	Complete BatchCompleteCmd `cmd:"" help:"Mark the current batch as completed."`
	Clear    BatchClearCmd    `cmd:"" help:"Remove the batch record."`
}

type BatchStartCmd struct {
	Name      string `arg:"" help:"Batch name (stored lowercase)."`
	StartDate string `help:"Start date in YYYY-MM-DD format (default: today)." default:""`
}

func (c *BatchStartCmd) Run(ctx *Context) error {
	svc, err := ctx.Batch()
	if err != nil {
		return err
	}

	start := c.StartDate
	if start == "" {
		settings, err := ctx.Settings()
		if err != nil {
			return err
		}
		start, err = utils.TodayInTimezone(settings.Timezone)
		if err != nil {
			return err
		}
	}

	b, err := svc.Create(c.Name, start)
	if err != nil {
		return err
	}

	logger.Info("Batch created", "name", b.Name, "start", b.StartDate, "status", b.Status)
	if b.IsPrePhase() {
		days, _, err := svc.DaysUntilStart()
		if err != nil {
			return err
		}
		fmt.Printf("Batch %q registered, starts %s (%d days from now).\n", b.Name, b.StartDate, days)
	} else {
		fmt.Printf("Batch %q registered and active as of %s.\n", b.Name, b.StartDate)
	}
	return nil
}

type BatchInfoCmd struct{}

func (c *BatchInfoCmd) Run(ctx *Context) error {
	svc, err := ctx.Batch()
	if err != nil {
		return err
	}

	b, err := svc.Current()
	if err != nil {
		return err
	}
	if b == nil {
		fmt.Println("No batch registered.")
		return nil
	}

	fmt.Printf("Batch:   %s\n", b.Name)
	fmt.Printf("Status:  %s\n", b.Status)
	fmt.Printf("Start:   %s\n", b.StartDate)
	fmt.Printf("End:     %s\n", b.EndDate)

	switch {
	case b.IsPrePhase():
		days, _, err := svc.DaysUntilStart()
		if err != nil {
			return err
		}
		fmt.Printf("Starts in %d days.\n", days)
	default:
		day, ok, err := svc.CurrentDay()
		if err != nil {
			return err
		}
		if ok {
			week, _, err := svc.CurrentWeek()
			if err != nil {
				return err
			}
			fmt.Printf("Day:     %d (week %d)\n", day, week)
		}
	}
	return nil
}

type BatchActivateCmd struct{}

// Run is the periodic-trigger callback: safe to invoke on a schedule, it only
// ever flips a due pre-phase batch to active.
func (c *BatchActivateCmd) Run(ctx *Context) error {
	svc, err := ctx.Batch()
	if err != nil {
		return err
	}

	activated, err := svc.ActivateIfDue()
	if err != nil {
		return err
	}
	if activated {
		logger.Info("Batch activated")
		fmt.Println("Batch activated.")
	} else {
		fmt.Println("Nothing to do.")
	}
	return nil
}

type BatchCompleteCmd struct {
	Yes bool `help:"Skip the confirmation prompt."`
}

func (c *BatchCompleteCmd) Run(ctx *Context) error {
	svc, err := ctx.Batch()
	if err != nil {
		return err
	}

	b, err := svc.Current()
	if err != nil {
		return err
	}
	if b == nil {
		return fmt.Errorf("no batch to complete")
	}

	if !c.Yes {
		var confirmed bool
		err := huh.NewConfirm().
			Title(fmt.Sprintf("Mark batch %q as completed?", b.Name)).
			Description("Completion is permanent. A completed batch can be replaced but not reactivated.").
			Value(&confirmed).
			Run()
		if err != nil {
			return err
		}
		if !confirmed {
			fmt.Println("Aborted.")
			return nil
		}
	}

	done, err := svc.Complete()
	if err != nil {
		return err
	}
	logger.Info("Batch completed", "name", done.Name)
	fmt.Printf("Batch %q completed.\n", done.Name)
	return nil
}

type BatchClearCmd struct {
	Yes bool `help:"Skip the confirmation prompt."`
}

func (c *BatchClearCmd) Run(ctx *Context) error {
	svc, err := ctx.Batch()
	if err != nil {
		return err
	}

	b, err := svc.Current()
	if err != nil {
		return err
	}
	if b == nil {
		fmt.Println("No batch registered.")
		return nil
	}

	if !c.Yes {
		var confirmed bool
		err := huh.NewConfirm().
			Title(fmt.Sprintf("Remove batch %q?", b.Name)).
			Description("Habits and proofs keep their batch labels, only the batch record is removed.").
			Value(&confirmed).
			Run()
		if err != nil {
			return err
		}
		if !confirmed {
			fmt.Println("Aborted.")
			return nil
		}
	}

	if err := svc.Clear(); err != nil {
		return err
	}
	logger.Info("Batch cleared", "name", b.Name)
	fmt.Printf("Batch %q removed.\n", b.Name)
	return nil
}
