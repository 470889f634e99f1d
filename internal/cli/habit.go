package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/google/uuid"

	"github.com/pfeilbach/cohort/internal/batch"
	"github.com/pfeilbach/cohort/internal/logger"
	"github.com/pfeilbach/cohort/internal/models"
	"github.com/pfeilbach/cohort/internal/units"
)

type HabitCmd struct {
	Add    HabitAddCmd    `cmd:"" help:"Add a new habit commitment."`
	List   HabitListCmd   `cmd:"" help:"List habits in the current batch."`
	Show   HabitShowCmd   `cmd:"" help:"Show a habit's full commitment."`
	Delete HabitDeleteCmd `cmd:"" help:"Delete a habit."`
}

type HabitAddCmd struct {
	Name        string `arg:"" help:"Habit name."`
	Participant string `required:"" help:"Participant the habit belongs to."`
	Frequency   int    `required:"" help:"Target repetitions per week (1-7)."`
	Dose        string `required:"" name:"dose" help:"Minimal dose, e.g. '15 min'."`
	Domains     string `help:"Comma-separated life domains."`
	Context     string `help:"When and where the habit happens."`
	Why         string `help:"Why this habit matters."`
}

func (c *HabitAddCmd) Run(ctx *Context) error {
	if c.Frequency < 1 || c.Frequency > 7 {
		return fmt.Errorf("frequency must be between 1 and 7, got %d", c.Frequency)
	}
	if _, ok := units.Parse(c.Dose); !ok {
		return fmt.Errorf("invalid minimal dose %q, expected format like \"15 min\"", c.Dose)
	}

	if _, err := ctx.Store.GetHabitByName(c.Name); err == nil {
		return fmt.Errorf("habit with name %q already exists", c.Name)
	}

	svc, err := ctx.Batch()
	if err != nil {
		return err
	}
	// The habit is stamped with the batch that exists right now. The label
	// never changes afterwards, even when a new batch starts.
	label, err := svc.BindCreationBatch()
	if err != nil {
		return err
	}

	var domains []string
	for _, d := range strings.Split(c.Domains, ",") {
		if d = strings.TrimSpace(d); d != "" {
			domains = append(domains, d)
		}
	}

	habit := models.Habit{
		ID:          uuid.New().String(),
		Participant: c.Participant,
		Name:        c.Name,
		Frequency:   c.Frequency,
		MinimalDose: c.Dose,
		Domains:     domains,
		Context:     c.Context,
		Why:         c.Why,
		Batch:       label,
		CreatedAt:   time.Now(),
	}

	if err := ctx.Store.AddHabit(habit); err != nil {
		return err
	}

	logger.Info("Habit added", "name", habit.Name, "participant", habit.Participant, "batch", habit.Batch)
	if label == "" {
		fmt.Printf("Added habit: %s (no batch yet)\n", c.Name)
	} else {
		fmt.Printf("Added habit: %s (batch %q)\n", c.Name, label)
	}
	return nil
}

type HabitListCmd struct {
	Participant string `help:"Only list habits of this participant."`
	AllBatches  bool   `help:"Include habits from other batches."`
}

func (c *HabitListCmd) Run(ctx *Context) error {
	var habits []models.Habit
	var err error
	if c.Participant != "" {
		habits, err = ctx.Store.GetHabitsByParticipant(c.Participant)
	} else {
		habits, err = ctx.Store.GetAllHabits()
	}
	if err != nil {
		return err
	}

	if !c.AllBatches {
		svc, err := ctx.Batch()
		if err != nil {
			return err
		}
		current, err := svc.Current()
		if err != nil {
			return err
		}
		habits = batch.Filter(habits, current)
	}

	if len(habits) == 0 {
		fmt.Println("No habits found.")
		return nil
	}

	for _, h := range habits {
		fmt.Printf("%-24s %s  %dx/week, dose %s\n", h.Name, h.Participant, h.Frequency, h.MinimalDose)
	}
	return nil
}

type HabitShowCmd struct {
	Name string `arg:"" help:"Habit name."`
}

func (c *HabitShowCmd) Run(ctx *Context) error {
	h, err := ctx.Store.GetHabitByName(c.Name)
	if err != nil {
		return fmt.Errorf("habit %q not found", c.Name)
	}

	fmt.Printf("Habit:        %s\n", h.Name)
	fmt.Printf("Participant:  %s\n", h.Participant)
	fmt.Printf("Frequency:    %dx per week\n", h.Frequency)
	fmt.Printf("Minimal dose: %s\n", h.MinimalDose)
	if len(h.Domains) > 0 {
		fmt.Printf("Domains:      %s\n", strings.Join(h.Domains, ", "))
	}
	if h.Context != "" {
		fmt.Printf("Context:      %s\n", h.Context)
	}
	if h.Why != "" {
		fmt.Printf("Why:          %s\n", h.Why)
	}
	if h.Batch != "" {
		fmt.Printf("Batch:        %s\n", h.Batch)
	}
	return nil
}

type HabitDeleteCmd struct {
	Name string `arg:"" help:"Habit name."`
	Yes  bool   `help:"Skip the confirmation prompt."`
}

func (c *HabitDeleteCmd) Run(ctx *Context) error {
	h, err := ctx.Store.GetHabitByName(c.Name)
	if err != nil {
		return fmt.Errorf("habit %q not found", c.Name)
	}

	if !c.Yes {
		var confirmed bool
		err := huh.NewConfirm().
			Title(fmt.Sprintf("Delete habit %q?", h.Name)).
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

	if err := ctx.Store.DeleteHabit(h.ID); err != nil {
		return err
	}
	logger.Info("Habit deleted", "name", h.Name)
	fmt.Printf("Deleted habit: %s\n", h.Name)
	return nil
}
