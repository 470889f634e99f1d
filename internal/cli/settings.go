package cli

import (
	"fmt"

	"github.com/pfeilbach/cohort/internal/logger"
	"github.com/pfeilbach/cohort/internal/utils"
)

type SettingsCmd struct {
	Show SettingsShowCmd `cmd:"" help:"Show current settings." default:"1"`
	Set  SettingsSetCmd  `cmd:"" help:"Change a setting."`
}

type SettingsShowCmd struct{}

func (c *SettingsShowCmd) Run(ctx *Context) error {
	settings, err := ctx.Settings()
	if err != nil {
		return err
	}

	fmt.Printf("Timezone:        %s\n", settings.Timezone)
	fmt.Printf("Batch span:      %d days\n", settings.BatchSpanDays)
	fmt.Printf("Charge per miss: %.2f EUR\n", settings.ChargePerMiss)
	return nil
}

type SettingsSetCmd struct {
	Timezone string  `help:"IANA timezone name, e.g. Europe/Berlin."`
	Span     int     `help:"Batch span in days."`
	Charge   float64 `help:"Charge per missed proof in EUR." default:"-1"`
}

func (c *SettingsSetCmd) Run(ctx *Context) error {
	settings, err := ctx.Settings()
	if err != nil {
		return err
	}

	changed := false
	if c.Timezone != "" {
		if _, err := utils.LoadLocation(c.Timezone); err != nil {
			return fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
		}
		settings.Timezone = c.Timezone
		changed = true
	}
	if c.Span != 0 {
		if c.Span < 1 {
			return fmt.Errorf("batch span must be positive, got %d", c.Span)
		}
		settings.BatchSpanDays = c.Span
		changed = true
	}
	if c.Charge >= 0 {
		settings.ChargePerMiss = c.Charge
		changed = true
	}

	if !changed {
		fmt.Println("Nothing to change.")
		return nil
	}

	if err := ctx.Store.SaveSettings(settings); err != nil {
		return err
	}
	ctx.InvalidateSettings()
	logger.Info("Settings updated", "timezone", settings.Timezone, "span", settings.BatchSpanDays, "charge", settings.ChargePerMiss)
	fmt.Println("Settings saved.")
	return nil
}
