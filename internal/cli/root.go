package cli

import (
	"fmt"
	"time"

	"github.com/pfeilbach/cohort/internal/batch"
	"github.com/pfeilbach/cohort/internal/models"
	"github.com/pfeilbach/cohort/internal/storage"
	"github.com/pfeilbach/cohort/internal/utils"
)

// Context is shared across all commands. The batch service and settings are
// built lazily because they need a loaded store, and the init command runs
// before one exists.
type Context struct {
	Store storage.Provider

	settings *models.Settings
	location *time.Location
	batchSvc *batch.Service
}

// Settings returns the stored settings, loading them on first use.
func (c *Context) Settings() (models.Settings, error) {
	if c.settings != nil {
		return *c.settings, nil
	}
	settings, err := c.Store.GetSettings()
	if err != nil {
		return models.Settings{}, fmt.Errorf("failed to load settings, run 'cohort init' first: %w", err)
	}
	c.settings = &settings
	return settings, nil
}

// Location returns the configured timezone.
func (c *Context) Location() (*time.Location, error) {
	if c.location != nil {
		return c.location, nil
	}
	settings, err := c.Settings()
	if err != nil {
		return nil, err
	}
	loc, err := utils.LoadLocation(settings.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q in settings: %w", settings.Timezone, err)
	}
	c.location = loc
	return loc, nil
}

// Batch returns the batch service configured from settings.
func (c *Context) Batch() (*batch.Service, error) {
	if c.batchSvc != nil {
		return c.batchSvc, nil
	}
	settings, err := c.Settings()
	if err != nil {
		return nil, err
	}
	loc, err := c.Location()
	if err != nil {
		return nil, err
	}
	c.batchSvc = batch.NewService(c.Store, settings.BatchSpanDays, loc)
	return c.batchSvc, nil
}

// InvalidateSettings drops cached settings after they change on disk.
func (c *Context) InvalidateSettings() {
	c.settings = nil
	c.location = nil
	c.batchSvc = nil
}
