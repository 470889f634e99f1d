package main

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/pfeilbach/cohort/internal/cli"
	"github.com/pfeilbach/cohort/internal/constants"
	"github.com/pfeilbach/cohort/internal/errors"
	"github.com/pfeilbach/cohort/internal/logger"
	"github.com/pfeilbach/cohort/internal/storage"
)

var CLI struct {
	Version kong.VersionFlag
	Config  string `help:"Storage path (.json or .db/.sqlite file) or PostgreSQL connection string." type:"string" default:"~/.config/cohort/cohort.json"`
	Debug   bool   `help:"Enable debug logging to stderr."`

	Init     cli.InitCmd     `cmd:"" help:"Initialize cohort storage."`
	Batch    cli.BatchCmd    `cmd:"" help:"Manage the batch lifecycle."`
	Habit    cli.HabitCmd    `cmd:"" help:"Manage habit commitments."`
	Proof    cli.ProofCmd    `cmd:"" help:"Record and validate proofs."`
	Report   cli.ReportCmd   `cmd:"" help:"Compliance and charge reports."`
	Settings cli.SettingsCmd `cmd:"" help:"Manage application settings."`
}

// expandHome replaces a leading ~ with the user's home directory.
func expandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name(constants.AppName),
		kong.Description("Group accountability challenge tracker: batches, habit commitments, proofs and weekly charges"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact:             true,
			NoExpandSubcommands: true,
		}),
		kong.Vars{"version": constants.Version},
	)

	config := CLI.Config
	var store storage.Provider
	switch {
	case storage.IsPostgresDSN(config):
		store = storage.NewPostgresStore(config)
	case storage.IsSQLitePath(config):
		store = storage.NewSQLiteStore(expandHome(config))
	default:
		store = storage.NewJSONStore(expandHome(config))
	}

	logDir := filepath.Dir(expandHome(config))
	if storage.IsPostgresDSN(config) {
		logDir = expandHome(filepath.Dir(constants.DefaultConfigPath))
	}
	if err := logger.Init(logger.Config{Debug: CLI.Debug, ConfigDir: logDir}); err != nil {
		errors.Fatalf("failed to initialize logging: %v", err)
	}

	appCtx := &cli.Context{Store: store}

	// The init command bootstraps storage itself, everything else needs it
	// loaded up front.
	if ctx.Selected() != nil && ctx.Selected().Name != "init" {
		if err := store.Load(); err != nil {
			errors.Fatal(err)
		}
		defer store.Close()
	}

	if err := ctx.Run(appCtx); err != nil {
		store.Close()
		errors.Fatal(err)
	}
}
