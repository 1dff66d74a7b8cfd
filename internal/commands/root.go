// Package commands implements the ledgerctl operator CLI.
package commands

import (
	"fmt"

	"spese-backend/internal/audit"
	"spese-backend/internal/buildinfo"
	"spese-backend/internal/config"
	"spese-backend/internal/database"

	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

type globalFlags struct {
	driver string
	dsn    string
}

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	var flags globalFlags

	rootCmd := &cobra.Command{
		Use:     "ledgerctl",
		Short:   "Operate the household expense ledger",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", buildinfo.Version, buildinfo.Commit, buildinfo.Date),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			cmd.SetContext(audit.WithActor(cmd.Context(), "cli"))
		},
	}

	rootCmd.PersistentFlags().StringVar(&flags.driver, "driver", "", "database driver, sqlite or postgres (default from DATABASE_DRIVER)")
	rootCmd.PersistentFlags().StringVar(&flags.dsn, "dsn", "", "database DSN or SQLite path (default from DATABASE_DSN)")

	rootCmd.AddCommand(
		newImportCommand(&flags),
		newReconcileCommand(&flags),
		newConfirmCommand(&flags),
		newSeedCommand(&flags),
	)

	return rootCmd
}

// open loads the environment configuration, applies flag overrides and
// connects to the database.
func (f *globalFlags) open() (*config.Config, *gorm.DB, error) {
	cfg := config.Load()
	if f.driver != "" {
		cfg.DatabaseDriver = f.driver
	}
	if f.dsn != "" {
		cfg.DatabaseDSN = f.dsn
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}

	db, err := database.Open(cfg)
	if err != nil {
		return nil, nil, err
	}
	return cfg, db, nil
}
