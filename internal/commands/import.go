package commands

import (
	"context"
	"fmt"
	"io"
	"os"

	"spese-backend/internal/statement"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

func newImportCommand(flags *globalFlags) *cobra.Command {
	var headerRow int

	cmd := &cobra.Command{
		Use:   "import <statement.xlsx>...",
		Short: "Import bank statement workbooks into the ledger",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, db, err := flags.open()
			if err != nil {
				return err
			}
			if headerRow == 0 {
				headerRow = cfg.StatementHeaderRow
			}
			for _, path := range args {
				if err := runImport(cmd.Context(), cmd.OutOrStdout(), db, headerRow, path); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&headerRow, "header-row", 0, "1-based row holding the column titles (default from STATEMENT_HEADER_ROW)")

	return cmd
}

func runImport(ctx context.Context, out io.Writer, db *gorm.DB, headerRow int, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	stats, err := statement.NewIngestor(db, headerRow).Ingest(ctx, f)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	fmt.Fprintf(out, "%s\n", path)
	color.New(color.FgGreen).Fprintf(out, "  %4d new\n", stats.New)
	color.New(color.FgYellow).Fprintf(out, "  %4d duplicates\n", stats.Duplicates)
	if stats.Errors > 0 {
		color.New(color.FgRed).Fprintf(out, "  %4d rows with errors\n", stats.Errors)
	}
	for _, fm := range stats.FuzzyMatches {
		color.New(color.FgCyan).Fprintf(out, "  ~ %s %-40s %10.2f\n", fm.Date, fm.Description, fm.Amount)
	}
	for _, r := range stats.Rows {
		if r.Outcome == statement.Failed {
			color.New(color.FgRed).Fprintf(out, "  ! row %d: %s\n", r.Row, r.Reason)
		}
	}
	return nil
}
