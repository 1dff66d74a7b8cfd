package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"spese-backend/internal/ledger"
	"spese-backend/internal/reconcile"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

func newReconcileCommand(flags *globalFlags) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "List reimbursement transfers that settle unpaid months",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, db, err := flags.open()
			if err != nil {
				return err
			}
			return runReconcile(cmd.Context(), cmd.OutOrStdout(), db, asJSON)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print candidates as JSON")

	return cmd
}

func runReconcile(ctx context.Context, out io.Writer, db *gorm.DB, asJSON bool) error {
	candidates, err := reconcile.NewEngine(reconcile.NewGormStore(db)).Detect(ctx)
	if err != nil {
		return err
	}

	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{"candidates": candidates})
	}

	if len(candidates) == 0 {
		fmt.Fprintln(out, "no reimbursement candidates")
		return nil
	}
	for _, c := range candidates {
		color.New(color.FgGreen).Fprintf(out, "%s  %-40s %10.2f\n",
			c.Transaction.Date, c.Transaction.Description, c.Transaction.Amount)
		names := make([]string, 0, len(c.Months))
		for _, m := range c.Months {
			names = append(names, fmt.Sprintf("%s %d (%.2f)", m.MonthName, m.Year, m.Amount))
		}
		fmt.Fprintf(out, "  settles %s\n", strings.Join(names, ", "))
		color.New(color.FgYellow).Fprintf(out, "  total %.2f, diff %.2f\n", c.MonthsTotal, c.Diff)
	}
	return nil
}

func newConfirmCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "confirm <YYYY-MM>...",
		Short: "Mark months as paid",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			periods, err := parsePeriods(args)
			if err != nil {
				return err
			}
			_, db, err := flags.open()
			if err != nil {
				return err
			}
			if err := reconcile.Confirm(cmd.Context(), db, periods); err != nil {
				return err
			}
			color.New(color.FgGreen).Fprintf(cmd.OutOrStdout(), "%d months marked paid\n", len(periods))
			return nil
		},
	}
}

func parsePeriods(args []string) ([]ledger.Period, error) {
	periods := make([]ledger.Period, 0, len(args))
	for _, a := range args {
		t, err := time.Parse("2006-01", strings.TrimSpace(a))
		if err != nil {
			return nil, fmt.Errorf("%q is not a YYYY-MM month", a)
		}
		periods = append(periods, ledger.PeriodOf(t))
	}
	return periods, nil
}
