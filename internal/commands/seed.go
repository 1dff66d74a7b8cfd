package commands

import (
	"context"
	"fmt"
	"io"

	"spese-backend/internal/rules"
	"spese-backend/internal/seed"

	"github.com/fatih/color"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

func newSeedCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "seed <rules.yaml>",
		Short: "Load neutral keywords and reimbursement senders from a YAML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, db, err := flags.open()
			if err != nil {
				return err
			}
			return runSeed(cmd.Context(), cmd.OutOrStdout(), db, cfg.DefaultSenderTolerance, args[0])
		},
	}
}

func runSeed(ctx context.Context, out io.Writer, db *gorm.DB, defaultTolerance decimal.Decimal, path string) error {
	f, err := seed.Load(path)
	if err != nil {
		return err
	}
	res, err := seed.Apply(ctx, rules.NewService(db, defaultTolerance), f)
	if err != nil {
		return err
	}

	color.New(color.FgGreen).Fprintf(out, "keywords: %d added", res.KeywordsAdded)
	fmt.Fprintf(out, ", %d already present\n", res.KeywordsSkipped)
	color.New(color.FgGreen).Fprintf(out, "senders:  %d added", res.SendersAdded)
	fmt.Fprintf(out, ", %d already present\n", res.SendersSkipped)
	return nil
}
