package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"spatialphoto/internal/preflight"
)

func newCheckCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "check <files...>",
		Short: "Check inputs are readable and output directories writable",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig(cmd)
			if err != nil {
				return err
			}
			results := preflight.RunAll(cfg, args)
			rows := make([][]string, 0, len(results))
			for _, r := range results {
				rows = append(rows, []string{r.Name, yesNo(r.Passed), r.Detail})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Check", "Passed", "Detail"}, rows, nil))
			if err := preflight.FirstError(results); err != nil {
				return fmt.Errorf("preflight failed: %w", err)
			}
			return nil
		},
	}
}
