package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"spatialphoto/internal/convert"
)

func newRootCommand() *cobra.Command {
	flags := &flagValues{}
	ctx := newCommandContext(flags)

	rootCmd := &cobra.Command{
		Use:   "spatialphoto [flags] <files...>",
		Short: "Convert stereo photos into spatial HEIF images",
		Long: "Convert MPO files, side-by-side JPEGs or left/right image pairs into\n" +
			"HEIF containers carrying stereo pair camera metadata.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if shouldSkipConfig(cmd) {
				return nil
			}
			_, err := ctx.ensureConfig(cmd)
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return cmd.Help()
			}
			return runConvert(cmd, ctx, args)
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&flags.configPath, "config", "c", "", "Configuration file path")
	pf.StringVar(&flags.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	pf.StringVar(&flags.logFormat, "log-format", "", "Log format (console, json)")

	f := rootCmd.Flags()
	f.Float64Var(&flags.hfov, "hfov", 0, "Horizontal field of view in degrees")
	f.Float64VarP(&flags.disparity, "disparityAdjustment", "d", 0, "Disparity adjustment, -1 to 1")
	f.Float64VarP(&flags.baseline, "baseline", "b", 0, "Distance between the lenses in millimeters")
	f.Float64VarP(&flags.sensorWidth, "sensorWidth", "s", 0, "Sensor width in millimeters (needs --focalLength)")
	f.Float64VarP(&flags.focalLength, "focalLength", "f", 0, "Lens focal length in millimeters (needs --sensorWidth)")
	f.BoolVarP(&flags.pairs, "pairs", "p", false, "Treat arguments as left/right pairs of images")
	f.StringVar(&flags.outputDir, "output-dir", "", "Write outputs to this directory instead of beside each input")
	f.BoolVar(&flags.jsonOutput, "json", false, "Print the summary as JSON")

	rootCmd.AddCommand(newCheckCommand(ctx))
	rootCmd.AddCommand(newConfigCommand(ctx))

	return rootCmd
}

// errJobsFailed is returned when the batch ran but some jobs failed.
var errJobsFailed = errors.New("conversion failed")

func runConvert(cmd *cobra.Command, ctx *commandContext, files []string) error {
	cfg, err := ctx.ensureConfig(cmd)
	if err != nil {
		return err
	}
	logger, err := ctx.logger(cmd, cfg)
	if err != nil {
		return fmt.Errorf("init logging: %w", err)
	}

	conv := convert.New(cfg, logger)
	summary, runErr := conv.Run(cmd.Context(), files, ctx.flags.pairs)
	if runErr != nil && len(summary.Results) == 0 {
		return runErr
	}

	if ctx.flags.jsonOutput {
		if err := writeJSON(cmd, summary); err != nil {
			return err
		}
	} else {
		fmt.Fprintln(cmd.OutOrStdout(), renderSummary(summary, shouldColorize(cmd.OutOrStdout())))
	}

	if runErr != nil {
		return runErr
	}
	if !summary.OK() {
		return fmt.Errorf("%w: %d of %d jobs failed", errJobsFailed, summary.Failed, len(summary.Results))
	}
	return nil
}
