package main

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"spatialphoto/internal/config"
	"spatialphoto/internal/geometry"
	"spatialphoto/internal/logging"
)

// flagValues holds everything the root command accepts. Geometry values only
// apply when the flag was set on the command line.
type flagValues struct {
	configPath string
	outputDir  string
	logLevel   string
	logFormat  string
	jsonOutput bool
	pairs      bool

	hfov        float64
	disparity   float64
	baseline    float64
	sensorWidth float64
	focalLength float64
}

type commandContext struct {
	flags *flagValues

	configOnce sync.Once
	config     *config.Config
	configPath string
	configSeen bool
	configErr  error
}

func newCommandContext(flags *flagValues) *commandContext {
	return &commandContext{flags: flags}
}

// ensureConfig loads the configuration once and layers the command-line
// overrides on top of it.
func (c *commandContext) ensureConfig(cmd *cobra.Command) (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, path, exists, err := config.Load(strings.TrimSpace(c.flags.configPath))
		if err != nil {
			c.configErr = fmt.Errorf("load config: %w", err)
			return
		}
		c.configPath, c.configSeen = path, exists
		if err := c.applyOverrides(cmd, cfg); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) applyOverrides(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	set := func(name string, target **float64, value float64) {
		if flags.Changed(name) {
			*target = geometry.Float(value)
		}
	}
	set("hfov", &cfg.Geometry.HFOVDegrees, c.flags.hfov)
	set("disparityAdjustment", &cfg.Geometry.DisparityAdjustment, c.flags.disparity)
	set("baseline", &cfg.Geometry.BaselineMM, c.flags.baseline)
	set("sensorWidth", &cfg.Geometry.SensorWidthMM, c.flags.sensorWidth)
	set("focalLength", &cfg.Geometry.FocalLengthMM, c.flags.focalLength)

	if flags.Changed("output-dir") {
		cfg.Output.Dir = c.flags.outputDir
	}
	if flags.Changed("log-level") {
		cfg.Logging.Level = c.flags.logLevel
	}
	if flags.Changed("log-format") {
		cfg.Logging.Format = c.flags.logFormat
	}

	if err := cfg.Normalize(); err != nil {
		return fmt.Errorf("apply flags: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid options: %w", err)
	}
	return nil
}

// logger builds the run logger. Records go to the command's stderr so they
// never mix with a JSON summary on stdout.
func (c *commandContext) logger(cmd *cobra.Command, cfg *config.Config) (*slog.Logger, error) {
	return logging.NewFromConfig(cfg, cmd.ErrOrStderr())
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
