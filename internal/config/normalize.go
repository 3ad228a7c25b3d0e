package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizeOutput(); err != nil {
		return err
	}
	if err := c.normalizeLogging(); err != nil {
		return err
	}
	c.normalizeRepair()
	return nil
}

// Normalize applies the same cleanup Load performs. Callers that mutate a
// loaded config (for example from command-line flags) run it before Validate.
func (c *Config) Normalize() error {
	return c.normalize()
}

func (c *Config) normalizeOutput() error {
	var err error
	c.Output.Dir = strings.TrimSpace(c.Output.Dir)
	if c.Output.Dir, err = expandPath(c.Output.Dir); err != nil {
		return fmt.Errorf("output.dir: %w", err)
	}
	c.Output.Extension = strings.TrimSpace(c.Output.Extension)
	if c.Output.Extension == "" {
		c.Output.Extension = defaultExtension
	}
	if !strings.HasPrefix(c.Output.Extension, ".") {
		c.Output.Extension = "." + c.Output.Extension
	}
	if c.Output.JPEGQuality == 0 {
		c.Output.JPEGQuality = defaultJPEGQuality
	}
	return nil
}

func (c *Config) normalizeLogging() error {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	var err error
	if c.Logging.File, err = expandPath(strings.TrimSpace(c.Logging.File)); err != nil {
		return fmt.Errorf("logging.file: %w", err)
	}
	return nil
}

func (c *Config) normalizeRepair() {
	c.Repair.Timezone = strings.TrimSpace(c.Repair.Timezone)
	for i := range c.Repair.Vendors {
		v := &c.Repair.Vendors[i]
		v.Name = strings.TrimSpace(v.Name)
		v.Make = strings.TrimSpace(v.Make)
		v.Model = strings.TrimSpace(v.Model)
		if v.Name == "" {
			v.Name = strings.TrimSpace(v.Make + " " + v.Model)
		}
	}
}
