package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateModes(); err != nil {
		return err
	}
	if err := c.validateGeometry(); err != nil {
		return err
	}
	if err := c.validateOutput(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	if err := c.validateRepair(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateModes() error {
	for name, mode := range map[string]Mode{
		"modes.mpo":  c.Modes.MPO,
		"modes.sbs":  c.Modes.SBS,
		"modes.pair": c.Modes.Pair,
	} {
		if err := validateFOV(name+".hfov_degrees", mode.HFOVDegrees); err != nil {
			return err
		}
		if mode.BaselineMM <= 0 {
			return fmt.Errorf("%s.baseline_mm must be positive", name)
		}
	}
	return nil
}

func (c *Config) validateGeometry() error {
	g := c.Geometry
	if g.HFOVDegrees != nil {
		if err := validateFOV("geometry.hfov_degrees", *g.HFOVDegrees); err != nil {
			return err
		}
	}
	if err := ensurePositive(map[string]*float64{
		"geometry.sensor_width_mm": g.SensorWidthMM,
		"geometry.focal_length_mm": g.FocalLengthMM,
		"geometry.baseline_mm":     g.BaselineMM,
	}); err != nil {
		return err
	}
	if g.DisparityAdjustment != nil {
		if d := *g.DisparityAdjustment; d < -1 || d > 1 {
			return errors.New("geometry.disparity_adjustment must be between -1 and 1")
		}
	}
	return nil
}

func (c *Config) validateOutput() error {
	if c.Output.JPEGQuality < 1 || c.Output.JPEGQuality > 100 {
		return errors.New("output.jpeg_quality must be between 1 and 100")
	}
	if len(c.Output.Extension) < 2 {
		return errors.New("output.extension must name a file extension")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
}

func (c *Config) validateRepair() error {
	loc, err := loadLocation(c.Repair.Timezone)
	if err != nil {
		return fmt.Errorf("repair.timezone: %w", err)
	}
	c.location = loc
	for i, v := range c.Repair.Vendors {
		if v.Prefix == "" {
			return fmt.Errorf("repair.vendors[%d].prefix must be set", i)
		}
		if v.Make == "" && v.Model == "" {
			return fmt.Errorf("repair.vendors[%d] must set make or model", i)
		}
	}
	return nil
}

func validateFOV(name string, hfov float64) error {
	if hfov <= 0 || hfov >= 180 {
		return fmt.Errorf("%s must be between 0 and 180 degrees", name)
	}
	return nil
}

func ensurePositive(values map[string]*float64) error {
	for key, value := range values {
		if value != nil && *value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
