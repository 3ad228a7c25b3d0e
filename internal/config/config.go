package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"spatialphoto/internal/fileutil"
	"spatialphoto/internal/geometry"
	"spatialphoto/internal/metadata"
)

//go:embed sample_config.toml
var sampleConfig string

// Mode holds the geometry fallbacks for one source mode.
type Mode struct {
	HFOVDegrees float64 `toml:"hfov_degrees"`
	BaselineMM  float64 `toml:"baseline_mm"`
}

// Modes is the per-mode defaults table.
type Modes struct {
	MPO  Mode `toml:"mpo"`
	SBS  Mode `toml:"sbs"`
	Pair Mode `toml:"pair"`
}

// Geometry contains optional overrides applied to every job. Unset values
// fall through to the mode defaults.
type Geometry struct {
	HFOVDegrees         *float64 `toml:"hfov_degrees,omitempty"`
	SensorWidthMM       *float64 `toml:"sensor_width_mm,omitempty"`
	FocalLengthMM       *float64 `toml:"focal_length_mm,omitempty"`
	DisparityAdjustment *float64 `toml:"disparity_adjustment,omitempty"`
	BaselineMM          *float64 `toml:"baseline_mm,omitempty"`
}

// Output controls where converted files are written.
type Output struct {
	Dir         string `toml:"dir"`
	Extension   string `toml:"extension"`
	JPEGQuality int    `toml:"jpeg_quality"`
	Overwrite   bool   `toml:"overwrite"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
	File   string `toml:"file"`
}

// Vendor describes a camera whose metadata needs repair.
type Vendor struct {
	Name   string `toml:"name"`
	Prefix string `toml:"prefix"`
	Make   string `toml:"make"`
	Model  string `toml:"model"`
}

// Repair contains configuration for the vendor metadata repair pass.
type Repair struct {
	Enabled  bool     `toml:"enabled"`
	Timezone string   `toml:"timezone"`
	Vendors  []Vendor `toml:"vendors"`
}

// Config encapsulates all configuration values for spatialphoto.
//
// Configuration sections:
//   - Modes: default field of view and baseline per source mode
//   - Geometry: overrides applied to every conversion
//   - Output: destination directory, extension, and encoding quality
//   - Logging: log format, level, and optional JSON log file
//   - Repair: vendor metadata repair and timestamp timezone
type Config struct {
	Modes    Modes    `toml:"modes"`
	Geometry Geometry `toml:"geometry"`
	Output   Output   `toml:"output"`
	Logging  Logging  `toml:"logging"`
	Repair   Repair   `toml:"repair"`

	location *time.Location
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. A missing file is
// not an error; the defaults are returned instead.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs(projectConfigName)
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the output directory when one is configured.
func (c *Config) EnsureDirectories() error {
	if c.Output.Dir == "" {
		return nil
	}
	if err := os.MkdirAll(c.Output.Dir, 0o755); err != nil {
		return fmt.Errorf("create output directory %q: %w", c.Output.Dir, err)
	}
	return nil
}

// ModeDefaults returns the geometry fallbacks for the named mode.
func (c *Config) ModeDefaults(mode string) (geometry.Defaults, bool) {
	var m Mode
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "mpo":
		m = c.Modes.MPO
	case "sbs":
		m = c.Modes.SBS
	case "pair":
		m = c.Modes.Pair
	default:
		return geometry.Defaults{}, false
	}
	return geometry.Defaults{HFOVDegrees: m.HFOVDegrees, BaselineMM: m.BaselineMM}, true
}

// GeometryParams returns the configured overrides as resolver input.
func (c *Config) GeometryParams() geometry.Params {
	return geometry.Params{
		HFOVDegrees:         c.Geometry.HFOVDegrees,
		SensorWidthMM:       c.Geometry.SensorWidthMM,
		FocalLengthMM:       c.Geometry.FocalLengthMM,
		DisparityAdjustment: c.Geometry.DisparityAdjustment,
		BaselineMM:          c.Geometry.BaselineMM,
	}
}

// RepairVendors returns the built-in QooCam EGO profile followed by any
// configured vendors.
func (c *Config) RepairVendors() []metadata.Vendor {
	vendors := []metadata.Vendor{metadata.QooCamEGO}
	for _, v := range c.Repair.Vendors {
		vendors = append(vendors, metadata.Vendor{
			Name:   v.Name,
			Prefix: v.Prefix,
			Make:   v.Make,
			Model:  v.Model,
		})
	}
	return vendors
}

// Location returns the zone repaired timestamps are rendered in.
func (c *Config) Location() *time.Location {
	if c.location != nil {
		return c.location
	}
	loc, err := loadLocation(c.Repair.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

func loadLocation(name string) (*time.Location, error) {
	name = strings.TrimSpace(name)
	if name == "" || strings.EqualFold(name, "local") {
		return time.Local, nil
	}
	return time.LoadLocation(name)
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// SampleConfig returns the embedded sample configuration.
func SampleConfig() string {
	return sampleConfig
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := fileutil.WriteFileAtomic(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// Marshal renders the effective configuration as TOML.
func (c *Config) Marshal() ([]byte, error) {
	return toml.Marshal(c)
}
