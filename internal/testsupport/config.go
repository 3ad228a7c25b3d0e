package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"spatialphoto/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config whose output directory is a fresh temp
// directory. Repair timestamps are rendered in UTC so results do not depend
// on the machine's zone.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Output.Dir = filepath.Join(base, "out")
	cfgVal.Repair.Timezone = "UTC"

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	if err := builder.cfg.Normalize(); err != nil {
		t.Fatalf("normalize test config: %v", err)
	}
	if err := builder.cfg.Validate(); err != nil {
		t.Fatalf("validate test config: %v", err)
	}
	if err := os.MkdirAll(filepath.Join(base, "in"), 0o755); err != nil {
		t.Fatalf("mkdir input dir: %v", err)
	}
	if err := builder.cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure output dir: %v", err)
	}
	return builder.cfg
}

// WithOutputBesideInput clears the output directory so files land next to
// their inputs.
func WithOutputBesideInput() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Output.Dir = ""
	}
}

// WithTimezone sets the zone repaired timestamps are rendered in.
func WithTimezone(name string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Repair.Timezone = name
	}
}

// WithGeometry lets a test set geometry overrides directly.
func WithGeometry(fn func(*config.Geometry)) ConfigOption {
	return func(b *configBuilder) {
		fn(&b.cfg.Geometry)
	}
}

// WithOverwrite toggles replacing existing outputs.
func WithOverwrite(enabled bool) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Output.Overwrite = enabled
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Output.Dir)
}

// InputDir returns a directory for test inputs next to the output directory.
func InputDir(cfg *config.Config) string {
	return filepath.Join(BaseDir(cfg), "in")
}
