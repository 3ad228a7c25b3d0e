package convert

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"spatialphoto/internal/codec"
	"spatialphoto/internal/config"
	"spatialphoto/internal/fileutil"
	"spatialphoto/internal/geometry"
	"spatialphoto/internal/logging"
	"spatialphoto/internal/metadata"
	"spatialphoto/internal/preflight"
	"spatialphoto/internal/source"
)

// Converter runs conversion jobs against a configuration.
type Converter struct {
	cfg       *config.Config
	codec     *codec.Codec
	repairer  *metadata.Repairer
	splitters map[source.Mode]source.Splitter
	logger    *slog.Logger
	now       func() time.Time
}

// Option customizes a Converter.
type Option func(*Converter)

// WithSplitter replaces the splitter used for mode.
func WithSplitter(mode source.Mode, s source.Splitter) Option {
	return func(c *Converter) {
		c.splitters[mode] = s
	}
}

// WithClock overrides the time source used for elapsed durations.
func WithClock(now func() time.Time) Option {
	return func(c *Converter) {
		c.now = now
	}
}

// New builds a converter. A nil logger discards output.
func New(cfg *config.Config, logger *slog.Logger, opts ...Option) *Converter {
	if cfg == nil {
		defaults := config.Default()
		cfg = &defaults
	}
	cdc := codec.New(cfg.Output.JPEGQuality)
	c := &Converter{
		cfg:      cfg,
		codec:    cdc,
		repairer: metadata.NewRepairer(cfg.Location(), cfg.RepairVendors()...),
		splitters: map[source.Mode]source.Splitter{
			source.ModeMPO:  source.MPOSplitter{Decoder: cdc},
			source.ModeSBS:  source.SBSSplitter{Decoder: cdc},
			source.ModePair: source.PairLoader{Decoder: cdc},
		},
		logger: logging.NewComponentLogger(logger, "convert"),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewJob prepares a job for sources in mode. The output path is derived from
// the first source.
func (c *Converter) NewJob(mode source.Mode, sources ...string) Job {
	job := Job{
		ID:      newJobID(),
		Mode:    mode,
		Sources: append([]string(nil), sources...),
		Params:  c.cfg.GeometryParams(),
	}
	if len(sources) > 0 {
		job.Output = fileutil.OutputPath(sources[0], c.cfg.Output.Dir, c.cfg.Output.Extension)
	}
	return job
}

// ConvertFile converts a single MPO or side-by-side file, picking the mode
// from its extension.
func (c *Converter) ConvertFile(ctx context.Context, path string) Result {
	return c.Convert(ctx, c.NewJob(source.ModeForPath(path), path))
}

// ConvertPair converts an explicit left/right pair of files.
func (c *Converter) ConvertPair(ctx context.Context, left, right string) Result {
	return c.Convert(ctx, c.NewJob(source.ModePair, left, right))
}

// Convert checks the job's inputs, splits its sources and writes the
// container.
func (c *Converter) Convert(ctx context.Context, job Job) Result {
	ctx = jobContext(ctx, job)
	if job.Mode == source.ModeUnknown {
		return c.reject(ctx, job, Wrap(ErrInput, job.Name(), "select mode", "unsupported file extension", nil))
	}
	if err := preflight.FirstError(preflight.Inputs(c.cfg, job.Sources...)); err != nil {
		return c.reject(ctx, job, Wrap(ErrInput, job.Name(), "preflight", "", err))
	}

	splitter, ok := c.splitters[job.Mode]
	if !ok {
		return c.reject(ctx, job, Wrap(ErrInput, job.Name(), "select mode", fmt.Sprintf("no splitter for mode %q", job.Mode), nil))
	}
	pair, err := splitter.Split(ctx, job.Sources...)
	if err != nil {
		return c.reject(ctx, job, Wrap(Classify(err), job.Name(), "split "+string(job.Mode), "", err))
	}
	job.Pair = pair

	result, err := c.Write(ctx, job)
	if err != nil {
		c.logFailure(ctx, result)
	}
	return result
}

// Write turns a split job into the output container. The left and right
// views must be the same size. Nothing is left at the output path on failure.
func (c *Converter) Write(ctx context.Context, job Job) (Result, error) {
	start := c.now()
	ctx = jobContext(ctx, job)
	logger := logging.WithContext(ctx, c.logger)
	result := newResult(job)
	finish := func(err error) (Result, error) {
		result.Elapsed = c.now().Sub(start)
		if err != nil {
			result.fail(err)
		}
		return result, err
	}

	pair := job.Pair
	if pair == nil {
		return finish(Wrap(ErrStructure, job.Name(), "write", "job has no split views", nil))
	}
	lw, lh := pair.Left.Raster.Width(), pair.Left.Raster.Height()
	rw, rh := pair.Right.Raster.Width(), pair.Right.Raster.Height()
	if lw != rw || lh != rh {
		return finish(Wrap(ErrGeometry, job.Name(), "compare views",
			fmt.Sprintf("left is %dx%d, right is %dx%d", lw, lh, rw, rh), nil))
	}
	result.Width, result.Height = lw, lh

	defaults, ok := c.cfg.ModeDefaults(string(job.Mode))
	if !ok {
		return finish(Wrap(ErrInput, job.Name(), "resolve geometry", fmt.Sprintf("unknown mode %q", job.Mode), nil))
	}
	resolved, warnings := geometry.Resolve(job.Params, defaults, lw, lh)
	for _, w := range warnings {
		result.Warnings = append(result.Warnings, w.Code)
		logging.WarnWithContext(logger, w.Message, "geometry_warning",
			logging.String("warning", w.Code),
			logging.String(logging.FieldImpact, "input ignored, conversion continues"),
			logging.String(logging.FieldErrorHint, "pass --hfov, or both --sensorWidth and --focalLength"),
		)
	}
	result.HFOVDegrees = resolved.HFOVDegrees
	result.HFOVSource = resolved.HFOVSource
	result.BaselineMeters = resolved.BaselineMeters
	result.Disparity = resolved.DisparityFixedPoint
	logger.Debug("geometry resolved",
		logging.Float64("hfov_degrees", resolved.HFOVDegrees),
		logging.String("hfov_source", string(resolved.HFOVSource)),
		logging.Float64("focal_length_px", resolved.FocalLengthPixels),
		logging.Any("intrinsics", geometry.RowMajor(resolved.Intrinsics)),
	)

	leftProps, rightProps := pair.Left.Properties, pair.Right.Properties
	if c.cfg.Repair.Enabled {
		for _, props := range []*metadata.Bag{leftProps, rightProps} {
			report := c.repairer.Repair(props)
			if !report.Repaired {
				continue
			}
			result.Vendor = report.Vendor
			logger.Debug("metadata repaired",
				logging.String("vendor", report.Vendor),
				logging.Any("repaired_fields", report.Fields),
			)
		}
	}

	left := metadata.BuildStereo(metadata.RoleLeft, resolved, metadata.Position(metadata.RoleLeft, resolved.BaselineMeters), leftProps)
	right := metadata.BuildStereo(metadata.RoleRight, resolved, metadata.Position(metadata.RoleRight, resolved.BaselineMeters), rightProps)

	if !c.cfg.Output.Overwrite {
		if _, err := os.Stat(job.Output); err == nil {
			return finish(Wrap(ErrInput, job.Name(), "create output", job.Output+" already exists", nil))
		}
	}
	if err := ctx.Err(); err != nil {
		return finish(err)
	}

	if err := c.writeContainer(job.Output, pair, left, right); err != nil {
		return finish(Wrap(ErrEncode, job.Name(), "write container", "", err))
	}
	if info, err := os.Stat(job.Output); err == nil {
		result.Bytes = info.Size()
	}
	result.Status = StatusSucceeded

	result, _ = finish(nil)
	logger.Info("spatial photo written",
		logging.String(logging.FieldOutput, job.Output),
		logging.Float64("hfov_degrees", result.HFOVDegrees),
		logging.String("hfov_source", string(result.HFOVSource)),
		logging.Float64("baseline_m", result.BaselineMeters),
		logging.Int64("disparity", result.Disparity),
		logging.Int("width", result.Width),
		logging.Int("height", result.Height),
		logging.Int64("output_bytes", result.Bytes),
		logging.Duration("elapsed", result.Elapsed),
	)
	return result, nil
}

func (c *Converter) writeContainer(path string, pair *source.Pair, left, right *metadata.Bag) error {
	dest, err := c.codec.Create(path, 2)
	if err != nil {
		return err
	}
	if err := dest.Add(pair.Left.Raster, left); err != nil {
		dest.Abort()
		return fmt.Errorf("left view: %w", err)
	}
	if err := dest.Add(pair.Right.Raster, right); err != nil {
		dest.Abort()
		return fmt.Errorf("right view: %w", err)
	}
	return dest.Finalize()
}

// reject records a job that failed before Write.
func (c *Converter) reject(ctx context.Context, job Job, err error) Result {
	result := newResult(job)
	result.fail(err)
	c.logFailure(jobContext(ctx, job), result)
	return result
}

func (c *Converter) logFailure(ctx context.Context, result Result) {
	if result.Err == nil || errors.Is(result.Err, context.Canceled) {
		return
	}
	logging.ErrorWithContext(logging.WithContext(ctx, c.logger), "conversion failed", "convert_failed",
		logging.Error(result.Err),
		logging.String(logging.FieldErrorHint, hint(result.Err)),
	)
}

func newResult(job Job) Result {
	return Result{
		JobID:   job.ID,
		Mode:    job.Mode,
		Sources: job.Sources,
		Output:  job.Output,
		Status:  StatusFailed,
	}
}

func jobContext(ctx context.Context, job Job) context.Context {
	ctx = logging.WithJobID(ctx, job.ID)
	ctx = logging.WithMode(ctx, string(job.Mode))
	return logging.WithSource(ctx, job.Name())
}
