package convert

import (
	"context"

	"spatialphoto/internal/logging"
	"spatialphoto/internal/source"
)

// Run converts files sequentially. With pairs set, consecutive files form
// left/right pairs and an odd count aborts before any job runs. Otherwise
// each file is converted on its own. A failed job does not stop the batch;
// cancellation is checked between jobs.
func (c *Converter) Run(ctx context.Context, files []string, pairs bool) (Summary, error) {
	start := c.now()
	var summary Summary
	finish := func(err error) (Summary, error) {
		summary.Elapsed = c.now().Sub(start)
		return summary, err
	}

	var jobs []Job
	if pairs {
		tuples, err := source.Pairs(files)
		if err != nil {
			err = Wrap(ErrStructure, "", "pair inputs", "", err)
			logging.ErrorWithContext(c.logger, "batch aborted", "batch_aborted",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "pass an even number of files: left1 right1 left2 right2 ..."),
			)
			return finish(err)
		}
		for _, t := range tuples {
			jobs = append(jobs, c.NewJob(source.ModePair, t[0], t[1]))
		}
	} else {
		for _, f := range files {
			jobs = append(jobs, c.NewJob(source.ModeForPath(f), f))
		}
	}

	if err := c.cfg.EnsureDirectories(); err != nil {
		return finish(Wrap(ErrInput, "", "prepare output", "", err))
	}

	for _, job := range jobs {
		if err := ctx.Err(); err != nil {
			logging.WarnWithContext(c.logger, "batch interrupted", "batch_canceled",
				logging.Int("remaining", len(jobs)-len(summary.Results)),
				logging.String(logging.FieldImpact, "remaining files were not converted"),
				logging.String(logging.FieldErrorHint, "rerun with the remaining files"),
			)
			return finish(err)
		}
		summary.add(c.Convert(ctx, job))
	}

	summary, _ = finish(nil)
	c.logger.Info("batch complete",
		logging.Int("succeeded", summary.Succeeded),
		logging.Int("failed", summary.Failed),
		logging.Duration("elapsed", summary.Elapsed),
	)
	return summary, nil
}
