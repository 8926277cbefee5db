package internal

import (
	"context"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Schedule runs job on every tick of a standard cron expression until ctx is
// done. A tick that arrives while the previous run is still going is skipped.
func Schedule(ctx context.Context, spec string, job func(ctx context.Context), logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}

	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	if _, err := c.AddFunc(spec, func() { job(ctx) }); err != nil {
		return errors.Wrapf(err, "invalid schedule %q", spec)
	}

	c.Start()
	logger.Info("scheduler started", zap.String("schedule", spec))

	<-ctx.Done()
	<-c.Stop().Done()

	logger.Info("scheduler stopped")
	return nil
}
