package schedule

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

// Job is a named unit of periodic maintenance work. Run is invoked on
// the cron schedule and never concurrently with itself.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// CronScheduler drives the background maintenance jobs. Jobs are
// registered once at startup; there is no dynamic add or remove after
// Start.
type CronScheduler struct {
	cron *cron.Cron
	ctx  context.Context
}

func NewCronScheduler() *CronScheduler {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	return &CronScheduler{
		cron: cron.New(cron.WithParser(parser)),
	}
}

func (c *CronScheduler) AddJob(job Job, spec string) error {
	logger := logutil.GetLogger(context.Background()).With(
		zap.String("job", job.Name()),
		zap.String("cron", spec),
	)
	if _, err := c.cron.AddFunc(spec, c.runGuarded(job)); err != nil {
		logger.Error("schedule job failed", zap.Error(err))
		return err
	}
	logger.Info("job scheduled")
	return nil
}

func (c *CronScheduler) Start(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}
	c.ctx = ctx
	c.cron.Start()
}

// Stop halts the schedule and waits for any in-flight run to return.
func (c *CronScheduler) Stop() {
	<-c.cron.Stop().Done()
}

// runGuarded skips a tick when the previous run of the same job has not
// finished, so a slow database sweep never stacks up on itself.
func (c *CronScheduler) runGuarded(job Job) func() {
	var running atomic.Bool
	return func() {
		if !running.CompareAndSwap(false, true) {
			logutil.GetLogger(context.Background()).
				With(zap.String("job", job.Name())).
				Warn("previous run still active, skipping tick")
			return
		}
		defer running.Store(false)

		ctx := c.ctx
		if ctx == nil {
			ctx = context.Background()
		}
		logger := logutil.GetLogger(ctx).With(zap.String("job", job.Name()))
		start := time.Now()
		if err := job.Run(ctx); err != nil {
			logger.Error("job run failed", zap.Error(err), zap.Duration("elapsed", time.Since(start)))
			return
		}
		logger.Info("job run finished", zap.Duration("elapsed", time.Since(start)))
	}
}
