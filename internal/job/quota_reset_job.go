package job

import (
	"context"

	"github.com/lexbrief/lexbrief/internal/pkg/timeutil"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

type periodResetter interface {
	ResetExpiredPeriods(ctx context.Context, cutoff, periodStart, mtime int64) (int64, error)
}

// QuotaResetJob rolls usage profiles into a fresh billing period once
// their period_start falls before the current calendar month.
type QuotaResetJob struct {
	profiles periodResetter
}

func NewQuotaResetJob(profiles periodResetter) *QuotaResetJob {
	return &QuotaResetJob{profiles: profiles}
}

func (j *QuotaResetJob) Name() string {
	return "quota_reset"
}

func (j *QuotaResetJob) Run(ctx context.Context) error {
	now := timeutil.NowUnix()
	monthStart := timeutil.MonthStart(now)
	affected, err := j.profiles.ResetExpiredPeriods(ctx, monthStart, monthStart, now)
	if err != nil {
		return err
	}
	if affected > 0 {
		logutil.GetLogger(ctx).Info("reset expired usage periods", zap.Int64("count", affected))
	}
	return nil
}
