package job

import (
	"context"
	"time"

	"github.com/lexbrief/lexbrief/internal/pkg/timeutil"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

const stalePendingAge = 15 * time.Minute

const stalePendingSummary = "This analysis did not complete in time. " +
	"Please try submitting the document again."

type stalePendingExpirer interface {
	ExpireStalePending(ctx context.Context, cutoff int64, summary string, mtime int64) (int64, error)
}

// AnalysisCleanupJob sweeps analyses stuck in pending, usually left
// behind by a crash between creation and finalization, and resolves
// them as timed-out fallbacks so callers never see a record hang
// forever.
type AnalysisCleanupJob struct {
	analyses stalePendingExpirer
}

func NewAnalysisCleanupJob(analyses stalePendingExpirer) *AnalysisCleanupJob {
	return &AnalysisCleanupJob{analyses: analyses}
}

func (j *AnalysisCleanupJob) Name() string {
	return "analysis_cleanup"
}

func (j *AnalysisCleanupJob) Run(ctx context.Context) error {
	now := timeutil.NowUnix()
	cutoff := now - int64(stalePendingAge.Seconds())
	affected, err := j.analyses.ExpireStalePending(ctx, cutoff, stalePendingSummary, now)
	if err != nil {
		return err
	}
	if affected > 0 {
		logutil.GetLogger(ctx).Info("expired stale pending analyses", zap.Int64("count", affected))
	}
	return nil
}
