package job

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lexbrief/lexbrief/internal/pkg/timeutil"
)

type recordingResetter struct {
	cutoff      int64
	periodStart int64
}

func (r *recordingResetter) ResetExpiredPeriods(ctx context.Context, cutoff, periodStart, mtime int64) (int64, error) {
	r.cutoff = cutoff
	r.periodStart = periodStart
	return 2, nil
}

func TestQuotaResetUsesCurrentMonthBoundary(t *testing.T) {
	resetter := &recordingResetter{}
	job := NewQuotaResetJob(resetter)
	require.Equal(t, "quota_reset", job.Name())

	require.NoError(t, job.Run(context.Background()))
	want := timeutil.MonthStart(timeutil.NowUnix())
	require.Equal(t, want, resetter.cutoff)
	require.Equal(t, want, resetter.periodStart)
}

type recordingExpirer struct {
	cutoff  int64
	summary string
}

func (r *recordingExpirer) ExpireStalePending(ctx context.Context, cutoff int64, summary string, mtime int64) (int64, error) {
	r.cutoff = cutoff
	r.summary = summary
	return 1, nil
}

func TestAnalysisCleanupCutoffAndSummary(t *testing.T) {
	expirer := &recordingExpirer{}
	job := NewAnalysisCleanupJob(expirer)
	require.Equal(t, "analysis_cleanup", job.Name())

	before := timeutil.NowUnix()
	require.NoError(t, job.Run(context.Background()))
	require.InDelta(t, before-int64(stalePendingAge.Seconds()), expirer.cutoff, 2)
	require.NotEmpty(t, expirer.summary)
}
