package repo

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/didi/gendry/builder"

	"github.com/lexbrief/lexbrief/internal/model"
	"github.com/lexbrief/lexbrief/internal/pkg/dbutil"
	appErr "github.com/lexbrief/lexbrief/internal/pkg/errors"
)

type ProfileRepo struct {
	db *sql.DB
}

func NewProfileRepo(db *sql.DB) *ProfileRepo {
	return &ProfileRepo{db: db}
}

func (r *ProfileRepo) Create(ctx context.Context, profile *model.UsageProfile) error {
	data := map[string]interface{}{
		"caller_id":      profile.CallerID,
		"document_count": profile.DocumentCount,
		"document_limit": profile.DocumentLimit,
		"period_start":   profile.PeriodStart,
		"mtime":          profile.Mtime,
	}
	sqlStr, args, err := builder.BuildInsert("usage_profiles", []map[string]interface{}{data})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	_, err = r.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		if dbutil.IsConflict(err) {
			return appErr.ErrConflict
		}
		return err
	}
	return nil
}

func (r *ProfileRepo) Get(ctx context.Context, callerID string) (*model.UsageProfile, error) {
	where := map[string]interface{}{"caller_id": callerID}
	sqlStr, args, err := builder.BuildSelect("usage_profiles", where, []string{"caller_id", "document_count", "document_limit", "period_start", "mtime"})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", appErr.ErrProfileRead, err)
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", appErr.ErrProfileRead, err)
	}
	defer func() { _ = rows.Close() }()
	if !rows.Next() {
		return nil, appErr.ErrNotFound
	}
	var profile model.UsageProfile
	if err := rows.Scan(&profile.CallerID, &profile.DocumentCount, &profile.DocumentLimit, &profile.PeriodStart, &profile.Mtime); err != nil {
		return nil, fmt.Errorf("%w: %w", appErr.ErrProfileRead, err)
	}
	return &profile, nil
}

// ConsumeQuota reserves one document unit in a single conditional
// increment, so two concurrent requests can never both slip past the
// ceiling. Returns ErrQuotaExceeded when the caller is at their limit
// and ErrNotFound when no profile row exists. gendry cannot express
// "SET x = x + 1 ... WHERE x < y", hence the literal statement.
func (r *ProfileRepo) ConsumeQuota(ctx context.Context, callerID string, mtime int64) error {
	const stmt = `UPDATE usage_profiles
		SET document_count = document_count + 1, mtime = $1
		WHERE caller_id = $2 AND document_count < document_limit`
	result, err := r.db.ExecContext(ctx, stmt, mtime, callerID)
	if err != nil {
		return fmt.Errorf("%w: %w", appErr.ErrProfileRead, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %w", appErr.ErrProfileRead, err)
	}
	if affected > 0 {
		return nil
	}
	// Nothing updated: either no row or at the ceiling.
	if _, err := r.Get(ctx, callerID); err != nil {
		return err
	}
	return appErr.ErrQuotaExceeded
}

// ReleaseQuota undoes one reservation, used when the pipeline fails
// after the reserve but before any AI cost is incurred.
func (r *ProfileRepo) ReleaseQuota(ctx context.Context, callerID string, mtime int64) error {
	const stmt = `UPDATE usage_profiles
		SET document_count = document_count - 1, mtime = $1
		WHERE caller_id = $2 AND document_count > 0`
	_, err := r.db.ExecContext(ctx, stmt, mtime, callerID)
	return err
}

// ResetExpiredPeriods zeroes counters for profiles whose period started
// before cutoff, rolling them onto the new period.
func (r *ProfileRepo) ResetExpiredPeriods(ctx context.Context, cutoff, periodStart, mtime int64) (int64, error) {
	const stmt = `UPDATE usage_profiles
		SET document_count = 0, period_start = $1, mtime = $2
		WHERE period_start < $3`
	result, err := r.db.ExecContext(ctx, stmt, periodStart, mtime, cutoff)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
