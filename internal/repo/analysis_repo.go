package repo

import (
	"context"
	"database/sql"

	"github.com/didi/gendry/builder"

	"github.com/lexbrief/lexbrief/internal/model"
	"github.com/lexbrief/lexbrief/internal/pkg/dbutil"
	appErr "github.com/lexbrief/lexbrief/internal/pkg/errors"
)

var analysisFields = []string{"id", "caller_id", "file_name", "file_key", "status", "summary", "failure_class", "processing_ms", "ctime", "mtime"}

type AnalysisRepo struct {
	db *sql.DB
}

func NewAnalysisRepo(db *sql.DB) *AnalysisRepo {
	return &AnalysisRepo{db: db}
}

func (r *AnalysisRepo) Create(ctx context.Context, analysis *model.Analysis) error {
	data := map[string]interface{}{
		"id":            analysis.ID,
		"caller_id":     analysis.CallerID,
		"file_name":     analysis.FileName,
		"file_key":      analysis.FileKey,
		"status":        analysis.Status,
		"summary":       analysis.Summary,
		"failure_class": analysis.FailureClass,
		"processing_ms": analysis.ProcessingMs,
		"ctime":         analysis.Ctime,
		"mtime":         analysis.Mtime,
	}
	sqlStr, args, err := builder.BuildInsert("analyses", []map[string]interface{}{data})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	_, err = r.db.ExecContext(ctx, sqlStr, args...)
	return err
}

// Finalize moves a pending analysis to its terminal state. The status
// guard makes the pending -> terminal transition happen at most once.
func (r *AnalysisRepo) Finalize(ctx context.Context, analysis *model.Analysis) error {
	where := map[string]interface{}{
		"id":     analysis.ID,
		"status": model.AnalysisStatusPending,
	}
	update := map[string]interface{}{
		"status":        analysis.Status,
		"summary":       analysis.Summary,
		"failure_class": analysis.FailureClass,
		"processing_ms": analysis.ProcessingMs,
		"mtime":         analysis.Mtime,
	}
	sqlStr, args, err := builder.BuildUpdate("analyses", where, update)
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	result, err := r.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return appErr.ErrConflict
	}
	return nil
}

func (r *AnalysisRepo) GetByID(ctx context.Context, callerID, analysisID string) (*model.Analysis, error) {
	where := map[string]interface{}{
		"id":        analysisID,
		"caller_id": callerID,
	}
	sqlStr, args, err := builder.BuildSelect("analyses", where, analysisFields)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	if !rows.Next() {
		return nil, appErr.ErrNotFound
	}
	analysis, err := scanAnalysis(rows)
	if err != nil {
		return nil, err
	}
	return analysis, nil
}

func (r *AnalysisRepo) List(ctx context.Context, callerID string, limit, offset uint) ([]model.Analysis, error) {
	where := map[string]interface{}{
		"caller_id": callerID,
		"_orderby":  "ctime desc",
	}
	if limit > 0 {
		where["_limit"] = []uint{offset, limit}
	}
	sqlStr, args, err := builder.BuildSelect("analyses", where, analysisFields)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	analyses := make([]model.Analysis, 0)
	for rows.Next() {
		analysis, err := scanAnalysis(rows)
		if err != nil {
			return nil, err
		}
		analyses = append(analyses, *analysis)
	}
	return analyses, rows.Err()
}

// ExpireStalePending flips pending rows older than cutoff to fallback
// with the given placeholder summary; returns affected row count.
func (r *AnalysisRepo) ExpireStalePending(ctx context.Context, cutoff int64, summary string, mtime int64) (int64, error) {
	const stmt = `UPDATE analyses
		SET status = $1, summary = $2, failure_class = $3, mtime = $4
		WHERE status = $5 AND ctime < $6`
	result, err := r.db.ExecContext(ctx, stmt,
		model.AnalysisStatusFallback, summary, "timed_out", mtime,
		model.AnalysisStatusPending, cutoff)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func scanAnalysis(rows *sql.Rows) (*model.Analysis, error) {
	var analysis model.Analysis
	if err := rows.Scan(
		&analysis.ID, &analysis.CallerID, &analysis.FileName, &analysis.FileKey,
		&analysis.Status, &analysis.Summary, &analysis.FailureClass,
		&analysis.ProcessingMs, &analysis.Ctime, &analysis.Mtime,
	); err != nil {
		return nil, err
	}
	return &analysis, nil
}
