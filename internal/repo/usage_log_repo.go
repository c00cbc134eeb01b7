package repo

import (
	"context"
	"database/sql"

	"github.com/didi/gendry/builder"

	"github.com/lexbrief/lexbrief/internal/model"
	"github.com/lexbrief/lexbrief/internal/pkg/dbutil"
)

var usageLogFields = []string{"id", "caller_id", "endpoint", "outcome", "response_time_ms", "client_ip", "user_agent", "ctime"}

type UsageLogRepo struct {
	db *sql.DB
}

func NewUsageLogRepo(db *sql.DB) *UsageLogRepo {
	return &UsageLogRepo{db: db}
}

func (r *UsageLogRepo) Append(ctx context.Context, entry *model.UsageLog) error {
	data := map[string]interface{}{
		"id":               entry.ID,
		"caller_id":        entry.CallerID,
		"endpoint":         entry.Endpoint,
		"outcome":          entry.Outcome,
		"response_time_ms": entry.ResponseTimeMs,
		"client_ip":        entry.ClientIP,
		"user_agent":       entry.UserAgent,
		"ctime":            entry.Ctime,
	}
	sqlStr, args, err := builder.BuildInsert("usage_logs", []map[string]interface{}{data})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	_, err = r.db.ExecContext(ctx, sqlStr, args...)
	return err
}

func (r *UsageLogRepo) ListRecent(ctx context.Context, callerID string, limit uint) ([]model.UsageLog, error) {
	where := map[string]interface{}{
		"caller_id": callerID,
		"_orderby":  "ctime desc",
	}
	if limit > 0 {
		where["_limit"] = []uint{0, limit}
	}
	sqlStr, args, err := builder.BuildSelect("usage_logs", where, usageLogFields)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	entries := make([]model.UsageLog, 0)
	for rows.Next() {
		var entry model.UsageLog
		if err := rows.Scan(
			&entry.ID, &entry.CallerID, &entry.Endpoint, &entry.Outcome,
			&entry.ResponseTimeMs, &entry.ClientIP, &entry.UserAgent, &entry.Ctime,
		); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
