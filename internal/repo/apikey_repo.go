package repo

import (
	"context"
	"database/sql"

	"github.com/didi/gendry/builder"

	"github.com/lexbrief/lexbrief/internal/model"
	"github.com/lexbrief/lexbrief/internal/pkg/dbutil"
	appErr "github.com/lexbrief/lexbrief/internal/pkg/errors"
)

var apiKeyFields = []string{"id", "caller_id", "key", "name", "is_active", "usage_count", "last_used_at", "ctime"}

type APIKeyRepo struct {
	db *sql.DB
}

func NewAPIKeyRepo(db *sql.DB) *APIKeyRepo {
	return &APIKeyRepo{db: db}
}

func (r *APIKeyRepo) Create(ctx context.Context, key *model.APIKey) error {
	data := map[string]interface{}{
		"id":           key.ID,
		"caller_id":    key.CallerID,
		"key":          key.Key,
		"name":         key.Name,
		"is_active":    key.IsActive,
		"usage_count":  key.UsageCount,
		"last_used_at": key.LastUsedAt,
		"ctime":        key.Ctime,
	}
	sqlStr, args, err := builder.BuildInsert("api_keys", []map[string]interface{}{data})
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

// GetActiveByKey resolves a presented key to its record, active keys only.
func (r *APIKeyRepo) GetActiveByKey(ctx context.Context, key string) (*model.APIKey, error) {
	where := map[string]interface{}{
		"key":       key,
		"is_active": 1,
	}
	sqlStr, args, err := builder.BuildSelect("api_keys", where, apiKeyFields)
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
	return scanAPIKey(rows)
}

func (r *APIKeyRepo) ListByCaller(ctx context.Context, callerID string) ([]model.APIKey, error) {
	where := map[string]interface{}{
		"caller_id": callerID,
		"_orderby":  "ctime desc",
	}
	sqlStr, args, err := builder.BuildSelect("api_keys", where, apiKeyFields)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	keys := make([]model.APIKey, 0)
	for rows.Next() {
		key, err := scanAPIKey(rows)
		if err != nil {
			return nil, err
		}
		keys = append(keys, *key)
	}
	return keys, rows.Err()
}

func (r *APIKeyRepo) Deactivate(ctx context.Context, callerID, keyID string) error {
	where := map[string]interface{}{
		"id":        keyID,
		"caller_id": callerID,
	}
	update := map[string]interface{}{"is_active": 0}
	sqlStr, args, err := builder.BuildUpdate("api_keys", where, update)
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
		return appErr.ErrNotFound
	}
	return nil
}

// TouchUsage bumps usage_count atomically and stamps last_used_at.
func (r *APIKeyRepo) TouchUsage(ctx context.Context, keyID string, usedAt int64) error {
	const stmt = `UPDATE api_keys
		SET usage_count = usage_count + 1, last_used_at = $1
		WHERE id = $2`
	_, err := r.db.ExecContext(ctx, stmt, usedAt, keyID)
	return err
}

func scanAPIKey(rows *sql.Rows) (*model.APIKey, error) {
	var key model.APIKey
	if err := rows.Scan(
		&key.ID, &key.CallerID, &key.Key, &key.Name,
		&key.IsActive, &key.UsageCount, &key.LastUsedAt, &key.Ctime,
	); err != nil {
		return nil, err
	}
	return &key, nil
}
