package repo

import (
	"context"
	"database/sql"

	"github.com/didi/gendry/builder"

	"github.com/lexbrief/lexbrief/internal/model"
	"github.com/lexbrief/lexbrief/internal/pkg/dbutil"
	appErr "github.com/lexbrief/lexbrief/internal/pkg/errors"
)

type AccountRepo struct {
	db *sql.DB
}

func NewAccountRepo(db *sql.DB) *AccountRepo {
	return &AccountRepo{db: db}
}

func (r *AccountRepo) Create(ctx context.Context, account *model.Account) error {
	data := map[string]interface{}{
		"id":            account.ID,
		"email":         account.Email,
		"password_hash": account.PasswordHash,
		"ctime":         account.Ctime,
	}
	sqlStr, args, err := builder.BuildInsert("accounts", []map[string]interface{}{data})
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

func (r *AccountRepo) GetByEmail(ctx context.Context, email string) (*model.Account, error) {
	return r.getOne(ctx, map[string]interface{}{"email": email})
}

func (r *AccountRepo) GetByID(ctx context.Context, accountID string) (*model.Account, error) {
	return r.getOne(ctx, map[string]interface{}{"id": accountID})
}

func (r *AccountRepo) getOne(ctx context.Context, where map[string]interface{}) (*model.Account, error) {
	sqlStr, args, err := builder.BuildSelect("accounts", where, []string{"id", "email", "password_hash", "ctime"})
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
	var account model.Account
	if err := rows.Scan(&account.ID, &account.Email, &account.PasswordHash, &account.Ctime); err != nil {
		return nil, err
	}
	return &account, nil
}
