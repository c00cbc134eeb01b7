package repo

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	appErr "github.com/lexbrief/lexbrief/internal/pkg/errors"
)

func TestConsumeQuotaReserved(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("UPDATE usage_profiles").
		WithArgs(int64(1700000000), "caller-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := NewProfileRepo(db)
	require.NoError(t, repo.ConsumeQuota(context.Background(), "caller-1", 1700000000))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestConsumeQuotaAtLimit(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("UPDATE usage_profiles").
		WithArgs(int64(1700000000), "caller-1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	// Zero rows affected triggers a profile read to tell "at limit"
	// apart from "no profile".
	mock.ExpectQuery("SELECT .* FROM usage_profiles").
		WithArgs("caller-1").
		WillReturnRows(sqlmock.NewRows([]string{"caller_id", "document_count", "document_limit", "period_start", "mtime"}).
			AddRow("caller-1", 25, 25, 1700000000, 1700000000))

	repo := NewProfileRepo(db)
	err = repo.ConsumeQuota(context.Background(), "caller-1", 1700000000)
	require.ErrorIs(t, err, appErr.ErrQuotaExceeded)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestConsumeQuotaMissingProfile(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("UPDATE usage_profiles").
		WithArgs(int64(1700000000), "ghost").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT .* FROM usage_profiles").
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows([]string{"caller_id", "document_count", "document_limit", "period_start", "mtime"}))

	repo := NewProfileRepo(db)
	err = repo.ConsumeQuota(context.Background(), "ghost", 1700000000)
	require.ErrorIs(t, err, appErr.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetProfile(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT .* FROM usage_profiles").
		WithArgs("caller-1").
		WillReturnRows(sqlmock.NewRows([]string{"caller_id", "document_count", "document_limit", "period_start", "mtime"}).
			AddRow("caller-1", 4, 25, 1700000000, 1700000100))

	repo := NewProfileRepo(db)
	profile, err := repo.Get(context.Background(), "caller-1")
	require.NoError(t, err)
	require.Equal(t, int64(4), profile.DocumentCount)
	require.Equal(t, int64(25), profile.DocumentLimit)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestResetExpiredPeriods(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("UPDATE usage_profiles").
		WithArgs(int64(1704067200), int64(1704067300), int64(1704067200)).
		WillReturnResult(sqlmock.NewResult(0, 3))

	repo := NewProfileRepo(db)
	affected, err := repo.ResetExpiredPeriods(context.Background(), 1704067200, 1704067200, 1704067300)
	require.NoError(t, err)
	require.Equal(t, int64(3), affected)
	require.NoError(t, mock.ExpectationsWereMet())
}
