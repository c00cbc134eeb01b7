package repo

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
)

func TestOpenBadDSN(t *testing.T) {
	// The malformed DSN fails at ping, exercising the close-on-error path.
	db, err := Open("port=not-a-port")
	require.Error(t, err)
	require.Nil(t, db)
}

func TestApplyMigrationsInOrder(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "0002_second.sql"), []byte("CREATE TABLE b (id TEXT)"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "0001_first.sql"), []byte("CREATE TABLE a (id TEXT)"), 0o644))

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("CREATE TABLE a").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TABLE b").WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, ApplyMigrations(db, dir))
	require.NoError(t, mock.ExpectationsWereMet())
}
