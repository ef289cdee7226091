package migrate

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, body := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
	}
	return dir
}

func TestFiles_SortedSQLOnly(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"002_b.sql": "SELECT 2",
		"001_a.sql": "SELECT 1",
		"README.md": "notes",
		"010_c.sql": "SELECT 3",
	})
	require.NoError(t, os.Mkdir(filepath.Join(dir, "old.sql"), 0o755))

	files, err := Files(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"001_a.sql", "002_b.sql", "010_c.sql"}, files)
}

func TestFiles_MissingDir(t *testing.T) {
	_, err := Files(filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}

func TestApply_EachFileInTransaction(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	dir := writeFiles(t, map[string]string{
		"001_customers.sql": "CREATE TABLE customers (id uuid)",
		"002_empty.sql":     "  \n",
		"003_invoices.sql":  "CREATE TABLE invoices (id uuid)",
	})

	mock.ExpectBegin()
	mock.ExpectExec(`CREATE TABLE customers`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()
	mock.ExpectBegin()
	mock.ExpectExec(`CREATE TABLE invoices`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	var out bytes.Buffer
	res, err := Apply(context.Background(), db, dir, &out)
	require.NoError(t, err)
	assert.Equal(t, Result{Applied: 2, Skipped: 1}, res)
	assert.Contains(t, out.String(), "001_customers.sql ... ")
	assert.Contains(t, out.String(), "OK")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApply_FailureRollsBackAndContinues(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	dir := writeFiles(t, map[string]string{
		"001_bad.sql":  "CREATE TABLE broken (",
		"002_good.sql": "CREATE TABLE invoices (id uuid)",
	})

	mock.ExpectBegin()
	mock.ExpectExec(`CREATE TABLE broken`).WillReturnError(errors.New("syntax error"))
	mock.ExpectRollback()
	mock.ExpectBegin()
	mock.ExpectExec(`CREATE TABLE invoices`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	var out bytes.Buffer
	res, err := Apply(context.Background(), db, dir, &out)
	require.Error(t, err)
	assert.Equal(t, Result{Applied: 1, Failed: 1}, res)
	assert.Contains(t, out.String(), "ERROR: syntax error")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTables(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT tablename FROM pg_tables`).
		WillReturnRows(sqlmock.NewRows([]string{"tablename"}).AddRow("customers").AddRow("invoices"))

	tables, err := Tables(context.Background(), db)
	require.NoError(t, err)
	assert.Equal(t, []string{"customers", "invoices"}, tables)
	assert.NoError(t, mock.ExpectationsWereMet())
}
