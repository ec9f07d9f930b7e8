package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/wikirefs/internal/harvest"
)

func TestStoreReportInsertsRows(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewRecordStoreWithPool(mock, "refs")
	require.NoError(t, err)

	report := harvest.Report{
		Mode: harvest.ModeSequential,
		Records: []harvest.Record{
			harvest.Success("Alan Turing", "Alan Turing", []string{"https://a.com"}),
			harvest.Failure("Turing Award", harvest.KindNotFound, "PageError: Could not find page."),
		},
	}

	mock.ExpectExec("INSERT INTO refs").
		WithArgs("run-1", "sequential", 0, "Alan Turing", "success", "Alan Turing", []byte(`["https://a.com"]`), nil).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("INSERT INTO refs").
		WithArgs("run-1", "sequential", 1, "Turing Award", "error", nil, nil, "PageError: Could not find page.").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, store.StoreReport(context.Background(), "run-1", report))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreReportPropagatesExecError(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewRecordStoreWithPool(mock, "")
	require.NoError(t, err)

	mock.ExpectExec("INSERT INTO wikipedia_references").
		WithArgs(
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
		).
		WillReturnError(errors.New("connection refused"))

	err = store.StoreReport(context.Background(), "run-2", harvest.Report{
		Mode:    harvest.ModeConcurrent,
		Records: []harvest.Record{harvest.Success("x", "X", nil)},
	})
	require.ErrorContains(t, err, "connection refused")
}

func TestStoreReportRequiresRunID(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewRecordStoreWithPool(mock, "refs")
	require.NoError(t, err)
	require.Error(t, store.StoreReport(context.Background(), "", harvest.Report{}))
}

func TestEnsureSchema(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewRecordStoreWithPool(mock, "refs")
	require.NoError(t, err)

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS refs").
		WillReturnResult(pgxmock.NewResult("CREATE TABLE", 0))

	require.NoError(t, store.EnsureSchema(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInvalidTableName(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	_, err = NewRecordStoreWithPool(mock, "refs; DROP TABLE x")
	require.Error(t, err)
	_, err = NewRecordStoreWithPool(nil, "refs")
	require.Error(t, err)
}

func TestNewRecordStoreRequiresDSN(t *testing.T) {
	t.Parallel()

	_, err := NewRecordStore(context.Background(), RecordStoreConfig{})
	require.Error(t, err)
}

func TestNilStoreIsNotConfigured(t *testing.T) {
	t.Parallel()

	var store *RecordStore
	store.Close()
	require.Error(t, store.StoreReport(context.Background(), "run", harvest.Report{}))
}
