package missreport_test

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/XavierBriggs/Augur/internal/logging"
	"github.com/XavierBriggs/Augur/internal/missreport"
	"github.com/XavierBriggs/Augur/internal/teams"
	"github.com/XavierBriggs/Augur/pkg/models"
	"github.com/XavierBriggs/Augur/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newReporter(t *testing.T) (*missreport.Reporter, *teams.MissLedger, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	ledger := teams.NewMissLedger().WithClock(testutil.FixedClock(testutil.BeforeE2EKickoff))
	return missreport.NewReporter(db, ledger, logging.Nop()), ledger, mock
}

func TestFlush_Empty(t *testing.T) {
	r, _, mock := newReporter(t)

	// No transaction for an empty ledger
	n, err := r.Flush(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFlush_UpsertsAndTracksDeltas(t *testing.T) {
	r, ledger, mock := newReporter(t)
	ctx := context.Background()

	ledger.Record(models.SportNFL, "kansas-city-cheifs")
	ledger.Record(models.SportNFL, "kansas-city-cheifs")
	ledger.Record(models.SportNBA, "sonics")

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO team_mapping_misses").WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	n, err := r.Flush(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	// Nothing new since the last flush
	n, err = r.Flush(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	// Only the slug seen again is written
	ledger.Record(models.SportNBA, "sonics")
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO team_mapping_misses").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	n, err = r.Flush(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFlush_FailureRetriesNextTime(t *testing.T) {
	r, ledger, mock := newReporter(t)
	ctx := context.Background()

	ledger.Record(models.SportNFL, "oakland-raiders")

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO team_mapping_misses").WillReturnError(errors.New("deadlock"))
	mock.ExpectRollback()

	_, err := r.Flush(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "upsert misses")

	// The same miss is written on the next flush
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO team_mapping_misses").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	n, err := r.Flush(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFlushAndLog_SwallowsErrors(t *testing.T) {
	r, ledger, mock := newReporter(t)
	ledger.Record(models.SportNHL, "arizona-coyotes")

	mock.ExpectBegin().WillReturnError(errors.New("connection refused"))

	r.FlushAndLog(context.Background())
	assert.NoError(t, mock.ExpectationsWereMet())
}
