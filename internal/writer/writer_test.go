package writer_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/XavierBriggs/Augur/internal/logging"
	"github.com/XavierBriggs/Augur/internal/writer"
	"github.com/XavierBriggs/Augur/pkg/models"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var capturedAt = time.Date(2025, 11, 1, 12, 0, 0, 0, time.UTC)

func fullRecord() models.GameOddsRecord {
	return models.GameOddsRecord{
		GameID:  "20251102NFL00031",
		Sport:   models.SportNFL,
		Kickoff: time.Date(2025, 11, 2, 18, 0, 0, 0, time.UTC),
		Book:    "DK",
		Odds: []models.OddsSnapshot{{
			Moneyline: &models.Moneyline{Away: models.Price{Odds: -130}, Home: models.Price{Odds: 110}},
			Spread: &models.Spread{
				Away: models.PricedLine{Line: -1.5, Odds: -110},
				Home: models.PricedLine{Line: 1.5, Odds: -110},
			},
			Total: &models.Total{
				Over:  models.PricedLine{Line: 52.5, Odds: -110},
				Under: models.PricedLine{Line: 52.5, Odds: -110},
			},
		}},
	}
}

func newWriter(t *testing.T) (*writer.Writer, sqlmock.Sqlmock, *miniredis.Miniredis) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	return writer.NewWriter(db, rdb, logging.Nop()), mock, mr
}

func TestWriteSnapshots_InsertsOneRowPerMarket(t *testing.T) {
	w, mock, _ := newWriter(t)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE odds_history").WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec("INSERT INTO odds_history").WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectCommit()

	n, err := w.WriteSnapshots(context.Background(), "run-1", []models.GameOddsRecord{fullRecord()}, capturedAt)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWriteSnapshots_SkipsAbsentMarkets(t *testing.T) {
	w, mock, _ := newWriter(t)

	// Only the moneyline is offered
	rec := fullRecord()
	rec.Odds[0].Spread = nil
	rec.Odds[0].Total = nil

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE odds_history").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO odds_history").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	n, err := w.WriteSnapshots(context.Background(), "run-1", []models.GameOddsRecord{rec}, capturedAt)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWriteSnapshots_NothingOffered(t *testing.T) {
	w, mock, _ := newWriter(t)

	rec := fullRecord()
	rec.Odds = nil

	// No transaction is opened
	n, err := w.WriteSnapshots(context.Background(), "run-1", []models.GameOddsRecord{rec}, capturedAt)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWriteSnapshots_RollsBackOnInsertError(t *testing.T) {
	w, mock, _ := newWriter(t)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE odds_history").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO odds_history").WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	_, err := w.WriteSnapshots(context.Background(), "run-1", []models.GameOddsRecord{fullRecord()}, capturedAt)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert odds history")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWriteSnapshots_BeginError(t *testing.T) {
	w, mock, _ := newWriter(t)

	mock.ExpectBegin().WillReturnError(errors.New("connection refused"))

	_, err := w.WriteSnapshots(context.Background(), "run-1", []models.GameOddsRecord{fullRecord()}, capturedAt)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "begin transaction")
}

func TestPublishMovements_PerSportStreams(t *testing.T) {
	w, _, mr := newWriter(t)

	from := -1.5
	moves := []models.LineMovement{
		{GameID: "20251102NFL00031", Book: "DK", Sport: models.SportNFL, Market: models.MarketSpread, From: &from, To: -2.5, ChangeType: "point_change", DetectedAt: capturedAt},
		{GameID: "20251102NFL00032", Book: "DK", Sport: models.SportNFL, Market: models.MarketMoneyline, To: -150, ChangeType: "odds_change", DetectedAt: capturedAt},
		{GameID: "20251102NBA00001", Book: "CIRCA", Sport: models.SportNBA, Market: models.MarketTotal, To: 221.5, ChangeType: "point_change", DetectedAt: capturedAt},
	}

	require.NoError(t, w.PublishMovements(context.Background(), "run-7", moves))

	nfl, err := mr.Stream(writer.StreamKey(models.SportNFL))
	require.NoError(t, err)
	assert.Len(t, nfl, 2)

	nba, err := mr.Stream(writer.StreamKey(models.SportNBA))
	require.NoError(t, err)
	require.Len(t, nba, 1)

	// Values are field/value pairs
	require.Len(t, nba[0].Values, 2)
	assert.Equal(t, "data", nba[0].Values[0])

	var msg writer.StreamMessage
	require.NoError(t, json.Unmarshal([]byte(nba[0].Values[1]), &msg))
	assert.Equal(t, "run-7", msg.RunID)
	assert.Equal(t, "20251102NBA00001", msg.GameID)
	assert.Equal(t, "total", msg.Market)
	assert.Equal(t, 221.5, msg.To)
	assert.Nil(t, msg.From)
}

func TestPublishMovements_Empty(t *testing.T) {
	w, _, mr := newWriter(t)

	require.NoError(t, w.PublishMovements(context.Background(), "run-1", nil))
	assert.False(t, mr.Exists(writer.StreamKey(models.SportNFL)))
}

func TestPublishMovements_RedisDown(t *testing.T) {
	w, _, mr := newWriter(t)
	mr.Close()

	err := w.PublishMovements(context.Background(), "run-1", []models.LineMovement{
		{GameID: "g", Book: "DK", Sport: models.SportNFL, Market: models.MarketSpread, To: 1},
	})
	assert.Error(t, err)
}

func TestStreamKey(t *testing.T) {
	assert.Equal(t, "odds.board.NFL", writer.StreamKey(models.SportNFL))
}
