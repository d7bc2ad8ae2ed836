package writer

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/XavierBriggs/Augur/pkg/models"
	"github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const (
	streamKeyFormat = "odds.board.%s" // odds.board.NFL
	streamMaxLen    = 10000
)

// Writer persists board snapshots to Postgres and publishes line movement to Redis Streams
type Writer struct {
	db     *sql.DB
	redis  *redis.Client
	logger *logrus.Entry
}

// StreamMessage represents a line movement published to a Redis Stream
type StreamMessage struct {
	RunID      string    `json:"run_id"`
	GameID     string    `json:"game_id"`
	Sport      string    `json:"sport"`
	Book       string    `json:"book"`
	Market     string    `json:"market"`
	From       *float64  `json:"from,omitempty"`
	To         float64   `json:"to"`
	ChangeType string    `json:"change_type"`
	DetectedAt time.Time `json:"detected_at"`
}

// historyRow is one market of one record, sides ordered away/home or over/under
type historyRow struct {
	gameID  string
	sport   string
	book    string
	market  models.Market
	kickoff time.Time
	aLine   *float64
	aPrice  int
	bLine   *float64
	bPrice  int
	tickets models.Pair
	handle  models.Pair
}

// NewWriter creates a new writer
func NewWriter(db *sql.DB, redisClient *redis.Client, logger *logrus.Entry) *Writer {
	return &Writer{
		db:     db,
		redis:  redisClient,
		logger: logger,
	}
}

// WriteSnapshots stores one odds_history row per offered market and marks
// earlier rows for the same game, book and market as no longer latest.
// Returns the number of rows inserted.
func (w *Writer) WriteSnapshots(ctx context.Context, runID string, records []models.GameOddsRecord, capturedAt time.Time) (int, error) {
	rows := historyRows(records)
	if len(rows) == 0 {
		return 0, nil
	}

	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Step 1: Update previous rows (set is_latest = false)
	if err := updatePrevious(ctx, tx, rows); err != nil {
		return 0, fmt.Errorf("update previous odds: %w", err)
	}

	// Step 2: Insert new rows (with is_latest = true)
	if err := insertRows(ctx, tx, runID, rows, capturedAt); err != nil {
		return 0, fmt.Errorf("insert odds history: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit transaction: %w", err)
	}

	return len(rows), nil
}

// PublishMovements publishes line movements to per-sport Redis Streams.
// Callers treat failures as non-fatal; the database is the source of truth.
func (w *Writer) PublishMovements(ctx context.Context, runID string, moves []models.LineMovement) error {
	if len(moves) == 0 {
		return nil
	}

	// Group by sport for separate streams
	bySport := make(map[models.SportCode][]models.LineMovement)
	for _, m := range moves {
		bySport[m.Sport] = append(bySport[m.Sport], m)
	}

	sportCodes := make([]models.SportCode, 0, len(bySport))
	for code := range bySport {
		sportCodes = append(sportCodes, code)
	}
	sort.Slice(sportCodes, func(i, j int) bool { return sportCodes[i] < sportCodes[j] })

	for _, code := range sportCodes {
		streamKey := fmt.Sprintf(streamKeyFormat, code)
		pipe := w.redis.Pipeline()

		for _, m := range bySport[code] {
			msgJSON, err := json.Marshal(StreamMessage{
				RunID:      runID,
				GameID:     m.GameID,
				Sport:      string(m.Sport),
				Book:       m.Book,
				Market:     string(m.Market),
				From:       m.From,
				To:         m.To,
				ChangeType: m.ChangeType,
				DetectedAt: m.DetectedAt,
			})
			if err != nil {
				return fmt.Errorf("marshal stream message: %w", err)
			}

			pipe.XAdd(ctx, &redis.XAddArgs{
				Stream: streamKey,
				MaxLen: streamMaxLen,
				Approx: true,
				Values: map[string]interface{}{
					"data": msgJSON,
				},
			})
		}

		if _, err := pipe.Exec(ctx); err != nil {
			return fmt.Errorf("redis pipeline exec for stream %s: %w", streamKey, err)
		}

		w.logger.WithFields(logrus.Fields{
			"stream": streamKey,
			"moves":  len(bySport[code]),
		}).Debug("published line movement")
	}

	return nil
}

// StreamKey returns the stream a sport's movements are published to
func StreamKey(sport models.SportCode) string {
	return fmt.Sprintf(streamKeyFormat, sport)
}

func historyRows(records []models.GameOddsRecord) []historyRow {
	rows := make([]historyRow, 0, len(records)*3)

	for _, rec := range records {
		snap := rec.Current()
		base := historyRow{
			gameID:  rec.GameID,
			sport:   string(rec.Sport),
			book:    rec.Book,
			kickoff: rec.Kickoff,
		}

		if s := snap.Spread; s != nil {
			r := base
			r.market = models.MarketSpread
			r.aLine, r.aPrice = linePtr(s.Away.Line), s.Away.Odds
			r.bLine, r.bPrice = linePtr(s.Home.Line), s.Home.Odds
			r.tickets = models.Pair{rec.Splits.Spread.Away.Tickets, rec.Splits.Spread.Home.Tickets}
			r.handle = models.Pair{rec.Splits.Spread.Away.Handle, rec.Splits.Spread.Home.Handle}
			rows = append(rows, r)
		}

		if t := snap.Total; t != nil {
			r := base
			r.market = models.MarketTotal
			r.aLine, r.aPrice = linePtr(t.Over.Line), t.Over.Odds
			r.bLine, r.bPrice = linePtr(t.Under.Line), t.Under.Odds
			r.tickets = models.Pair{rec.Splits.Total.Over.Tickets, rec.Splits.Total.Under.Tickets}
			r.handle = models.Pair{rec.Splits.Total.Over.Handle, rec.Splits.Total.Under.Handle}
			rows = append(rows, r)
		}

		if ml := snap.Moneyline; ml != nil {
			r := base
			r.market = models.MarketMoneyline
			r.aPrice = ml.Away.Odds
			r.bPrice = ml.Home.Odds
			r.tickets = models.Pair{rec.Splits.Moneyline.Away.Tickets, rec.Splits.Moneyline.Home.Tickets}
			r.handle = models.Pair{rec.Splits.Moneyline.Away.Handle, rec.Splits.Moneyline.Home.Handle}
			rows = append(rows, r)
		}
	}

	return rows
}

func linePtr(v float64) *float64 {
	return &v
}

// updatePrevious sets is_latest = false for existing rows of the same game/book/market
func updatePrevious(ctx context.Context, tx *sql.Tx, rows []historyRow) error {
	query := `
		UPDATE odds_history
		SET is_latest = false
		WHERE is_latest = true
		  AND (game_id, book, market) IN (
			SELECT UNNEST($1::text[]), UNNEST($2::text[]), UNNEST($3::text[])
		  )
	`

	gameIDs := make([]string, len(rows))
	books := make([]string, len(rows))
	markets := make([]string, len(rows))

	for i, r := range rows {
		gameIDs[i] = r.gameID
		books[i] = r.book
		markets[i] = string(r.market)
	}

	_, err := tx.ExecContext(ctx, query, pq.Array(gameIDs), pq.Array(books), pq.Array(markets))
	return err
}

// insertRows batch inserts history rows with UNNEST
func insertRows(ctx context.Context, tx *sql.Tx, runID string, rows []historyRow, capturedAt time.Time) error {
	query := `
		INSERT INTO odds_history (
			run_id, game_id, sport, book, market, kickoff,
			side_a_line, side_a_price, side_b_line, side_b_price,
			tickets_a, tickets_b, handle_a, handle_b,
			captured_at, is_latest
		)
		SELECT * FROM UNNEST(
			$1::text[], $2::text[], $3::text[], $4::text[], $5::text[], $6::timestamptz[],
			$7::decimal[], $8::int[], $9::decimal[], $10::int[],
			$11::decimal[], $12::decimal[], $13::decimal[], $14::decimal[],
			$15::timestamptz[], $16::boolean[]
		)
	`

	n := len(rows)
	runIDs := make([]string, n)
	gameIDs := make([]string, n)
	sportCodes := make([]string, n)
	books := make([]string, n)
	markets := make([]string, n)
	kickoffs := make([]time.Time, n)
	aLines := make([]*float64, n)
	aPrices := make([]int, n)
	bLines := make([]*float64, n)
	bPrices := make([]int, n)
	ticketsA := make([]float64, n)
	ticketsB := make([]float64, n)
	handleA := make([]float64, n)
	handleB := make([]float64, n)
	capturedAts := make([]time.Time, n)
	isLatests := make([]bool, n)

	for i, r := range rows {
		runIDs[i] = runID
		gameIDs[i] = r.gameID
		sportCodes[i] = r.sport
		books[i] = r.book
		markets[i] = string(r.market)
		kickoffs[i] = r.kickoff
		aLines[i] = r.aLine
		aPrices[i] = r.aPrice
		bLines[i] = r.bLine
		bPrices[i] = r.bPrice
		ticketsA[i], ticketsB[i] = r.tickets[0], r.tickets[1]
		handleA[i], handleB[i] = r.handle[0], r.handle[1]
		capturedAts[i] = capturedAt
		isLatests[i] = true
	}

	_, err := tx.ExecContext(ctx, query,
		pq.Array(runIDs), pq.Array(gameIDs), pq.Array(sportCodes), pq.Array(books), pq.Array(markets), pq.Array(kickoffs),
		pq.Array(aLines), pq.Array(aPrices), pq.Array(bLines), pq.Array(bPrices),
		pq.Array(ticketsA), pq.Array(ticketsB), pq.Array(handleA), pq.Array(handleB),
		pq.Array(capturedAts), pq.Array(isLatests),
	)

	return err
}
