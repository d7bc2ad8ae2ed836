package missreport

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/XavierBriggs/Augur/internal/teams"
	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
)

// Reporter persists the team miss ledger to team_mapping_misses
type Reporter struct {
	db     *sql.DB
	ledger *teams.MissLedger
	logger *logrus.Entry

	mu      sync.Mutex
	flushed map[string]int // ledger count already written, by sport:slug
}

// NewReporter creates a new miss reporter
func NewReporter(db *sql.DB, ledger *teams.MissLedger, logger *logrus.Entry) *Reporter {
	return &Reporter{
		db:      db,
		ledger:  ledger,
		logger:  logger,
		flushed: make(map[string]int),
	}
}

// FlushAndLog runs Flush and logs the outcome. Used as a scheduled job.
func (r *Reporter) FlushAndLog(ctx context.Context) {
	n, err := r.Flush(ctx)
	if err != nil {
		r.logger.WithError(err).Error("miss flush failed")
		return
	}
	if n > 0 {
		r.logger.WithField("misses", n).Info("flushed team mapping misses")
	}
}

// Flush upserts misses recorded since the last flush. Counts are added to
// the stored totals and the seen window is widened. Returns the number of
// slugs written.
func (r *Reporter) Flush(ctx context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	snapshot := r.ledger.Snapshot()

	var (
		sportCodes []string
		slugs      []string
		counts     []int
		firstSeen  []time.Time
		lastSeen   []time.Time
		pending    = make(map[string]int)
	)

	for _, m := range snapshot {
		delta := m.Count - r.flushed[m.Key()]
		if delta <= 0 {
			continue
		}
		sportCodes = append(sportCodes, string(m.Sport))
		slugs = append(slugs, m.Slug)
		counts = append(counts, delta)
		firstSeen = append(firstSeen, m.FirstSeen)
		lastSeen = append(lastSeen, m.LastSeen)
		pending[m.Key()] = m.Count
	}

	if len(slugs) == 0 {
		return 0, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO team_mapping_misses (sport, slug, count, first_seen, last_seen)
		SELECT * FROM UNNEST($1::text[], $2::text[], $3::int[], $4::timestamptz[], $5::timestamptz[])
		ON CONFLICT (sport, slug) DO UPDATE SET
			count = team_mapping_misses.count + EXCLUDED.count,
			first_seen = LEAST(team_mapping_misses.first_seen, EXCLUDED.first_seen),
			last_seen = GREATEST(team_mapping_misses.last_seen, EXCLUDED.last_seen)
	`

	if _, err := tx.ExecContext(ctx, query,
		pq.Array(sportCodes), pq.Array(slugs), pq.Array(counts), pq.Array(firstSeen), pq.Array(lastSeen),
	); err != nil {
		return 0, fmt.Errorf("upsert misses: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit transaction: %w", err)
	}

	for key, count := range pending {
		r.flushed[key] = count
	}

	return len(slugs), nil
}
