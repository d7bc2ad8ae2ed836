package board

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/XavierBriggs/Augur/pkg/models"
	"github.com/redis/go-redis/v9"
)

const currentKey = "board:current"

// DefaultTTL keeps the last good board readable through long upstream outages.
// A run that fails leaves the previous board in place until it expires.
const DefaultTTL = 24 * time.Hour

// ErrNoBoard is returned when no board has been cached yet or it expired
var ErrNoBoard = errors.New("no board cached")

// Store keeps the latest sorted board in Redis
type Store struct {
	redis *redis.Client
	ttl   time.Duration
}

// NewStore creates a board store. A non-positive ttl uses DefaultTTL.
func NewStore(redisClient *redis.Client, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{
		redis: redisClient,
		ttl:   ttl,
	}
}

// Save replaces the cached board
func (s *Store) Save(ctx context.Context, b *models.Board) error {
	b.Count = len(b.Games)

	data, err := json.Marshal(b)
	if err != nil {
		return fmt.Errorf("marshal board: %w", err)
	}

	if err := s.redis.Set(ctx, currentKey, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("cache board: %w", err)
	}
	return nil
}

// Load returns the cached board, or ErrNoBoard
func (s *Store) Load(ctx context.Context) (*models.Board, error) {
	data, err := s.redis.Get(ctx, currentKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNoBoard
	}
	if err != nil {
		return nil, fmt.Errorf("read board: %w", err)
	}

	var b models.Board
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("decode board: %w", err)
	}
	return &b, nil
}

// Filter returns the board's games matching sport and book. Empty values match all.
// Order is preserved.
func Filter(b *models.Board, sport models.SportCode, book string) []models.GameOddsRecord {
	games := make([]models.GameOddsRecord, 0, len(b.Games))
	for _, g := range b.Games {
		if sport != "" && g.Sport != sport {
			continue
		}
		if book != "" && g.Book != book {
			continue
		}
		games = append(games, g)
	}
	return games
}
