package delta

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/XavierBriggs/Augur/pkg/models"
	"github.com/redis/go-redis/v9"
)

// Sides of a market
const (
	SideAway  = "away"
	SideHome  = "home"
	SideOver  = "over"
	SideUnder = "under"
)

// Engine detects line changes between runs by comparing against Redis
type Engine struct {
	redis *redis.Client
	ttl   time.Duration
}

// Line is one side of one market for a game at a book
type Line struct {
	GameID string
	Book   string
	Sport  models.SportCode
	Market models.Market
	Side   string
	Price  int
	Point  *float64
}

// CachedLine represents the minimal data stored in Redis for comparison
type CachedLine struct {
	Price  int       `json:"price"`
	Point  *float64  `json:"point,omitempty"`
	SeenAt time.Time `json:"seen_at"`
}

// ChangeType indicates the type of change detected
type ChangeType string

const (
	ChangeTypeNew       ChangeType = "new"
	ChangeTypePriceOnly ChangeType = "price"
	ChangeTypePointOnly ChangeType = "point"
	ChangeTypeBoth      ChangeType = "price_and_point"
	ChangeTypeNone      ChangeType = "none"
)

// Delta represents a detected change
type Delta struct {
	Line       Line
	ChangeType ChangeType
	OldPrice   *int
	OldPoint   *float64
}

// NewEngine creates a new delta detection engine
func NewEngine(redisClient *redis.Client, cacheTTL time.Duration) *Engine {
	return &Engine{
		redis: redisClient,
		ttl:   cacheTTL,
	}
}

// Lines flattens records into per-side lines. Markets a book does not offer produce none.
func Lines(records []models.GameOddsRecord) []Line {
	lines := make([]Line, 0, len(records)*6)

	for _, rec := range records {
		snap := rec.Current()
		base := Line{GameID: rec.GameID, Book: rec.Book, Sport: rec.Sport}

		if snap.Spread != nil {
			lines = append(lines,
				base.with(models.MarketSpread, SideAway, snap.Spread.Away.Odds, point(snap.Spread.Away.Line)),
				base.with(models.MarketSpread, SideHome, snap.Spread.Home.Odds, point(snap.Spread.Home.Line)),
			)
		}
		if snap.Total != nil {
			lines = append(lines,
				base.with(models.MarketTotal, SideOver, snap.Total.Over.Odds, point(snap.Total.Over.Line)),
				base.with(models.MarketTotal, SideUnder, snap.Total.Under.Odds, point(snap.Total.Under.Line)),
			)
		}
		if snap.Moneyline != nil {
			lines = append(lines,
				base.with(models.MarketMoneyline, SideAway, snap.Moneyline.Away.Odds, nil),
				base.with(models.MarketMoneyline, SideHome, snap.Moneyline.Home.Odds, nil),
			)
		}
	}

	return lines
}

func (l Line) with(market models.Market, side string, price int, pt *float64) Line {
	l.Market = market
	l.Side = side
	l.Price = price
	l.Point = pt
	return l
}

func point(v float64) *float64 {
	return &v
}

// DetectChanges compares lines against the Redis cache and returns only deltas
func (e *Engine) DetectChanges(ctx context.Context, lines []Line) ([]Delta, error) {
	if len(lines) == 0 {
		return nil, nil
	}

	// Build Redis keys for batch lookup
	keys := make([]string, len(lines))
	for i, line := range lines {
		keys[i] = lineKey(line)
	}

	cachedValues, err := e.redis.MGet(ctx, keys...).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("redis mget: %w", err)
	}

	deltas := make([]Delta, 0, len(lines))

	for i, line := range lines {
		changeType, oldPrice, oldPoint := compareLine(line, cachedValues[i])

		if changeType != ChangeTypeNone {
			deltas = append(deltas, Delta{
				Line:       line,
				ChangeType: changeType,
				OldPrice:   oldPrice,
				OldPoint:   oldPoint,
			})
		}
	}

	return deltas, nil
}

// UpdateCache writes the latest lines to Redis (write-through)
func (e *Engine) UpdateCache(ctx context.Context, lines []Line, seenAt time.Time) error {
	if len(lines) == 0 {
		return nil
	}

	pipe := e.redis.Pipeline()

	for _, line := range lines {
		data, err := json.Marshal(CachedLine{
			Price:  line.Price,
			Point:  line.Point,
			SeenAt: seenAt,
		})
		if err != nil {
			return fmt.Errorf("marshal cached line: %w", err)
		}

		pipe.Set(ctx, lineKey(line), data, e.ttl)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis pipeline exec: %w", err)
	}

	return nil
}

// Movements converts deltas on each market's headline side into line
// movements. First sightings are not movements.
func Movements(deltas []Delta, detectedAt time.Time) []models.LineMovement {
	var moves []models.LineMovement

	for _, d := range deltas {
		if d.ChangeType == ChangeTypeNew || !isHeadline(d.Line) {
			continue
		}

		move := models.LineMovement{
			GameID:     d.Line.GameID,
			Book:       d.Line.Book,
			Sport:      d.Line.Sport,
			Market:     d.Line.Market,
			ChangeType: string(d.ChangeType),
			DetectedAt: detectedAt,
		}

		if d.Line.Market == models.MarketMoneyline {
			move.To = float64(d.Line.Price)
			if d.OldPrice != nil {
				from := float64(*d.OldPrice)
				move.From = &from
			}
		} else {
			// a price-only change on a spread or total leaves the number where it was
			if d.ChangeType == ChangeTypePriceOnly || d.Line.Point == nil {
				continue
			}
			move.To = *d.Line.Point
			move.From = d.OldPoint
		}

		moves = append(moves, move)
	}

	return moves
}

// RecordMovements keeps the most recent movement per game, book and market
func (e *Engine) RecordMovements(ctx context.Context, moves []models.LineMovement) error {
	if len(moves) == 0 {
		return nil
	}

	pipe := e.redis.Pipeline()
	for _, m := range moves {
		data, err := json.Marshal(m)
		if err != nil {
			return fmt.Errorf("marshal movement: %w", err)
		}
		pipe.Set(ctx, moveKey(m.Book, m.GameID, m.Market), data, e.ttl)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis pipeline exec: %w", err)
	}
	return nil
}

// LastMovement returns the most recent movement for a market, if any
func (e *Engine) LastMovement(ctx context.Context, book, gameID string, market models.Market) (models.LineMovement, bool, error) {
	data, err := e.redis.Get(ctx, moveKey(book, gameID, market)).Bytes()
	if errors.Is(err, redis.Nil) {
		return models.LineMovement{}, false, nil
	}
	if err != nil {
		return models.LineMovement{}, false, fmt.Errorf("redis get movement: %w", err)
	}

	var move models.LineMovement
	if err := json.Unmarshal(data, &move); err != nil {
		return models.LineMovement{}, false, fmt.Errorf("decode movement: %w", err)
	}
	return move, true, nil
}

// lineKey format: odds:line:{book}:{game_id}:{market}:{side}
func lineKey(l Line) string {
	return fmt.Sprintf("odds:line:%s:%s:%s:%s", l.Book, l.GameID, l.Market, l.Side)
}

// moveKey format: odds:move:{book}:{game_id}:{market}
func moveKey(book, gameID string, market models.Market) string {
	return fmt.Sprintf("odds:move:%s:%s:%s", book, gameID, market)
}

func isHeadline(l Line) bool {
	switch l.Market {
	case models.MarketSpread, models.MarketMoneyline:
		return l.Side == SideAway
	case models.MarketTotal:
		return l.Side == SideOver
	}
	return false
}

// compareLine compares a line against its cached value
func compareLine(line Line, cachedValue interface{}) (ChangeType, *int, *float64) {
	// If no cache entry, this is a new line
	if cachedValue == nil {
		return ChangeTypeNew, nil, nil
	}

	cachedStr, ok := cachedValue.(string)
	if !ok {
		// Cache corruption, treat as new
		return ChangeTypeNew, nil, nil
	}

	var cached CachedLine
	if err := json.Unmarshal([]byte(cachedStr), &cached); err != nil {
		return ChangeTypeNew, nil, nil
	}

	priceChanged := line.Price != cached.Price
	pointMoved := pointChanged(line.Point, cached.Point)

	if !priceChanged && !pointMoved {
		return ChangeTypeNone, nil, nil
	}

	oldPrice := &cached.Price
	var oldPoint *float64
	if cached.Point != nil {
		val := *cached.Point
		oldPoint = &val
	}

	if priceChanged && pointMoved {
		return ChangeTypeBoth, oldPrice, oldPoint
	}

	if priceChanged {
		return ChangeTypePriceOnly, oldPrice, oldPoint
	}

	return ChangeTypePointOnly, oldPrice, oldPoint
}

// pointChanged checks if point values are different
func pointChanged(newPoint, oldPoint *float64) bool {
	if newPoint == nil && oldPoint == nil {
		return false
	}

	if newPoint == nil || oldPoint == nil {
		return true
	}

	// Compare with small epsilon for float precision
	const epsilon = 0.001
	diff := *newPoint - *oldPoint
	if diff < 0 {
		diff = -diff
	}

	return diff > epsilon
}
