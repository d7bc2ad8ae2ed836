package teams

import (
	"sort"
	"sync"
	"time"

	"github.com/XavierBriggs/Augur/pkg/models"
)

// Miss is one unmapped team slug seen by the resolver
type Miss struct {
	Sport     models.SportCode `json:"sport"`
	Slug      string           `json:"slug"`
	Count     int              `json:"count"`
	FirstSeen time.Time        `json:"first_seen"`
	LastSeen  time.Time        `json:"last_seen"`
}

// Key returns the ledger key sport:slug
func (m Miss) Key() string {
	return missKey(m.Sport, m.Slug)
}

// MissLedger accumulates unmapped slugs across runs. Safe for concurrent use.
type MissLedger struct {
	mu     sync.Mutex
	misses map[string]*Miss
	now    func() time.Time
}

// NewMissLedger creates an empty ledger
func NewMissLedger() *MissLedger {
	return &MissLedger{
		misses: make(map[string]*Miss),
		now:    time.Now,
	}
}

// WithClock overrides the ledger clock
func (l *MissLedger) WithClock(now func() time.Time) *MissLedger {
	l.now = now
	return l
}

// Record counts one occurrence of an unmapped slug
func (l *MissLedger) Record(sport models.SportCode, slug string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now().UTC()
	key := missKey(sport, slug)

	if m, ok := l.misses[key]; ok {
		m.Count++
		m.LastSeen = now
		return
	}

	l.misses[key] = &Miss{
		Sport:     sport,
		Slug:      slug,
		Count:     1,
		FirstSeen: now,
		LastSeen:  now,
	}
}

// Snapshot returns a copy of all misses, most frequent first
func (l *MissLedger) Snapshot() []Miss {
	l.mu.Lock()
	out := make([]Miss, 0, len(l.misses))
	for _, m := range l.misses {
		out = append(out, *m)
	}
	l.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Key() < out[j].Key()
	})
	return out
}

// Len returns the number of distinct misses
func (l *MissLedger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.misses)
}

func missKey(sport models.SportCode, slug string) string {
	return string(sport) + ":" + slug
}
