package metadata

import (
	"strconv"

	"github.com/XavierBriggs/Augur/internal/kickoff"
	"github.com/XavierBriggs/Augur/internal/registry"
	"github.com/XavierBriggs/Augur/pkg/models"
	"github.com/sirupsen/logrus"
)

// Fallback slot for sports with no registered module
const (
	UnknownKickoff = "19:00"
	UnknownNetwork = "TBD"
)

// Resolver computes broadcast metadata for a game: explicit overrides first,
// then the sport module's weekday heuristics
type Resolver struct {
	overrides map[string]models.GameMetadata
	registry  *registry.SportRegistry
	logger    *logrus.Entry
}

// NewResolver creates a metadata resolver
func NewResolver(overrides map[string]models.GameMetadata, reg *registry.SportRegistry, logger *logrus.Entry) *Resolver {
	if overrides == nil {
		overrides = map[string]models.GameMetadata{}
	}
	return &Resolver{
		overrides: overrides,
		registry:  reg,
		logger:    logger,
	}
}

// Resolve returns metadata for a game. Overrides are returned verbatim.
func (r *Resolver) Resolve(gameID string, sport models.SportCode, dateStr string) models.GameMetadata {
	if meta, ok := r.overrides[gameID]; ok {
		return meta
	}

	module, ok := r.registry.Resolve(string(sport))
	if !ok {
		r.logger.WithFields(logrus.Fields{
			"game_id": gameID,
			"sport":   sport,
		}).Warn("no sport module registered, using generic slot")
		return models.GameMetadata{Time: UnknownKickoff, TV: UnknownNetwork}
	}

	day, err := kickoff.ParseDate(dateStr)
	if err != nil {
		// the game is filtered out downstream; still hand back something well-formed
		t, tv := module.GetDefaultSlot()
		return models.GameMetadata{Time: t, TV: tv}
	}

	weekday := day.Weekday()
	meta := models.GameMetadata{
		Time: module.GetKickoffTime(weekday),
		TV:   module.GetNetwork(weekday),
	}

	if label, prime := module.GetPrimetimeLabel(weekday, hourOf(meta.Time)); prime {
		meta.Primetime = label
	}

	return meta
}

func hourOf(hhmm string) int {
	if len(hhmm) < 2 {
		return -1
	}
	h, err := strconv.Atoi(hhmm[:2])
	if err != nil {
		return -1
	}
	return h
}
