package parser

import (
	"fmt"
	"math"

	"github.com/XavierBriggs/Augur/internal/kickoff"
	"github.com/XavierBriggs/Augur/internal/metadata"
	"github.com/XavierBriggs/Augur/internal/teams"
	"github.com/XavierBriggs/Augur/pkg/models"
	"github.com/sirupsen/logrus"
)

// StandardJuice is the price assumed for spread and total sides; the feed
// carries lines for those markets but not prices
const StandardJuice = -110

// oddsThreshold separates a home line from an away price in spr[1]
const oddsThreshold = 100

// Builder assembles one GameOddsRecord per validated row
type Builder struct {
	teams    *teams.Resolver
	colors   *teams.ColorResolver
	metadata *metadata.Resolver
	logger   *logrus.Entry
}

// NewBuilder creates a record builder
func NewBuilder(t *teams.Resolver, c *teams.ColorResolver, m *metadata.Resolver, logger *logrus.Entry) *Builder {
	return &Builder{
		teams:    t,
		colors:   c,
		metadata: m,
		logger:   logger,
	}
}

// Metadata resolves the broadcast slot for a row using its normalized sport
func (b *Builder) Metadata(row models.RawGameRow) models.GameMetadata {
	sport, ok := models.NormalizeSport(row.Sport)
	if !ok {
		sport = models.SportCode(row.Sport)
	}
	return b.metadata.Resolve(row.ID, sport, row.Date)
}

// Build assembles the record for a row at a book. Any panic while building is
// recovered and returned as ErrBuildFailure so the caller can skip the game.
func (b *Builder) Build(row models.RawGameRow, book string) (rec models.GameOddsRecord, err error) {
	defer func() {
		if r := recover(); r != nil {
			rec = models.GameOddsRecord{}
			err = fmt.Errorf("%w: game %s: %v", models.ErrBuildFailure, row.ID, r)
		}
	}()

	sport, ok := models.NormalizeSport(row.Sport)
	if !ok {
		return models.GameOddsRecord{}, fmt.Errorf("%w: game %s: %w %q", models.ErrBuildFailure, row.ID, models.ErrUnknownSport, row.Sport)
	}

	meta := b.metadata.Resolve(row.ID, sport, row.Date)

	kick, err := kickoff.ToTimestamp(row.Date, meta.Time)
	if err != nil {
		return models.GameOddsRecord{}, fmt.Errorf("%w: game %s: %w", models.ErrBuildFailure, row.ID, err)
	}

	away := b.teams.Resolve(row.Away, sport)
	home := b.teams.Resolve(row.Home, sport)

	rec = models.GameOddsRecord{
		GameID:  row.ID,
		Sport:   sport,
		Kickoff: kick,
		Book:    book,
		Away: models.TeamSide{
			TeamIdentity: away,
			Colors:       b.colors.Colors(away.FullName, sport),
		},
		Home: models.TeamSide{
			TeamIdentity: home,
			Colors:       b.colors.Colors(home.FullName, sport),
		},
		Metadata: &meta,
		Odds:     []models.OddsSnapshot{Snapshot(row)},
		Splits:   Splits(row),
	}

	return rec, nil
}

// Snapshot builds the odds snapshot for a row. A market whose raw values are
// null or zero is left nil so it is absent from the output.
func Snapshot(row models.RawGameRow) models.OddsSnapshot {
	var snap models.OddsSnapshot

	if offered(row.Moneyline.Away) && offered(row.Moneyline.Home) {
		snap.Moneyline = &models.Moneyline{
			Away: models.Price{Odds: american(*row.Moneyline.Away)},
			Home: models.Price{Odds: american(*row.Moneyline.Home)},
		}
	}

	if offered(row.Spread.AwayLine) {
		line := *row.Spread.AwayLine
		awayOdds := StandardJuice
		if row.Spread.Home != nil && math.Abs(*row.Spread.Home) >= oddsThreshold {
			awayOdds = american(*row.Spread.Home)
		}
		snap.Spread = &models.Spread{
			Away: models.PricedLine{Line: line, Odds: awayOdds},
			Home: models.PricedLine{Line: -line, Odds: StandardJuice},
		}
	}

	if offered(row.Total.Line) {
		line := *row.Total.Line
		snap.Total = &models.Total{
			Over:  models.PricedLine{Line: line, Odds: StandardJuice},
			Under: models.PricedLine{Line: line, Odds: StandardJuice},
		}
	}

	return snap
}

// Splits copies the raw ticket/handle pairs into named sides
func Splits(row models.RawGameRow) models.Splits {
	return models.Splits{
		Spread: models.SideSplits{
			Away: models.SplitSide{Tickets: row.Spread.Tickets[0], Handle: row.Spread.Handle[0]},
			Home: models.SplitSide{Tickets: row.Spread.Tickets[1], Handle: row.Spread.Handle[1]},
		},
		Total: models.TotalSplits{
			Over:  models.SplitSide{Tickets: row.Total.Tickets[0], Handle: row.Total.Handle[0]},
			Under: models.SplitSide{Tickets: row.Total.Tickets[1], Handle: row.Total.Handle[1]},
		},
		Moneyline: models.SideSplits{
			Away: models.SplitSide{Tickets: row.Moneyline.Tickets[0], Handle: row.Moneyline.Handle[0]},
			Home: models.SplitSide{Tickets: row.Moneyline.Tickets[1], Handle: row.Moneyline.Handle[1]},
		},
	}
}

func offered(v *float64) bool {
	return v != nil && *v != 0
}

func american(v float64) int {
	return int(math.Round(v))
}
