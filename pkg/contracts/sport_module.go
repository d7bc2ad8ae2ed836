package contracts

import (
	"time"

	"github.com/XavierBriggs/Augur/pkg/models"
)

// SportModule defines the sport-specific scheduling heuristics used when a
// game has no explicit metadata override
type SportModule interface {
	// GetSportCode returns the normalized code (e.g., "NCAAF")
	GetSportCode() models.SportCode

	// GetDisplayName returns the human-readable name (e.g., "College Football")
	GetDisplayName() string

	// GetAliases returns legacy feed codes that map to this sport
	GetAliases() []string

	// GetDefaultSlot returns the kickoff and network used when the weekday is unknown
	GetDefaultSlot() (kickoff string, network string)

	// GetKickoffTime returns the default HH:MM kickoff for a weekday
	GetKickoffTime(day time.Weekday) string

	// GetNetwork returns the default broadcast network for a weekday
	GetNetwork(day time.Weekday) string

	// GetPrimetimeLabel returns the primetime label for a slot, if it is one
	GetPrimetimeLabel(day time.Weekday, hour int) (string, bool)
}
