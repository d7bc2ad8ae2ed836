package sports

import (
	"time"

	"github.com/XavierBriggs/Augur/pkg/models"
)

// Config contains the scheduling heuristics for one sport
type Config struct {
	// Sport identification
	Code        models.SportCode
	DisplayName string
	Aliases     []string

	// Default slot when a weekday has no entry
	Default Slot

	// Weekday-specific slots
	ByDay map[time.Weekday]Slot

	// Kickoffs at or after this hour are primetime
	PrimetimeHour int

	// Weekday-specific primetime labels; anything else is "Primetime"
	NightLabels map[time.Weekday]string
}

// Slot is a default kickoff time and network
type Slot struct {
	Time    string // HH:MM
	Network string
}

// GenericPrimetimeLabel is used when a sport has no weekday-specific label
const GenericPrimetimeLabel = "Primetime"

// DefaultConfig returns the heuristics for a sport
func DefaultConfig(code models.SportCode) *Config {
	switch code {
	case models.SportNFL:
		return &Config{
			Code:          code,
			DisplayName:   "NFL Football",
			Default:       Slot{Time: "13:00", Network: "CBS"},
			PrimetimeHour: 20,
			ByDay: map[time.Weekday]Slot{
				time.Sunday:   {Time: "13:00", Network: "FOX"},
				time.Monday:   {Time: "20:15", Network: "ESPN"},
				time.Thursday: {Time: "20:15", Network: "Prime Video"},
				time.Saturday: {Time: "16:30", Network: "NFL Network"},
			},
			NightLabels: map[time.Weekday]string{
				time.Sunday:   "Sunday Night Football",
				time.Monday:   "Monday Night Football",
				time.Thursday: "Thursday Night Football",
			},
		}
	case models.SportNCAAF:
		return &Config{
			Code:          code,
			DisplayName:   "College Football",
			Aliases:       []string{"CFB"},
			Default:       Slot{Time: "19:00", Network: "ESPN"},
			PrimetimeHour: 20,
			ByDay: map[time.Weekday]Slot{
				time.Saturday: {Time: "12:00", Network: "FOX"},
			},
		}
	case models.SportNBA:
		return &Config{
			Code:          code,
			DisplayName:   "NBA Basketball",
			Default:       Slot{Time: "19:00", Network: "NBA League Pass"},
			PrimetimeHour: 20,
			ByDay: map[time.Weekday]Slot{
				time.Sunday:    {Time: "15:30", Network: "ABC"},
				time.Monday:    {Time: "19:00", Network: "Peacock"},
				time.Tuesday:   {Time: "19:00", Network: "NBC"},
				time.Wednesday: {Time: "19:00", Network: "ESPN"},
				time.Thursday:  {Time: "19:00", Network: "Prime Video"},
				time.Friday:    {Time: "19:00", Network: "ESPN"},
			},
		}
	case models.SportNHL:
		return &Config{
			Code:          code,
			DisplayName:   "NHL Hockey",
			Default:       Slot{Time: "19:00", Network: "ESPN+"},
			PrimetimeHour: 20,
			ByDay: map[time.Weekday]Slot{
				time.Wednesday: {Time: "19:00", Network: "TNT"},
				time.Saturday:  {Time: "19:00", Network: "ABC"},
			},
		}
	case models.SportMLB:
		return &Config{
			Code:          code,
			DisplayName:   "MLB Baseball",
			Default:       Slot{Time: "19:00", Network: "MLB.TV"},
			PrimetimeHour: 20,
			ByDay: map[time.Weekday]Slot{
				time.Sunday: {Time: "13:00", Network: "MLB.TV"},
				time.Friday: {Time: "19:00", Network: "Apple TV+"},
			},
		}
	case models.SportNCAAM:
		return &Config{
			Code:          code,
			DisplayName:   "College Basketball",
			Aliases:       []string{"CBB"},
			Default:       Slot{Time: "19:00", Network: "ESPN"},
			PrimetimeHour: 21,
			ByDay: map[time.Weekday]Slot{
				time.Saturday: {Time: "14:00", Network: "CBS"},
			},
		}
	}
	return nil
}

// Slot returns the slot for a weekday, falling back to the sport default
func (c *Config) Slot(day time.Weekday) Slot {
	if slot, ok := c.ByDay[day]; ok {
		return slot
	}
	return c.Default
}

// PrimetimeLabel reports whether a kickoff hour is primetime and its label
func (c *Config) PrimetimeLabel(day time.Weekday, hour int) (string, bool) {
	if hour < c.PrimetimeHour {
		return "", false
	}
	if label, ok := c.NightLabels[day]; ok {
		return label, true
	}
	return GenericPrimetimeLabel, true
}
