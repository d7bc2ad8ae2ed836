package kickoff

import (
	"fmt"
	"time"

	"github.com/XavierBriggs/Augur/pkg/models"
	"github.com/sirupsen/logrus"
)

const (
	// DefaultGrace keeps in-progress and recently finished games on the board
	DefaultGrace = 4 * time.Hour

	DateLayout = "20060102"
	TimeLayout = "15:04"

	// TimestampLayout is the display form of a kickoff, always UTC
	TimestampLayout = "2006-01-02T15:04:00Z"
)

// ParseDate parses an 8-digit YYYYMMDD date as a UTC calendar day
func ParseDate(dateStr string) (time.Time, error) {
	if len(dateStr) != 8 {
		return time.Time{}, fmt.Errorf("%w: %q is not 8 digits", models.ErrInvalidDate, dateStr)
	}
	for i := 0; i < len(dateStr); i++ {
		if dateStr[i] < '0' || dateStr[i] > '9' {
			return time.Time{}, fmt.Errorf("%w: %q is not 8 digits", models.ErrInvalidDate, dateStr)
		}
	}

	day, err := time.ParseInLocation(DateLayout, dateStr, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", models.ErrInvalidDate, err)
	}
	return day, nil
}

// ToTimestamp combines an 8-digit date and an HH:MM time into a UTC instant
func ToTimestamp(dateStr, hhmm string) (time.Time, error) {
	day, err := ParseDate(dateStr)
	if err != nil {
		return time.Time{}, err
	}

	clock, err := time.ParseInLocation(TimeLayout, hhmm, time.UTC)
	if err != nil || len(hhmm) != len(TimeLayout) {
		return time.Time{}, fmt.Errorf("%w: bad time %q", models.ErrInvalidDate, hhmm)
	}

	return day.Add(time.Duration(clock.Hour())*time.Hour + time.Duration(clock.Minute())*time.Minute), nil
}

// Format renders a kickoff as YYYY-MM-DDTHH:MM:00Z
func Format(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// Filter decides whether a game is still worth showing
type Filter struct {
	Grace  time.Duration
	Now    func() time.Time
	logger *logrus.Entry
}

// NewFilter creates a filter. A zero grace uses DefaultGrace; a nil clock uses time.Now.
func NewFilter(grace time.Duration, now func() time.Time, logger *logrus.Entry) *Filter {
	if grace <= 0 {
		grace = DefaultGrace
	}
	if now == nil {
		now = time.Now
	}
	return &Filter{Grace: grace, Now: now, logger: logger}
}

// IsFuture reports whether the game has not yet passed kickoff plus the grace
// buffer. Malformed dates or times are never future.
func (f *Filter) IsFuture(dateStr, hhmm string) bool {
	kickoff, err := ToTimestamp(dateStr, hhmm)
	if err != nil {
		f.logger.WithFields(logrus.Fields{
			"date": dateStr,
			"time": hhmm,
		}).WithError(err).Warn("excluding game with invalid kickoff")
		return false
	}
	return f.IsLive(kickoff)
}

// IsLive reports whether kickoff plus grace is still ahead of now
func (f *Filter) IsLive(kickoff time.Time) bool {
	return kickoff.Add(f.Grace).After(f.Now())
}
