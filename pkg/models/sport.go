package models

import "strings"

// SportCode identifies a league on the board. Legacy feed aliases are
// resolved by NormalizeSport before any table lookup.
type SportCode string

const (
	SportNFL   SportCode = "NFL"
	SportNBA   SportCode = "NBA"
	SportNHL   SportCode = "NHL"
	SportMLB   SportCode = "MLB"
	SportNCAAF SportCode = "NCAAF"
	SportNCAAM SportCode = "NCAAM"
)

// AllSports lists every supported code in board priority order
func AllSports() []SportCode {
	return []SportCode{SportNFL, SportMLB, SportNCAAF, SportNBA, SportNHL, SportNCAAM}
}

// legacy feed codes
var sportAliases = map[string]SportCode{
	"CFB": SportNCAAF,
	"CBB": SportNCAAM,
}

// NormalizeSport maps a raw feed sport string to its SportCode.
// Returns false for anything outside the supported set.
func NormalizeSport(raw string) (SportCode, bool) {
	s := strings.ToUpper(strings.TrimSpace(raw))
	if alias, ok := sportAliases[s]; ok {
		return alias, true
	}

	code := SportCode(s)
	switch code {
	case SportNFL, SportNBA, SportNHL, SportMLB, SportNCAAF, SportNCAAM:
		return code, true
	}
	return "", false
}

// Priority returns the same-day board rank (lower sorts first)
func (c SportCode) Priority() int {
	switch c {
	case SportNFL:
		return 1
	case SportMLB:
		return 2
	case SportNCAAF:
		return 3
	case SportNBA:
		return 4
	case SportNHL:
		return 5
	case SportNCAAM:
		return 6
	}
	return 99
}

// IsCollege reports whether the code uses the college team tables
func (c SportCode) IsCollege() bool {
	switch c {
	case SportNCAAF, SportNCAAM:
		return true
	case SportNFL, SportNBA, SportNHL, SportMLB:
		return false
	}
	return false
}

func (c SportCode) String() string {
	return string(c)
}
