package models

import (
	"encoding/json"
	"fmt"
)

// Pair is a two-sided percentage split (away/home or over/under)
type Pair [2]float64

// IsZero reports whether both sides are zero, which the feed uses for "no split data"
func (p Pair) IsZero() bool {
	return p[0] == 0 && p[1] == 0
}

// SpreadTuple is the decoded form of the positional spr field:
// [away line, home line or away odds, tickets, handle]
type SpreadTuple struct {
	AwayLine *float64
	Home     *float64
	Tickets  Pair
	Handle   Pair
}

// TotalTuple is the decoded form of tot: [line, tickets, handle]
type TotalTuple struct {
	Line    *float64
	Tickets Pair
	Handle  Pair
}

// MoneylineTuple is the decoded form of ml: [away odds, home odds, tickets, handle]
type MoneylineTuple struct {
	Away    *float64
	Home    *float64
	Tickets Pair
	Handle  Pair
}

// RawGameRow is one game's odds and splits for one book as it arrives on the feed
type RawGameRow struct {
	ID        string
	Date      string
	Away      string
	Home      string
	Spread    SpreadTuple
	Total     TotalTuple
	Moneyline MoneylineTuple
	Book      string
	Sport     string
}

// compact wire form, keyed exactly like the upstream feed
type rawGameRowWire struct {
	ID        string `json:"id"`
	Date      string `json:"d"`
	Away      string `json:"a"`
	Home      string `json:"h"`
	Spread    [4]any `json:"spr"`
	Total     [3]any `json:"tot"`
	Moneyline [4]any `json:"ml"`
	Book      string `json:"b"`
	Sport     string `json:"s"`
}

// MarshalJSON re-emits the row in the positional feed format
func (r RawGameRow) MarshalJSON() ([]byte, error) {
	return json.Marshal(rawGameRowWire{
		ID:        r.ID,
		Date:      r.Date,
		Away:      r.Away,
		Home:      r.Home,
		Spread:    [4]any{r.Spread.AwayLine, r.Spread.Home, r.Spread.Tickets, r.Spread.Handle},
		Total:     [3]any{r.Total.Line, r.Total.Tickets, r.Total.Handle},
		Moneyline: [4]any{r.Moneyline.Away, r.Moneyline.Home, r.Moneyline.Tickets, r.Moneyline.Handle},
		Book:      r.Book,
		Sport:     r.Sport,
	})
}

// Payload is the nested feed: book -> sport -> YYYYMMDD -> rows.
// Rows stay undecoded until the validator sees them.
type Payload struct {
	GeneratedAt string                                             `json:"generated_at"`
	TZAnchor    string                                             `json:"tz_anchor,omitempty"`
	Books       map[string]map[string]map[string][]json.RawMessage `json:"books"`
}

// Validate rejects payloads whose top-level shape cannot be trusted
func (p *Payload) Validate() error {
	if p == nil {
		return fmt.Errorf("%w: empty payload", ErrInvalidPayload)
	}
	if p.GeneratedAt == "" {
		return fmt.Errorf("%w: missing generated_at", ErrInvalidPayload)
	}
	if p.Books == nil {
		return fmt.Errorf("%w: missing books", ErrInvalidPayload)
	}
	return nil
}

// TabularPayload is the flat-row upstream export consumed by the tabular adapter
type TabularPayload struct {
	GeneratedAt string                 `json:"generated_at"`
	TZAnchor    string                 `json:"tz_anchor,omitempty"`
	Headers     []string               `json:"headers"`
	Books       map[string]TabularBook `json:"books"`
}

// Validate rejects tabular payloads missing generated_at or books
func (p *TabularPayload) Validate() error {
	if p == nil || p.GeneratedAt == "" || p.Books == nil {
		return fmt.Errorf("%w: tabular payload missing generated_at or books", ErrInvalidPayload)
	}
	return nil
}

// TabularBook holds one upstream book's positional rows
type TabularBook struct {
	Rows [][]json.RawMessage `json:"rows"`
}

// Float64Ptr returns a pointer to v
func Float64Ptr(v float64) *float64 {
	return &v
}
