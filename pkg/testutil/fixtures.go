package testutil

import (
	"encoding/json"
	"time"

	"github.com/XavierBriggs/Augur/pkg/models"
)

// E2ERowJSON is the KC @ BUF row used across pipeline tests
const E2ERowJSON = `{"id":"20251102NFL00031","d":"20251102","a":"kansas-city-chiefs","h":"buffalo-bills",` +
	`"spr":[-1.5,null,[58,42],[52,48]],"tot":[52.5,[86,14],[73,27]],"ml":[-130,110,[59,41],[43,57]],"b":"DK","s":"NFL"}`

// BeforeE2EKickoff is a clock well before the E2E game
var BeforeE2EKickoff = time.Date(2025, 11, 1, 12, 0, 0, 0, time.UTC)

// FixedClock returns a clock frozen at t
func FixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

// NewTestRow creates a row with every market offered and 50/50 splits
func NewTestRow(id, date, away, home, sport string) models.RawGameRow {
	even := models.Pair{50, 50}
	return models.RawGameRow{
		ID:    id,
		Date:  date,
		Away:  away,
		Home:  home,
		Book:  "DK",
		Sport: sport,
		Spread: models.SpreadTuple{
			AwayLine: models.Float64Ptr(-3.5),
			Tickets:  even,
			Handle:   even,
		},
		Total: models.TotalTuple{
			Line:    models.Float64Ptr(44.5),
			Tickets: even,
			Handle:  even,
		},
		Moneyline: models.MoneylineTuple{
			Away:    models.Float64Ptr(-165),
			Home:    models.Float64Ptr(140),
			Tickets: even,
			Handle:  even,
		},
	}
}

// NewEmptyMarketsRow creates a row where no market is offered
func NewEmptyMarketsRow(id, date, away, home, sport string) models.RawGameRow {
	return models.RawGameRow{
		ID:    id,
		Date:  date,
		Away:  away,
		Home:  home,
		Book:  "DK",
		Sport: sport,
	}
}

// RawRows marshals rows into the compact feed form
func RawRows(rows ...models.RawGameRow) []json.RawMessage {
	out := make([]json.RawMessage, 0, len(rows))
	for _, r := range rows {
		data, err := json.Marshal(r)
		if err != nil {
			panic(err)
		}
		out = append(out, data)
	}
	return out
}

// NewPayload wraps rows into a single-book payload, bucketed by sport and date
func NewPayload(book string, rows ...models.RawGameRow) *models.Payload {
	sports := make(map[string]map[string][]json.RawMessage)
	for _, r := range rows {
		if sports[r.Sport] == nil {
			sports[r.Sport] = make(map[string][]json.RawMessage)
		}
		sports[r.Sport][r.Date] = append(sports[r.Sport][r.Date], RawRows(r)...)
	}

	return &models.Payload{
		GeneratedAt: "2025-11-01T12:00:00Z",
		TZAnchor:    "UTC",
		Books: map[string]map[string]map[string][]json.RawMessage{
			book: sports,
		},
	}
}

// E2EPayload is a DK payload carrying only the E2E row
func E2EPayload() *models.Payload {
	return &models.Payload{
		GeneratedAt: "2025-11-01T12:00:00Z",
		Books: map[string]map[string]map[string][]json.RawMessage{
			"DK": {
				"NFL": {
					"20251102": {json.RawMessage(E2ERowJSON)},
				},
			},
		},
	}
}

// E2ETabularRowJSON is the E2E game in the 25-column flat export
const E2ETabularRowJSON = `["nfl","20251102","20251102NFL00031","kansas-city-chiefs","Chiefs","buffalo-bills","Bills",` +
	`-1.5,null,52,48,58,42,52.5,73,27,86,14,-130,110,43,57,59,41,"DraftKings"]`

// E2ETabularPayload is a DraftKings flat export carrying only the E2E row
func E2ETabularPayload() *models.TabularPayload {
	var row []json.RawMessage
	if err := json.Unmarshal([]byte(E2ETabularRowJSON), &row); err != nil {
		panic(err)
	}
	return &models.TabularPayload{
		GeneratedAt: "2025-11-01T12:00:00Z",
		Books: map[string]models.TabularBook{
			"DraftKings": {Rows: [][]json.RawMessage{row}},
		},
	}
}
