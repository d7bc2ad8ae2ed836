// Package tabular converts the flat-row upstream export into the nested
// book -> sport -> date payload the processor consumes.
//
// Columns are bound by position only. The 25-column order below must match
// the upstream export exactly; a reordered export decodes into wrong fields.
package tabular

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/XavierBriggs/Augur/pkg/models"
	"github.com/sirupsen/logrus"
)

// Columns is the fixed width of an upstream row
const Columns = 25

// Positional column contract
const (
	colMarket = iota
	colDate
	colGameID
	colAwaySlug
	colAwayName
	colHomeSlug
	colHomeName
	colSpreadAway
	colSpreadHome
	colSpreadHandleAway
	colSpreadHandleHome
	colSpreadBetsAway
	colSpreadBetsHome
	colTotal
	colTotalHandleOver
	colTotalHandleUnder
	colTotalBetsOver
	colTotalBetsUnder
	colMoneyAway
	colMoneyHome
	colMoneyHandleAway
	colMoneyHandleHome
	colMoneyBetsAway
	colMoneyBetsHome
	colBook
)

// Headers is the expected header row, in column order
var Headers = [Columns]string{
	"market", "yyyymmdd", "game_id", "away_slug", "away_name", "home_slug", "home_name",
	"spread_away", "spread_home", "spread_handle_away", "spread_handle_home", "spread_bets_away", "spread_bets_home",
	"total", "total_handle_over", "total_handle_under", "total_bets_over", "total_bets_under",
	"money_away", "money_home", "money_handle_away", "money_handle_home", "money_bets_away", "money_bets_home",
	"book",
}

// DefaultBook is the code for any upstream book that is not DraftKings
const DefaultBook = "CIRCA"

var bookCodes = map[string]string{
	"DraftKings": "DK",
}

// BookCode maps an upstream book display name to an internal code
func BookCode(name string) string {
	if code, ok := bookCodes[name]; ok {
		return code
	}
	return DefaultBook
}

// Adapter converts tabular payloads
type Adapter struct {
	logger *logrus.Entry
}

// NewAdapter creates a tabular adapter
func NewAdapter(logger *logrus.Entry) *Adapter {
	return &Adapter{logger: logger}
}

// Adapt converts a tabular payload to the nested format. Rows that are too
// short or carry undecodable cells are skipped and logged.
func (a *Adapter) Adapt(raw *models.TabularPayload) (*models.Payload, error) {
	if err := raw.Validate(); err != nil {
		return nil, err
	}

	if len(raw.Headers) > 0 && !headersMatch(raw.Headers) {
		a.logger.WithField("headers", raw.Headers).Warn("upstream headers differ from the positional contract")
	}

	out := &models.Payload{
		GeneratedAt: raw.GeneratedAt,
		TZAnchor:    raw.TZAnchor,
		Books:       make(map[string]map[string]map[string][]json.RawMessage),
	}

	// several upstream names can share a code; sorted so merged buckets are stable
	names := make([]string, 0, len(raw.Books))
	for name := range raw.Books {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		book := raw.Books[name]
		code := BookCode(name)

		for i, cells := range book.Rows {
			row, err := DecodeRow(cells)
			if err != nil {
				a.logger.WithFields(logrus.Fields{
					"book":  name,
					"index": i,
				}).WithError(err).Warn("skipping tabular row")
				continue
			}
			row.Book = code

			data, err := json.Marshal(row)
			if err != nil {
				return nil, fmt.Errorf("encode row %s: %w", row.ID, err)
			}

			sportsData := out.Books[code]
			if sportsData == nil {
				sportsData = make(map[string]map[string][]json.RawMessage)
				out.Books[code] = sportsData
			}
			dates := sportsData[row.Sport]
			if dates == nil {
				dates = make(map[string][]json.RawMessage)
				sportsData[row.Sport] = dates
			}
			dates[row.Date] = append(dates[row.Date], data)
		}
	}

	return out, nil
}

// DecodeRow destructures one positional row into a RawGameRow. The book
// column is carried as-is; Adapt replaces it with the mapped code.
func DecodeRow(cells []json.RawMessage) (models.RawGameRow, error) {
	if len(cells) < Columns {
		return models.RawGameRow{}, fmt.Errorf("%w: row has %d columns, want %d", models.ErrMalformedRow, len(cells), Columns)
	}

	d := decoder{cells: cells}

	row := models.RawGameRow{
		Sport: strings.ToUpper(strings.TrimSpace(d.str(colMarket))),
		Date:  d.str(colDate),
		ID:    d.str(colGameID),
		Away:  d.str(colAwaySlug),
		Home:  d.str(colHomeSlug),
		Book:  d.str(colBook),
		Spread: models.SpreadTuple{
			AwayLine: d.num(colSpreadAway),
			Home:     d.num(colSpreadHome),
			Tickets:  d.pair(colSpreadBetsAway, colSpreadBetsHome),
			Handle:   d.pair(colSpreadHandleAway, colSpreadHandleHome),
		},
		Total: models.TotalTuple{
			Line:    d.num(colTotal),
			Tickets: d.pair(colTotalBetsOver, colTotalBetsUnder),
			Handle:  d.pair(colTotalHandleOver, colTotalHandleUnder),
		},
		Moneyline: models.MoneylineTuple{
			Away:    d.num(colMoneyAway),
			Home:    d.num(colMoneyHome),
			Tickets: d.pair(colMoneyBetsAway, colMoneyBetsHome),
			Handle:  d.pair(colMoneyHandleAway, colMoneyHandleHome),
		},
	}

	if d.err != nil {
		return models.RawGameRow{}, d.err
	}
	return row, nil
}

// decoder reads cells that may be strings, numbers or null, keeping the first error
type decoder struct {
	cells []json.RawMessage
	err   error
}

func (d *decoder) fail(col int, format string, args ...any) {
	if d.err == nil {
		d.err = fmt.Errorf("%w: column %s: %s", models.ErrMalformedRow, Headers[col], fmt.Sprintf(format, args...))
	}
}

func (d *decoder) str(col int) string {
	raw := d.cells[col]
	if isNull(raw) {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}

	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}

	d.fail(col, "not a string")
	return ""
}

func (d *decoder) num(col int) *float64 {
	raw := d.cells[col]
	if isNull(raw) {
		return nil
	}

	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return &f
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		s = strings.TrimSpace(s)
		if s == "" {
			return nil
		}
		if v, err := strconv.ParseFloat(strings.TrimPrefix(s, "+"), 64); err == nil {
			return &v
		}
	}

	d.fail(col, "not a number: %s", string(raw))
	return nil
}

// pair treats missing percentages as zero
func (d *decoder) pair(first, second int) models.Pair {
	var p models.Pair
	if v := d.num(first); v != nil {
		p[0] = *v
	}
	if v := d.num(second); v != nil {
		p[1] = *v
	}
	return p
}

func isNull(raw json.RawMessage) bool {
	s := strings.TrimSpace(string(raw))
	return s == "" || s == "null"
}

func headersMatch(headers []string) bool {
	if len(headers) != Columns {
		return false
	}
	for i, h := range headers {
		if !strings.EqualFold(strings.TrimSpace(h), Headers[i]) {
			return false
		}
	}
	return true
}
