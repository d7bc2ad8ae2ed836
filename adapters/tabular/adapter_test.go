package tabular_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/XavierBriggs/Augur/adapters/tabular"
	"github.com/XavierBriggs/Augur/internal/logging"
	"github.com/XavierBriggs/Augur/internal/processor"
	"github.com/XavierBriggs/Augur/internal/validation"
	"github.com/XavierBriggs/Augur/pkg/models"
	"github.com/XavierBriggs/Augur/pkg/testutil"
	"github.com/XavierBriggs/Augur/sports"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tabularJSON = `{
  "generated_at": "2025-11-01T12:00:00Z",
  "tz_anchor": "UTC",
  "headers": ["market","yyyymmdd","game_id","away_slug","away_name","home_slug","home_name",
    "spread_away","spread_home","spread_handle_away","spread_handle_home","spread_bets_away","spread_bets_home",
    "total","total_handle_over","total_handle_under","total_bets_over","total_bets_under",
    "money_away","money_home","money_handle_away","money_handle_home","money_bets_away","money_bets_home","book"],
  "books": {
    "DraftKings": {"rows": [
      ["nfl","20251102","20251102NFL00031","kansas-city-chiefs","Chiefs","buffalo-bills","Bills",
       -1.5,null,52,48,58,42,52.5,73,27,86,14,-130,110,43,57,59,41,"DraftKings"],
      ["cfb",20251108,"20251108NCAAF00001","alabama-crimson-tide","Alabama","auburn-tigers","Auburn",
       "-6.5","",55,45,61,39,"48.5",50,50,50,50,"-250","+205",70,30,66,34,"DraftKings"]
    ]},
    "Circa Sports": {"rows": [
      ["NBA","20251102","20251102NBA00001","boston-celtics","Celtics","new-york-knicks","Knicks",
       2.5,null,40,60,45,55,221.5,48,52,47,53,120,-140,35,65,41,59,"Circa"],
      ["NBA","20251102","short-row"]
    ]}
  }
}`

func decodeTabular(t *testing.T) *models.TabularPayload {
	t.Helper()
	var raw models.TabularPayload
	require.NoError(t, json.Unmarshal([]byte(tabularJSON), &raw))
	return &raw
}

func TestBookCode(t *testing.T) {
	assert.Equal(t, "DK", tabular.BookCode("DraftKings"))
	assert.Equal(t, tabular.DefaultBook, tabular.BookCode("Circa Sports"))
	assert.Equal(t, tabular.DefaultBook, tabular.BookCode("FanDuel"))
	assert.Equal(t, tabular.DefaultBook, tabular.BookCode("draftkings"))
}

func TestAdapt_GroupsBySportAndDate(t *testing.T) {
	out, err := tabular.NewAdapter(logging.Nop()).Adapt(decodeTabular(t))
	require.NoError(t, err)

	assert.Equal(t, "2025-11-01T12:00:00Z", out.GeneratedAt)
	assert.Equal(t, "UTC", out.TZAnchor)
	require.Contains(t, out.Books, "DK")
	require.Contains(t, out.Books, "CIRCA")

	assert.Len(t, out.Books["DK"]["NFL"]["20251102"], 1)
	assert.Len(t, out.Books["DK"]["CFB"]["20251108"], 1)

	// short row is dropped, the valid one kept
	assert.Len(t, out.Books["CIRCA"]["NBA"]["20251102"], 1)
}

func TestAdapt_RowsPassValidation(t *testing.T) {
	out, err := tabular.NewAdapter(logging.Nop()).Adapt(decodeTabular(t))
	require.NoError(t, err)

	row, err := validation.Validate(out.Books["DK"]["NFL"]["20251102"][0])
	require.NoError(t, err)

	assert.Equal(t, "20251102NFL00031", row.ID)
	assert.Equal(t, "DK", row.Book)
	assert.Equal(t, "NFL", row.Sport)
	assert.Equal(t, -1.5, *row.Spread.AwayLine)
	assert.Nil(t, row.Spread.Home)
	assert.Equal(t, models.Pair{58, 42}, row.Spread.Tickets)
	assert.Equal(t, models.Pair{52, 48}, row.Spread.Handle)
	assert.Equal(t, models.Pair{86, 14}, row.Total.Tickets)
	assert.Equal(t, models.Pair{73, 27}, row.Total.Handle)
	assert.Equal(t, models.Pair{59, 41}, row.Moneyline.Tickets)
	assert.Equal(t, models.Pair{43, 57}, row.Moneyline.Handle)

	college, err := validation.Validate(out.Books["DK"]["CFB"]["20251108"][0])
	require.NoError(t, err)
	assert.Equal(t, "20251108", college.Date)
	assert.Equal(t, -6.5, *college.Spread.AwayLine)
	assert.Nil(t, college.Spread.Home)
	assert.Equal(t, 205.0, *college.Moneyline.Home)
}

func TestAdapt_InvalidPayload(t *testing.T) {
	a := tabular.NewAdapter(logging.Nop())

	for _, raw := range []*models.TabularPayload{
		nil,
		{Books: map[string]models.TabularBook{}},
		{GeneratedAt: "x"},
	} {
		_, err := a.Adapt(raw)
		assert.True(t, errors.Is(err, models.ErrInvalidPayload))
	}
}

func TestAdapt_WarnsOnHeaderDrift(t *testing.T) {
	log, hook := test.NewNullLogger()
	raw := decodeTabular(t)
	raw.Headers[0], raw.Headers[1] = raw.Headers[1], raw.Headers[0]

	_, err := tabular.NewAdapter(log.WithField("component", "tabular")).Adapt(raw)
	require.NoError(t, err)

	found := false
	for _, e := range hook.AllEntries() {
		if e.Message == "upstream headers differ from the positional contract" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestDecodeRow_Errors(t *testing.T) {
	short := make([]json.RawMessage, tabular.Columns-1)
	_, err := tabular.DecodeRow(short)
	assert.True(t, errors.Is(err, models.ErrMalformedRow))

	cells := make([]json.RawMessage, tabular.Columns)
	for i := range cells {
		cells[i] = json.RawMessage(`null`)
	}
	cells[7] = json.RawMessage(`"minus three"`)
	_, err = tabular.DecodeRow(cells)
	assert.True(t, errors.Is(err, models.ErrMalformedRow))

	cells[7] = json.RawMessage(`true`)
	_, err = tabular.DecodeRow(cells)
	assert.Error(t, err)
}

// Adapting then processing yields the same games as the equivalent nested payload
func TestAdapt_RoundTripMatchesNested(t *testing.T) {
	tables, err := sports.DefaultTables()
	require.NoError(t, err)
	log, _ := test.NewNullLogger()

	p, err := processor.Assemble(processor.Options{
		Tables: tables,
		Now:    testutil.FixedClock(testutil.BeforeE2EKickoff),
		Logger: log,
	})
	require.NoError(t, err)

	adapted, err := tabular.NewAdapter(logging.Nop()).Adapt(decodeTabular(t))
	require.NoError(t, err)
	fromTabular, _, err := p.ProcessPayload(adapted)
	require.NoError(t, err)

	nfl := testutil.NewTestRow("20251102NFL00031", "20251102", "kansas-city-chiefs", "buffalo-bills", "NFL")
	cfb := testutil.NewTestRow("20251108NCAAF00001", "20251108", "alabama-crimson-tide", "auburn-tigers", "CFB")
	nba := testutil.NewTestRow("20251102NBA00001", "20251102", "boston-celtics", "new-york-knicks", "NBA")

	nested := testutil.NewPayload("DK", nfl, cfb)
	nested.Books["CIRCA"] = testutil.NewPayload("CIRCA", nba).Books["CIRCA"]
	fromNested, _, err := p.ProcessPayload(nested)
	require.NoError(t, err)

	gameIDs := func(records []models.GameOddsRecord) []string {
		out := make([]string, len(records))
		for i, r := range records {
			out[i] = r.GameID
		}
		return out
	}

	require.Len(t, fromTabular, 3)
	assert.Equal(t, gameIDs(fromNested), gameIDs(fromTabular))
	assert.Equal(t, []string{"20251102NFL00031", "20251102NBA00001", "20251108NCAAF00001"}, gameIDs(fromTabular))
}
