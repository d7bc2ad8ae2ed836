package insights_test

import (
	"testing"

	"github.com/XavierBriggs/Augur/internal/insights"
	"github.com/XavierBriggs/Augur/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func e2eRecord() models.GameOddsRecord {
	return models.GameOddsRecord{
		GameID: "20251102NFL00031",
		Sport:  models.SportNFL,
		Book:   "DK",
		Away:   models.TeamSide{TeamIdentity: models.TeamIdentity{Name: "Chiefs", Abbr: "KC"}},
		Home:   models.TeamSide{TeamIdentity: models.TeamIdentity{Name: "Bills", Abbr: "BUF"}},
		Odds: []models.OddsSnapshot{{
			Moneyline: &models.Moneyline{Away: models.Price{Odds: -130}, Home: models.Price{Odds: 110}},
			Spread: &models.Spread{
				Away: models.PricedLine{Line: -1.5, Odds: -110},
				Home: models.PricedLine{Line: 1.5, Odds: -110},
			},
			Total: &models.Total{
				Over:  models.PricedLine{Line: 52.5, Odds: -110},
				Under: models.PricedLine{Line: 52.5, Odds: -110},
			},
		}},
		Splits: models.Splits{
			Spread: models.SideSplits{
				Away: models.SplitSide{Tickets: 58, Handle: 52},
				Home: models.SplitSide{Tickets: 42, Handle: 48},
			},
			Total: models.TotalSplits{
				Over:  models.SplitSide{Tickets: 86, Handle: 73},
				Under: models.SplitSide{Tickets: 14, Handle: 27},
			},
			Moneyline: models.SideSplits{
				Away: models.SplitSide{Tickets: 59, Handle: 43},
				Home: models.SplitSide{Tickets: 41, Handle: 57},
			},
		},
	}
}

func TestBuildRequest_Spread(t *testing.T) {
	req, err := insights.BuildRequest(e2eRecord(), models.MarketSpread, nil)
	require.NoError(t, err)

	assert.Equal(t, "Chiefs @ Bills", req.Matchup)
	assert.Equal(t, models.MarketSpread, req.Market)
	assert.Equal(t, "KC -1.5", req.CurrentLine)
	assert.Equal(t, 58.0, *req.Tickets.Away)
	assert.Equal(t, 42.0, *req.Tickets.Home)
	assert.Equal(t, 52.0, *req.Money.Away)
	assert.Nil(t, req.Tickets.Over)
	assert.Equal(t, models.LineMove{From: "-1.5", To: "-1.5"}, req.Move)
}

func TestBuildRequest_TotalWithMove(t *testing.T) {
	from := 51.5
	move := &models.LineMovement{Market: models.MarketTotal, From: &from, To: 52.5}

	req, err := insights.BuildRequest(e2eRecord(), models.MarketTotal, move)
	require.NoError(t, err)

	assert.Equal(t, "O/U 52.5", req.CurrentLine)
	assert.Equal(t, 86.0, *req.Tickets.Over)
	assert.Equal(t, 27.0, *req.Money.Under)
	assert.Nil(t, req.Tickets.Away)
	assert.Equal(t, models.LineMove{From: "51.5", To: "52.5"}, req.Move)
}

func TestBuildRequest_Moneyline(t *testing.T) {
	from := -120.0
	move := &models.LineMovement{Market: models.MarketMoneyline, From: &from, To: -130}

	req, err := insights.BuildRequest(e2eRecord(), models.MarketMoneyline, move)
	require.NoError(t, err)

	assert.Equal(t, "KC -130 / BUF +110", req.CurrentLine)
	assert.Equal(t, models.LineMove{From: "-120", To: "-130"}, req.Move)
}

func TestBuildRequest_MarketNotOffered(t *testing.T) {
	rec := e2eRecord()
	rec.Odds[0].Moneyline = nil

	_, err := insights.BuildRequest(rec, models.MarketMoneyline, nil)
	assert.ErrorIs(t, err, insights.ErrMarketUnavailable)

	_, err = insights.BuildRequest(rec, models.Market("props"), nil)
	assert.ErrorIs(t, err, insights.ErrMarketUnavailable)
}

func TestBuildRequest_PickEm(t *testing.T) {
	rec := e2eRecord()
	rec.Odds[0].Spread.Away.Line = 0

	req, err := insights.BuildRequest(rec, models.MarketSpread, nil)
	require.NoError(t, err)
	assert.Equal(t, "KC PK", req.CurrentLine)
}

func TestFallback(t *testing.T) {
	req, err := insights.BuildRequest(e2eRecord(), models.MarketSpread, nil)
	require.NoError(t, err)

	got := insights.Fallback(req)
	assert.True(t, got.Fallback)
	assert.Equal(t, "Book needs Bills at KC -1.5.", got.BookNeed)
	assert.Equal(t, "Money leans Bills with 48% of handle on 42% of tickets.", got.SharpSide)
	assert.Equal(t, "Public is on Chiefs with 58% of tickets.", got.PublicSide)
}

func TestFallback_Total(t *testing.T) {
	req, err := insights.BuildRequest(e2eRecord(), models.MarketTotal, nil)
	require.NoError(t, err)

	got := insights.Fallback(req)
	assert.Equal(t, "Book needs UNDER at O/U 52.5.", got.BookNeed)
	assert.Equal(t, "Money leans UNDER with 27% of handle on 14% of tickets.", got.SharpSide)
	assert.Equal(t, "Public is on OVER with 86% of tickets.", got.PublicSide)
}
