package insights

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/XavierBriggs/Augur/pkg/models"
)

// ErrMarketUnavailable is returned when the book does not offer the requested market
var ErrMarketUnavailable = errors.New("market not offered")

// BuildRequest derives the insight payload for one market of a record.
// A nil move reports the current headline number as both from and to.
func BuildRequest(rec models.GameOddsRecord, market models.Market, move *models.LineMovement) (models.InsightRequest, error) {
	snap := rec.Current()
	req := models.InsightRequest{
		Matchup: rec.Matchup(),
		Market:  market,
	}

	var headline float64

	switch market {
	case models.MarketSpread:
		if snap.Spread == nil {
			return req, fmt.Errorf("%w: %s %s", ErrMarketUnavailable, rec.GameID, market)
		}
		headline = snap.Spread.Away.Line
		req.CurrentLine = fmt.Sprintf("%s %s", rec.Away.Abbr, formatSigned(headline))
		req.Tickets = sides(rec.Splits.Spread.Away.Tickets, rec.Splits.Spread.Home.Tickets)
		req.Money = sides(rec.Splits.Spread.Away.Handle, rec.Splits.Spread.Home.Handle)

	case models.MarketTotal:
		if snap.Total == nil {
			return req, fmt.Errorf("%w: %s %s", ErrMarketUnavailable, rec.GameID, market)
		}
		headline = snap.Total.Over.Line
		req.CurrentLine = "O/U " + formatNumber(headline)
		req.Tickets = overUnder(rec.Splits.Total.Over.Tickets, rec.Splits.Total.Under.Tickets)
		req.Money = overUnder(rec.Splits.Total.Over.Handle, rec.Splits.Total.Under.Handle)

	case models.MarketMoneyline:
		if snap.Moneyline == nil {
			return req, fmt.Errorf("%w: %s %s", ErrMarketUnavailable, rec.GameID, market)
		}
		headline = float64(snap.Moneyline.Away.Odds)
		req.CurrentLine = fmt.Sprintf("%s %s / %s %s",
			rec.Away.Abbr, formatSigned(headline),
			rec.Home.Abbr, formatSigned(float64(snap.Moneyline.Home.Odds)))
		req.Tickets = sides(rec.Splits.Moneyline.Away.Tickets, rec.Splits.Moneyline.Home.Tickets)
		req.Money = sides(rec.Splits.Moneyline.Away.Handle, rec.Splits.Moneyline.Home.Handle)

	default:
		return req, fmt.Errorf("%w: unknown market %q", ErrMarketUnavailable, market)
	}

	format := formatSigned
	if market == models.MarketTotal {
		format = formatNumber
	}

	from, to := headline, headline
	if move != nil {
		to = move.To
		if move.From != nil {
			from = *move.From
		}
	}
	req.Move = models.LineMove{From: format(from), To: format(to)}

	return req, nil
}

func sides(away, home float64) models.SideValues {
	return models.SideValues{Away: &away, Home: &home}
}

func overUnder(over, under float64) models.SideValues {
	return models.SideValues{Over: &over, Under: &under}
}

// formatSigned renders a line or American price with an explicit sign; zero is PK
func formatSigned(v float64) string {
	if v == 0 {
		return "PK"
	}
	s := formatNumber(v)
	if v > 0 {
		return "+" + s
	}
	return s
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// splitMatchup returns the away and home names of an "AWAY @ HOME" matchup
func splitMatchup(matchup string) (string, string) {
	away, home, ok := strings.Cut(matchup, " @ ")
	if !ok {
		return "AWAY", "HOME"
	}
	return away, home
}
