package models

import "time"

// Market names a betting market on the board
type Market string

const (
	MarketSpread    Market = "spread"
	MarketMoneyline Market = "moneyline"
	MarketTotal     Market = "total"
)

// ParseMarket accepts the three board markets
func ParseMarket(s string) (Market, bool) {
	switch Market(s) {
	case MarketSpread, MarketMoneyline, MarketTotal:
		return Market(s), true
	}
	return "", false
}

// Board is the sorted output of one pipeline run
type Board struct {
	RunID       string           `json:"runId"`
	GeneratedAt string           `json:"generatedAt"`
	BuiltAt     time.Time        `json:"builtAt"`
	Count       int              `json:"count"`
	Games       []GameOddsRecord `json:"games"`
}

// Find returns the record for a game at a book. An empty book matches the first record.
func (b *Board) Find(gameID, book string) (GameOddsRecord, bool) {
	for _, g := range b.Games {
		if g.GameID == gameID && (book == "" || g.Book == book) {
			return g, true
		}
	}
	return GameOddsRecord{}, false
}

// LineMovement is a change in a market's headline number between runs
type LineMovement struct {
	GameID     string    `json:"game_id"`
	Book       string    `json:"book"`
	Sport      SportCode `json:"sport"`
	Market     Market    `json:"market"`
	From       *float64  `json:"from,omitempty"`
	To         float64   `json:"to"`
	ChangeType string    `json:"change_type"`
	DetectedAt time.Time `json:"detected_at"`
}

// SideValues carries per-side numbers for the insight payload
type SideValues struct {
	Away  *float64 `json:"away,omitempty"`
	Home  *float64 `json:"home,omitempty"`
	Over  *float64 `json:"o,omitempty"`
	Under *float64 `json:"u,omitempty"`
}

// LineMove is the from/to pair sent to the insight gateway
type LineMove struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// InsightRequest is the structured prompt payload for the AI gateway
type InsightRequest struct {
	Matchup     string     `json:"matchup"`
	Market      Market     `json:"market"`
	CurrentLine string     `json:"current_line"`
	Tickets     SideValues `json:"tickets"`
	Money       SideValues `json:"money"`
	Move        LineMove   `json:"move"`
}

// Insight is the three-sentence commentary returned by the gateway
type Insight struct {
	BookNeed   string `json:"bookNeed"`
	SharpSide  string `json:"sharpSide"`
	PublicSide string `json:"publicSide"`
	Play       string `json:"play,omitempty"`
	Fallback   bool   `json:"fallback,omitempty"`
}
