package models

import "time"

// TeamIdentity is the display identity resolved from a feed slug
type TeamIdentity struct {
	Name     string `json:"name" yaml:"name"`
	Abbr     string `json:"abbr" yaml:"abbr"`
	ESPNAbbr string `json:"espnAbbr" yaml:"espn_abbr"`
	FullName string `json:"fullName" yaml:"full_name"`
	LogoSlug string `json:"logoSlug,omitempty" yaml:"logo_slug,omitempty"`
}

// TeamPalette holds hex colors for a team
type TeamPalette struct {
	Primary   string `json:"primary" yaml:"primary"`
	Secondary string `json:"secondary" yaml:"secondary"`
	Tertiary  string `json:"tertiary" yaml:"tertiary"`
}

// GameMetadata is broadcast and scheduling info for a game
type GameMetadata struct {
	Time        string `json:"time" yaml:"time"` // HH:MM, UTC
	TV          string `json:"tv" yaml:"tv"`
	Stadium     string `json:"stadium,omitempty" yaml:"stadium,omitempty"`
	Primetime   string `json:"primetime,omitempty" yaml:"primetime,omitempty"`
	SpecialLogo string `json:"specialLogo,omitempty" yaml:"special_logo,omitempty"`
}

// TeamSide is one side of a matchup with its colors
type TeamSide struct {
	TeamIdentity
	Colors TeamPalette `json:"colors"`
}

// PricedLine is a line with its American price
type PricedLine struct {
	Line float64 `json:"line"`
	Odds int     `json:"odds"`
}

// Price is a moneyline side
type Price struct {
	Odds int `json:"odds"`
}

// Moneyline market
type Moneyline struct {
	Away Price `json:"away"`
	Home Price `json:"home"`
}

// Spread market
type Spread struct {
	Away PricedLine `json:"away"`
	Home PricedLine `json:"home"`
}

// Total market
type Total struct {
	Over  PricedLine `json:"over"`
	Under PricedLine `json:"under"`
}

// OddsSnapshot is one capture of a book's markets. A nil market means the
// book does not offer it; it is never a zero-filled object.
type OddsSnapshot struct {
	Moneyline *Moneyline `json:"moneyline,omitempty"`
	Spread    *Spread    `json:"spread,omitempty"`
	Total     *Total     `json:"total,omitempty"`
}

// SplitSide is ticket and handle percentage for one side
type SplitSide struct {
	Tickets float64 `json:"tickets"`
	Handle  float64 `json:"handle"`
}

// SideSplits is away/home splits for spread and moneyline
type SideSplits struct {
	Away SplitSide `json:"away"`
	Home SplitSide `json:"home"`
}

// TotalSplits is over/under splits
type TotalSplits struct {
	Over  SplitSide `json:"over"`
	Under SplitSide `json:"under"`
}

// Splits holds ticket/handle percentages for all three markets
type Splits struct {
	Spread    SideSplits  `json:"spread"`
	Total     TotalSplits `json:"total"`
	Moneyline SideSplits  `json:"moneyline"`
}

// GameOddsRecord is the pipeline output for one game at one book
type GameOddsRecord struct {
	GameID   string         `json:"gameId"`
	Sport    SportCode      `json:"sport"`
	Kickoff  time.Time      `json:"kickoff"`
	Book     string         `json:"book"`
	Away     TeamSide       `json:"away"`
	Home     TeamSide       `json:"home"`
	Metadata *GameMetadata  `json:"metadata,omitempty"`
	Odds     []OddsSnapshot `json:"odds"`
	Splits   Splits         `json:"splits"`
}

// Matchup renders "AWAY @ HOME" using display names
func (r GameOddsRecord) Matchup() string {
	return r.Away.Name + " @ " + r.Home.Name
}

// Current returns the latest odds snapshot
func (r GameOddsRecord) Current() OddsSnapshot {
	if len(r.Odds) == 0 {
		return OddsSnapshot{}
	}
	return r.Odds[len(r.Odds)-1]
}
