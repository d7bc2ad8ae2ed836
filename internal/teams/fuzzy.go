package teams

import (
	"sort"
	"strings"
	"unicode"

	"github.com/XavierBriggs/Augur/pkg/models"
	"github.com/XavierBriggs/Augur/sports"
	"github.com/agnivade/levenshtein"
)

// DefaultMinConfidence is the lowest score Suggest will return
const DefaultMinConfidence = 0.6

// MatchMethod tags how a suggestion was scored
type MatchMethod string

const (
	MethodExact       MatchMethod = "exact"
	MethodLevenshtein MatchMethod = "levenshtein"
	MethodSubstring   MatchMethod = "substring"
	MethodKeyword     MatchMethod = "keyword"
)

// Match is a suggested table entry for an unmapped slug
type Match struct {
	Slug       string              `json:"slug"`
	Team       models.TeamIdentity `json:"team"`
	Confidence float64             `json:"confidence"`
	Method     MatchMethod         `json:"method"`
}

// FuzzyMatcher proposes table entries for near-miss slugs. It is a diagnostic
// for tooling and never substitutes an identity on its own.
type FuzzyMatcher struct {
	tables        *sports.Tables
	MinConfidence float64
}

// NewFuzzyMatcher creates a matcher with the default threshold
func NewFuzzyMatcher(tables *sports.Tables) *FuzzyMatcher {
	return &FuzzyMatcher{tables: tables, MinConfidence: DefaultMinConfidence}
}

// Suggest returns the best-scoring entry for slug if it clears MinConfidence
func (m *FuzzyMatcher) Suggest(slug string, sport models.SportCode) (Match, bool) {
	code, ok := models.NormalizeSport(string(sport))
	if !ok {
		return Match{}, false
	}
	set, ok := m.tables.For(code)
	if !ok {
		return Match{}, false
	}

	query := normalize(slug)
	if query == "" {
		return Match{}, false
	}

	// sorted so ties resolve the same way every time
	slugs := make([]string, 0, len(set.Teams))
	for s := range set.Teams {
		slugs = append(slugs, s)
	}
	sort.Strings(slugs)

	var best Match
	for _, candidate := range slugs {
		team := set.Teams[candidate]
		for _, name := range []string{candidate, team.FullName, team.Name} {
			s, method := score(query, normalize(name))
			if s > best.Confidence {
				best = Match{Slug: candidate, Team: team, Confidence: s, Method: method}
			}
		}
	}

	if best.Confidence < m.MinConfidence {
		return Match{}, false
	}
	return best, true
}

func score(query, target string) (float64, MatchMethod) {
	if target == "" {
		return 0, MethodLevenshtein
	}
	if query == target {
		return 1, MethodExact
	}

	best, method := levenshteinSimilarity(query, target), MethodLevenshtein

	if s := substringScore(query, target); s > best {
		best, method = s, MethodSubstring
	}
	if s := keywordOverlap(query, target); s > best {
		best, method = s, MethodKeyword
	}
	return best, method
}

func levenshteinSimilarity(a, b string) float64 {
	longest := len([]rune(a))
	if n := len([]rune(b)); n > longest {
		longest = n
	}
	if longest == 0 {
		return 0
	}
	dist := levenshtein.ComputeDistance(a, b)
	return 1 - float64(dist)/float64(longest)
}

// substringScore rewards containment, scaled by how much of the longer string is covered
func substringScore(a, b string) float64 {
	shorter, longer := a, b
	if len(shorter) > len(longer) {
		shorter, longer = longer, shorter
	}
	if len(shorter) < 3 || !strings.Contains(longer, shorter) {
		return 0
	}
	return 0.6 + 0.4*float64(len(shorter))/float64(len(longer))
}

// keywordOverlap is shared tokens over the larger token count
func keywordOverlap(a, b string) float64 {
	ta, tb := strings.Fields(a), strings.Fields(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}

	seen := make(map[string]bool, len(tb))
	for _, t := range tb {
		seen[t] = true
	}

	shared := 0
	for _, t := range ta {
		if seen[t] {
			shared++
			seen[t] = false
		}
	}

	larger := len(ta)
	if len(tb) > larger {
		larger = len(tb)
	}
	return float64(shared) / float64(larger)
}

// normalize lower-cases and turns separators and punctuation into single spaces
func normalize(s string) string {
	mapped := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return unicode.ToLower(r)
		}
		return ' '
	}, s)
	return strings.Join(strings.Fields(mapped), " ")
}
