package insights

import (
	"regexp"
	"strings"
	"unicode"
)

// playPattern matches a team token with a signed number ("Chiefs -1.5", "KC +110")
// or a totals side ("OVER 52.5", "UNDER").
var playPattern = regexp.MustCompile(`\b(?:OVER|UNDER)\b(?:\s+\d+(?:\.\d+)?)?|\b[A-Z][A-Za-z0-9]*\s+[+-]\d+(?:\.\d+)?`)

// PlayExtractor pulls a play token out of free-text commentary
type PlayExtractor struct {
	Pattern *regexp.Regexp
	// PreferLast takes the play from the last matching sentence instead of the first
	PreferLast bool
}

// DefaultExtractor takes the last matching sentence
var DefaultExtractor = PlayExtractor{Pattern: playPattern, PreferLast: true}

// ExtractPlay returns the play token using DefaultExtractor, or "" when none matches
func ExtractPlay(text string) string {
	return DefaultExtractor.Extract(text)
}

// Extract returns the leading play token of the chosen matching sentence
func (e PlayExtractor) Extract(text string) string {
	pattern := e.Pattern
	if pattern == nil {
		pattern = playPattern
	}

	var play string
	for _, sentence := range sentences(text) {
		m := pattern.FindString(sentence)
		if m == "" {
			continue
		}
		play = m
		if !e.PreferLast {
			break
		}
	}
	return strings.TrimSpace(play)
}

// sentences splits on terminal punctuation followed by whitespace or end of
// text, so decimals like 52.5 stay intact.
func sentences(text string) []string {
	var out []string
	runes := []rune(text)
	start := 0

	for i, r := range runes {
		if r != '.' && r != '!' && r != '?' && r != '\n' {
			continue
		}
		if i+1 < len(runes) && !unicode.IsSpace(runes[i+1]) {
			continue
		}
		if s := strings.TrimSpace(string(runes[start : i+1])); s != "" {
			out = append(out, s)
		}
		start = i + 1
	}
	if s := strings.TrimSpace(string(runes[start:])); s != "" {
		out = append(out, s)
	}
	return out
}
