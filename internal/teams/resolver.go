package teams

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/XavierBriggs/Augur/pkg/models"
	"github.com/XavierBriggs/Augur/sports"
	"github.com/sirupsen/logrus"
)

// Resolver maps feed slugs to team identities
type Resolver struct {
	tables  *sports.Tables
	ledger  *MissLedger
	matcher *FuzzyMatcher
	logger  *logrus.Entry
}

// NewResolver creates a resolver over the given tables. Misses are recorded in ledger.
func NewResolver(tables *sports.Tables, ledger *MissLedger, logger *logrus.Entry) *Resolver {
	if ledger == nil {
		ledger = NewMissLedger()
	}
	return &Resolver{
		tables: tables,
		ledger: ledger,
		logger: logger,
	}
}

// WithMatcher attaches a fuzzy matcher whose suggestions are logged on misses.
// Suggestions never replace the returned identity.
func (r *Resolver) WithMatcher(m *FuzzyMatcher) *Resolver {
	r.matcher = m
	return r
}

// Ledger returns the miss ledger the resolver records into
func (r *Resolver) Ledger() *MissLedger {
	return r.ledger
}

// Resolve returns the table entry for slug, or a generated fallback identity.
// It always returns a non-empty name and abbr.
func (r *Resolver) Resolve(slug string, sport models.SportCode) models.TeamIdentity {
	code, ok := models.NormalizeSport(string(sport))
	if ok {
		if set, found := r.tables.For(code); found {
			if team, hit := set.Teams[slug]; hit {
				return team
			}
		}
	} else {
		code = sport
	}

	r.ledger.Record(code, slug)

	fields := logrus.Fields{"slug": slug, "sport": code}
	if r.matcher != nil {
		if match, found := r.matcher.Suggest(slug, code); found {
			fields["suggested_slug"] = match.Slug
			fields["confidence"] = match.Confidence
			fields["method"] = match.Method
		}
	}
	r.logger.WithFields(fields).Warn("unmapped team slug, using fallback")

	return Fallback(slug)
}

// Fallback generates an identity from a hyphenated slug:
// "some-unknown-team" -> {Some Unknown Team, SUT, some-unknown-team, Some Unknown Team}
func Fallback(slug string) models.TeamIdentity {
	tokens := strings.FieldsFunc(slug, func(r rune) bool { return r == '-' })
	if len(tokens) == 0 {
		return models.TeamIdentity{
			Name:     "TBD",
			Abbr:     "TBD",
			ESPNAbbr: slug,
			FullName: "TBD",
		}
	}

	titled := make([]string, len(tokens))
	for i, tok := range tokens {
		titled[i] = titleCase(tok)
	}
	name := strings.Join(titled, " ")

	var abbr string
	if len(tokens) == 1 {
		abbr = strings.ToUpper(firstRunes(tokens[0], 4))
	} else {
		var b strings.Builder
		for i, tok := range tokens {
			if i == 3 {
				break
			}
			r, _ := utf8.DecodeRuneInString(tok)
			b.WriteRune(unicode.ToUpper(r))
		}
		abbr = b.String()
	}
	abbr = firstRunes(abbr, 4)

	return models.TeamIdentity{
		Name:     name,
		Abbr:     abbr,
		ESPNAbbr: slug,
		FullName: name,
	}
}

func titleCase(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + s[size:]
}

func firstRunes(s string, n int) string {
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
