package teams_test

import (
	"testing"
	"time"

	"github.com/XavierBriggs/Augur/internal/logging"
	"github.com/XavierBriggs/Augur/internal/teams"
	"github.com/XavierBriggs/Augur/pkg/models"
	"github.com/XavierBriggs/Augur/sports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadTables(t *testing.T) *sports.Tables {
	t.Helper()
	tables, err := sports.DefaultTables()
	require.NoError(t, err)
	return tables
}

func TestResolve_TableHit(t *testing.T) {
	ledger := teams.NewMissLedger()
	r := teams.NewResolver(loadTables(t), ledger, logging.Nop())

	got := r.Resolve("kansas-city-chiefs", models.SportNFL)

	assert.Equal(t, models.TeamIdentity{
		Name:     "Chiefs",
		Abbr:     "KC",
		ESPNAbbr: "kc",
		FullName: "Kansas City Chiefs",
	}, got)
	assert.Equal(t, 0, ledger.Len(), "table hits must not touch the ledger")
}

func TestResolve_FallbackIsDeterministic(t *testing.T) {
	r := teams.NewResolver(loadTables(t), teams.NewMissLedger(), logging.Nop())

	want := models.TeamIdentity{
		Name:     "Some Unknown Team",
		Abbr:     "SUT",
		ESPNAbbr: "some-unknown-team",
		FullName: "Some Unknown Team",
	}

	for i := 0; i < 3; i++ {
		assert.Equal(t, want, r.Resolve("some-unknown-team", models.SportNFL))
	}
}

func TestResolve_CollegeAliases(t *testing.T) {
	r := teams.NewResolver(loadTables(t), teams.NewMissLedger(), logging.Nop())

	viaNew := r.Resolve("alabama-crimson-tide", models.SportNCAAF)
	viaAlias := r.Resolve("alabama-crimson-tide", models.SportCode("CFB"))

	assert.Equal(t, viaNew, viaAlias)
	assert.Equal(t, "ALA", viaAlias.Abbr)
	assert.Equal(t, "333", viaAlias.LogoSlug)
}

func TestResolve_AlwaysNonEmpty(t *testing.T) {
	r := teams.NewResolver(loadTables(t), teams.NewMissLedger(), logging.Nop())

	slugs := []string{"", "-", "x", "buffalo-bills", "a--b", "los-angeles-xyz-team-name", "ÉLAN-city"}
	codes := []models.SportCode{models.SportNFL, models.SportNBA, models.SportNHL, models.SportMLB, "CFB", "CBB", "XFL"}

	for _, code := range codes {
		for _, slug := range slugs {
			got := r.Resolve(slug, code)
			assert.NotEmpty(t, got.Name, "name for %q/%s", slug, code)
			assert.NotEmpty(t, got.Abbr, "abbr for %q/%s", slug, code)
			assert.LessOrEqual(t, len([]rune(got.Abbr)), 4)
		}
	}
}

func TestResolve_RecordsMisses(t *testing.T) {
	clock := time.Date(2025, 11, 2, 12, 0, 0, 0, time.UTC)
	ledger := teams.NewMissLedger().WithClock(func() time.Time { return clock })
	r := teams.NewResolver(loadTables(t), ledger, logging.Nop()).
		WithMatcher(teams.NewFuzzyMatcher(loadTables(t)))

	r.Resolve("kansas-city-cheifs", models.SportNFL)
	clock = clock.Add(time.Minute)
	r.Resolve("kansas-city-cheifs", models.SportNFL)
	r.Resolve("mystery-u", models.SportCode("CBB"))

	misses := ledger.Snapshot()
	require.Len(t, misses, 2)

	assert.Equal(t, "NFL:kansas-city-cheifs", misses[0].Key())
	assert.Equal(t, 2, misses[0].Count)
	assert.Equal(t, time.Date(2025, 11, 2, 12, 0, 0, 0, time.UTC), misses[0].FirstSeen)
	assert.Equal(t, time.Date(2025, 11, 2, 12, 1, 0, 0, time.UTC), misses[0].LastSeen)

	// aliases are recorded under the normalized code
	assert.Equal(t, "NCAAM:mystery-u", misses[1].Key())
	assert.Equal(t, 1, misses[1].Count)
}

func TestFallback(t *testing.T) {
	tests := []struct {
		slug string
		name string
		abbr string
	}{
		{"some-unknown-team", "Some Unknown Team", "SUT"},
		{"celtics", "Celtics", "CELT"},
		{"ab", "Ab", "AB"},
		{"north-dakota-state-bison", "North Dakota State Bison", "NDS"},
		{"a--b", "A B", "AB"},
		{"", "TBD", "TBD"},
	}

	for _, tt := range tests {
		t.Run(tt.slug, func(t *testing.T) {
			got := teams.Fallback(tt.slug)
			assert.Equal(t, tt.name, got.Name)
			assert.Equal(t, tt.name, got.FullName)
			assert.Equal(t, tt.abbr, got.Abbr)
			assert.Equal(t, tt.slug, got.ESPNAbbr)
		})
	}
}

func TestColors(t *testing.T) {
	c := teams.NewColorResolver(loadTables(t), logging.Nop())

	chiefs := c.Colors("Kansas City Chiefs", models.SportNFL)
	assert.Equal(t, "#E31837", chiefs.Primary)

	// lookup is by full name, never by slug
	assert.Equal(t, teams.FallbackPalette, c.Colors("kansas-city-chiefs", models.SportNFL))
	assert.Equal(t, teams.FallbackPalette, c.Colors("Some Unknown Team", models.SportNFL))
	assert.Equal(t, teams.FallbackPalette, c.Colors("Kansas City Chiefs", models.SportCode("XFL")))

	assert.Equal(t,
		c.Colors("Alabama Crimson Tide", models.SportNCAAF),
		c.Colors("Alabama Crimson Tide", models.SportCode("CFB")))
}

func TestColors_InjectedTables(t *testing.T) {
	tables := sports.NewTables()
	tables.Set(models.SportNBA, sports.TableSet{
		Teams: sports.TeamTable{},
		Colors: sports.ColorTable{
			"Test Team": {Primary: "#111111", Secondary: "#222222", Tertiary: "#333333"},
		},
	})

	c := teams.NewColorResolver(tables, logging.Nop())
	assert.Equal(t, "#222222", c.Colors("Test Team", models.SportNBA).Secondary)
	assert.Equal(t, teams.FallbackPalette, c.Colors("Test Team", models.SportNHL))
}
