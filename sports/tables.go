package sports

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"time"

	"github.com/XavierBriggs/Augur/pkg/models"
	"gopkg.in/yaml.v3"
)

//go:embed data
var embedded embed.FS

// overrideTimeLayout is the kickoff format of an override entry
const overrideTimeLayout = "15:04"

// TeamTable maps feed slugs to team identities for one sport
type TeamTable map[string]models.TeamIdentity

// ColorTable maps full team names to palettes for one sport
type ColorTable map[string]models.TeamPalette

// TableSet is the reference data for a single sport
type TableSet struct {
	Teams  TeamTable
	Colors ColorTable
}

// Tables is the reference data for all sports plus per-game metadata overrides
type Tables struct {
	sets      map[models.SportCode]TableSet
	Overrides map[string]models.GameMetadata
}

type teamFile struct {
	Sport string      `yaml:"sport"`
	Teams []teamEntry `yaml:"teams"`
}

type teamEntry struct {
	Slug   string   `yaml:"slug"`
	Name   string   `yaml:"name"`
	Abbr   string   `yaml:"abbr"`
	ESPN   string   `yaml:"espn"`
	Full   string   `yaml:"full"`
	Logo   string   `yaml:"logo"`
	Colors []string `yaml:"colors"`
}

type overrideFile struct {
	Overrides map[string]models.GameMetadata `yaml:"overrides"`
}

// NewTables creates an empty table set
func NewTables() *Tables {
	return &Tables{
		sets:      make(map[models.SportCode]TableSet),
		Overrides: make(map[string]models.GameMetadata),
	}
}

// Set replaces the tables for a sport
func (t *Tables) Set(code models.SportCode, set TableSet) {
	t.sets[code] = set
}

// For returns the table set for a normalized sport code
func (t *Tables) For(code models.SportCode) (TableSet, bool) {
	switch code {
	case models.SportNFL, models.SportNBA, models.SportNHL, models.SportMLB, models.SportNCAAF, models.SportNCAAM:
		set, ok := t.sets[code]
		return set, ok
	}
	return TableSet{}, false
}

// Sports returns the codes that have tables loaded, in board priority order
func (t *Tables) Sports() []models.SportCode {
	codes := make([]models.SportCode, 0, len(t.sets))
	for code := range t.sets {
		codes = append(codes, code)
	}
	sort.Slice(codes, func(i, j int) bool {
		return codes[i].Priority() < codes[j].Priority()
	})
	return codes
}

// DefaultTables loads the reference data compiled into the binary
func DefaultTables() (*Tables, error) {
	sub, err := fs.Sub(embedded, "data")
	if err != nil {
		return nil, fmt.Errorf("open embedded tables: %w", err)
	}
	return LoadTables(sub)
}

// LoadTablesDir loads reference data from a directory laid out like the embedded data
func LoadTablesDir(dir string) (*Tables, error) {
	return LoadTables(os.DirFS(dir))
}

// LoadTables reads teams/*.yaml and an optional overrides.yaml from fsys
func LoadTables(fsys fs.FS) (*Tables, error) {
	tables := NewTables()

	files, err := fs.Glob(fsys, "teams/*.yaml")
	if err != nil {
		return nil, fmt.Errorf("list team tables: %w", err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no team tables found")
	}

	for _, name := range files {
		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}

		code, set, err := parseTeamFile(data)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", path.Base(name), err)
		}

		if _, exists := tables.sets[code]; exists {
			return nil, fmt.Errorf("sport %s defined twice", code)
		}
		tables.sets[code] = set
	}

	data, err := fs.ReadFile(fsys, "overrides.yaml")
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return tables, nil
		}
		return nil, fmt.Errorf("read overrides: %w", err)
	}

	var of overrideFile
	if err := yaml.Unmarshal(data, &of); err != nil {
		return nil, fmt.Errorf("parse overrides: %w", err)
	}
	ids := make([]string, 0, len(of.Overrides))
	for id := range of.Overrides {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		meta := of.Overrides[id]
		if _, err := time.Parse(overrideTimeLayout, meta.Time); err != nil {
			return nil, fmt.Errorf("override %s: time %q is not HH:MM", id, meta.Time)
		}
		tables.Overrides[id] = meta
	}

	return tables, nil
}

func parseTeamFile(data []byte) (models.SportCode, TableSet, error) {
	var tf teamFile
	if err := yaml.Unmarshal(data, &tf); err != nil {
		return "", TableSet{}, err
	}

	code, ok := models.NormalizeSport(tf.Sport)
	if !ok {
		return "", TableSet{}, fmt.Errorf("%w: %q", models.ErrUnknownSport, tf.Sport)
	}

	set := TableSet{
		Teams:  make(TeamTable, len(tf.Teams)),
		Colors: make(ColorTable, len(tf.Teams)),
	}

	for _, e := range tf.Teams {
		if e.Slug == "" || e.Name == "" || e.Abbr == "" || e.Full == "" {
			return "", TableSet{}, fmt.Errorf("team entry %q is missing required fields", e.Slug)
		}
		if _, dup := set.Teams[e.Slug]; dup {
			return "", TableSet{}, fmt.Errorf("duplicate slug %q", e.Slug)
		}

		espn := e.ESPN
		if espn == "" {
			espn = e.Slug
		}

		set.Teams[e.Slug] = models.TeamIdentity{
			Name:     e.Name,
			Abbr:     e.Abbr,
			ESPNAbbr: espn,
			FullName: e.Full,
			LogoSlug: e.Logo,
		}

		if len(e.Colors) == 0 {
			continue
		}
		if len(e.Colors) != 3 {
			return "", TableSet{}, fmt.Errorf("team %q needs exactly 3 colors, got %d", e.Slug, len(e.Colors))
		}
		set.Colors[e.Full] = models.TeamPalette{
			Primary:   e.Colors[0],
			Secondary: e.Colors[1],
			Tertiary:  e.Colors[2],
		}
	}

	return code, set, nil
}
