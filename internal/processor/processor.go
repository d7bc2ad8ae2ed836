package processor

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/XavierBriggs/Augur/internal/kickoff"
	"github.com/XavierBriggs/Augur/internal/metadata"
	"github.com/XavierBriggs/Augur/internal/parser"
	"github.com/XavierBriggs/Augur/internal/registry"
	"github.com/XavierBriggs/Augur/internal/teams"
	"github.com/XavierBriggs/Augur/internal/validation"
	"github.com/XavierBriggs/Augur/pkg/models"
	"github.com/XavierBriggs/Augur/sports"
	"github.com/sirupsen/logrus"
)

// Stats are diagnostic counts for one batch
type Stats struct {
	Input     int `json:"input"`
	Validated int `json:"validated"`
	Future    int `json:"future"`
	Built     int `json:"built"`
	Failed    int `json:"failed"`
}

func (s *Stats) add(o Stats) {
	s.Input += o.Input
	s.Validated += o.Validated
	s.Future += o.Future
	s.Built += o.Built
	s.Failed += o.Failed
}

// Report aggregates stats across a payload
type Report struct {
	GeneratedAt   string                     `json:"generated_at"`
	Total         Stats                      `json:"total"`
	Books         map[string]Stats           `json:"books"`
	Sports        map[models.SportCode]Stats `json:"sports"`
	SkippedSports []string                   `json:"skipped_sports,omitempty"`
	Duplicates    int                        `json:"duplicates"`
}

// Processor runs validate -> filter -> build over a payload
type Processor struct {
	validator *validation.Validator
	builder   *parser.Builder
	filter    *kickoff.Filter
	registry  *registry.SportRegistry
	logger    *logrus.Entry
}

// NewProcessor creates a processor from its stages
func NewProcessor(v *validation.Validator, b *parser.Builder, f *kickoff.Filter, reg *registry.SportRegistry, logger *logrus.Entry) *Processor {
	return &Processor{
		validator: v,
		builder:   b,
		filter:    f,
		registry:  reg,
		logger:    logger,
	}
}

// Options configures Assemble
type Options struct {
	Tables   *sports.Tables
	Registry *registry.SportRegistry
	Ledger   *teams.MissLedger
	Grace    time.Duration
	Now      func() time.Time
	Logger   *logrus.Logger

	// SuggestMisses attaches a fuzzy matcher whose suggestions are logged for unmapped slugs
	SuggestMisses bool
}

// Assemble wires a processor and all of its stages from reference tables
func Assemble(opts Options) (*Processor, error) {
	if opts.Tables == nil {
		return nil, fmt.Errorf("reference tables are required")
	}
	if opts.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	reg := opts.Registry
	if reg == nil {
		reg = registry.NewSportRegistry()
		for _, m := range sports.AllModules() {
			if err := reg.Register(m); err != nil {
				return nil, fmt.Errorf("register %s: %w", m.GetSportCode(), err)
			}
		}
	}

	entry := func(name string) *logrus.Entry {
		return opts.Logger.WithField("component", name)
	}

	resolver := teams.NewResolver(opts.Tables, opts.Ledger, entry("teams"))
	if opts.SuggestMisses {
		resolver.WithMatcher(teams.NewFuzzyMatcher(opts.Tables))
	}

	builder := parser.NewBuilder(
		resolver,
		teams.NewColorResolver(opts.Tables, entry("colors")),
		metadata.NewResolver(opts.Tables.Overrides, reg, entry("metadata")),
		entry("parser"),
	)

	return NewProcessor(
		validation.NewValidator(entry("validator")),
		builder,
		kickoff.NewFilter(opts.Grace, opts.Now, entry("kickoff")),
		reg,
		entry("processor"),
	), nil
}

// ProcessBatch handles one book's rows for one sport, keyed by date. Each row is
// filtered on its own resolved kickoff. Bad rows and failed builds are skipped.
func (p *Processor) ProcessBatch(dates map[string][]json.RawMessage, book string, sport models.SportCode) ([]models.GameOddsRecord, Stats) {
	var records []models.GameOddsRecord
	var stats Stats

	for _, date := range sortedKeys(dates) {
		raws := dates[date]
		var ds Stats
		ds.Input = len(raws)

		rows, _ := p.validator.ValidateBatch(raws)
		ds.Validated = len(rows)

		for _, row := range rows {
			// the batch key is authoritative for the sport
			row.Sport = string(sport)

			meta := p.builder.Metadata(row)
			if !p.filter.IsFuture(row.Date, meta.Time) {
				continue
			}
			ds.Future++

			rec, err := p.builder.Build(row, book)
			if err != nil {
				ds.Failed++
				p.logger.WithFields(logrus.Fields{
					"game_id": row.ID,
					"book":    book,
					"sport":   sport,
				}).WithError(err).Error("skipping game")
				continue
			}

			records = append(records, rec)
			ds.Built++
		}

		p.logger.WithFields(logrus.Fields{
			"book":      book,
			"sport":     sport,
			"date":      date,
			"input":     ds.Input,
			"validated": ds.Validated,
			"future":    ds.Future,
			"built":     ds.Built,
		}).Debug("processed date batch")

		stats.add(ds)
	}

	return records, stats
}

// ProcessPayload runs the whole pipeline over a payload and returns sorted,
// de-duplicated records. A payload missing its top-level shape is refused.
func (p *Processor) ProcessPayload(payload *models.Payload) ([]models.GameOddsRecord, Report, error) {
	if err := payload.Validate(); err != nil {
		return nil, Report{}, err
	}

	report := Report{
		GeneratedAt: payload.GeneratedAt,
		Books:       make(map[string]Stats),
		Sports:      make(map[models.SportCode]Stats),
	}

	var records []models.GameOddsRecord

	for _, book := range sortedKeys(payload.Books) {
		sportsData := payload.Books[book]
		var bookStats Stats

		for _, rawSport := range sortedKeys(sportsData) {
			code, ok := models.NormalizeSport(rawSport)
			if ok {
				_, ok = p.registry.Get(code)
			}
			if !ok {
				p.logger.WithFields(logrus.Fields{
					"book":  book,
					"sport": rawSport,
				}).Warn("skipping unsupported sport")
				report.SkippedSports = append(report.SkippedSports, book+":"+rawSport)
				continue
			}

			batch, stats := p.ProcessBatch(sportsData[rawSport], book, code)
			records = append(records, batch...)

			bookStats.add(stats)
			sportStats := report.Sports[code]
			sportStats.add(stats)
			report.Sports[code] = sportStats
		}

		report.Books[book] = bookStats
		report.Total.add(bookStats)
	}

	deduped := Dedupe(records)
	report.Duplicates = len(records) - len(deduped)
	if report.Duplicates > 0 {
		p.logger.WithField("duplicates", report.Duplicates).Warn("dropped duplicate games")
	}

	sorted := Sort(deduped)

	p.logger.WithFields(logrus.Fields{
		"generated_at": payload.GeneratedAt,
		"input":        report.Total.Input,
		"validated":    report.Total.Validated,
		"future":       report.Total.Future,
		"records":      len(sorted),
	}).Info("pipeline run complete")

	return sorted, report, nil
}

// DecodePayload parses a nested payload and checks its top-level shape
func DecodePayload(data []byte) (*models.Payload, error) {
	var payload models.Payload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", models.ErrInvalidPayload, err)
	}
	if err := payload.Validate(); err != nil {
		return nil, err
	}
	return &payload, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
