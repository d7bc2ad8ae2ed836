package validation

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/XavierBriggs/Augur/pkg/models"
	"github.com/sirupsen/logrus"
)

// DateLength is the required length of the d field (YYYYMMDD)
const DateLength = 8

// Validator checks raw feed rows against the positional row contract
type Validator struct {
	logger *logrus.Entry
}

// NewValidator creates a new validator
func NewValidator(logger *logrus.Entry) *Validator {
	return &Validator{logger: logger}
}

// ValidateBatch returns the rows that pass, in their original order, plus
// one *models.RowError per rejected row. It never fails the batch.
func (v *Validator) ValidateBatch(raws []json.RawMessage) ([]models.RawGameRow, []error) {
	rows := make([]models.RawGameRow, 0, len(raws))
	var errs []error

	for i, raw := range raws {
		row, err := Validate(raw)
		if err != nil {
			rowErr := &models.RowError{Index: i, GameID: peekID(raw), Err: err}
			errs = append(errs, rowErr)
			v.logger.WithFields(logrus.Fields{
				"index":   i,
				"game_id": rowErr.GameID,
			}).WithError(err).Warn("dropping malformed row")
			continue
		}
		rows = append(rows, row)
	}

	return rows, errs
}

// Validate decodes one raw row. Every failure wraps models.ErrMalformedRow.
func Validate(raw json.RawMessage) (models.RawGameRow, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		return models.RawGameRow{}, malformed("row is not an object")
	}

	var row models.RawGameRow
	var err error

	if row.ID, err = stringField(fields, "id"); err != nil {
		return models.RawGameRow{}, err
	}
	if row.Date, err = stringField(fields, "d"); err != nil {
		return models.RawGameRow{}, err
	}
	if len(row.Date) != DateLength {
		return models.RawGameRow{}, malformed("d must be %d characters, got %q", DateLength, row.Date)
	}
	if row.Away, err = stringField(fields, "a"); err != nil {
		return models.RawGameRow{}, err
	}
	if row.Home, err = stringField(fields, "h"); err != nil {
		return models.RawGameRow{}, err
	}
	if row.Book, err = stringField(fields, "b"); err != nil {
		return models.RawGameRow{}, err
	}
	if row.Sport, err = stringField(fields, "s"); err != nil {
		return models.RawGameRow{}, err
	}

	spr, err := tuple(fields, "spr", 4)
	if err != nil {
		return models.RawGameRow{}, err
	}
	if row.Spread.AwayLine, err = nullableNumber(spr[0], "spr[0]"); err != nil {
		return models.RawGameRow{}, err
	}
	if row.Spread.Home, err = nullableNumber(spr[1], "spr[1]"); err != nil {
		return models.RawGameRow{}, err
	}
	if row.Spread.Tickets, err = pair(spr[2], "spr[2]"); err != nil {
		return models.RawGameRow{}, err
	}
	if row.Spread.Handle, err = pair(spr[3], "spr[3]"); err != nil {
		return models.RawGameRow{}, err
	}

	tot, err := tuple(fields, "tot", 3)
	if err != nil {
		return models.RawGameRow{}, err
	}
	if row.Total.Line, err = nullableNumber(tot[0], "tot[0]"); err != nil {
		return models.RawGameRow{}, err
	}
	if row.Total.Tickets, err = pair(tot[1], "tot[1]"); err != nil {
		return models.RawGameRow{}, err
	}
	if row.Total.Handle, err = pair(tot[2], "tot[2]"); err != nil {
		return models.RawGameRow{}, err
	}

	ml, err := tuple(fields, "ml", 4)
	if err != nil {
		return models.RawGameRow{}, err
	}
	if row.Moneyline.Away, err = nullableNumber(ml[0], "ml[0]"); err != nil {
		return models.RawGameRow{}, err
	}
	if row.Moneyline.Home, err = nullableNumber(ml[1], "ml[1]"); err != nil {
		return models.RawGameRow{}, err
	}
	if row.Moneyline.Tickets, err = pair(ml[2], "ml[2]"); err != nil {
		return models.RawGameRow{}, err
	}
	if row.Moneyline.Handle, err = pair(ml[3], "ml[3]"); err != nil {
		return models.RawGameRow{}, err
	}

	return row, nil
}

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", models.ErrMalformedRow, fmt.Sprintf(format, args...))
}

func isNull(raw json.RawMessage) bool {
	return len(raw) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

func stringField(fields map[string]json.RawMessage, key string) (string, error) {
	raw, ok := fields[key]
	if !ok {
		return "", malformed("missing %s", key)
	}
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '"' {
		return "", malformed("%s must be a string", key)
	}
	var s string
	if err := json.Unmarshal(trimmed, &s); err != nil {
		return "", malformed("%s must be a string", key)
	}
	return s, nil
}

func tuple(fields map[string]json.RawMessage, key string, size int) ([]json.RawMessage, error) {
	raw, ok := fields[key]
	if !ok || isNull(raw) {
		return nil, malformed("missing %s", key)
	}
	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		return nil, malformed("%s must be an array", key)
	}
	if len(elems) != size {
		return nil, malformed("%s must have %d elements, got %d", key, size, len(elems))
	}
	return elems, nil
}

func number(raw json.RawMessage, name string) (float64, error) {
	trimmed := bytes.TrimSpace(raw)
	if isNull(trimmed) || trimmed[0] == '"' {
		return 0, malformed("%s must be a number", name)
	}
	var f float64
	if err := json.Unmarshal(trimmed, &f); err != nil {
		return 0, malformed("%s must be a number", name)
	}
	return f, nil
}

func nullableNumber(raw json.RawMessage, name string) (*float64, error) {
	if isNull(raw) {
		return nil, nil
	}
	f, err := number(raw, name)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func pair(raw json.RawMessage, name string) (models.Pair, error) {
	var elems []json.RawMessage
	if isNull(raw) || json.Unmarshal(raw, &elems) != nil || len(elems) != 2 {
		return models.Pair{}, malformed("%s must be a pair of numbers", name)
	}
	a, err := number(elems[0], name)
	if err != nil {
		return models.Pair{}, err
	}
	b, err := number(elems[1], name)
	if err != nil {
		return models.Pair{}, err
	}
	return models.Pair{a, b}, nil
}

// peekID pulls the id out of a rejected row for logging, if it has one
func peekID(raw json.RawMessage) string {
	var probe struct {
		ID any `json:"id"`
	}
	if json.Unmarshal(raw, &probe) != nil {
		return ""
	}
	if id, ok := probe.ID.(string); ok {
		return id
	}
	return ""
}
