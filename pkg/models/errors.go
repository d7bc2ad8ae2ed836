package models

import (
	"errors"
	"fmt"
)

// Pipeline error taxonomy. Row-level failures never abort a batch; only
// ErrInvalidPayload stops a run.
var (
	ErrMalformedRow   = errors.New("malformed row")
	ErrInvalidDate    = errors.New("invalid date")
	ErrBuildFailure   = errors.New("build failure")
	ErrUnknownSport   = errors.New("unknown sport")
	ErrInvalidPayload = errors.New("invalid payload")
	ErrUpstreamFetch  = errors.New("upstream fetch failed")
	ErrInsightTimeout = errors.New("insight request timed out")
)

// RowError ties a row-level failure to its position in the batch
type RowError struct {
	Index  int
	GameID string
	Err    error
}

func (e *RowError) Error() string {
	if e.GameID != "" {
		return fmt.Sprintf("row %d (%s): %v", e.Index, e.GameID, e.Err)
	}
	return fmt.Sprintf("row %d: %v", e.Index, e.Err)
}

func (e *RowError) Unwrap() error {
	return e.Err
}
