package model

import "errors"

var (
	// ErrInvalidHorizon rejects an empty or reversed date range.
	ErrInvalidHorizon = errors.New("invalid horizon")
	// ErrInvalidSettings rejects malformed thresholds, rates or amounts.
	ErrInvalidSettings = errors.New("invalid settings")
	// ErrEditOrdering rejects a recalculation while an earlier day is unresolved.
	ErrEditOrdering = errors.New("edit ordering")
	// ErrInvalidEdit rejects a malformed edit descriptor or day sequence.
	ErrInvalidEdit = errors.New("invalid edit")
	// ErrUnknownProduct is returned by catalog lookups.
	ErrUnknownProduct = errors.New("unknown product")
)
