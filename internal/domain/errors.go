package domain

import (
	"errors"
	"fmt"
)

// MaxQueryLength is the longest free-text query accepted by a search.
const MaxQueryLength = 1024

var (
	// ErrInvalidQuery signals an empty or oversized query.
	ErrInvalidQuery = errors.New("invalid query")
	// ErrBackendUnavailable signals that the record search API could not be reached.
	ErrBackendUnavailable = errors.New("search backend unavailable")
	// ErrAnalysisUnavailable signals an analysis backend failure or timeout.
	ErrAnalysisUnavailable = errors.New("analysis backend unavailable")
	// ErrMalformedAnalysis signals a reply without a usable insights object.
	ErrMalformedAnalysis = errors.New("malformed analysis reply")
	// ErrInconsistentPage signals a page claiming more results without a cursor.
	ErrInconsistentPage = errors.New("page has more results but no cursor")
	// ErrUnauthorized signals a missing or wrong API key.
	ErrUnauthorized = errors.New("unauthorized")
)

// QueryError wraps ErrInvalidQuery with the reason the query was rejected.
type QueryError struct {
	Reason string
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("%s: %s", ErrInvalidQuery.Error(), e.Reason)
}

func (e *QueryError) Unwrap() error { return ErrInvalidQuery }

// NewQueryError creates an invalid query error.
func NewQueryError(reason string) error {
	return &QueryError{Reason: reason}
}
