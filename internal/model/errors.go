package model

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrFetchExhausted   = errors.New("fetch exhausted")
	ErrMalformedPayload = errors.New("malformed payload")
	ErrInsufficientData = errors.New("insufficient data")
	ErrEnrichmentFailed = errors.New("enrichment failed")
	ErrInvalidRequest   = errors.New("invalid request")
)

// AttemptError records why a single route attempt failed.
type AttemptError struct {
	Route      string
	Round      int
	StatusCode int
	Err        error
}

func (e *AttemptError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s (round %d): http %d", e.Route, e.Round, e.StatusCode)
	}
	return fmt.Sprintf("%s (round %d): %v", e.Route, e.Round, e.Err)
}

func (e *AttemptError) Unwrap() error { return e.Err }

// FetchExhaustedError is returned when every route failed in every round.
type FetchExhaustedError struct {
	Attempts int
	Routes   []string
	LastErr  error
}

func (e *FetchExhaustedError) Error() string {
	return fmt.Sprintf("all %d attempts over [%s] failed: %v", e.Attempts, strings.Join(e.Routes, ", "), e.LastErr)
}

// Unwrap exposes both the sentinel and the last underlying cause to errors.Is.
func (e *FetchExhaustedError) Unwrap() []error {
	if e.LastErr == nil {
		return []error{ErrFetchExhausted}
	}
	return []error{ErrFetchExhausted, e.LastErr}
}

// UserMessage maps a pipeline error onto the text shown to callers.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrFetchExhausted):
		return "data source unavailable, try again"
	case errors.Is(err, ErrMalformedPayload):
		return "upstream data format error"
	case errors.Is(err, ErrInsufficientData):
		return "insufficient history for this symbol/interval"
	case errors.Is(err, ErrInvalidRequest):
		return "invalid symbol or interval"
	default:
		return "analysis failed"
	}
}
