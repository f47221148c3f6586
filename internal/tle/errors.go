package tle

import "errors"

var (
	// ErrMalformedRecord marks a triple of lines that is not a usable element set.
	ErrMalformedRecord = errors.New("malformed element set")

	// ErrSourceUnavailable marks a failed or unusable remote fetch.
	ErrSourceUnavailable = errors.New("element set source unavailable")
)
