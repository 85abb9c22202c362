package models

import "errors"

// Domain failure taxonomy. The HTTP layer maps these to status codes, the
// sourcing service returns them, stores translate database conditions into
// them where the condition is a domain fact rather than a storage fault.
var (
	ErrUnauthenticated     = errors.New("unauthenticated")
	ErrForbidden           = errors.New("forbidden")
	ErrNotFound            = errors.New("not found")
	ErrRateLimited         = errors.New("rate limited")
	ErrNoCandidates        = errors.New("no candidates available")
	ErrInsufficientCredits = errors.New("insufficient credits")
	ErrInvalidTransition   = errors.New("invalid status transition")
)
