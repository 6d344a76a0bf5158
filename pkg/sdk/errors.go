package searchpad

import "github.com/kailas-cloud/searchpad/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrValidation = domain.ErrValidation
	ErrProvider   = domain.ErrProvider
	ErrStream     = domain.ErrStream
	ErrNoCursor   = domain.ErrNoCursor
	ErrNotFound   = domain.ErrNotFound
)
