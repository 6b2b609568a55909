package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates no search tier produced an acceptable
	// candidate for the requested text. No mutation is attempted.
	ErrNotFound = errors.New("text not found in document")

	// ErrLowConfidence indicates candidates were found but all scored
	// below the active tier's acceptance threshold. It wraps ErrNotFound
	// so callers that skip unlocated text skip low-confidence text the
	// same way, while the message says why nothing was returned.
	ErrLowConfidence = fmt.Errorf("no candidate met the confidence threshold: %w", ErrNotFound)

	// ErrValidationFailed indicates a resolved range was geometrically
	// found but failed the length/ending/interior checks. The resolver
	// fails closed rather than risk replacing the wrong text.
	ErrValidationFailed = errors.New("resolved range failed validation")

	// ErrStaleRange indicates a range token from a previous document
	// revision was used after a mutation. Ranges must be re-resolved
	// immediately before use.
	ErrStaleRange = errors.New("range is stale after document mutation")

	// ErrTrackingUnsupported indicates the host cannot enable native
	// change tracking. Edits degrade to manual visual markup.
	ErrTrackingUnsupported = errors.New("change tracking not supported by host")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidRange indicates a range with out-of-bounds or inverted
	// offsets.
	ErrInvalidRange = errors.New("invalid range")

	// ErrAlreadyExists indicates an entity already exists.
	ErrAlreadyExists = errors.New("already exists")
)
