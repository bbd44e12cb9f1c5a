package registry

import "errors"

// Sentinel errors returned to the transport layer, which maps them to HTTP
// status codes. Expected misuse never surfaces as an untyped fault.
var (
	// ErrNotFound indicates an unknown job or task identifier
	ErrNotFound = errors.New("not found")
	// ErrInvalidConfig indicates malformed job creation parameters
	ErrInvalidConfig = errors.New("invalid config")
	// ErrInvalidTransition indicates a task state machine violation
	ErrInvalidTransition = errors.New("invalid transition")
)
