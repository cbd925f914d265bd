package store

import "errors"

// ErrNotFound indicates the requested workflow does not exist.
var ErrNotFound = errors.New("workflow not found")

// ErrInvalidTransition indicates a status change the lifecycle graph forbids,
// including any attempt to leave a terminal state.
var ErrInvalidTransition = errors.New("invalid status transition")
