package repository

import "errors"

// Sentinel errors for state stores.
var (
	ErrUnknownBackend  = errors.New("unknown state store backend")
	ErrCorruptDocument = errors.New("corrupt state document")
	ErrMissingSetting  = errors.New("missing state store setting")
)
