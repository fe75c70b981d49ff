package service

import "errors"

// Sentinel errors returned by the coordinator.
var (
	ErrOutOfRange    = errors.New("item position out of range")
	ErrNotAssigned   = errors.New("item is not assigned")
	ErrWrongOwner    = errors.New("item is assigned to another holder")
	ErrEmptyUsername = errors.New("username is empty")
	// ErrCatalogExhausted means no free item remains. It is a terminal state,
	// not a failure.
	ErrCatalogExhausted = errors.New("no items left to review")
	// ErrPersistence wraps the last failed load or save of the state store.
	ErrPersistence     = errors.New("state persistence failed")
	ErrInvalidCategory = errors.New("invalid export category")
	ErrNothingToExport = errors.New("nothing to export")
	ErrEmptyHolder     = errors.New("holder id is empty")
	// ErrDuplicateRequest means the request id was already accepted.
	ErrDuplicateRequest = errors.New("duplicate verdict request")
)
