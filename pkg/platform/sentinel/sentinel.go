package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores and infrastructure layers
// return these (optionally wrapped) so services can translate them into
// domain errors.
//
// These represent factual states about resources, not validation failures:
// - ErrNotFound: entity does not exist in store
// - ErrConflict: uniqueness violated (duplicate decision_ref)
// - ErrChainConflict: ledger tip advanced between read and append
// - ErrVersionConflict: optimistic version check failed on update
// - ErrUnavailable: service or resource temporarily unavailable
//
// For validation errors (bad input, missing fields), use pkg/domain-errors
// directly.
var (
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
	ErrChainConflict   = errors.New("chain tip moved")
	ErrVersionConflict = errors.New("version conflict")
	ErrUnavailable     = errors.New("unavailable")
)
