package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores return these (optionally
// wrapped) so the registration manager can translate them into gateway failures.
//
//   - ErrNotFound: no pending registration matches the lookup
//   - ErrConflict: a registration for the same identity already exists
//   - ErrUnavailable: backing store or broker temporarily unavailable
var (
	ErrNotFound    = errors.New("not found")
	ErrConflict    = errors.New("conflict")
	ErrUnavailable = errors.New("unavailable")
)
