package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores, the upstream client and
// other infrastructure layers return these (optionally wrapped) so callers
// can translate them into navigation decisions with errors.Is.
//
// These represent factual states about resources, not validation failures:
// - ErrNotFound: entity does not exist in store
// - ErrAuthRejected: the upstream rejected our credential (terminal for the session)
// - ErrUnavailable: service or resource temporarily unreachable (degradable)
// - ErrInvalidState: entity in wrong state for requested operation
var (
	ErrNotFound     = errors.New("not found")
	ErrAuthRejected = errors.New("credential rejected")
	ErrUnavailable  = errors.New("unavailable")
	ErrInvalidState = errors.New("invalid state")
)
