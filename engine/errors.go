/*
errors.go - Centralized error types for the award engine

PURPOSE:
  All error types in one place. The engine's propagation policy is strict:
  business-expected conditions (duplicates, lateness, missing
  prerequisites) NEVER surface as Go errors — they become Denied decisions
  or nil "not applicable" results. Only infrastructure and programmer
  errors travel this channel.

ERROR CATEGORIES:
  1. Recording errors  - the ledger collaborator could not persist
  2. Conflict          - the store's uniqueness constraint fired (a race
                         that a pre-check would have caught)
  3. Invalid event     - the caller handed the engine a snapshot that
                         violates a documented input invariant

USAGE:
  Callers branch with errors.Is:

    if errors.Is(err, engine.ErrDuplicateEntry) { ... }

SEE ALSO:
  - ledger.go: Where ErrDuplicateEntry is specified
  - award/coordinator.go: Translates conflicts into Denied entries
*/
package engine

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrDuplicateEntry is returned by a LedgerRecorder when an entry with
	// the same dedup key already exists. This is expected under concurrent
	// invocation and is translated into a Denied outcome, not propagated.
	ErrDuplicateEntry = errors.New("duplicate ledger entry")

	// ErrRecordingFailed is returned when a Decision cannot be persisted
	// for any reason other than a legitimate duplicate. The caller owns
	// retry policy; the engine never retries internally.
	ErrRecordingFailed = errors.New("ledger recording failed")

	// ErrInvalidEvent is returned when a caller passes an event snapshot
	// that violates an input invariant the engine documents as the
	// caller's responsibility. This is a programming error, not a business
	// outcome.
	ErrInvalidEvent = errors.New("invalid event snapshot")

	// ErrUnknownEventKind is returned by the service facade when handed a
	// value that is none of the five event snapshot types.
	ErrUnknownEventKind = errors.New("unknown event kind")
)

// =============================================================================
// STRUCTURED ERRORS
// =============================================================================

// RecordingError wraps a recorder failure with the decision context that
// could not be persisted.
type RecordingError struct {
	Kind     EntityKind
	EntityID string
	Err      error
}

func (e *RecordingError) Error() string {
	return fmt.Sprintf("recording decision for %s %s: %v", e.Kind, e.EntityID, e.Err)
}

func (e *RecordingError) Unwrap() error { return ErrRecordingFailed }

// InvalidEventError names the field that broke an input invariant.
type InvalidEventError struct {
	Kind  EntityKind
	Field string
}

func (e *InvalidEventError) Error() string {
	return fmt.Sprintf("invalid %s event: missing or malformed %s", e.Kind, e.Field)
}

func (e *InvalidEventError) Unwrap() error { return ErrInvalidEvent }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsConflict reports whether the error is a uniqueness-constraint conflict.
func IsConflict(err error) bool {
	return errors.Is(err, ErrDuplicateEntry)
}

// IsCallerBug reports whether the error indicates misuse of the engine
// rather than an infrastructure failure.
func IsCallerBug(err error) bool {
	return errors.Is(err, ErrInvalidEvent) || errors.Is(err, ErrUnknownEventKind)
}
