/*
ledger.go - Collaborator contracts for the points ledger

PURPOSE:
  The ledger is the append-only record of every award outcome, including
  denials. This file defines the two contracts the engine consumes — a read
  side (LedgerQuery) used by the deduplication guard, and a write side
  (LedgerRecorder) that persists Decisions — plus the dedup key scheme that
  binds them together.

CRITICAL INVARIANTS:
  1. APPEND-ONLY: Entries are never updated or deleted.
  2. EXACTLY-ONCE: At most one entry carrying a given dedup key may exist.
     The recorder MUST enforce this atomically (a unique index) and signal
     a violation as ErrDuplicateEntry, distinct from generic failure, so a
     caller can translate a lost race into the same Denied outcome a
     pre-check would have produced.
  3. AUDIT-EVERY-INVOCATION: Duplicate invocations are recorded as denied
     entries with an empty dedup key, not silently dropped.

DEDUP KEY SCHEME:
  email:<id>                              one entry per email
  kudos:<id>                              one entry per kudo
  milestone:<id>:user:<uid>               fan-out, one entry per assignee
  standup:user:<uid>:<local-day>:project:<pid>
                                          one rewarded standup per local day
  task:<id>:user:<uid>                    scoped by user (reassignment)

SEE ALSO:
  - dedup.go: Pre-check guard built on LedgerQuery
  - store/memory: In-memory implementation (tests, dev)
  - store/sqlite: SQLite implementation with the unique index
*/
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// READ SIDE
// =============================================================================

// LedgerQuery is the read contract the deduplication guard is built on.
// Implementations return (nil, nil) when no entry matches.
type LedgerQuery interface {
	// FindByEntity returns the earliest entry recorded for (kind, entityID),
	// regardless of status or recipient.
	FindByEntity(ctx context.Context, kind EntityKind, entityID string) (*Entry, error)

	// FindByEntityUser returns the earliest entry recorded for
	// (kind, entityID, user). Used by the task rule, whose dedup scope
	// additionally varies by assignee.
	FindByEntityUser(ctx context.Context, kind EntityKind, entityID string, user UserID) (*Entry, error)

	// FindByUserOnDay returns the earliest entry of the given kind recorded
	// for the user with an EffectiveAt inside [fromUTC, toUTC], scoped to a
	// project. Used by the standup rule's one-per-local-day invariant.
	FindByUserOnDay(ctx context.Context, user UserID, kind EntityKind, fromUTC, toUTC time.Time, project ProjectID) (*Entry, error)
}

// =============================================================================
// WRITE SIDE
// =============================================================================

// LedgerRecorder persists a Decision as an immutable ledger entry.
//
// Record must be atomic with respect to the dedup key uniqueness
// constraint: if an entry with the same non-empty DedupKey already exists,
// Record returns ErrDuplicateEntry and writes nothing. Any other failure is
// reported as (or wrapped around) ErrRecordingFailed.
type LedgerRecorder interface {
	Record(ctx context.Context, d Decision) (*Entry, error)
}

// LedgerStore combines both sides. The store implementations satisfy this.
type LedgerStore interface {
	LedgerQuery
	LedgerRecorder
}

// ListFilter narrows a ledger listing. Nil fields match everything.
type ListFilter struct {
	User    *UserID
	Kind    *EntityKind
	Project *ProjectID
	Status  *Status
	Limit   int // 0 = no limit
}

// LedgerReader is the reporting surface consumed by the HTTP layer. It is
// not part of the award pipeline's contract — rules only see LedgerQuery.
type LedgerReader interface {
	// List returns entries matching the filter, most recent first.
	List(ctx context.Context, f ListFilter) ([]Entry, error)

	// TotalPointsFor sums the paid points recorded for a user.
	TotalPointsFor(ctx context.Context, user UserID) (decimal.Decimal, error)
}

// =============================================================================
// DEDUP KEYS
// =============================================================================

// EntityDedupKey scopes one substantive decision per (kind, entity).
func EntityDedupKey(kind EntityKind, entityID string) string {
	return fmt.Sprintf("%s:%s", kind, entityID)
}

// EntityUserDedupKey scopes one substantive decision per (kind, entity, user).
func EntityUserDedupKey(kind EntityKind, entityID string, user UserID) string {
	return fmt.Sprintf("%s:%s:user:%s", kind, entityID, user)
}

// UserDayDedupKey scopes one substantive decision per (user, kind,
// local calendar day, project). localDay is YYYY-MM-DD in the user's zone.
func UserDayDedupKey(user UserID, kind EntityKind, localDay string, project ProjectID) string {
	return fmt.Sprintf("%s:user:%s:%s:project:%s", kind, user, localDay, project)
}
