/*
Package engine provides the core types and contracts of the points award
system.

PURPOSE:
  This package contains the domain-agnostic half of the award pipeline:
  the Decision output type, the ledger collaborator contracts, the
  deduplication guard, and the timezone-aware window utilities. The
  per-event award rules live in the award package; the persistence
  implementations live under store/.

KEY CONCEPTS IN THIS FILE (types.go):
  - Decision: The engine's sole output — a paid or denied outcome
  - Entry: A Decision as persisted by a LedgerRecorder
  - EntityKind: Closed enum of the business events that earn points
  - Status: paid | denied

DESIGN PRINCIPLES:
  1. Immutability: Decisions are recorded once and never modified
  2. Precision: Uses decimal.Decimal for point arithmetic (the late-standup
     reduction is fractional before it is floored)
  3. Auditability: Every Decision carries a human-readable description,
     including denials — the description IS the denial reason
  4. Purity: Decisions are computed from event snapshots, never from
     wall-clock reads inside a rule

SEE ALSO:
  - ledger.go: LedgerQuery / LedgerRecorder collaborator contracts
  - dedup.go: DeduplicationGuard
  - timewindow.go: Timezone-aware window utilities
  - award/: The five per-event award rules
*/
package engine

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type UserID string
type ProjectID string

// EntityKind identifies which business event a ledger entry points back to.
// This is a closed enum: legacy/synonym strings are a migration concern and
// are never parsed at runtime.
type EntityKind string

const (
	KindEmail     EntityKind = "email"
	KindKudos     EntityKind = "kudos"
	KindMilestone EntityKind = "milestone"
	KindStandup   EntityKind = "standup"
	KindTask      EntityKind = "task"
)

// Valid reports whether k is one of the five known kinds.
func (k EntityKind) Valid() bool {
	switch k {
	case KindEmail, KindKudos, KindMilestone, KindStandup, KindTask:
		return true
	}
	return false
}

// =============================================================================
// STATUS
// =============================================================================

type Status string

const (
	StatusPaid   Status = "paid"
	StatusDenied Status = "denied"
)

// =============================================================================
// DECISION - The engine's computed outcome for one event
// =============================================================================

// Decision is the single output type of the award engine. Exactly zero or
// one Decision is produced per invocation for most event kinds; milestones
// fan out one Decision per assigned user.
//
// INVARIANTS:
//   - Points is never negative. Denied decisions always carry zero points.
//   - Description is always populated; for denials it states the specific
//     reason (duplicate, late, missing prerequisite, unlinked project).
//   - DedupKey is set only on the first substantive decision for a scope
//     (paid, or a business denial such as "late"). Duplicate-denial
//     decisions carry an empty key so repeated invocations still leave an
//     audit trail without tripping the store's uniqueness constraint.
type Decision struct {
	RecipientID UserID
	Points      decimal.Decimal
	Description string
	Status      Status
	Kind        EntityKind
	EntityID    string
	ProjectID   ProjectID

	// EffectiveAt dates the ledger entry. It defaults to the triggering
	// event's own timestamp so ledger chronology stays anchored to when the
	// work actually happened, not to when the job runner got around to it.
	EffectiveAt time.Time

	// DedupKey enforces the exactly-once guarantee at the store level.
	// Empty on duplicate-denial decisions.
	DedupKey string
}

// NewPaid builds a paid Decision. Points must be >= 0.
func NewPaid(recipient UserID, points decimal.Decimal, description string, kind EntityKind, entityID string, project ProjectID, effectiveAt time.Time, dedupKey string) Decision {
	return Decision{
		RecipientID: recipient,
		Points:      points,
		Description: description,
		Status:      StatusPaid,
		Kind:        kind,
		EntityID:    entityID,
		ProjectID:   project,
		EffectiveAt: effectiveAt,
		DedupKey:    dedupKey,
	}
}

// NewDenied builds a denied Decision. Denied decisions always carry zero
// points regardless of what the rule computed.
func NewDenied(recipient UserID, description string, kind EntityKind, entityID string, project ProjectID, effectiveAt time.Time, dedupKey string) Decision {
	return Decision{
		RecipientID: recipient,
		Points:      decimal.Zero,
		Description: description,
		Status:      StatusDenied,
		Kind:        kind,
		EntityID:    entityID,
		ProjectID:   project,
		EffectiveAt: effectiveAt,
		DedupKey:    dedupKey,
	}
}

// IsPaid reports whether the decision awards points.
func (d Decision) IsPaid() bool { return d.Status == StatusPaid }

// =============================================================================
// ENTRY - A recorded Decision
// =============================================================================

// Entry is a Decision as persisted by a LedgerRecorder. The ledger is
// append-only: entries are never updated or deleted.
type Entry struct {
	ID string
	Decision
	RecordedAt time.Time
}

// PointsInt returns the awarded points truncated to an integer. Rules floor
// fractional amounts before building a Decision, so truncation here is
// lossless in practice.
func (e Entry) PointsInt() int64 { return e.Points.IntPart() }
