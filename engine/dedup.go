/*
dedup.go - Pre-check guard over the ledger's read side

PURPOSE:
  Before a rule computes anything, it asks the guard whether a prior entry
  already exists for its dedup scope. A hit short-circuits the rule into a
  Denied decision naming the existing entry (or, for milestones, a no-op).

  The guard is only the cheap half of the exactly-once guarantee: two
  workers racing on the same event can both miss here. The authoritative
  half is the recorder's uniqueness constraint on the dedup key — the
  coordinator translates that conflict into the same Denied outcome.

SEE ALSO:
  - ledger.go: Query contract and key scheme
  - award/coordinator.go: Conflict translation
*/
package engine

import (
	"context"
	"time"
)

// DeduplicationGuard answers "has this scope already been decided?" against
// the external ledger store.
type DeduplicationGuard struct {
	Query LedgerQuery
}

// NewDeduplicationGuard wraps a ledger read side.
func NewDeduplicationGuard(q LedgerQuery) *DeduplicationGuard {
	return &DeduplicationGuard{Query: q}
}

// ExistingForEntity returns the prior entry for (kind, entityID), if any.
func (g *DeduplicationGuard) ExistingForEntity(ctx context.Context, kind EntityKind, entityID string) (*Entry, error) {
	return g.Query.FindByEntity(ctx, kind, entityID)
}

// ExistingForEntityUser returns the prior entry for (kind, entityID, user),
// if any.
func (g *DeduplicationGuard) ExistingForEntityUser(ctx context.Context, kind EntityKind, entityID string, user UserID) (*Entry, error) {
	return g.Query.FindByEntityUser(ctx, kind, entityID, user)
}

// ExistingForUserOnDay returns the prior entry of the given kind for the
// user on the local calendar day (in the given timezone) containing `at`,
// scoped to a project. The day is converted to UTC bounds for the query.
func (g *DeduplicationGuard) ExistingForUserOnDay(ctx context.Context, user UserID, kind EntityKind, at time.Time, timezone string, project ProjectID) (*Entry, error) {
	from, to := DayBounds(at, timezone)
	return g.Query.FindByUserOnDay(ctx, user, kind, from, to, project)
}
