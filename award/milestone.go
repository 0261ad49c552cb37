/*
milestone.go - Milestone completion award with per-user fan-out

RULE:
  An approved milestone pays every user assigned to its tasks: 500 points
  when submitted by the end of the due date's local day in the project
  timezone, 100 when late. The dedup existence check runs ONCE for the
  whole milestone, not per user; a hit makes the invocation a silent no-op
  (the caller may log it) rather than a recorded denial, since fanning a
  denial out to every assignee would spam the ledger.

DEDUP SCOPE: existence check on (milestone, id); recorded decisions carry
per-user keys milestone:<id>:user:<uid> so the store constraint still holds
under a concurrent fan-out.
*/
package award

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/warp/points-engine/engine"
)

const (
	// MilestoneOnTimePoints is the per-user award for an on-time milestone.
	MilestoneOnTimePoints = 500

	// MilestoneLatePoints is the per-user award for a late one.
	MilestoneLatePoints = 100
)

// MilestoneRule evaluates MilestoneEvents.
type MilestoneRule struct {
	Guard *engine.DeduplicationGuard

	// Directory filters assignees that no longer exist; nil keeps them all.
	Directory UserDirectory
}

func (r *MilestoneRule) Kind() engine.EntityKind { return engine.KindMilestone }

// Evaluate returns one paid Decision per distinct existing assignee, or nil
// when the milestone is inapplicable or already decided.
func (r *MilestoneRule) Evaluate(ctx context.Context, e MilestoneEvent) ([]engine.Decision, error) {
	if e.DueDate.IsZero() || e.SubmittedAt.IsZero() {
		return nil, nil
	}
	if e.ID == "" {
		return nil, &engine.InvalidEventError{Kind: engine.KindMilestone, Field: "id"}
	}

	existing, err := r.Guard.ExistingForEntity(ctx, engine.KindMilestone, e.ID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, nil
	}

	tz := e.ProjectTimezone
	if tz == "" {
		tz = engine.DefaultTimezone
	}
	deadline := engine.EndOfLocalDay(e.DueDate, tz)

	points := decimal.NewFromInt(MilestoneOnTimePoints)
	desc := "On-Time Milestone Completion (Approved): " + e.Title
	if e.SubmittedAt.After(deadline) {
		points = decimal.NewFromInt(MilestoneLatePoints)
		desc = "Late Milestone Completion (Approved): " + e.Title
	}

	var decisions []engine.Decision
	seen := make(map[engine.UserID]bool)
	for _, user := range e.AssignedUserIDs {
		if user == "" || seen[user] {
			continue
		}
		seen[user] = true

		if r.Directory != nil {
			ok, err := r.Directory.Exists(ctx, user)
			if err != nil {
				return nil, err
			}
			if !ok {
				continue // deleted users are skipped silently
			}
		}

		decisions = append(decisions, engine.NewPaid(user, points, desc,
			engine.KindMilestone, e.ID, e.ProjectID, e.SubmittedAt,
			engine.EntityUserDedupKey(engine.KindMilestone, e.ID, user)))
	}
	return decisions, nil
}
