/*
standup.go - Daily standup award

RULE:
  A standup submitted strictly before 11:00 local (user timezone) earns 25
  points; later earns 10. At most one standup per user per local calendar
  day per project is ever rewarded — the dedup scope is the DAY, not the
  standup's own id, since a user might create several standup records in
  one day.

DEDUP SCOPE: (user, standup, local-day, project).
*/
package award

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/warp/points-engine/engine"
)

const (
	// StandupOnTimePoints rewards a standup before the local deadline.
	StandupOnTimePoints = 25

	// StandupLatePoints rewards a standup after it.
	StandupLatePoints = 10

	// StandupDeadline is the local clock time a standup must beat to count
	// as on time. Strict: 11:00:00 exactly is late.
	StandupDeadline = "11:00:00"
)

// StandupRule evaluates StandupEvents.
type StandupRule struct {
	Guard *engine.DeduplicationGuard
}

func (r *StandupRule) Kind() engine.EntityKind { return engine.KindStandup }

func (r *StandupRule) Evaluate(ctx context.Context, e StandupEvent) ([]engine.Decision, error) {
	if e.UserID == "" {
		return nil, nil
	}
	if e.ID == "" {
		return nil, &engine.InvalidEventError{Kind: engine.KindStandup, Field: "id"}
	}
	if e.CreatedAt.IsZero() {
		return nil, &engine.InvalidEventError{Kind: engine.KindStandup, Field: "createdAt"}
	}

	tz := e.UserTimezone
	if tz == "" {
		tz = engine.DefaultTimezone
	}
	localDay := engine.LocalDate(e.CreatedAt, tz)

	existing, err := r.Guard.ExistingForUserOnDay(ctx, e.UserID, engine.KindStandup, e.CreatedAt, tz, e.ProjectID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		d := engine.NewDenied(e.UserID,
			fmt.Sprintf("Denied: Points already awarded for a daily standup today: %s", localDay),
			engine.KindStandup, e.ID, e.ProjectID, e.CreatedAt, "")
		return []engine.Decision{d}, nil
	}

	submitted := engine.InZone(e.CreatedAt, tz).Format("Jan 2, 2006")

	points := decimal.NewFromInt(StandupLatePoints)
	desc := "Late Daily Standup on " + submitted
	if engine.BeforeClockTime(e.CreatedAt, tz, StandupDeadline) {
		points = decimal.NewFromInt(StandupOnTimePoints)
		desc = "On-Time Daily Standup on " + submitted
	}

	d := engine.NewPaid(e.UserID, points, desc,
		engine.KindStandup, e.ID, e.ProjectID, e.CreatedAt,
		engine.UserDayDedupKey(e.UserID, engine.KindStandup, localDay, e.ProjectID))
	return []engine.Decision{d}, nil
}
