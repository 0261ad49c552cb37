/*
task.go - Task completion award

RULE:
  A completed task pays its assignee 100 points when early, 50 when on
  time (per the injected classifier), and nothing - a recorded denial -
  when late. Two gates precede classification: the task must be linked to
  a project through a milestone, and the assignee must have submitted a
  standup on the local day the task was completed. If that day's standup
  was itself late (the same 11:00 local rule), the award is reduced by
  25%, fractional points floored.

DEDUP SCOPE: (task, id, user) — additionally scoped by assignee so a
reassigned task can be decided separately per user. Unlinked-task denials
carry no dedup key: there is nothing to deduplicate against yet, and
repeated invocations must keep producing the same denial without error.
*/
package award

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/warp/points-engine/engine"
)

const (
	// TaskEarlyPoints is the base award for an early completion.
	TaskEarlyPoints = 100

	// TaskOnTimePoints is the base award for an on-time completion.
	TaskOnTimePoints = 50
)

// lateStandupReduction is the fraction withheld when the day's standup was
// late. Applied to the base amount, then floored.
var lateStandupReduction = decimal.NewFromFloat(0.25)

// TaskRule evaluates TaskEvents.
type TaskRule struct {
	Guard      *engine.DeduplicationGuard
	Standups   StandupLog
	Classifier TaskTimelinessClassifier // nil defaults to DueDateClassifier
}

func (r *TaskRule) Kind() engine.EntityKind { return engine.KindTask }

func (r *TaskRule) Evaluate(ctx context.Context, e TaskEvent) ([]engine.Decision, error) {
	if e.AssigneeID == "" {
		return nil, nil
	}
	if e.ID == "" {
		return nil, &engine.InvalidEventError{Kind: engine.KindTask, Field: "id"}
	}
	if e.CompletedAt.IsZero() {
		return nil, &engine.InvalidEventError{Kind: engine.KindTask, Field: "completedAt"}
	}

	// Unlinked tasks are denied before any dedup lookup — there is no
	// project scope to deduplicate within.
	if e.MilestoneID == "" || e.ProjectID == "" {
		d := engine.NewDenied(e.AssigneeID,
			"Denied: Task is not linked to a project via a milestone. Task: "+e.Title,
			engine.KindTask, e.ID, e.ProjectID, e.CompletedAt, "")
		return []engine.Decision{d}, nil
	}

	existing, err := r.Guard.ExistingForEntityUser(ctx, engine.KindTask, e.ID, e.AssigneeID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		d := engine.NewDenied(e.AssigneeID,
			fmt.Sprintf("Denied: Points already awarded for this task: %s. Existing entry: %s", e.Title, existing.ID),
			engine.KindTask, e.ID, e.ProjectID, e.CompletedAt, "")
		return []engine.Decision{d}, nil
	}

	tz := e.AssigneeTimezone
	if tz == "" {
		tz = engine.DefaultTimezone
	}
	key := engine.EntityUserDedupKey(engine.KindTask, e.ID, e.AssigneeID)

	standup, err := r.findStandup(ctx, e, tz)
	if err != nil {
		return nil, err
	}
	if standup == nil {
		d := engine.NewDenied(e.AssigneeID,
			"Denied: No standup found on the day of task completion: "+engine.LocalDate(e.CompletedAt, tz),
			engine.KindTask, e.ID, e.ProjectID, e.CompletedAt, key)
		return []engine.Decision{d}, nil
	}

	timeliness, err := r.classify(ctx, e)
	if err != nil {
		return nil, err
	}

	var points decimal.Decimal
	var desc string
	switch timeliness {
	case Early:
		points = decimal.NewFromInt(TaskEarlyPoints)
		desc = "Early Task Completion: " + e.Title
	case OnTime:
		points = decimal.NewFromInt(TaskOnTimePoints)
		desc = "On-Time Task Completion: " + e.Title
	default:
		d := engine.NewDenied(e.AssigneeID, "Denied: Task was not completed on time.",
			engine.KindTask, e.ID, e.ProjectID, e.CompletedAt, key)
		return []engine.Decision{d}, nil
	}

	if !engine.BeforeClockTime(standup.CreatedAt, tz, StandupDeadline) {
		points = points.Sub(points.Mul(lateStandupReduction)).Floor()
		desc += " (Reduced due to late standup)"
	}

	d := engine.NewPaid(e.AssigneeID, points, desc,
		engine.KindTask, e.ID, e.ProjectID, e.CompletedAt, key)
	return []engine.Decision{d}, nil
}

func (r *TaskRule) findStandup(ctx context.Context, e TaskEvent, tz string) (*StandupRecord, error) {
	if r.Standups == nil {
		return nil, nil
	}
	from, to := engine.DayBounds(e.CompletedAt, tz)
	return r.Standups.FindForUserBetween(ctx, e.AssigneeID, from, to)
}

func (r *TaskRule) classify(ctx context.Context, e TaskEvent) (Timeliness, error) {
	if r.Classifier != nil {
		return r.Classifier.Classify(ctx, e)
	}
	return DueDateClassifier{}.Classify(ctx, e)
}
