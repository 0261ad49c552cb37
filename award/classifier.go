/*
classifier.go - Task timeliness classification

PURPOSE:
  The task rule delegates "was this early, on time, or late?" to a
  classifier so that project- and task-type-specific deadline rules can be
  swapped in without touching the award pipeline. DueDateClassifier is the
  stock implementation: deadlines anchor at the end of the due date's local
  day in the assignee's timezone, and "early" means a full day of margin.
*/
package award

import (
	"context"
	"time"

	"github.com/warp/points-engine/engine"
)

// Timeliness is the classification a TaskTimelinessClassifier produces.
type Timeliness string

const (
	Early  Timeliness = "early"
	OnTime Timeliness = "on_time"
	Late   Timeliness = "late"
)

// TaskTimelinessClassifier determines whether a completed task deserves the
// early or on-time award, or neither.
type TaskTimelinessClassifier interface {
	Classify(ctx context.Context, task TaskEvent) (Timeliness, error)
}

// DueDateClassifier classifies against the task's own due date:
//
//	early    completed at least 24h before the end of the due date's local day
//	on time  completed by the end of the due date's local day
//	late     otherwise
//
// All comparisons are in the assignee's timezone (UTC when unset). A task
// with no due date or no completion timestamp is late — the award pipeline
// treats that as "not completed on time" rather than an error.
type DueDateClassifier struct{}

func (DueDateClassifier) Classify(_ context.Context, task TaskEvent) (Timeliness, error) {
	if task.DueDate.IsZero() || task.CompletedAt.IsZero() {
		return Late, nil
	}

	deadline := engine.EndOfLocalDay(task.DueDate, task.AssigneeTimezone)

	if !task.CompletedAt.After(deadline.Add(-24 * time.Hour)) {
		return Early, nil
	}
	if !task.CompletedAt.After(deadline) {
		return OnTime, nil
	}
	return Late, nil
}
