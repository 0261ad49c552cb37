/*
Package award implements the five point-award rules and their coordination.

PURPOSE:
  Each business event that can earn points — a timely outbound email, an
  approved kudo, an approved milestone, a daily standup, a completed task —
  has one rule here. A rule is a deterministic evaluator: given a read-only
  event snapshot and its supporting facts, it produces zero or more
  Decisions. Rules never read the wall clock, never log, and never touch
  storage except through the injected guard and lookup collaborators, so
  every rule is directly unit-testable with fixed instants.

POINT SCHEDULE:
  Email     timely reply within 4h        50
  Kudos     approved peer kudo            25
  Milestone on-time 500 / late 100        (per assigned user)
  Standup   before 11:00 local 25 / late  10
  Task      early 100 / on-time 50, minus 25% if that day's standup was late

KEY CONCEPTS IN THIS FILE (events.go):
  - The five event snapshot types (read-only facts, denormalized upstream)
  - Supporting-fact collaborator contracts (email history, standup log,
    user directory) implemented by the persistence layer

NOT-APPLICABLE vs DENIED:
  A structurally ineligible event (wrong type, missing sender) yields no
  Decision at all — the rule returns nil. A business rejection (duplicate,
  late, missing prerequisite) yields a Denied Decision with zero points and
  a description stating the reason. Only the latter reaches the ledger.

SEE ALSO:
  - email.go, kudos.go, milestone.go, standup.go, task.go: The rules
  - coordinator.go: Generic evaluate-then-record orchestration
  - service.go: The facade other subsystems call
*/
package award

import (
	"context"
	"time"

	"github.com/warp/points-engine/engine"
)

// =============================================================================
// EMAIL
// =============================================================================

// EmailType distinguishes message direction.
type EmailType string

const (
	EmailSent     EmailType = "sent"
	EmailReceived EmailType = "received"
)

// EmailStatus is the delivery status of a message.
type EmailStatus string

const (
	EmailStatusSent   EmailStatus = "sent"
	EmailStatusFailed EmailStatus = "failed"
	EmailStatusQueued EmailStatus = "queued"
)

// EmailEvent is the snapshot for an outbound email. Only successfully sent
// outbound messages are eligible.
type EmailEvent struct {
	ID       string
	Type     EmailType
	Status   EmailStatus
	SentAt   time.Time
	SenderID engine.UserID

	ProjectID engine.ProjectID
	// LastEmailReceivedAt is the project's cached "most recent inbound
	// email" timestamp. Nil or stale values trigger the EmailHistory
	// fallback lookup.
	LastEmailReceivedAt *time.Time
}

// =============================================================================
// KUDOS
// =============================================================================

// KudosEvent is the snapshot for a peer kudo that has passed its approval
// gate.
type KudosEvent struct {
	ID          string
	Approved    bool
	RecipientID engine.UserID
	ProjectID   engine.ProjectID
	Comment     string
}

// =============================================================================
// MILESTONE
// =============================================================================

// MilestoneEvent is the snapshot for an approved milestone. AssignedUserIDs
// is the distinct set of users assigned to the milestone's tasks; the rule
// fans one Decision out to each.
type MilestoneEvent struct {
	ID              string
	Title           string
	DueDate         time.Time // date-valued; zero means missing
	SubmittedAt     time.Time // zero means missing
	ProjectID       engine.ProjectID
	ProjectTimezone string // empty defaults to UTC
	AssignedUserIDs []engine.UserID
}

// =============================================================================
// STANDUP
// =============================================================================

// StandupEvent is the snapshot for a submitted daily standup.
type StandupEvent struct {
	ID           string
	UserID       engine.UserID
	UserTimezone string // empty defaults to UTC
	ProjectID    engine.ProjectID
	CreatedAt    time.Time
}

// =============================================================================
// TASK
// =============================================================================

// TaskEvent is the snapshot for a completed task. MilestoneID and ProjectID
// are empty when the task is unlinked; that is a recorded denial, not a
// skip, because the assignee still expects feedback.
type TaskEvent struct {
	ID               string
	Title            string
	AssigneeID       engine.UserID
	AssigneeTimezone string // empty defaults to UTC
	MilestoneID      string
	ProjectID        engine.ProjectID
	DueDate          time.Time // date-valued
	CompletedAt      time.Time
}

// =============================================================================
// SUPPORTING-FACT COLLABORATORS (implemented by the persistence layer)
// =============================================================================

// EmailHistory resolves the reply-window start when the project's cached
// last-received timestamp is missing or stale: the sent-at of the most
// recent inbound email in the project's conversations created strictly
// before the given instant.
type EmailHistory interface {
	LastReceivedBefore(ctx context.Context, project engine.ProjectID, before time.Time) (time.Time, bool, error)
}

// StandupRecord is a standup submission fact, independent of whether it
// earned points.
type StandupRecord struct {
	UserID    engine.UserID
	ProjectID engine.ProjectID
	CreatedAt time.Time
}

// StandupLog answers the task rule's prerequisite: did the assignee submit
// a standup inside the given UTC range? Returns (nil, nil) when none did.
type StandupLog interface {
	FindForUserBetween(ctx context.Context, user engine.UserID, fromUTC, toUTC time.Time) (*StandupRecord, error)
}

// UserDirectory lets the milestone fan-out skip users that no longer
// exist. A nil directory means every listed user is assumed to exist.
type UserDirectory interface {
	Exists(ctx context.Context, user engine.UserID) (bool, error)
}
