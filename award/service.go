/*
service.go - The points service facade

PURPOSE:
  The single entry point other subsystems call. Event handlers resolve a
  domain event into one of the five snapshot types and hand it to
  AwardPointsFor; the service dispatches to the matching coordinator.

  Business conditions (duplicates, lateness, missing prerequisites) never
  surface as errors here — they come back as recorded Denied entries, or
  as a nil result for structurally inapplicable events. Only recording
  failures and caller bugs return errors.

USAGE:
  svc := award.NewService(store,
      award.WithStandupLog(store),
      award.WithEmailHistory(store),
  )
  entries, err := svc.AwardPointsFor(ctx, award.StandupEvent{...})
*/
package award

import (
	"context"
	"fmt"
	"time"

	"github.com/warp/points-engine/engine"
)

// Service dispatches event snapshots to their award coordinators.
type Service struct {
	emails     *Coordinator[EmailEvent]
	kudos      *Coordinator[KudosEvent]
	milestones *Coordinator[MilestoneEvent]
	standups   *Coordinator[StandupEvent]
	tasks      *Coordinator[TaskEvent]
}

// Option configures optional collaborators.
type Option func(*config)

type config struct {
	history    EmailHistory
	standups   StandupLog
	classifier TaskTimelinessClassifier
	directory  UserDirectory
	now        func() time.Time
}

// WithEmailHistory enables the email rule's fallback window-start lookup.
func WithEmailHistory(h EmailHistory) Option { return func(c *config) { c.history = h } }

// WithStandupLog supplies the task rule's standup prerequisite lookup.
func WithStandupLog(l StandupLog) Option { return func(c *config) { c.standups = l } }

// WithClassifier replaces the default due-date task classifier.
func WithClassifier(cl TaskTimelinessClassifier) Option { return func(c *config) { c.classifier = cl } }

// WithUserDirectory lets the milestone fan-out skip deleted users.
func WithUserDirectory(d UserDirectory) Option { return func(c *config) { c.directory = d } }

// WithNow fixes the clock used for kudos ledger dating. Tests only.
func WithNow(now func() time.Time) Option { return func(c *config) { c.now = now } }

// NewService builds the full award pipeline on top of a ledger store.
func NewService(store engine.LedgerStore, opts ...Option) *Service {
	var cfg config
	for _, opt := range opts {
		opt(&cfg)
	}

	guard := engine.NewDeduplicationGuard(store)

	return &Service{
		emails:     NewCoordinator[EmailEvent](&EmailRule{Guard: guard, History: cfg.history}, store),
		kudos:      NewCoordinator[KudosEvent](&KudosRule{Guard: guard, Now: cfg.now}, store),
		milestones: NewCoordinator[MilestoneEvent](&MilestoneRule{Guard: guard, Directory: cfg.directory}, store),
		standups:   NewCoordinator[StandupEvent](&StandupRule{Guard: guard}, store),
		tasks:      NewCoordinator[TaskEvent](&TaskRule{Guard: guard, Standups: cfg.standups, Classifier: cfg.classifier}, store),
	}
}

// AwardPointsFor dispatches any of the five event snapshot types. Returns
// the recorded entries, or nil when the event was not applicable.
func (s *Service) AwardPointsFor(ctx context.Context, event any) ([]engine.Entry, error) {
	switch e := event.(type) {
	case EmailEvent:
		return s.AwardEmail(ctx, e)
	case *EmailEvent:
		return s.AwardEmail(ctx, *e)
	case KudosEvent:
		return s.AwardKudos(ctx, e)
	case *KudosEvent:
		return s.AwardKudos(ctx, *e)
	case MilestoneEvent:
		return s.AwardMilestone(ctx, e)
	case *MilestoneEvent:
		return s.AwardMilestone(ctx, *e)
	case StandupEvent:
		return s.AwardStandup(ctx, e)
	case *StandupEvent:
		return s.AwardStandup(ctx, *e)
	case TaskEvent:
		return s.AwardTask(ctx, e)
	case *TaskEvent:
		return s.AwardTask(ctx, *e)
	default:
		return nil, fmt.Errorf("%w: %T", engine.ErrUnknownEventKind, event)
	}
}

// Typed dispatch, for callers that already know the event kind.

func (s *Service) AwardEmail(ctx context.Context, e EmailEvent) ([]engine.Entry, error) {
	return s.emails.Award(ctx, e)
}

func (s *Service) AwardKudos(ctx context.Context, e KudosEvent) ([]engine.Entry, error) {
	return s.kudos.Award(ctx, e)
}

func (s *Service) AwardMilestone(ctx context.Context, e MilestoneEvent) ([]engine.Entry, error) {
	return s.milestones.Award(ctx, e)
}

func (s *Service) AwardStandup(ctx context.Context, e StandupEvent) ([]engine.Entry, error) {
	return s.standups.Award(ctx, e)
}

func (s *Service) AwardTask(ctx context.Context, e TaskEvent) ([]engine.Entry, error) {
	return s.tasks.Award(ctx, e)
}
