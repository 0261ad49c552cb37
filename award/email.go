/*
email.go - Timely email reply award

RULE:
  An outbound, successfully sent email earns 50 points when it was sent
  within 4 hours (inclusive) of the most recent inbound email on the
  project. The window start comes from the project's cached last-received
  timestamp when that cache is chronologically before the sent time;
  otherwise from an EmailHistory lookup of the true preceding received
  email. No window start means no timely reply — a recorded denial.

DEDUP SCOPE: (email, id) — one substantive decision per email.
*/
package award

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/points-engine/engine"
)

const (
	// EmailPoints is the award for a timely reply.
	EmailPoints = 50

	// ReplyWindow is how long after an inbound email a reply counts as
	// timely. Inclusive at both ends.
	ReplyWindow = 4 * time.Hour
)

// EmailRule evaluates EmailEvents.
type EmailRule struct {
	Guard   *engine.DeduplicationGuard
	History EmailHistory // optional; nil disables the fallback lookup
}

func (r *EmailRule) Kind() engine.EntityKind { return engine.KindEmail }

// Evaluate returns nil for inapplicable emails (inbound, unsent, missing
// sender or project), a duplicate denial when the email was already
// decided, and otherwise a paid or denied timeliness decision.
func (r *EmailRule) Evaluate(ctx context.Context, e EmailEvent) ([]engine.Decision, error) {
	if e.Type != EmailSent || e.Status != EmailStatusSent {
		return nil, nil
	}
	if e.SenderID == "" || e.ProjectID == "" {
		return nil, nil
	}
	if e.ID == "" {
		return nil, &engine.InvalidEventError{Kind: engine.KindEmail, Field: "id"}
	}
	if e.SentAt.IsZero() {
		return nil, &engine.InvalidEventError{Kind: engine.KindEmail, Field: "sentAt"}
	}

	existing, err := r.Guard.ExistingForEntity(ctx, engine.KindEmail, e.ID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		// Backdated to the existing entry so repeated invocations cluster
		// with the decision they duplicate.
		d := engine.NewDenied(e.SenderID,
			fmt.Sprintf("Denied: Points already awarded for this email. Existing entry: %s", existing.ID),
			engine.KindEmail, e.ID, e.ProjectID, existing.RecordedAt, "")
		return []engine.Decision{d}, nil
	}

	windowStart, found, err := r.resolveWindowStart(ctx, e)
	if err != nil {
		return nil, err
	}

	key := engine.EntityDedupKey(engine.KindEmail, e.ID)

	if found && engine.WithinWindow(e.SentAt, windowStart, ReplyWindow) {
		d := engine.NewPaid(e.SenderID, decimal.NewFromInt(EmailPoints),
			"Timely Email Reply",
			engine.KindEmail, e.ID, e.ProjectID, e.SentAt, key)
		return []engine.Decision{d}, nil
	}

	desc := "Denied: Email reply not within the 4-hour window. No preceding received email to anchor the window."
	if found {
		desc = fmt.Sprintf("Denied: Email reply not within the 4-hour window. Last email was received at %s and this email was sent at %s.",
			windowStart.UTC().Format(time.RFC3339), e.SentAt.UTC().Format(time.RFC3339))
	}
	d := engine.NewDenied(e.SenderID, desc, engine.KindEmail, e.ID, e.ProjectID, e.SentAt, key)
	return []engine.Decision{d}, nil
}

// resolveWindowStart prefers the project's cached last-received timestamp,
// but only when it is chronologically before the sent time — a cache
// updated by a LATER inbound email would make every reply look timely.
// Stale or missing caches fall back to the history lookup.
func (r *EmailRule) resolveWindowStart(ctx context.Context, e EmailEvent) (time.Time, bool, error) {
	if e.LastEmailReceivedAt != nil && e.LastEmailReceivedAt.Before(e.SentAt) {
		return *e.LastEmailReceivedAt, true, nil
	}
	if r.History == nil {
		return time.Time{}, false, nil
	}
	return r.History.LastReceivedBefore(ctx, e.ProjectID, e.SentAt)
}
