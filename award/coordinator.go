/*
coordinator.go - Evaluate-then-record orchestration

PURPOSE:
  Every event kind follows the same shape: evaluate the rule, hand each
  resulting Decision to the ledger recorder, translate insert conflicts
  into the duplicate denial a pre-check would have produced. One generic
  Coordinator parameterized by the rule covers all five kinds.

CONCURRENCY:
  The guard's pre-check and the recorder's insert are not atomic together.
  Two workers racing on the same event can both pass the pre-check; the
  recorder's uniqueness constraint then rejects the loser, and the
  conflict is rewritten here as a recorded Denied entry. Running the same
  event any number of times therefore always yields the same audit
  outcome: one substantive decision, then duplicate denials.
*/
package award

import (
	"context"
	"fmt"

	"github.com/warp/points-engine/engine"
)

// Rule is the evaluator contract the coordinator orchestrates.
type Rule[E any] interface {
	Kind() engine.EntityKind

	// Evaluate returns nil when the event is not applicable, or the
	// decisions to record. Errors are infrastructure or caller bugs only —
	// business rejections come back as Denied decisions.
	Evaluate(ctx context.Context, event E) ([]engine.Decision, error)
}

// Coordinator runs one rule and records its decisions.
type Coordinator[E any] struct {
	Rule     Rule[E]
	Recorder engine.LedgerRecorder
}

// NewCoordinator wires a rule to a recorder.
func NewCoordinator[E any](rule Rule[E], recorder engine.LedgerRecorder) *Coordinator[E] {
	return &Coordinator[E]{Rule: rule, Recorder: recorder}
}

// Award evaluates the event and records every resulting decision. A nil,
// nil return means the event was not applicable. On a recorder failure the
// entries recorded before the failure are returned alongside the error so
// a milestone fan-out interrupted mid-flight is observable.
func (c *Coordinator[E]) Award(ctx context.Context, event E) ([]engine.Entry, error) {
	decisions, err := c.Rule.Evaluate(ctx, event)
	if err != nil {
		return nil, err
	}
	if len(decisions) == 0 {
		return nil, nil
	}

	entries := make([]engine.Entry, 0, len(decisions))
	for _, d := range decisions {
		entry, err := c.Recorder.Record(ctx, d)
		if engine.IsConflict(err) {
			// Lost a race with a concurrent worker. Record the same
			// duplicate denial the pre-check would have produced.
			dup := engine.NewDenied(d.RecipientID,
				fmt.Sprintf("Denied: Points already awarded for this %s.", d.Kind),
				d.Kind, d.EntityID, d.ProjectID, d.EffectiveAt, "")
			entry, err = c.Recorder.Record(ctx, dup)
		}
		if err != nil {
			return entries, &engine.RecordingError{Kind: d.Kind, EntityID: d.EntityID, Err: err}
		}
		entries = append(entries, *entry)
	}
	return entries, nil
}
