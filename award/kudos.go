/*
kudos.go - Peer kudos award

RULE:
  An approved kudo earns its recipient a flat 25 points. No timing
  classification — the approval gate upstream is the only eligibility
  check beyond structure.

DEDUP SCOPE: (kudos, id).
*/
package award

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/points-engine/engine"
)

// KudosPoints is the flat award for an approved peer kudo.
const KudosPoints = 25

// KudosRule evaluates KudosEvents.
type KudosRule struct {
	Guard *engine.DeduplicationGuard

	// Now supplies the ledger date for kudos, which have no meaningful
	// event timestamp of their own. Defaults to time.Now.
	Now func() time.Time
}

func (r *KudosRule) Kind() engine.EntityKind { return engine.KindKudos }

func (r *KudosRule) Evaluate(ctx context.Context, e KudosEvent) ([]engine.Decision, error) {
	if !e.Approved {
		return nil, nil
	}
	if e.RecipientID == "" || e.ProjectID == "" {
		return nil, nil
	}
	if e.ID == "" {
		return nil, &engine.InvalidEventError{Kind: engine.KindKudos, Field: "id"}
	}

	existing, err := r.Guard.ExistingForEntity(ctx, engine.KindKudos, e.ID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		d := engine.NewDenied(e.RecipientID,
			fmt.Sprintf("Denied: Points already awarded for this kudo. Existing entry: %s", existing.ID),
			engine.KindKudos, e.ID, e.ProjectID, r.now(), "")
		return []engine.Decision{d}, nil
	}

	d := engine.NewPaid(e.RecipientID, decimal.NewFromInt(KudosPoints),
		"Peer Kudos Received: "+e.Comment,
		engine.KindKudos, e.ID, e.ProjectID, r.now(),
		engine.EntityDedupKey(engine.KindKudos, e.ID))
	return []engine.Decision{d}, nil
}

func (r *KudosRule) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now().UTC()
}
