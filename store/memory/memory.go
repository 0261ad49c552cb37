// Package memory provides an in-memory ledger store for tests and dev mode.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/warp/points-engine/award"
	"github.com/warp/points-engine/engine"
)

// =============================================================================
// MEMORY STORE
// =============================================================================

// Store implements engine.LedgerStore, engine.LedgerReader,
// award.StandupLog and award.EmailHistory in memory. Safe for concurrent
// use; the dedup-key uniqueness check and the append happen under one
// lock, matching the atomicity the recorder contract demands.
type Store struct {
	mu       sync.RWMutex
	entries  []engine.Entry    // insert order == recording order
	dedup    map[string]string // dedup key -> entry ID
	standups []award.StandupRecord
	received map[engine.ProjectID][]time.Time

	// Now is the recording clock; overridable in tests.
	Now func() time.Time
}

var (
	_ engine.LedgerStore  = (*Store)(nil)
	_ engine.LedgerReader = (*Store)(nil)
	_ award.StandupLog    = (*Store)(nil)
	_ award.EmailHistory  = (*Store)(nil)
)

// New creates an empty store.
func New() *Store {
	return &Store{
		dedup:    make(map[string]string),
		received: make(map[engine.ProjectID][]time.Time),
	}
}

func (s *Store) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

// =============================================================================
// RECORDER
// =============================================================================

// Record appends a Decision as an immutable entry. Returns
// engine.ErrDuplicateEntry if the decision's dedup key is already taken.
func (s *Store) Record(_ context.Context, d engine.Decision) (*engine.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if d.DedupKey != "" {
		if _, taken := s.dedup[d.DedupKey]; taken {
			return nil, engine.ErrDuplicateEntry
		}
	}

	// Denied never pays, whatever the rule computed.
	if d.Status == engine.StatusDenied {
		d.Points = decimal.Zero
	}

	entry := engine.Entry{
		ID:         uuid.NewString(),
		Decision:   d,
		RecordedAt: s.now(),
	}
	s.entries = append(s.entries, entry)
	if d.DedupKey != "" {
		s.dedup[d.DedupKey] = entry.ID
	}
	return &entry, nil
}

// =============================================================================
// QUERY
// =============================================================================

func (s *Store) FindByEntity(_ context.Context, kind engine.EntityKind, entityID string) (*engine.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := range s.entries {
		e := s.entries[i]
		if e.Kind == kind && e.EntityID == entityID {
			return &e, nil
		}
	}
	return nil, nil
}

func (s *Store) FindByEntityUser(_ context.Context, kind engine.EntityKind, entityID string, user engine.UserID) (*engine.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := range s.entries {
		e := s.entries[i]
		if e.Kind == kind && e.EntityID == entityID && e.RecipientID == user {
			return &e, nil
		}
	}
	return nil, nil
}

func (s *Store) FindByUserOnDay(_ context.Context, user engine.UserID, kind engine.EntityKind, fromUTC, toUTC time.Time, project engine.ProjectID) (*engine.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := range s.entries {
		e := s.entries[i]
		if e.Kind != kind || e.RecipientID != user || e.ProjectID != project {
			continue
		}
		if e.EffectiveAt.Before(fromUTC) || e.EffectiveAt.After(toUTC) {
			continue
		}
		return &e, nil
	}
	return nil, nil
}

// =============================================================================
// READER (reporting)
// =============================================================================

// List returns entries matching the filter, most recently recorded first.
func (s *Store) List(_ context.Context, f engine.ListFilter) ([]engine.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []engine.Entry
	for i := len(s.entries) - 1; i >= 0; i-- {
		e := s.entries[i]
		if f.User != nil && e.RecipientID != *f.User {
			continue
		}
		if f.Kind != nil && e.Kind != *f.Kind {
			continue
		}
		if f.Project != nil && e.ProjectID != *f.Project {
			continue
		}
		if f.Status != nil && e.Status != *f.Status {
			continue
		}
		result = append(result, e)
		if f.Limit > 0 && len(result) == f.Limit {
			break
		}
	}
	return result, nil
}

// TotalPointsFor sums the paid points recorded for a user.
func (s *Store) TotalPointsFor(_ context.Context, user engine.UserID) (decimal.Decimal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	total := decimal.Zero
	for _, e := range s.entries {
		if e.RecipientID == user && e.Status == engine.StatusPaid {
			total = total.Add(e.Points)
		}
	}
	return total, nil
}

// =============================================================================
// STANDUP LOG
// =============================================================================

// LogStandup records a standup submission fact.
func (s *Store) LogStandup(_ context.Context, rec award.StandupRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.standups = append(s.standups, rec)
	return nil
}

// FindForUserBetween returns the earliest standup the user submitted in
// [fromUTC, toUTC], or nil.
func (s *Store) FindForUserBetween(_ context.Context, user engine.UserID, fromUTC, toUTC time.Time) (*award.StandupRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var match *award.StandupRecord
	for i := range s.standups {
		rec := s.standups[i]
		if rec.UserID != user || rec.CreatedAt.Before(fromUTC) || rec.CreatedAt.After(toUTC) {
			continue
		}
		if match == nil || rec.CreatedAt.Before(match.CreatedAt) {
			match = &rec
		}
	}
	return match, nil
}

// =============================================================================
// EMAIL HISTORY
// =============================================================================

// RecordReceived logs an inbound email's sent-at for a project. Timestamps
// are kept sorted so the lookup is a reverse scan.
func (s *Store) RecordReceived(_ context.Context, project engine.ProjectID, sentAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	times := s.received[project]
	i := sort.Search(len(times), func(i int) bool { return times[i].After(sentAt) })
	times = append(times, time.Time{})
	copy(times[i+1:], times[i:])
	times[i] = sentAt
	s.received[project] = times
	return nil
}

// LastReceivedBefore returns the most recent inbound email strictly before
// the given instant.
func (s *Store) LastReceivedBefore(_ context.Context, project engine.ProjectID, before time.Time) (time.Time, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	times := s.received[project]
	for i := len(times) - 1; i >= 0; i-- {
		if times[i].Before(before) {
			return times[i], true, nil
		}
	}
	return time.Time{}, false, nil
}
