/*
Package sqlite provides a SQLite-backed implementation of the ledger interfaces.

PURPOSE:
  Implements all persistence interfaces (LedgerStore, LedgerReader, plus the
  award collaborator lookups) using SQLite. In production, the same patterns
  apply to PostgreSQL - only minor SQL dialect differences.

INTERFACES IMPLEMENTED:
  engine.LedgerQuery:    Dedup lookups against recorded entries
  engine.LedgerRecorder: Append-only recording of award decisions
  engine.LedgerReader:   Listing and point totals for read surfaces
  award.StandupLog:      Standup prerequisite lookups for the task rule
  award.EmailHistory:    Preceding-received-email lookups for the email rule

APPEND-ONLY ENFORCEMENT:
  The Store enforces append-only semantics:
  - No UPDATE statements on the points_ledger table
  - No DELETE statements on the points_ledger table
  - Duplicate awards are rejected at insert via a partial unique index

KEY TABLES:
  points_ledger:   Immutable ledger of all award decisions (paid and denied)
  standup_log:     Standup submissions, consulted by the task rule
  received_emails: Inbound email timestamps, consulted by the email rule

INDEXES:
  - idx_ledger_dedup: Partial UNIQUE index on dedup_key. Enforces at most
    one substantive decision per (event, recipient) pair. Entries that
    merely audit a repeat invocation carry an empty key and bypass it.
  - idx_ledger_entity: First-decision lookups by (entity_kind, entity_id)
  - idx_ledger_user_kind_effective: Per-user day-window lookups (hot path
    for the standup rule)

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. In production with PostgreSQL,
  database-level concurrency control handles this instead.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better concurrency:
  - Multiple readers don't block
  - Single writer at a time
  - Better crash recovery

USAGE:
  store, err := sqlite.New("./data/points.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  svc := award.NewService(store,
      award.WithStandupLog(store),
      award.WithEmailHistory(store))

SEE ALSO:
  - engine/ledger.go: Interface definitions
  - store/memory/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/warp/points-engine/award"
	"github.com/warp/points-engine/engine"
)

// timeFormat is RFC 3339 with a fixed nine-digit fraction. Fixed width keeps
// lexical ordering identical to chronological ordering, so range predicates
// on TEXT columns stay correct down to the nanosecond window bounds.
const timeFormat = "2006-01-02T15:04:05.000000000Z07:00"

// Store implements the ledger and collaborator interfaces using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

var (
	_ engine.LedgerStore  = (*Store)(nil)
	_ engine.LedgerReader = (*Store)(nil)
	_ award.StandupLog    = (*Store)(nil)
	_ award.EmailHistory  = (*Store)(nil)
)

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Points ledger (append-only)
	CREATE TABLE IF NOT EXISTS points_ledger (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		points TEXT NOT NULL,
		description TEXT NOT NULL,
		status TEXT NOT NULL,
		entity_kind TEXT NOT NULL,
		entity_id TEXT NOT NULL,
		project_id TEXT,
		effective_at TEXT NOT NULL,
		dedup_key TEXT,
		recorded_at TEXT NOT NULL
	);

	-- CRITICAL: at most one substantive decision per (event, recipient).
	-- Audit entries for repeat invocations carry an empty dedup_key and
	-- are exempt from the constraint.
	CREATE UNIQUE INDEX IF NOT EXISTS idx_ledger_dedup
		ON points_ledger(dedup_key)
		WHERE dedup_key IS NOT NULL AND dedup_key != '';

	CREATE INDEX IF NOT EXISTS idx_ledger_entity
		ON points_ledger(entity_kind, entity_id, recorded_at);
	CREATE INDEX IF NOT EXISTS idx_ledger_user_kind_effective
		ON points_ledger(user_id, entity_kind, effective_at);
	CREATE INDEX IF NOT EXISTS idx_ledger_user_status
		ON points_ledger(user_id, status);

	-- Standup submissions (task rule prerequisite lookups)
	CREATE TABLE IF NOT EXISTS standup_log (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		project_id TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_standup_user_created
		ON standup_log(user_id, created_at);

	-- Inbound email timestamps (email rule window anchoring)
	CREATE TABLE IF NOT EXISTS received_emails (
		id TEXT PRIMARY KEY,
		project_id TEXT NOT NULL,
		received_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_received_project_at
		ON received_emails(project_id, received_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// LEDGER RECORDER (engine.LedgerRecorder interface)
// =============================================================================

// Record appends a decision to the ledger. A non-empty dedup key that
// collides with an existing entry returns engine.ErrDuplicateEntry and
// writes nothing.
func (s *Store) Record(ctx context.Context, d engine.Decision) (*engine.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	points := d.Points
	if d.Status == engine.StatusDenied {
		points = decimal.Zero
	}

	entry := engine.Entry{
		ID:         uuid.NewString(),
		Decision:   d,
		RecordedAt: time.Now().UTC(),
	}
	entry.Points = points

	query := `
		INSERT INTO points_ledger
		(id, user_id, points, description, status, entity_kind, entity_id,
		 project_id, effective_at, dedup_key, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		entry.ID,
		string(d.RecipientID),
		points.String(),
		d.Description,
		string(d.Status),
		string(d.Kind),
		d.EntityID,
		nullString(string(d.ProjectID)),
		d.EffectiveAt.UTC().Format(timeFormat),
		nullString(d.DedupKey),
		entry.RecordedAt.Format(timeFormat),
	)

	if err != nil {
		if isUniqueConstraintError(err) {
			return nil, engine.ErrDuplicateEntry
		}
		return nil, fmt.Errorf("failed to record ledger entry: %w", err)
	}

	return &entry, nil
}

// =============================================================================
// LEDGER QUERY (engine.LedgerQuery interface)
// =============================================================================

const selectColumns = `
	SELECT id, user_id, points, description, status, entity_kind, entity_id,
	       project_id, effective_at, dedup_key, recorded_at
	FROM points_ledger`

// FindByEntity returns the earliest recorded entry for the event, or nil
// when no decision has been made yet.
func (s *Store) FindByEntity(ctx context.Context, kind engine.EntityKind, entityID string) (*engine.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := selectColumns + `
		WHERE entity_kind = ? AND entity_id = ?
		ORDER BY recorded_at ASC LIMIT 1`
	return s.queryOne(ctx, query, string(kind), entityID)
}

// FindByEntityUser returns the earliest recorded entry for the
// (event, recipient) pair, or nil.
func (s *Store) FindByEntityUser(ctx context.Context, kind engine.EntityKind, entityID string, user engine.UserID) (*engine.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := selectColumns + `
		WHERE entity_kind = ? AND entity_id = ? AND user_id = ?
		ORDER BY recorded_at ASC LIMIT 1`
	return s.queryOne(ctx, query, string(kind), entityID, string(user))
}

// FindByUserOnDay returns the earliest entry of the given kind whose
// effective instant falls inside [fromUTC, toUTC] for the user and
// project, or nil.
func (s *Store) FindByUserOnDay(ctx context.Context, user engine.UserID, kind engine.EntityKind, fromUTC, toUTC time.Time, project engine.ProjectID) (*engine.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := selectColumns + `
		WHERE user_id = ? AND entity_kind = ?
		  AND effective_at >= ? AND effective_at <= ?
		  AND project_id = ?
		ORDER BY effective_at ASC LIMIT 1`
	return s.queryOne(ctx, query,
		string(user), string(kind),
		fromUTC.UTC().Format(timeFormat), toUTC.UTC().Format(timeFormat),
		string(project))
}

// =============================================================================
// LEDGER READER (engine.LedgerReader interface)
// =============================================================================

// List returns entries newest-first, narrowed by the filter.
func (s *Store) List(ctx context.Context, f engine.ListFilter) ([]engine.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		conds []string
		args  []any
	)
	if f.User != nil {
		conds = append(conds, "user_id = ?")
		args = append(args, string(*f.User))
	}
	if f.Kind != nil {
		conds = append(conds, "entity_kind = ?")
		args = append(args, string(*f.Kind))
	}
	if f.Project != nil {
		conds = append(conds, "project_id = ?")
		args = append(args, string(*f.Project))
	}
	if f.Status != nil {
		conds = append(conds, "status = ?")
		args = append(args, string(*f.Status))
	}

	query := selectColumns
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY recorded_at DESC"
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query ledger: %w", err)
	}
	defer rows.Close()

	var entries []engine.Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// TotalPointsFor sums the points of all paid entries for the user.
func (s *Store) TotalPointsFor(ctx context.Context, user engine.UserID) (decimal.Decimal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT points FROM points_ledger
		WHERE user_id = ? AND status = ?`
	rows, err := s.db.QueryContext(ctx, query, string(user), string(engine.StatusPaid))
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to query point totals: %w", err)
	}
	defer rows.Close()

	// Sum in decimal, not SQL: points columns are exact decimal strings
	// and must not round-trip through floating point.
	total := decimal.Zero
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return decimal.Zero, fmt.Errorf("failed to scan points: %w", err)
		}
		p, err := decimal.NewFromString(raw)
		if err != nil {
			return decimal.Zero, fmt.Errorf("corrupt points value %q: %w", raw, err)
		}
		total = total.Add(p)
	}
	return total, rows.Err()
}

// =============================================================================
// STANDUP LOG (award.StandupLog interface)
// =============================================================================

// LogStandup records a standup submission for later task-rule lookups.
func (s *Store) LogStandup(ctx context.Context, rec award.StandupRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO standup_log (id, user_id, project_id, created_at)
		VALUES (?, ?, ?, ?)`
	_, err := s.db.ExecContext(ctx, query,
		uuid.NewString(),
		string(rec.UserID),
		string(rec.ProjectID),
		rec.CreatedAt.UTC().Format(timeFormat),
	)
	if err != nil {
		return fmt.Errorf("failed to log standup: %w", err)
	}
	return nil
}

// FindForUserBetween returns the earliest standup the user submitted in
// [fromUTC, toUTC], or nil when none exists.
func (s *Store) FindForUserBetween(ctx context.Context, user engine.UserID, fromUTC, toUTC time.Time) (*award.StandupRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT user_id, project_id, created_at FROM standup_log
		WHERE user_id = ? AND created_at >= ? AND created_at <= ?
		ORDER BY created_at ASC LIMIT 1`
	row := s.db.QueryRowContext(ctx, query,
		string(user),
		fromUTC.UTC().Format(timeFormat), toUTC.UTC().Format(timeFormat))

	var (
		rec       award.StandupRecord
		userID    string
		projectID string
		createdAt string
	)
	if err := row.Scan(&userID, &projectID, &createdAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query standup log: %w", err)
	}
	rec.UserID = engine.UserID(userID)
	rec.ProjectID = engine.ProjectID(projectID)
	rec.CreatedAt = parseTime(createdAt)
	return &rec, nil
}

// =============================================================================
// EMAIL HISTORY (award.EmailHistory interface)
// =============================================================================

// RecordReceived stores an inbound email timestamp for a project.
func (s *Store) RecordReceived(ctx context.Context, project engine.ProjectID, receivedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO received_emails (id, project_id, received_at)
		VALUES (?, ?, ?)`
	_, err := s.db.ExecContext(ctx, query,
		uuid.NewString(),
		string(project),
		receivedAt.UTC().Format(timeFormat),
	)
	if err != nil {
		return fmt.Errorf("failed to record received email: %w", err)
	}
	return nil
}

// LastReceivedBefore returns the most recent inbound email for the project
// strictly before the given instant. The boolean reports whether one exists.
func (s *Store) LastReceivedBefore(ctx context.Context, project engine.ProjectID, before time.Time) (time.Time, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT received_at FROM received_emails
		WHERE project_id = ? AND received_at < ?
		ORDER BY received_at DESC LIMIT 1`
	row := s.db.QueryRowContext(ctx, query,
		string(project), before.UTC().Format(timeFormat))

	var receivedAt string
	if err := row.Scan(&receivedAt); err != nil {
		if err == sql.ErrNoRows {
			return time.Time{}, false, nil
		}
		return time.Time{}, false, fmt.Errorf("failed to query received emails: %w", err)
	}
	return parseTime(receivedAt), true, nil
}

// =============================================================================
// HELPERS
// =============================================================================

func (s *Store) queryOne(ctx context.Context, query string, args ...any) (*engine.Entry, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query ledger: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	entry, err := scanEntry(rows)
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func scanEntry(rows *sql.Rows) (engine.Entry, error) {
	var (
		entry       engine.Entry
		userID      string
		points      string
		status      string
		kind        string
		projectID   sql.NullString
		effectiveAt string
		dedupKey    sql.NullString
		recordedAt  string
	)

	err := rows.Scan(
		&entry.ID, &userID, &points, &entry.Description, &status,
		&kind, &entry.EntityID, &projectID, &effectiveAt, &dedupKey, &recordedAt,
	)
	if err != nil {
		return entry, fmt.Errorf("failed to scan ledger entry: %w", err)
	}

	entry.RecipientID = engine.UserID(userID)
	entry.Points, err = decimal.NewFromString(points)
	if err != nil {
		return entry, fmt.Errorf("corrupt points value %q: %w", points, err)
	}
	entry.Status = engine.Status(status)
	entry.Kind = engine.EntityKind(kind)
	entry.ProjectID = engine.ProjectID(projectID.String)
	entry.EffectiveAt = parseTime(effectiveAt)
	entry.DedupKey = dedupKey.String
	entry.RecordedAt = parseTime(recordedAt)
	return entry, nil
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(timeFormat, s)
	return t
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func isUniqueConstraintError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
