package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/points-engine/award"
	"github.com/warp/points-engine/engine"
	"github.com/warp/points-engine/store/sqlite"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func paidKudos(user engine.UserID, entityID, key string, at time.Time) engine.Decision {
	return engine.NewPaid(user, decimal.NewFromInt(25), "Peer Kudos Received: nice",
		engine.KindKudos, entityID, "proj-1", at, key)
}

// =============================================================================
// RECORD AND CONFLICTS
// =============================================================================

func TestSQLiteStore_RecordAndFind(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	at := time.Date(2025, 6, 2, 10, 30, 0, 0, time.UTC)

	entry, err := store.Record(ctx, paidKudos("user-1", "kd-1", "kudos:kd-1", at))
	require.NoError(t, err)
	require.NotEmpty(t, entry.ID)

	got, err := store.FindByEntity(ctx, engine.KindKudos, "kd-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, entry.ID, got.ID)
	assert.Equal(t, engine.UserID("user-1"), got.RecipientID)
	assert.Equal(t, "Peer Kudos Received: nice", got.Description)
	assert.True(t, got.Points.Equal(decimal.NewFromInt(25)))
	assert.True(t, got.EffectiveAt.Equal(at))
	assert.Equal(t, "kudos:kd-1", got.DedupKey)

	miss, err := store.FindByEntity(ctx, engine.KindKudos, "kd-404")
	require.NoError(t, err)
	assert.Nil(t, miss)
}

func TestSQLiteStore_DedupKeyConflict(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	at := time.Date(2025, 6, 2, 10, 30, 0, 0, time.UTC)

	_, err := store.Record(ctx, paidKudos("user-1", "kd-1", "kudos:kd-1", at))
	require.NoError(t, err)

	_, err = store.Record(ctx, paidKudos("user-1", "kd-1", "kudos:kd-1", at))
	assert.ErrorIs(t, err, engine.ErrDuplicateEntry)

	// Keyless audit entries bypass the constraint.
	keyless := engine.NewDenied("user-1", "Denied: Points already awarded for this kudos.",
		engine.KindKudos, "kd-1", "proj-1", at, "")
	_, err = store.Record(ctx, keyless)
	require.NoError(t, err)
	_, err = store.Record(ctx, keyless)
	require.NoError(t, err)

	all, err := store.List(ctx, engine.ListFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestSQLiteStore_DeniedNeverPays(t *testing.T) {
	store := newTestStore(t)

	d := engine.Decision{
		RecipientID: "user-1",
		Points:      decimal.NewFromInt(500),
		Description: "Denied: Task was not completed on time.",
		Status:      engine.StatusDenied,
		Kind:        engine.KindTask,
		EntityID:    "tk-1",
		ProjectID:   "proj-1",
		EffectiveAt: time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC),
		DedupKey:    "task:tk-1:user:user-1",
	}
	entry, err := store.Record(context.Background(), d)
	require.NoError(t, err)
	assert.Zero(t, entry.PointsInt())

	got, err := store.FindByEntityUser(context.Background(), engine.KindTask, "tk-1", "user-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Zero(t, got.PointsInt())
}

// =============================================================================
// WINDOW QUERIES
// =============================================================================

func TestSQLiteStore_FindByUserOnDay(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	// Standup entry effective 09:00 Karachi on June 2.
	loc, err := time.LoadLocation("Asia/Karachi")
	require.NoError(t, err)
	at := time.Date(2025, 6, 2, 9, 0, 0, 0, loc)

	d := engine.NewPaid("user-1", decimal.NewFromInt(25), "On-Time Daily Standup on Jun 2, 2025",
		engine.KindStandup, "su-1", "proj-1", at, "standup:user:user-1:2025-06-02:project:proj-1")
	_, err = store.Record(ctx, d)
	require.NoError(t, err)

	from, to := engine.DayBounds(at, "Asia/Karachi")
	got, err := store.FindByUserOnDay(ctx, "user-1", engine.KindStandup, from, to, "proj-1")
	require.NoError(t, err)
	require.NotNil(t, got)

	// The next local day misses, as does another project.
	nextFrom, nextTo := engine.DayBounds(at.AddDate(0, 0, 1), "Asia/Karachi")
	miss, err := store.FindByUserOnDay(ctx, "user-1", engine.KindStandup, nextFrom, nextTo, "proj-1")
	require.NoError(t, err)
	assert.Nil(t, miss)
	miss, err = store.FindByUserOnDay(ctx, "user-1", engine.KindStandup, from, to, "proj-2")
	require.NoError(t, err)
	assert.Nil(t, miss)
}

// =============================================================================
// READER
// =============================================================================

func TestSQLiteStore_ListAndTotals(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	at := time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)

	_, err := store.Record(ctx, paidKudos("user-1", "kd-1", "kudos:kd-1", at))
	require.NoError(t, err)
	_, err = store.Record(ctx, paidKudos("user-2", "kd-2", "kudos:kd-2", at))
	require.NoError(t, err)
	_, err = store.Record(ctx, engine.NewPaid("user-1", decimal.NewFromInt(75),
		"Early Task Completion: x (Reduced due to late standup)",
		engine.KindTask, "tk-1", "proj-1", at, "task:tk-1:user:user-1"))
	require.NoError(t, err)
	_, err = store.Record(ctx, engine.NewDenied("user-1", "Denied: Task was not completed on time.",
		engine.KindTask, "tk-2", "proj-1", at, "task:tk-2:user:user-1"))
	require.NoError(t, err)

	user1 := engine.UserID("user-1")
	entries, err := store.List(ctx, engine.ListFilter{User: &user1})
	require.NoError(t, err)
	assert.Len(t, entries, 3)

	kind := engine.KindTask
	paid := engine.StatusPaid
	entries, err = store.List(ctx, engine.ListFilter{User: &user1, Kind: &kind, Status: &paid})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, int64(75), entries[0].PointsInt())

	entries, err = store.List(ctx, engine.ListFilter{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	total, err := store.TotalPointsFor(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, int64(100), total.IntPart())
}

// =============================================================================
// COLLABORATOR TABLES
// =============================================================================

func TestSQLiteStore_StandupLog(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	created := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)
	err := store.LogStandup(ctx, award.StandupRecord{UserID: "user-1", ProjectID: "proj-1", CreatedAt: created})
	require.NoError(t, err)

	from, to := engine.DayBounds(created, "UTC")
	rec, err := store.FindForUserBetween(ctx, "user-1", from, to)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, engine.UserID("user-1"), rec.UserID)
	assert.True(t, rec.CreatedAt.Equal(created))

	rec, err = store.FindForUserBetween(ctx, "user-2", from, to)
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestSQLiteStore_EmailHistory(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2025, 6, 2, 8, 0, 0, 0, time.UTC)
	for _, at := range []time.Time{base, base.Add(time.Hour), base.Add(2 * time.Hour)} {
		require.NoError(t, store.RecordReceived(ctx, "proj-1", at))
	}

	got, found, err := store.LastReceivedBefore(ctx, "proj-1", base.Add(90*time.Minute))
	require.NoError(t, err)
	require.True(t, found)
	assert.True(t, got.Equal(base.Add(time.Hour)))

	// Strictly before: the exact instant does not count.
	_, found, err = store.LastReceivedBefore(ctx, "proj-1", base)
	require.NoError(t, err)
	assert.False(t, found)

	_, found, err = store.LastReceivedBefore(ctx, "proj-2", base.Add(time.Hour))
	require.NoError(t, err)
	assert.False(t, found)
}
