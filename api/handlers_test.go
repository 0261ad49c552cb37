/*
handlers_test.go - HTTP-level tests for the award endpoints

Tests drive the real router over a SQLite :memory: store, end to end:
event ingestion, duplicate handling, ledger listing, and point totals.
*/
package api_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/points-engine/api"
	"github.com/warp/points-engine/award"
	"github.com/warp/points-engine/store/sqlite"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	svc := award.NewService(store,
		award.WithStandupLog(store),
		award.WithEmailHistory(store),
	)
	router := api.NewRouter(api.NewHandler(svc, store, store))

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return server
}

func postJSON(t *testing.T, server *httptest.Server, path string, body any) *http.Response {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)

	resp, err := http.Post(server.URL+path, "application/json", bytes.NewReader(payload))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeEntries(t *testing.T, resp *http.Response) []api.EntryDTO {
	t.Helper()
	var entries []api.EntryDTO
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&entries))
	return entries
}

// =============================================================================
// EVENT INGESTION
// =============================================================================

func TestAPI_KudosFlow(t *testing.T) {
	server := newTestServer(t)

	kudo := api.KudosEventRequest{
		ID:          "kd-1",
		Approved:    true,
		RecipientID: "user-1",
		ProjectID:   "proj-1",
		Comment:     "Solid incident writeup",
	}

	resp := postJSON(t, server, "/api/events/kudos", kudo)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	entries := decodeEntries(t, resp)
	require.Len(t, entries, 1)
	assert.Equal(t, "paid", entries[0].Status)
	assert.Equal(t, "25", entries[0].Points)
	assert.Equal(t, "Peer Kudos Received: Solid incident writeup", entries[0].Description)

	// Replaying the event yields a recorded denial, still 200.
	resp = postJSON(t, server, "/api/events/kudos", kudo)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	entries = decodeEntries(t, resp)
	require.Len(t, entries, 1)
	assert.Equal(t, "denied", entries[0].Status)
	assert.Equal(t, "0", entries[0].Points)
}

func TestAPI_EmailFlow(t *testing.T) {
	server := newTestServer(t)

	received := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)
	resp := postJSON(t, server, "/api/events/email-received", api.EmailReceivedRequest{
		ProjectID:  "proj-1",
		ReceivedAt: received,
	})
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = postJSON(t, server, "/api/events/email", api.EmailEventRequest{
		ID:        "em-1",
		Type:      "sent",
		Status:    "sent",
		SentAt:    received.Add(2 * time.Hour),
		SenderID:  "user-1",
		ProjectID: "proj-1",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	entries := decodeEntries(t, resp)
	require.Len(t, entries, 1)
	assert.Equal(t, "paid", entries[0].Status)
	assert.Equal(t, "50", entries[0].Points)
	assert.Equal(t, "Timely Email Reply", entries[0].Description)
}

func TestAPI_StandupThenTask(t *testing.T) {
	server := newTestServer(t)

	// Standup at 09:00 UTC earns 25 and logs the fact for the task rule.
	resp := postJSON(t, server, "/api/events/standup", api.StandupEventRequest{
		ID:        "su-1",
		UserID:    "user-1",
		ProjectID: "proj-1",
		CreatedAt: time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC),
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	entries := decodeEntries(t, resp)
	require.Len(t, entries, 1)
	assert.Equal(t, "25", entries[0].Points)

	// A task completed the same day, a day ahead of its due date.
	resp = postJSON(t, server, "/api/events/task", api.TaskEventRequest{
		ID:          "tk-1",
		Title:       "Wire the exporter",
		AssigneeID:  "user-1",
		MilestoneID: "ms-1",
		ProjectID:   "proj-1",
		DueDate:     time.Date(2025, 6, 11, 0, 0, 0, 0, time.UTC),
		CompletedAt: time.Date(2025, 6, 10, 15, 0, 0, 0, time.UTC),
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	entries = decodeEntries(t, resp)
	require.Len(t, entries, 1)
	assert.Equal(t, "paid", entries[0].Status)
	assert.Equal(t, "100", entries[0].Points)
	assert.Equal(t, "Early Task Completion: Wire the exporter", entries[0].Description)
}

func TestAPI_MilestoneFanOut(t *testing.T) {
	server := newTestServer(t)

	resp := postJSON(t, server, "/api/events/milestone", api.MilestoneEventRequest{
		ID:              "ms-1",
		Title:           "GA launch",
		DueDate:         time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC),
		SubmittedAt:     time.Date(2025, 6, 9, 12, 0, 0, 0, time.UTC),
		ProjectID:       "proj-1",
		AssignedUserIDs: []string{"user-1", "user-2"},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	entries := decodeEntries(t, resp)
	require.Len(t, entries, 2)
	for _, e := range entries {
		assert.Equal(t, "500", e.Points)
	}

	// Replays are a 204 no-op for milestones.
	resp = postJSON(t, server, "/api/events/milestone", api.MilestoneEventRequest{
		ID:              "ms-1",
		Title:           "GA launch",
		DueDate:         time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC),
		SubmittedAt:     time.Date(2025, 6, 9, 12, 0, 0, 0, time.UTC),
		ProjectID:       "proj-1",
		AssignedUserIDs: []string{"user-1", "user-2"},
	})
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
}

// =============================================================================
// STATUS MAPPING
// =============================================================================

func TestAPI_NotApplicable_Returns204(t *testing.T) {
	server := newTestServer(t)

	resp := postJSON(t, server, "/api/events/kudos", api.KudosEventRequest{
		ID:          "kd-x",
		Approved:    false,
		RecipientID: "user-1",
		ProjectID:   "proj-1",
	})
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestAPI_BadJSON_Returns400(t *testing.T) {
	server := newTestServer(t)

	resp, err := http.Post(server.URL+"/api/events/kudos", "application/json",
		bytes.NewReader([]byte("{not json")))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAPI_InvalidEvent_Returns422(t *testing.T) {
	server := newTestServer(t)

	// Approved kudo with no id is a structural error, not a denial.
	resp := postJSON(t, server, "/api/events/kudos", api.KudosEventRequest{
		Approved:    true,
		RecipientID: "user-1",
		ProjectID:   "proj-1",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

// =============================================================================
// LEDGER READS
// =============================================================================

func TestAPI_LedgerAndTotals(t *testing.T) {
	server := newTestServer(t)

	for i := 1; i <= 2; i++ {
		resp := postJSON(t, server, "/api/events/kudos", api.KudosEventRequest{
			ID:          fmt.Sprintf("kd-%d", i),
			Approved:    true,
			RecipientID: "user-1",
			ProjectID:   "proj-1",
			Comment:     "thanks",
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}

	resp, err := http.Get(server.URL + "/api/ledger?user=user-1&status=paid")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	entries := decodeEntries(t, resp)
	assert.Len(t, entries, 2)

	resp, err = http.Get(server.URL + "/api/ledger?kind=bogus")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	resp, err = http.Get(server.URL + "/api/users/user-1/points")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var summary api.PointsSummaryDTO
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&summary))
	assert.Equal(t, "user-1", summary.UserID)
	assert.Equal(t, "50", summary.Total)
}
