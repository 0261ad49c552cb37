/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract, allowing:
  - Field renaming without breaking clients
  - API-specific validation
  - Version evolution

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

TYPES:
  Events:
    EmailEventRequest, KudosEventRequest, MilestoneEventRequest,
    StandupEventRequest, TaskEventRequest, EmailReceivedRequest

  Ledger:
    EntryDTO, PointsSummaryDTO

VALIDATION:
  Validation is done in handlers and rules, not in DTOs. DTOs are pure
  data carriers.

SEE ALSO:
  - handlers.go: Uses these types
  - award/events.go: Domain event types these map onto
*/
package api

import (
	"time"

	"github.com/warp/points-engine/award"
	"github.com/warp/points-engine/engine"
)

// =============================================================================
// EVENT REQUESTS
// =============================================================================

// EmailEventRequest carries an outbound email snapshot.
type EmailEventRequest struct {
	ID                  string     `json:"id"`
	Type                string     `json:"type"`
	Status              string     `json:"status"`
	SentAt              time.Time  `json:"sent_at"`
	SenderID            string     `json:"sender_id"`
	ProjectID           string     `json:"project_id"`
	LastEmailReceivedAt *time.Time `json:"last_email_received_at,omitempty"`
}

func (r EmailEventRequest) toEvent() award.EmailEvent {
	return award.EmailEvent{
		ID:                  r.ID,
		Type:                award.EmailType(r.Type),
		Status:              award.EmailStatus(r.Status),
		SentAt:              r.SentAt,
		SenderID:            engine.UserID(r.SenderID),
		ProjectID:           engine.ProjectID(r.ProjectID),
		LastEmailReceivedAt: r.LastEmailReceivedAt,
	}
}

// KudosEventRequest carries an approved peer kudo.
type KudosEventRequest struct {
	ID          string `json:"id"`
	Approved    bool   `json:"approved"`
	RecipientID string `json:"recipient_id"`
	ProjectID   string `json:"project_id"`
	Comment     string `json:"comment"`
}

func (r KudosEventRequest) toEvent() award.KudosEvent {
	return award.KudosEvent{
		ID:          r.ID,
		Approved:    r.Approved,
		RecipientID: engine.UserID(r.RecipientID),
		ProjectID:   engine.ProjectID(r.ProjectID),
		Comment:     r.Comment,
	}
}

// MilestoneEventRequest carries an approved milestone snapshot.
type MilestoneEventRequest struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	DueDate         time.Time `json:"due_date"`
	SubmittedAt     time.Time `json:"submitted_at"`
	ProjectID       string    `json:"project_id"`
	ProjectTimezone string    `json:"project_timezone"`
	AssignedUserIDs []string  `json:"assigned_user_ids"`
}

func (r MilestoneEventRequest) toEvent() award.MilestoneEvent {
	users := make([]engine.UserID, len(r.AssignedUserIDs))
	for i, u := range r.AssignedUserIDs {
		users[i] = engine.UserID(u)
	}
	return award.MilestoneEvent{
		ID:              r.ID,
		Title:           r.Title,
		DueDate:         r.DueDate,
		SubmittedAt:     r.SubmittedAt,
		ProjectID:       engine.ProjectID(r.ProjectID),
		ProjectTimezone: r.ProjectTimezone,
		AssignedUserIDs: users,
	}
}

// StandupEventRequest carries a daily standup submission.
type StandupEventRequest struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	UserTimezone string    `json:"user_timezone"`
	ProjectID    string    `json:"project_id"`
	CreatedAt    time.Time `json:"created_at"`
}

func (r StandupEventRequest) toEvent() award.StandupEvent {
	return award.StandupEvent{
		ID:           r.ID,
		UserID:       engine.UserID(r.UserID),
		UserTimezone: r.UserTimezone,
		ProjectID:    engine.ProjectID(r.ProjectID),
		CreatedAt:    r.CreatedAt,
	}
}

// TaskEventRequest carries a completed task snapshot.
type TaskEventRequest struct {
	ID               string    `json:"id"`
	Title            string    `json:"title"`
	AssigneeID       string    `json:"assignee_id"`
	AssigneeTimezone string    `json:"assignee_timezone"`
	MilestoneID      string    `json:"milestone_id"`
	ProjectID        string    `json:"project_id"`
	DueDate          time.Time `json:"due_date"`
	CompletedAt      time.Time `json:"completed_at"`
}

func (r TaskEventRequest) toEvent() award.TaskEvent {
	return award.TaskEvent{
		ID:               r.ID,
		Title:            r.Title,
		AssigneeID:       engine.UserID(r.AssigneeID),
		AssigneeTimezone: r.AssigneeTimezone,
		MilestoneID:      r.MilestoneID,
		ProjectID:        engine.ProjectID(r.ProjectID),
		DueDate:          r.DueDate,
		CompletedAt:      r.CompletedAt,
	}
}

// EmailReceivedRequest registers an inbound email so later replies can
// anchor their four-hour window against it.
type EmailReceivedRequest struct {
	ProjectID  string    `json:"project_id"`
	ReceivedAt time.Time `json:"received_at"`
}

// =============================================================================
// RESPONSES
// =============================================================================

// EntryDTO represents a recorded ledger entry in API responses. Points are
// serialized as a decimal string to avoid float drift in clients.
type EntryDTO struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Points      string    `json:"points"`
	Description string    `json:"description"`
	Status      string    `json:"status"`
	Kind        string    `json:"kind"`
	EntityID    string    `json:"entity_id"`
	ProjectID   string    `json:"project_id,omitempty"`
	EffectiveAt time.Time `json:"effective_at"`
	RecordedAt  time.Time `json:"recorded_at"`
}

func toEntryDTO(e engine.Entry) EntryDTO {
	return EntryDTO{
		ID:          e.ID,
		UserID:      string(e.RecipientID),
		Points:      e.Points.String(),
		Description: e.Description,
		Status:      string(e.Status),
		Kind:        string(e.Kind),
		EntityID:    e.EntityID,
		ProjectID:   string(e.ProjectID),
		EffectiveAt: e.EffectiveAt,
		RecordedAt:  e.RecordedAt,
	}
}

func toEntryDTOs(entries []engine.Entry) []EntryDTO {
	dtos := make([]EntryDTO, len(entries))
	for i, e := range entries {
		dtos[i] = toEntryDTO(e)
	}
	return dtos
}

// PointsSummaryDTO is the per-user paid-points total.
type PointsSummaryDTO struct {
	UserID string `json:"user_id"`
	Total  string `json:"total"`
}

// ErrorResponse is the standard error payload.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
