package model

import (
	"time"

	"github.com/google/uuid"
)

type QuestType string

const (
	QuestTypeIndividual QuestType = "INDIVIDUAL"
	QuestTypeFamily     QuestType = "FAMILY"
)

type QuestStatus string

const (
	QuestStatusPending    QuestStatus = "PENDING"
	QuestStatusInProgress QuestStatus = "IN_PROGRESS"
	QuestStatusCompleted  QuestStatus = "COMPLETED"
	QuestStatusApproved   QuestStatus = "APPROVED"
	QuestStatusAvailable  QuestStatus = "AVAILABLE"
	QuestStatusClaimed    QuestStatus = "CLAIMED"
	QuestStatusMissed     QuestStatus = "MISSED"
)

// UnresolvedStatuses are the statuses an instance can still leave by player action.
var UnresolvedStatuses = []QuestStatus{
	QuestStatusPending,
	QuestStatusInProgress,
	QuestStatusAvailable,
	QuestStatusClaimed,
}

type RecurrencePattern string

const (
	RecurrenceDaily  RecurrencePattern = "DAILY"
	RecurrenceWeekly RecurrencePattern = "WEEKLY"
	RecurrenceCustom RecurrencePattern = "CUSTOM"
)

type QuestTemplate struct {
	ID                   uuid.UUID
	Title                string
	Description          string
	Category             string
	Difficulty           string
	XPReward             int
	GoldReward           int
	FamilyID             uuid.UUID
	IsActive             bool
	IsPaused             bool
	QuestType            QuestType
	RecurrencePattern    *RecurrencePattern
	AssignedCharacterIDs []uuid.UUID
	CreatedAt            time.Time
}

type QuestInstance struct {
	ID             uuid.UUID
	TemplateID     *uuid.UUID
	Title          string
	Description    string
	Category       string
	Difficulty     string
	XPReward       int
	GoldReward     int
	FamilyID       uuid.UUID
	CreatedByID    uuid.UUID
	AssignedToID   *uuid.UUID
	Status         QuestStatus
	QuestType      QuestType
	CycleStartDate time.Time
	CycleEndDate   time.Time
	VolunteerBonus *int
	StreakCount    int
	StreakBonus    int
	CascadePending bool
}

// NewInstanceFromTemplate copies the template's presentation and reward fields
// into a fresh instance for the given cycle.
func NewInstanceFromTemplate(t *QuestTemplate, createdBy uuid.UUID, start, end time.Time) *QuestInstance {
	templateID := t.ID
	return &QuestInstance{
		ID:             uuid.New(),
		TemplateID:     &templateID,
		Title:          t.Title,
		Description:    t.Description,
		Category:       t.Category,
		Difficulty:     t.Difficulty,
		XPReward:       t.XPReward,
		GoldReward:     t.GoldReward,
		FamilyID:       t.FamilyID,
		CreatedByID:    createdBy,
		QuestType:      t.QuestType,
		CycleStartDate: start,
		CycleEndDate:   end,
	}
}

// CycleInstanceFilter scopes an idempotency check to one template and cycle.
// A nil AssignedToID ignores the assignee.
type CycleInstanceFilter struct {
	TemplateID   uuid.UUID
	FamilyID     *uuid.UUID
	AssignedToID *uuid.UUID
	CycleStart   time.Time
	CycleEnd     time.Time
}
