package service

import (
	"context"
	"errors"
	"time"

	"questcycle/internal/model"

	"github.com/google/uuid"
)

var (
	ErrNoGuildMaster     = errors.New("family has no guild master")
	ErrCharacterNotFound = errors.New("character not found")
	ErrUnknownQuestType  = errors.New("unknown quest type")
)

type GeneratorServiceI interface {
	Generate(ctx context.Context) *model.GenerationResult
}

type ExpirationServiceI interface {
	Expire(ctx context.Context) *model.ExpirationResult
}

type JobServiceI interface {
	RunAll(ctx context.Context) *model.JobReport
	RunGeneration(ctx context.Context) *model.JobReport
	RunExpiration(ctx context.Context) *model.JobReport
}

type GeneratorRepository interface {
	GetActiveRecurringTemplates(ctx context.Context) ([]*model.QuestTemplate, error)
	GetFamiliesByIDs(ctx context.Context, ids []uuid.UUID) ([]*model.Family, error)
	GetGuildMastersByFamilyIDs(ctx context.Context, familyIDs []uuid.UUID) ([]*model.UserProfile, error)
	GetCharactersByIDs(ctx context.Context, ids []uuid.UUID) ([]*model.Character, error)
	CountInstancesInCycle(ctx context.Context, filter model.CycleInstanceFilter) (int, error)
	CreateQuestInstance(ctx context.Context, q *model.QuestInstance) (bool, error)
}

type ExpirationRepository interface {
	GetExpiredInstances(ctx context.Context, now time.Time) ([]*model.QuestInstance, error)
	GetPendingCascadeInstances(ctx context.Context) ([]*model.QuestInstance, error)
	GetTemplatesByIDs(ctx context.Context, ids []uuid.UUID) ([]*model.QuestTemplate, error)
	MarkInstancesMissed(ctx context.Context, ids []uuid.UUID) error
	ClearActiveFamilyQuest(ctx context.Context, instanceIDs []uuid.UUID) error
	GetCharacterByUserID(ctx context.Context, userID uuid.UUID) (*model.Character, error)
	ResetStreak(ctx context.Context, characterID, templateID uuid.UUID, missedAt time.Time) error
	CompleteCascade(ctx context.Context, ids []uuid.UUID) error
}

// Alerter is told about every finished run that reported errors.
type Alerter interface {
	Alert(ctx context.Context, job string, report *model.JobReport) error
}
