package mocks

import (
	"context"
	"time"

	"questcycle/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type MockGeneratorRepository struct {
	mock.Mock
}

func (m *MockGeneratorRepository) GetActiveRecurringTemplates(ctx context.Context) ([]*model.QuestTemplate, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.QuestTemplate), args.Error(1)
}

func (m *MockGeneratorRepository) GetFamiliesByIDs(ctx context.Context, ids []uuid.UUID) ([]*model.Family, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Family), args.Error(1)
}

func (m *MockGeneratorRepository) GetGuildMastersByFamilyIDs(ctx context.Context, familyIDs []uuid.UUID) ([]*model.UserProfile, error) {
	args := m.Called(ctx, familyIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.UserProfile), args.Error(1)
}

func (m *MockGeneratorRepository) GetCharactersByIDs(ctx context.Context, ids []uuid.UUID) ([]*model.Character, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Character), args.Error(1)
}

func (m *MockGeneratorRepository) CountInstancesInCycle(ctx context.Context, filter model.CycleInstanceFilter) (int, error) {
	args := m.Called(ctx, filter)
	return args.Int(0), args.Error(1)
}

func (m *MockGeneratorRepository) CreateQuestInstance(ctx context.Context, q *model.QuestInstance) (bool, error) {
	args := m.Called(ctx, q)
	return args.Bool(0), args.Error(1)
}

type MockExpirationRepository struct {
	mock.Mock
}

func (m *MockExpirationRepository) GetExpiredInstances(ctx context.Context, now time.Time) ([]*model.QuestInstance, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.QuestInstance), args.Error(1)
}

func (m *MockExpirationRepository) GetPendingCascadeInstances(ctx context.Context) ([]*model.QuestInstance, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.QuestInstance), args.Error(1)
}

func (m *MockExpirationRepository) GetTemplatesByIDs(ctx context.Context, ids []uuid.UUID) ([]*model.QuestTemplate, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.QuestTemplate), args.Error(1)
}

func (m *MockExpirationRepository) MarkInstancesMissed(ctx context.Context, ids []uuid.UUID) error {
	args := m.Called(ctx, ids)
	return args.Error(0)
}

func (m *MockExpirationRepository) ClearActiveFamilyQuest(ctx context.Context, instanceIDs []uuid.UUID) error {
	args := m.Called(ctx, instanceIDs)
	return args.Error(0)
}

func (m *MockExpirationRepository) GetCharacterByUserID(ctx context.Context, userID uuid.UUID) (*model.Character, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Character), args.Error(1)
}

func (m *MockExpirationRepository) ResetStreak(ctx context.Context, characterID, templateID uuid.UUID, missedAt time.Time) error {
	args := m.Called(ctx, characterID, templateID, missedAt)
	return args.Error(0)
}

func (m *MockExpirationRepository) CompleteCascade(ctx context.Context, ids []uuid.UUID) error {
	args := m.Called(ctx, ids)
	return args.Error(0)
}
