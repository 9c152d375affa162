package service

import (
	"context"
	"testing"
	"time"

	"questcycle/internal/model"
	"questcycle/internal/repository"
	"questcycle/internal/service/mocks"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var expirationNow = time.Date(2024, time.May, 16, 0, 5, 0, 0, time.UTC)

func newTestExpiration(repo ExpirationRepository) *ExpirationService {
	s := NewExpirationService(repo, zap.NewNop())
	s.now = func() time.Time { return expirationNow }
	return s
}

func expiredInstance(questType model.QuestType, status model.QuestStatus, templateID uuid.UUID, assignee *uuid.UUID) *model.QuestInstance {
	return &model.QuestInstance{
		ID:             uuid.New(),
		TemplateID:     &templateID,
		Title:          "Sweep the tavern",
		FamilyID:       uuid.New(),
		AssignedToID:   assignee,
		Status:         status,
		QuestType:      questType,
		CycleStartDate: time.Date(2024, time.May, 15, 0, 0, 0, 0, time.UTC),
		CycleEndDate:   time.Date(2024, time.May, 15, 23, 59, 59, 999_000_000, time.UTC),
	}
}

func TestExpirationService_Expire(t *testing.T) {
	activeTemplate := &model.QuestTemplate{ID: uuid.New(), QuestType: model.QuestTypeIndividual}
	pausedTemplate := &model.QuestTemplate{ID: uuid.New(), QuestType: model.QuestTypeIndividual, IsPaused: true}
	familyTemplate := &model.QuestTemplate{ID: uuid.New(), QuestType: model.QuestTypeFamily}

	userID := uuid.New()
	character := &model.Character{ID: uuid.New(), UserID: userID, Name: "Aria"}

	tests := []struct {
		name       string
		setupMocks func(repo *mocks.MockExpirationRepository)
		check      func(t *testing.T, result *model.ExpirationResult, repo *mocks.MockExpirationRepository)
	}{
		{
			name: "Fetch expired error",
			setupMocks: func(repo *mocks.MockExpirationRepository) {
				repo.On("GetExpiredInstances", mock.Anything, expirationNow).Return(nil, assert.AnError)
			},
			check: func(t *testing.T, result *model.ExpirationResult, repo *mocks.MockExpirationRepository) {
				assert.False(t, result.Success)
				assert.True(t, result.Aborted)
				require.Len(t, result.Errors, 1)
				assert.Contains(t, result.Errors[0], "Failed to fetch expired quests")
				repo.AssertNotCalled(t, "MarkInstancesMissed", mock.Anything, mock.Anything)
			},
		},
		{
			name: "Nothing expired",
			setupMocks: func(repo *mocks.MockExpirationRepository) {
				repo.On("GetExpiredInstances", mock.Anything, expirationNow).Return([]*model.QuestInstance{}, nil)
				repo.On("GetPendingCascadeInstances", mock.Anything).Return([]*model.QuestInstance{}, nil)
			},
			check: func(t *testing.T, result *model.ExpirationResult, repo *mocks.MockExpirationRepository) {
				assert.True(t, result.Success)
				assert.Equal(t, model.QuestCounts{}, result.Expired)
				assert.Equal(t, 0, result.StreaksBroken)
				repo.AssertNotCalled(t, "MarkInstancesMissed", mock.Anything, mock.Anything)
			},
		},
		{
			name: "Individual and unassigned family quest",
			setupMocks: func(repo *mocks.MockExpirationRepository) {
				individual := expiredInstance(model.QuestTypeIndividual, model.QuestStatusPending, activeTemplate.ID, &userID)
				family := expiredInstance(model.QuestTypeFamily, model.QuestStatusAvailable, familyTemplate.ID, nil)
				ids := []uuid.UUID{individual.ID, family.ID}

				repo.On("GetExpiredInstances", mock.Anything, expirationNow).
					Return([]*model.QuestInstance{individual, family}, nil)
				repo.On("GetPendingCascadeInstances", mock.Anything).Return([]*model.QuestInstance{}, nil)
				repo.On("GetTemplatesByIDs", mock.Anything, []uuid.UUID{activeTemplate.ID, familyTemplate.ID}).
					Return([]*model.QuestTemplate{activeTemplate, familyTemplate}, nil)
				repo.On("MarkInstancesMissed", mock.Anything, ids).Return(nil)
				repo.On("GetCharacterByUserID", mock.Anything, userID).Return(character, nil)
				repo.On("ResetStreak", mock.Anything, character.ID, activeTemplate.ID, individual.CycleEndDate).
					Return(nil)
				repo.On("CompleteCascade", mock.Anything, ids).Return(nil)
			},
			check: func(t *testing.T, result *model.ExpirationResult, repo *mocks.MockExpirationRepository) {
				assert.True(t, result.Success)
				assert.Equal(t, model.QuestCounts{Individual: 1, Family: 1, Total: 2}, result.Expired)
				assert.Equal(t, 1, result.StreaksBroken)
				repo.AssertNotCalled(t, "ClearActiveFamilyQuest", mock.Anything, mock.Anything)
			},
		},
		{
			name: "Paused template keeps the streak",
			setupMocks: func(repo *mocks.MockExpirationRepository) {
				paused := expiredInstance(model.QuestTypeIndividual, model.QuestStatusInProgress, pausedTemplate.ID, &userID)

				repo.On("GetExpiredInstances", mock.Anything, expirationNow).Return([]*model.QuestInstance{paused}, nil)
				repo.On("GetPendingCascadeInstances", mock.Anything).Return([]*model.QuestInstance{}, nil)
				repo.On("GetTemplatesByIDs", mock.Anything, mock.Anything).
					Return([]*model.QuestTemplate{pausedTemplate}, nil)
				repo.On("MarkInstancesMissed", mock.Anything, []uuid.UUID{paused.ID}).Return(nil)
				repo.On("CompleteCascade", mock.Anything, []uuid.UUID{paused.ID}).Return(nil)
			},
			check: func(t *testing.T, result *model.ExpirationResult, repo *mocks.MockExpirationRepository) {
				assert.True(t, result.Success)
				assert.Equal(t, 1, result.Expired.Individual)
				assert.Equal(t, 0, result.StreaksBroken)
				repo.AssertNotCalled(t, "GetCharacterByUserID", mock.Anything, mock.Anything)
				repo.AssertNotCalled(t, "ResetStreak", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
			},
		},
		{
			name: "Claimed family quest clears the active pointer",
			setupMocks: func(repo *mocks.MockExpirationRepository) {
				claimed := expiredInstance(model.QuestTypeFamily, model.QuestStatusClaimed, familyTemplate.ID, &userID)

				repo.On("GetExpiredInstances", mock.Anything, expirationNow).Return([]*model.QuestInstance{claimed}, nil)
				repo.On("GetPendingCascadeInstances", mock.Anything).Return([]*model.QuestInstance{}, nil)
				repo.On("GetTemplatesByIDs", mock.Anything, mock.Anything).
					Return([]*model.QuestTemplate{familyTemplate}, nil)
				repo.On("MarkInstancesMissed", mock.Anything, []uuid.UUID{claimed.ID}).Return(nil)
				repo.On("ClearActiveFamilyQuest", mock.Anything, []uuid.UUID{claimed.ID}).Return(nil)
				repo.On("CompleteCascade", mock.Anything, []uuid.UUID{claimed.ID}).Return(nil)
			},
			check: func(t *testing.T, result *model.ExpirationResult, repo *mocks.MockExpirationRepository) {
				assert.True(t, result.Success)
				assert.Equal(t, model.QuestCounts{Family: 1, Total: 1}, result.Expired)
				repo.AssertNotCalled(t, "ResetStreak", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
			},
		},
		{
			name: "Mark missed error is fatal",
			setupMocks: func(repo *mocks.MockExpirationRepository) {
				q := expiredInstance(model.QuestTypeFamily, model.QuestStatusClaimed, familyTemplate.ID, &userID)

				repo.On("GetExpiredInstances", mock.Anything, expirationNow).Return([]*model.QuestInstance{q}, nil)
				repo.On("GetPendingCascadeInstances", mock.Anything).Return([]*model.QuestInstance{}, nil)
				repo.On("GetTemplatesByIDs", mock.Anything, mock.Anything).
					Return([]*model.QuestTemplate{familyTemplate}, nil)
				repo.On("MarkInstancesMissed", mock.Anything, mock.Anything).Return(assert.AnError)
			},
			check: func(t *testing.T, result *model.ExpirationResult, repo *mocks.MockExpirationRepository) {
				assert.False(t, result.Success)
				assert.True(t, result.Aborted)
				require.Len(t, result.Errors, 1)
				assert.Contains(t, result.Errors[0], "Failed to mark quests as missed")
				assert.Equal(t, 0, result.Expired.Total)
				repo.AssertNotCalled(t, "ClearActiveFamilyQuest", mock.Anything, mock.Anything)
				repo.AssertNotCalled(t, "CompleteCascade", mock.Anything, mock.Anything)
			},
		},
		{
			name: "Pointer clear failure keeps the cascade pending",
			setupMocks: func(repo *mocks.MockExpirationRepository) {
				claimed := expiredInstance(model.QuestTypeFamily, model.QuestStatusClaimed, familyTemplate.ID, &userID)
				open := expiredInstance(model.QuestTypeFamily, model.QuestStatusAvailable, familyTemplate.ID, nil)

				repo.On("GetExpiredInstances", mock.Anything, expirationNow).
					Return([]*model.QuestInstance{claimed, open}, nil)
				repo.On("GetPendingCascadeInstances", mock.Anything).Return([]*model.QuestInstance{}, nil)
				repo.On("GetTemplatesByIDs", mock.Anything, []uuid.UUID{familyTemplate.ID}).
					Return([]*model.QuestTemplate{familyTemplate}, nil)
				repo.On("MarkInstancesMissed", mock.Anything, []uuid.UUID{claimed.ID, open.ID}).Return(nil)
				repo.On("ClearActiveFamilyQuest", mock.Anything, []uuid.UUID{claimed.ID}).Return(assert.AnError)
				repo.On("CompleteCascade", mock.Anything, []uuid.UUID{open.ID}).Return(nil)
			},
			check: func(t *testing.T, result *model.ExpirationResult, _ *mocks.MockExpirationRepository) {
				assert.False(t, result.Success)
				assert.False(t, result.Aborted)
				require.Len(t, result.Errors, 1)
				assert.Contains(t, result.Errors[0], "Failed to clear active family quests")
				assert.Equal(t, 2, result.Expired.Total)
			},
		},
		{
			name: "Streak reset failure does not block other characters",
			setupMocks: func(repo *mocks.MockExpirationRepository) {
				otherUser := uuid.New()
				otherCharacter := &model.Character{ID: uuid.New(), UserID: otherUser}
				first := expiredInstance(model.QuestTypeIndividual, model.QuestStatusPending, activeTemplate.ID, &userID)
				second := expiredInstance(model.QuestTypeIndividual, model.QuestStatusPending, activeTemplate.ID, &otherUser)

				repo.On("GetExpiredInstances", mock.Anything, expirationNow).
					Return([]*model.QuestInstance{first, second}, nil)
				repo.On("GetPendingCascadeInstances", mock.Anything).Return([]*model.QuestInstance{}, nil)
				repo.On("GetTemplatesByIDs", mock.Anything, []uuid.UUID{activeTemplate.ID}).
					Return([]*model.QuestTemplate{activeTemplate}, nil)
				repo.On("MarkInstancesMissed", mock.Anything, mock.Anything).Return(nil)
				repo.On("GetCharacterByUserID", mock.Anything, userID).Return(character, nil)
				repo.On("GetCharacterByUserID", mock.Anything, otherUser).Return(otherCharacter, nil)
				repo.On("ResetStreak", mock.Anything, character.ID, mock.Anything, mock.Anything).
					Return(assert.AnError)
				repo.On("ResetStreak", mock.Anything, otherCharacter.ID, mock.Anything, mock.Anything).
					Return(nil)
				repo.On("CompleteCascade", mock.Anything, []uuid.UUID{second.ID}).Return(nil)
			},
			check: func(t *testing.T, result *model.ExpirationResult, _ *mocks.MockExpirationRepository) {
				assert.False(t, result.Success)
				require.Len(t, result.Errors, 1)
				assert.Contains(t, result.Errors[0], "failed to reset streak")
				assert.Equal(t, 1, result.StreaksBroken)
			},
		},
		{
			name: "Assignee without a character",
			setupMocks: func(repo *mocks.MockExpirationRepository) {
				q := expiredInstance(model.QuestTypeIndividual, model.QuestStatusPending, activeTemplate.ID, &userID)

				repo.On("GetExpiredInstances", mock.Anything, expirationNow).Return([]*model.QuestInstance{q}, nil)
				repo.On("GetPendingCascadeInstances", mock.Anything).Return([]*model.QuestInstance{}, nil)
				repo.On("GetTemplatesByIDs", mock.Anything, mock.Anything).
					Return([]*model.QuestTemplate{activeTemplate}, nil)
				repo.On("MarkInstancesMissed", mock.Anything, mock.Anything).Return(nil)
				repo.On("GetCharacterByUserID", mock.Anything, userID).Return(nil, repository.ErrNotFound)
				repo.On("CompleteCascade", mock.Anything, []uuid.UUID{q.ID}).Return(nil)
			},
			check: func(t *testing.T, result *model.ExpirationResult, _ *mocks.MockExpirationRepository) {
				assert.False(t, result.Success)
				require.Len(t, result.Errors, 1)
				assert.Contains(t, result.Errors[0], ErrCharacterNotFound.Error())
				assert.Equal(t, 0, result.StreaksBroken)
			},
		},
		{
			name: "Reset without an existing streak still counts",
			setupMocks: func(repo *mocks.MockExpirationRepository) {
				q := expiredInstance(model.QuestTypeIndividual, model.QuestStatusPending, activeTemplate.ID, &userID)

				repo.On("GetExpiredInstances", mock.Anything, expirationNow).Return([]*model.QuestInstance{q}, nil)
				repo.On("GetPendingCascadeInstances", mock.Anything).Return([]*model.QuestInstance{}, nil)
				repo.On("GetTemplatesByIDs", mock.Anything, mock.Anything).
					Return([]*model.QuestTemplate{activeTemplate}, nil)
				repo.On("MarkInstancesMissed", mock.Anything, mock.Anything).Return(nil)
				repo.On("GetCharacterByUserID", mock.Anything, userID).Return(character, nil)
				repo.On("ResetStreak", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
				repo.On("CompleteCascade", mock.Anything, mock.Anything).Return(nil)
			},
			check: func(t *testing.T, result *model.ExpirationResult, _ *mocks.MockExpirationRepository) {
				assert.True(t, result.Success)
				assert.Equal(t, 1, result.StreaksBroken)
			},
		},
		{
			name: "Template lookup failure defers streaks",
			setupMocks: func(repo *mocks.MockExpirationRepository) {
				individual := expiredInstance(model.QuestTypeIndividual, model.QuestStatusPending, activeTemplate.ID, &userID)
				family := expiredInstance(model.QuestTypeFamily, model.QuestStatusAvailable, familyTemplate.ID, nil)

				repo.On("GetExpiredInstances", mock.Anything, expirationNow).
					Return([]*model.QuestInstance{individual, family}, nil)
				repo.On("GetPendingCascadeInstances", mock.Anything).Return([]*model.QuestInstance{}, nil)
				repo.On("GetTemplatesByIDs", mock.Anything, mock.Anything).Return(nil, assert.AnError)
				repo.On("MarkInstancesMissed", mock.Anything, []uuid.UUID{individual.ID, family.ID}).Return(nil)
				repo.On("CompleteCascade", mock.Anything, []uuid.UUID{family.ID}).Return(nil)
			},
			check: func(t *testing.T, result *model.ExpirationResult, repo *mocks.MockExpirationRepository) {
				assert.False(t, result.Success)
				assert.False(t, result.Aborted)
				assert.Equal(t, 2, result.Expired.Total)
				repo.AssertNotCalled(t, "GetCharacterByUserID", mock.Anything, mock.Anything)
			},
		},
		{
			name: "Resumes cascades left by an earlier run",
			setupMocks: func(repo *mocks.MockExpirationRepository) {
				leftover := expiredInstance(model.QuestTypeIndividual, model.QuestStatusMissed, activeTemplate.ID, &userID)
				leftover.CascadePending = true

				repo.On("GetExpiredInstances", mock.Anything, expirationNow).Return([]*model.QuestInstance{}, nil)
				repo.On("GetPendingCascadeInstances", mock.Anything).Return([]*model.QuestInstance{leftover}, nil)
				repo.On("GetTemplatesByIDs", mock.Anything, []uuid.UUID{activeTemplate.ID}).
					Return([]*model.QuestTemplate{activeTemplate}, nil)
				repo.On("GetCharacterByUserID", mock.Anything, userID).Return(character, nil)
				repo.On("ResetStreak", mock.Anything, character.ID, activeTemplate.ID, leftover.CycleEndDate).
					Return(nil)
				repo.On("CompleteCascade", mock.Anything, []uuid.UUID{leftover.ID}).Return(nil)
			},
			check: func(t *testing.T, result *model.ExpirationResult, repo *mocks.MockExpirationRepository) {
				assert.True(t, result.Success)
				assert.Equal(t, 1, result.Resumed)
				assert.Equal(t, 0, result.Expired.Total)
				assert.Equal(t, 1, result.StreaksBroken)
				repo.AssertNotCalled(t, "MarkInstancesMissed", mock.Anything, mock.Anything)
			},
		},
		{
			name: "Pending cascade lookup failure still expires",
			setupMocks: func(repo *mocks.MockExpirationRepository) {
				family := expiredInstance(model.QuestTypeFamily, model.QuestStatusAvailable, familyTemplate.ID, nil)

				repo.On("GetExpiredInstances", mock.Anything, expirationNow).Return([]*model.QuestInstance{family}, nil)
				repo.On("GetPendingCascadeInstances", mock.Anything).Return(nil, assert.AnError)
				repo.On("GetTemplatesByIDs", mock.Anything, mock.Anything).
					Return([]*model.QuestTemplate{familyTemplate}, nil)
				repo.On("MarkInstancesMissed", mock.Anything, []uuid.UUID{family.ID}).Return(nil)
				repo.On("CompleteCascade", mock.Anything, []uuid.UUID{family.ID}).Return(nil)
			},
			check: func(t *testing.T, result *model.ExpirationResult, _ *mocks.MockExpirationRepository) {
				assert.False(t, result.Success)
				assert.False(t, result.Aborted)
				assert.Equal(t, 1, result.Expired.Family)
				assert.Equal(t, 0, result.Resumed)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mocks.MockExpirationRepository{}
			tt.setupMocks(repo)

			var result *model.ExpirationResult
			assert.NotPanics(t, func() {
				result = newTestExpiration(repo).Expire(context.Background())
			})
			require.NotNil(t, result)

			tt.check(t, result, repo)
			repo.AssertExpectations(t)
		})
	}
}
