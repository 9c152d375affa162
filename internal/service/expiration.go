package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"questcycle/internal/model"
	"questcycle/internal/repository"
	"questcycle/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type ExpirationService struct {
	repo ExpirationRepository
	now  func() time.Time
	log  *zap.Logger
}

func NewExpirationService(repo ExpirationRepository, log *zap.Logger) *ExpirationService {
	if log == nil {
		log = logger.Logger()
	}
	return &ExpirationService{
		repo: repo,
		now:  time.Now,
		log:  log.Named("expiration"),
	}
}

// cascade tracks which MISSED instances still owe side effects. An instance
// is released from cascade_pending only when nothing was deferred for it.
type cascade struct {
	templates       map[uuid.UUID]*model.QuestTemplate
	templatesLoaded bool
	deferred        map[uuid.UUID]struct{}
}

func (c *cascade) hold(id uuid.UUID) {
	c.deferred[id] = struct{}{}
}

// Expire marks unresolved instances whose cycle has ended as MISSED, then
// clears claimed family quest pointers and breaks streaks. Instances left
// half-processed by an earlier run are picked up again here.
func (s *ExpirationService) Expire(ctx context.Context) (result *model.ExpirationResult) {
	result = &model.ExpirationResult{Errors: []string{}}
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("quest expiration panicked", zap.Any("panic", r))
			result.Errors = append(result.Errors, fmt.Sprintf("Unexpected error during quest expiration: %v", r))
			result.Aborted = true
		}
		result.Success = len(result.Errors) == 0
	}()

	now := s.now()

	expired, err := s.repo.GetExpiredInstances(ctx, now)
	if err != nil {
		s.abort(result, "Failed to fetch expired quests", err)
		return result
	}

	resumed, err := s.repo.GetPendingCascadeInstances(ctx)
	if err != nil {
		s.record(result, "Failed to fetch quests with unfinished cleanup", err)
		resumed = nil
	}
	result.Resumed = len(resumed)

	if len(expired) == 0 && len(resumed) == 0 {
		s.log.Debug("no expired quests")
		return result
	}

	all := make([]*model.QuestInstance, 0, len(expired)+len(resumed))
	all = append(all, expired...)
	all = append(all, resumed...)

	c := &cascade{deferred: make(map[uuid.UUID]struct{})}
	c.templates, c.templatesLoaded = s.loadTemplates(ctx, all, result)

	if len(expired) > 0 {
		if err := s.repo.MarkInstancesMissed(ctx, instanceIDs(expired)); err != nil {
			s.abort(result, "Failed to mark quests as missed", err)
			return result
		}
	}

	s.clearFamilyPointers(ctx, all, c, result)

	for _, q := range expired {
		result.Expired.Add(q.QuestType)
	}

	s.breakStreaks(ctx, all, c, result)

	done := make([]uuid.UUID, 0, len(all))
	for _, q := range all {
		if _, ok := c.deferred[q.ID]; !ok {
			done = append(done, q.ID)
		}
	}
	if len(done) > 0 {
		if err := s.repo.CompleteCascade(ctx, done); err != nil {
			s.record(result, "Failed to finish cleanup bookkeeping", err)
		}
	}

	s.log.Info("quest expiration finished",
		zap.Int("individual", result.Expired.Individual),
		zap.Int("family", result.Expired.Family),
		zap.Int("total", result.Expired.Total),
		zap.Int("streaks_broken", result.StreaksBroken),
		zap.Int("resumed", result.Resumed),
		zap.Int("deferred", len(c.deferred)),
		zap.Int("errors", len(result.Errors)),
	)

	return result
}

func (s *ExpirationService) loadTemplates(ctx context.Context, instances []*model.QuestInstance, result *model.ExpirationResult) (map[uuid.UUID]*model.QuestTemplate, bool) {
	seen := make(map[uuid.UUID]struct{})
	ids := make([]uuid.UUID, 0)
	for _, q := range instances {
		if q.TemplateID == nil {
			continue
		}
		if _, ok := seen[*q.TemplateID]; ok {
			continue
		}
		seen[*q.TemplateID] = struct{}{}
		ids = append(ids, *q.TemplateID)
	}

	templates := make(map[uuid.UUID]*model.QuestTemplate, len(ids))
	if len(ids) == 0 {
		return templates, true
	}

	list, err := s.repo.GetTemplatesByIDs(ctx, ids)
	if err != nil {
		s.record(result, "Failed to fetch templates for expired quests", err)
		return templates, false
	}
	for _, t := range list {
		templates[t.ID] = t
	}
	return templates, true
}

func (s *ExpirationService) clearFamilyPointers(ctx context.Context, instances []*model.QuestInstance, c *cascade, result *model.ExpirationResult) {
	ids := make([]uuid.UUID, 0)
	for _, q := range instances {
		if q.QuestType == model.QuestTypeFamily && q.AssignedToID != nil {
			ids = append(ids, q.ID)
		}
	}
	if len(ids) == 0 {
		return
	}

	if err := s.repo.ClearActiveFamilyQuest(ctx, ids); err != nil {
		s.record(result, "Failed to clear active family quests", err)
		for _, id := range ids {
			c.hold(id)
		}
	}
}

// breakStreaks resets the assignee's streak for every missed individual quest
// whose template is not paused.
func (s *ExpirationService) breakStreaks(ctx context.Context, instances []*model.QuestInstance, c *cascade, result *model.ExpirationResult) {
	for _, q := range instances {
		if q.QuestType != model.QuestTypeIndividual || q.AssignedToID == nil || q.TemplateID == nil {
			continue
		}

		if !c.templatesLoaded {
			c.hold(q.ID)
			continue
		}

		tmpl, ok := c.templates[*q.TemplateID]
		if !ok || tmpl.IsPaused {
			continue
		}

		character, err := s.repo.GetCharacterByUserID(ctx, *q.AssignedToID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				s.record(result, fmt.Sprintf("Quest %s: no character for user %s", q.ID, *q.AssignedToID), ErrCharacterNotFound)
				continue
			}
			s.record(result, fmt.Sprintf("Quest %s: failed to fetch character", q.ID), err)
			c.hold(q.ID)
			continue
		}

		if err := s.repo.ResetStreak(ctx, character.ID, *q.TemplateID, q.CycleEndDate); err != nil {
			s.record(result, fmt.Sprintf("Quest %s: failed to reset streak", q.ID), err)
			c.hold(q.ID)
			continue
		}
		result.StreaksBroken++
	}
}

func (s *ExpirationService) record(result *model.ExpirationResult, msg string, err error) {
	s.log.Warn(msg, zap.Error(err))
	result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", msg, err))
}

func (s *ExpirationService) abort(result *model.ExpirationResult, msg string, err error) {
	s.log.Error(msg, zap.Error(err))
	result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", msg, err))
	result.Aborted = true
}

func instanceIDs(instances []*model.QuestInstance) []uuid.UUID {
	ids := make([]uuid.UUID, len(instances))
	for i, q := range instances {
		ids[i] = q.ID
	}
	return ids
}
