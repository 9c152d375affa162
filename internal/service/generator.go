package service

import (
	"context"
	"fmt"
	"time"

	"questcycle/internal/model"
	"questcycle/internal/recurrence"
	"questcycle/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type GeneratorService struct {
	repo  GeneratorRepository
	clock recurrence.Clock
	now   func() time.Time
	log   *zap.Logger
}

func NewGeneratorService(repo GeneratorRepository, clock recurrence.Clock, log *zap.Logger) *GeneratorService {
	if log == nil {
		log = logger.Logger()
	}
	return &GeneratorService{
		repo:  repo,
		clock: clock,
		now:   time.Now,
		log:   log.Named("generator"),
	}
}

// generationRun carries the per-run lookups so each template is processed
// against the same instant and the same family settings.
type generationRun struct {
	now       time.Time
	calendars map[uuid.UUID]recurrence.Calendar
	calErrors map[uuid.UUID]error
	actors    map[uuid.UUID]uuid.UUID
	result    *model.GenerationResult
}

// Generate makes sure every eligible template has its instances for the
// current cycle. It never panics; failures are reported in the result.
func (s *GeneratorService) Generate(ctx context.Context) (result *model.GenerationResult) {
	result = &model.GenerationResult{Errors: []string{}}
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("quest generation panicked", zap.Any("panic", r))
			result.Errors = append(result.Errors, fmt.Sprintf("Unexpected error during quest generation: %v", r))
			result.Aborted = true
		}
		result.Success = len(result.Errors) == 0
	}()

	templates, err := s.repo.GetActiveRecurringTemplates(ctx)
	if err != nil {
		s.abort(result, "Failed to fetch templates", err)
		return result
	}

	if len(templates) == 0 {
		s.log.Debug("no recurring templates to process")
		return result
	}

	run, ok := s.prepare(ctx, templates, result)
	if !ok {
		return result
	}

	for _, tmpl := range templates {
		s.processTemplate(ctx, run, tmpl)
	}

	s.log.Info("quest generation finished",
		zap.Int("templates", len(templates)),
		zap.Int("individual", result.Generated.Individual),
		zap.Int("family", result.Generated.Family),
		zap.Int("total", result.Generated.Total),
		zap.Int("errors", len(result.Errors)),
	)

	return result
}

func (s *GeneratorService) prepare(ctx context.Context, templates []*model.QuestTemplate, result *model.GenerationResult) (*generationRun, bool) {
	run := &generationRun{
		now:       s.now(),
		calendars: make(map[uuid.UUID]recurrence.Calendar),
		calErrors: make(map[uuid.UUID]error),
		actors:    make(map[uuid.UUID]uuid.UUID),
		result:    result,
	}

	familyIDs := distinctFamilyIDs(templates)

	families, err := s.repo.GetFamiliesByIDs(ctx, familyIDs)
	if err != nil {
		s.abort(result, "Failed to fetch families", err)
		return nil, false
	}

	for _, id := range familyIDs {
		run.calendars[id] = recurrence.UTCCalendar()
	}
	for _, f := range families {
		cal, err := recurrence.NewCalendar(f.Timezone, f.WeekStartDay)
		if err != nil {
			run.calErrors[f.ID] = err
			continue
		}
		run.calendars[f.ID] = cal
	}

	masters, err := s.repo.GetGuildMastersByFamilyIDs(ctx, familyIDs)
	if err != nil {
		s.abort(result, "Failed to fetch guild masters", err)
		return nil, false
	}

	for _, m := range masters {
		if m.FamilyID == nil {
			continue
		}
		if _, seen := run.actors[*m.FamilyID]; !seen {
			run.actors[*m.FamilyID] = m.ID
		}
	}

	return run, true
}

func (s *GeneratorService) processTemplate(ctx context.Context, run *generationRun, tmpl *model.QuestTemplate) {
	// Nobody is assigned yet, so there is nothing to generate or report.
	if tmpl.QuestType == model.QuestTypeIndividual && len(tmpl.AssignedCharacterIDs) == 0 {
		return
	}

	if err, bad := run.calErrors[tmpl.FamilyID]; bad {
		s.record(run.result, fmt.Sprintf("Template %s: family %s settings are invalid", tmpl.ID, tmpl.FamilyID), err)
		return
	}

	actor, ok := run.actors[tmpl.FamilyID]
	if !ok {
		s.record(run.result, fmt.Sprintf("Template %s", tmpl.ID),
			fmt.Errorf("%w %s", ErrNoGuildMaster, tmpl.FamilyID))
		return
	}

	if tmpl.RecurrencePattern == nil {
		return
	}

	window, err := s.clock.CycleWindow(string(*tmpl.RecurrencePattern), run.now, run.calendars[tmpl.FamilyID])
	if err != nil {
		s.record(run.result, fmt.Sprintf("Template %s: failed to compute cycle", tmpl.ID), err)
		return
	}

	switch tmpl.QuestType {
	case model.QuestTypeIndividual:
		s.generateIndividual(ctx, run, tmpl, actor, window)
	case model.QuestTypeFamily:
		s.generateFamily(ctx, run, tmpl, actor, window)
	default:
		s.record(run.result, fmt.Sprintf("Template %s", tmpl.ID),
			fmt.Errorf("%w %q", ErrUnknownQuestType, tmpl.QuestType))
	}
}

// generateIndividual creates one PENDING instance per assigned character's
// owner.
func (s *GeneratorService) generateIndividual(ctx context.Context, run *generationRun, tmpl *model.QuestTemplate, actor uuid.UUID, window recurrence.Window) {
	characters, err := s.repo.GetCharactersByIDs(ctx, tmpl.AssignedCharacterIDs)
	if err != nil {
		s.record(run.result, fmt.Sprintf("Template %s: failed to fetch assigned characters", tmpl.ID), err)
		return
	}

	owners := make(map[uuid.UUID]uuid.UUID, len(characters))
	for _, c := range characters {
		owners[c.ID] = c.UserID
	}

	for _, characterID := range tmpl.AssignedCharacterIDs {
		userID, ok := owners[characterID]
		if !ok {
			s.record(run.result, fmt.Sprintf("Template %s", tmpl.ID),
				fmt.Errorf("%w: %s", ErrCharacterNotFound, characterID))
			continue
		}

		filter := model.CycleInstanceFilter{
			TemplateID:   tmpl.ID,
			AssignedToID: &userID,
			CycleStart:   window.Start,
			CycleEnd:     window.End,
		}

		instance := model.NewInstanceFromTemplate(tmpl, actor, window.Start, window.End)
		instance.Status = model.QuestStatusPending
		instance.AssignedToID = &userID

		label := fmt.Sprintf("Template %s: character %s", tmpl.ID, characterID)
		if s.createOnce(ctx, run, filter, instance, label) {
			run.result.Generated.Add(model.QuestTypeIndividual)
		}
	}
}

// generateFamily creates the single unassigned AVAILABLE pool instance.
func (s *GeneratorService) generateFamily(ctx context.Context, run *generationRun, tmpl *model.QuestTemplate, actor uuid.UUID, window recurrence.Window) {
	familyID := tmpl.FamilyID
	filter := model.CycleInstanceFilter{
		TemplateID: tmpl.ID,
		FamilyID:   &familyID,
		CycleStart: window.Start,
		CycleEnd:   window.End,
	}

	instance := model.NewInstanceFromTemplate(tmpl, actor, window.Start, window.End)
	instance.Status = model.QuestStatusAvailable

	if s.createOnce(ctx, run, filter, instance, fmt.Sprintf("Template %s: family quest", tmpl.ID)) {
		run.result.Generated.Add(model.QuestTypeFamily)
	}
}

// createOnce checks for an existing instance in the cycle and inserts when
// none is found. A failed check skips the insert.
func (s *GeneratorService) createOnce(ctx context.Context, run *generationRun, filter model.CycleInstanceFilter, instance *model.QuestInstance, label string) bool {
	count, err := s.repo.CountInstancesInCycle(ctx, filter)
	if err != nil {
		s.record(run.result, label+": failed to check for existing quest", err)
		return false
	}
	if count > 0 {
		return false
	}

	created, err := s.repo.CreateQuestInstance(ctx, instance)
	if err != nil {
		s.record(run.result, label+": failed to create quest", err)
		return false
	}
	if !created {
		s.log.Debug("quest already created by a concurrent run",
			zap.Stringer("template_id", filter.TemplateID),
			zap.Time("cycle_start", filter.CycleStart),
		)
	}

	return created
}

func (s *GeneratorService) record(result *model.GenerationResult, msg string, err error) {
	s.log.Warn(msg, zap.Error(err))
	result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", msg, err))
}

func (s *GeneratorService) abort(result *model.GenerationResult, msg string, err error) {
	s.log.Error(msg, zap.Error(err))
	result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", msg, err))
	result.Aborted = true
}

func distinctFamilyIDs(templates []*model.QuestTemplate) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(templates))
	ids := make([]uuid.UUID, 0, len(templates))
	for _, t := range templates {
		if _, ok := seen[t.FamilyID]; ok {
			continue
		}
		seen[t.FamilyID] = struct{}{}
		ids = append(ids, t.FamilyID)
	}
	return ids
}
