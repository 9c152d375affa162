package repository

import (
	"context"
	"fmt"
	"time"

	"questcycle/internal/model"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

type questTemplate struct {
	ID                   uuid.UUID      `db:"id"`
	Title                string         `db:"title"`
	Description          *string        `db:"description"`
	Category             string         `db:"category"`
	Difficulty           string         `db:"difficulty"`
	XPReward             int            `db:"xp_reward"`
	GoldReward           int            `db:"gold_reward"`
	FamilyID             uuid.UUID      `db:"family_id"`
	IsActive             bool           `db:"is_active"`
	IsPaused             bool           `db:"is_paused"`
	QuestType            string         `db:"quest_type"`
	RecurrencePattern    *string        `db:"recurrence_pattern"`
	AssignedCharacterIDs pq.StringArray `db:"assigned_character_ids"`
	CreatedAt            time.Time      `db:"created_at"`
}

var templateColumns = []string{
	"id",
	"title",
	"description",
	"category",
	"difficulty",
	"xp_reward",
	"gold_reward",
	"family_id",
	"is_active",
	"is_paused",
	"quest_type",
	"recurrence_pattern",
	"assigned_character_ids",
	"created_at",
}

func (t *questTemplate) toModel() (*model.QuestTemplate, error) {
	assigned := make([]uuid.UUID, 0, len(t.AssignedCharacterIDs))
	for _, raw := range t.AssignedCharacterIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("template %s has invalid assigned character id %q: %w", t.ID, raw, err)
		}
		assigned = append(assigned, id)
	}

	out := &model.QuestTemplate{
		ID:                   t.ID,
		Title:                t.Title,
		Category:             t.Category,
		Difficulty:           t.Difficulty,
		XPReward:             t.XPReward,
		GoldReward:           t.GoldReward,
		FamilyID:             t.FamilyID,
		IsActive:             t.IsActive,
		IsPaused:             t.IsPaused,
		QuestType:            model.QuestType(t.QuestType),
		AssignedCharacterIDs: assigned,
		CreatedAt:            t.CreatedAt,
	}
	if t.Description != nil {
		out.Description = *t.Description
	}
	if t.RecurrencePattern != nil {
		p := model.RecurrencePattern(*t.RecurrencePattern)
		out.RecurrencePattern = &p
	}

	return out, nil
}

func toTemplateModels(rows []*questTemplate) ([]*model.QuestTemplate, error) {
	templates := make([]*model.QuestTemplate, 0, len(rows))
	for _, row := range rows {
		t, err := row.toModel()
		if err != nil {
			return nil, err
		}
		templates = append(templates, t)
	}
	return templates, nil
}

// GetActiveRecurringTemplates returns templates eligible for generation.
func (r *Repository) GetActiveRecurringTemplates(ctx context.Context) ([]*model.QuestTemplate, error) {
	query, args, err := r.sb.
		Select(templateColumns...).
		From("quest_templates").
		Where(squirrel.Eq{
			"is_active": true,
			"is_paused": false,
		}).
		Where(squirrel.NotEq{"recurrence_pattern": nil}).
		OrderBy("created_at", "id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build templates query: %w", err)
	}

	var rows []*questTemplate
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to select templates: %w", err)
	}

	return toTemplateModels(rows)
}

func (r *Repository) GetTemplatesByIDs(ctx context.Context, ids []uuid.UUID) ([]*model.QuestTemplate, error) {
	if len(ids) == 0 {
		return []*model.QuestTemplate{}, nil
	}

	query, args, err := r.sb.
		Select(templateColumns...).
		From("quest_templates").
		Where(squirrel.Eq{"id": ids}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build templates query: %w", err)
	}

	var rows []*questTemplate
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to select templates: %w", err)
	}

	return toTemplateModels(rows)
}
