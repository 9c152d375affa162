package repository

import (
	"context"
	"fmt"
	"time"

	"questcycle/internal/model"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
)

type questInstance struct {
	ID             uuid.UUID  `db:"id"`
	TemplateID     *uuid.UUID `db:"template_id"`
	Title          string     `db:"title"`
	Description    *string    `db:"description"`
	Category       string     `db:"category"`
	Difficulty     string     `db:"difficulty"`
	XPReward       int        `db:"xp_reward"`
	GoldReward     int        `db:"gold_reward"`
	FamilyID       uuid.UUID  `db:"family_id"`
	CreatedByID    uuid.UUID  `db:"created_by_id"`
	AssignedToID   *uuid.UUID `db:"assigned_to_id"`
	Status         string     `db:"status"`
	QuestType      string     `db:"quest_type"`
	CycleStartDate time.Time  `db:"cycle_start_date"`
	CycleEndDate   time.Time  `db:"cycle_end_date"`
	VolunteerBonus *int       `db:"volunteer_bonus"`
	StreakCount    int        `db:"streak_count"`
	StreakBonus    int        `db:"streak_bonus"`
	CascadePending bool       `db:"cascade_pending"`
}

var instanceColumns = []string{
	"id",
	"template_id",
	"title",
	"description",
	"category",
	"difficulty",
	"xp_reward",
	"gold_reward",
	"family_id",
	"created_by_id",
	"assigned_to_id",
	"status",
	"quest_type",
	"cycle_start_date",
	"cycle_end_date",
	"volunteer_bonus",
	"streak_count",
	"streak_bonus",
	"cascade_pending",
}

func (q *questInstance) toModel() *model.QuestInstance {
	out := &model.QuestInstance{
		ID:             q.ID,
		TemplateID:     q.TemplateID,
		Title:          q.Title,
		Category:       q.Category,
		Difficulty:     q.Difficulty,
		XPReward:       q.XPReward,
		GoldReward:     q.GoldReward,
		FamilyID:       q.FamilyID,
		CreatedByID:    q.CreatedByID,
		AssignedToID:   q.AssignedToID,
		Status:         model.QuestStatus(q.Status),
		QuestType:      model.QuestType(q.QuestType),
		CycleStartDate: q.CycleStartDate,
		CycleEndDate:   q.CycleEndDate,
		VolunteerBonus: q.VolunteerBonus,
		StreakCount:    q.StreakCount,
		StreakBonus:    q.StreakBonus,
		CascadePending: q.CascadePending,
	}
	if q.Description != nil {
		out.Description = *q.Description
	}
	return out
}

// CountInstancesInCycle counts instances of a template whose cycle starts
// inside the filter window.
func (r *Repository) CountInstancesInCycle(ctx context.Context, filter model.CycleInstanceFilter) (int, error) {
	builder := r.sb.
		Select("COUNT(*)").
		From("quest_instances").
		Where(squirrel.Eq{"template_id": filter.TemplateID}).
		Where(squirrel.GtOrEq{"cycle_start_date": filter.CycleStart.UTC()}).
		Where(squirrel.LtOrEq{"cycle_start_date": filter.CycleEnd.UTC()})

	if filter.FamilyID != nil {
		builder = builder.Where(squirrel.Eq{"family_id": *filter.FamilyID})
	}
	if filter.AssignedToID != nil {
		builder = builder.Where(squirrel.Eq{"assigned_to_id": *filter.AssignedToID})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build count query: %w", err)
	}

	var count int
	if err := r.db.GetContext(ctx, &count, query, args...); err != nil {
		return 0, fmt.Errorf("failed to count quest instances: %w", err)
	}

	return count, nil
}

// CreateQuestInstance inserts an instance unless one already occupies the same
// template, cycle start and assignee. It reports whether a row was written.
func (r *Repository) CreateQuestInstance(ctx context.Context, q *model.QuestInstance) (bool, error) {
	query, args, err := r.sb.
		Insert("quest_instances").
		SetMap(map[string]interface{}{
			"id":               q.ID,
			"template_id":      nullableUUID(q.TemplateID),
			"title":            q.Title,
			"description":      q.Description,
			"category":         q.Category,
			"difficulty":       q.Difficulty,
			"xp_reward":        q.XPReward,
			"gold_reward":      q.GoldReward,
			"family_id":        q.FamilyID,
			"created_by_id":    q.CreatedByID,
			"assigned_to_id":   nullableUUID(q.AssignedToID),
			"status":           string(q.Status),
			"quest_type":       string(q.QuestType),
			"cycle_start_date": q.CycleStartDate.UTC(),
			"cycle_end_date":   q.CycleEndDate.UTC(),
			"volunteer_bonus":  q.VolunteerBonus,
			"streak_count":     q.StreakCount,
			"streak_bonus":     q.StreakBonus,
			"cascade_pending":  q.CascadePending,
		}).
		Suffix("ON CONFLICT DO NOTHING").
		ToSql()
	if err != nil {
		return false, fmt.Errorf("failed to build instance insert query: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("failed to insert quest instance: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get affected rows: %w", err)
	}

	return rows > 0, nil
}

func (r *Repository) selectInstances(ctx context.Context, builder squirrel.SelectBuilder) ([]*model.QuestInstance, error) {
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build instances query: %w", err)
	}

	var rows []*questInstance
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to select quest instances: %w", err)
	}

	instances := make([]*model.QuestInstance, len(rows))
	for i, row := range rows {
		instances[i] = row.toModel()
	}
	return instances, nil
}

// GetExpiredInstances returns template-backed instances whose cycle ended
// before now while still unresolved.
func (r *Repository) GetExpiredInstances(ctx context.Context, now time.Time) ([]*model.QuestInstance, error) {
	statuses := make([]string, len(model.UnresolvedStatuses))
	for i, s := range model.UnresolvedStatuses {
		statuses[i] = string(s)
	}

	return r.selectInstances(ctx, r.sb.
		Select(instanceColumns...).
		From("quest_instances").
		Where(squirrel.NotEq{"template_id": nil}).
		Where(squirrel.Lt{"cycle_end_date": now.UTC()}).
		Where(squirrel.Eq{"status": statuses}).
		OrderBy("cycle_end_date", "id"))
}

// GetPendingCascadeInstances returns missed instances whose follow-up cleanup
// was never confirmed.
func (r *Repository) GetPendingCascadeInstances(ctx context.Context) ([]*model.QuestInstance, error) {
	return r.selectInstances(ctx, r.sb.
		Select(instanceColumns...).
		From("quest_instances").
		Where(squirrel.Eq{
			"status":          string(model.QuestStatusMissed),
			"cascade_pending": true,
		}).
		OrderBy("cycle_end_date", "id"))
}

// MarkInstancesMissed moves every id to MISSED in a single statement and flags
// the follow-up cleanup as pending.
func (r *Repository) MarkInstancesMissed(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}

	query, args, err := r.sb.
		Update("quest_instances").
		Set("status", string(model.QuestStatusMissed)).
		Set("cascade_pending", true).
		Where(squirrel.Eq{"id": ids}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build missed update query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to mark quest instances missed: %w", err)
	}

	return nil
}

func (r *Repository) CompleteCascade(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}

	query, args, err := r.sb.
		Update("quest_instances").
		Set("cascade_pending", false).
		Where(squirrel.Eq{"id": ids}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build cascade update query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to complete cascade: %w", err)
	}

	return nil
}
