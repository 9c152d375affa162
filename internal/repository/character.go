package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"questcycle/internal/model"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
)

type character struct {
	ID                  uuid.UUID  `db:"id"`
	UserID              uuid.UUID  `db:"user_id"`
	Name                string     `db:"name"`
	ActiveFamilyQuestID *uuid.UUID `db:"active_family_quest_id"`
}

func (c *character) toModel() *model.Character {
	return &model.Character{
		ID:                  c.ID,
		UserID:              c.UserID,
		Name:                c.Name,
		ActiveFamilyQuestID: c.ActiveFamilyQuestID,
	}
}

func (r *Repository) GetCharactersByIDs(ctx context.Context, ids []uuid.UUID) ([]*model.Character, error) {
	if len(ids) == 0 {
		return []*model.Character{}, nil
	}

	query, args, err := r.sb.
		Select("id", "user_id", "name", "active_family_quest_id").
		From("characters").
		Where(squirrel.Eq{"id": ids}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build characters query: %w", err)
	}

	var rows []*character
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to select characters: %w", err)
	}

	characters := make([]*model.Character, len(rows))
	for i, c := range rows {
		characters[i] = c.toModel()
	}
	return characters, nil
}

func (r *Repository) GetCharacterByUserID(ctx context.Context, userID uuid.UUID) (*model.Character, error) {
	query, args, err := r.sb.
		Select("id", "user_id", "name", "active_family_quest_id").
		From("characters").
		Where(squirrel.Eq{"user_id": userID}).
		OrderBy("id").
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build character query: %w", err)
	}

	var c character
	err = r.db.GetContext(ctx, &c, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get character: %w", err)
	}

	return c.toModel(), nil
}

// ClearActiveFamilyQuest detaches every character still pointing at one of
// the given instances.
func (r *Repository) ClearActiveFamilyQuest(ctx context.Context, instanceIDs []uuid.UUID) error {
	if len(instanceIDs) == 0 {
		return nil
	}

	query, args, err := r.sb.
		Update("characters").
		Set("active_family_quest_id", nil).
		Where(squirrel.Eq{"active_family_quest_id": instanceIDs}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build character update query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to clear active family quest: %w", err)
	}

	return nil
}

// ResetStreak zeroes the current streak of a character on a template. A
// completion recorded after missedAt wins and leaves the streak alone.
func (r *Repository) ResetStreak(ctx context.Context, characterID, templateID uuid.UUID, missedAt time.Time) error {
	query, args, err := r.sb.
		Update("character_quest_streaks").
		Set("current_streak", 0).
		Where(squirrel.Eq{
			"character_id": characterID,
			"template_id":  templateID,
		}).
		Where(squirrel.Or{
			squirrel.Eq{"last_completed_date": nil},
			squirrel.LtOrEq{"last_completed_date": missedAt.UTC()},
		}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build streak update query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to reset streak: %w", err)
	}

	return nil
}
