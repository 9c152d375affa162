package repository

import (
	"context"
	"fmt"
	"time"

	"questcycle/internal/model"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
)

type family struct {
	ID           uuid.UUID `db:"id"`
	Name         string    `db:"name"`
	Timezone     *string   `db:"timezone"`
	WeekStartDay *int      `db:"week_start_day"`
}

type userProfile struct {
	ID        uuid.UUID  `db:"id"`
	FamilyID  *uuid.UUID `db:"family_id"`
	Role      string     `db:"role"`
	CreatedAt time.Time  `db:"created_at"`
}

// GetFamiliesByIDs loads families, applying the UTC and Sunday defaults to
// unset settings.
func (r *Repository) GetFamiliesByIDs(ctx context.Context, ids []uuid.UUID) ([]*model.Family, error) {
	if len(ids) == 0 {
		return []*model.Family{}, nil
	}

	query, args, err := r.sb.
		Select("id", "name", "timezone", "week_start_day").
		From("families").
		Where(squirrel.Eq{"id": ids}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build families query: %w", err)
	}

	var rows []*family
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to select families: %w", err)
	}

	families := make([]*model.Family, len(rows))
	for i, f := range rows {
		families[i] = &model.Family{
			ID:       f.ID,
			Name:     f.Name,
			Timezone: "UTC",
		}
		if f.Timezone != nil && *f.Timezone != "" {
			families[i].Timezone = *f.Timezone
		}
		if f.WeekStartDay != nil {
			families[i].WeekStartDay = *f.WeekStartDay
		}
	}

	return families, nil
}

// GetGuildMastersByFamilyIDs returns the guild masters of the given families,
// oldest first.
func (r *Repository) GetGuildMastersByFamilyIDs(ctx context.Context, familyIDs []uuid.UUID) ([]*model.UserProfile, error) {
	if len(familyIDs) == 0 {
		return []*model.UserProfile{}, nil
	}

	query, args, err := r.sb.
		Select("id", "family_id", "role", "created_at").
		From("user_profiles").
		Where(squirrel.Eq{
			"role":      model.RoleGuildMaster,
			"family_id": familyIDs,
		}).
		OrderBy("created_at", "id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build guild masters query: %w", err)
	}

	var rows []*userProfile
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to select guild masters: %w", err)
	}

	profiles := make([]*model.UserProfile, len(rows))
	for i, p := range rows {
		profiles[i] = &model.UserProfile{
			ID:        p.ID,
			FamilyID:  p.FamilyID,
			Role:      p.Role,
			CreatedAt: p.CreatedAt,
		}
	}

	return profiles, nil
}
