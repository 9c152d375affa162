package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	RoleGuildMaster = "GUILD_MASTER"
	RoleHero        = "HERO"
)

type Family struct {
	ID           uuid.UUID
	Name         string
	Timezone     string
	WeekStartDay int
}

type UserProfile struct {
	ID        uuid.UUID
	FamilyID  *uuid.UUID
	Role      string
	CreatedAt time.Time
}

type Character struct {
	ID                  uuid.UUID
	UserID              uuid.UUID
	Name                string
	ActiveFamilyQuestID *uuid.UUID
}

type CharacterQuestStreak struct {
	CharacterID       uuid.UUID
	TemplateID        uuid.UUID
	CurrentStreak     int
	LongestStreak     int
	LastCompletedDate *time.Time
}
