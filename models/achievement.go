// models/achievement.go
package models

import (
	"time"

	"github.com/google/uuid"
)

// Achievement categories.
const (
	CategoryProgress = "progress"
	CategoryModule   = "module"
	CategoryStreak   = "streak"
	CategoryVelocity = "velocity"
	CategoryHorario  = "horario"
	CategorySocial   = "social"
)

// Categories lists every category in display order.
var Categories = []string{
	CategoryProgress,
	CategoryModule,
	CategoryStreak,
	CategoryVelocity,
	CategoryHorario,
	CategorySocial,
}

// Achievement is a catalog definition. IDs come from the catalog file and are
// never auto-assigned, so module rules can reference them.
type Achievement struct {
	ID             uint   `gorm:"primaryKey;autoIncrement:false" json:"id"`
	Name           string `gorm:"not null;size:120" json:"name"`
	Description    string `gorm:"type:text" json:"description"`
	Icon           string `gorm:"size:50" json:"icon"`
	Category       string `gorm:"not null;size:20;index" json:"category"`
	ConditionType  string `gorm:"not null;size:40" json:"condition_type"`
	ConditionValue int    `gorm:"not null" json:"condition_value"`
	Points         int    `gorm:"default:0" json:"points"`
	Active         bool   `gorm:"not null" json:"active"`
	DisplayOrder   int    `gorm:"default:0" json:"display_order"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UserAchievement is the ledger row for one (user, achievement) pair.
// EarnedAt is set once and never cleared.
type UserAchievement struct {
	ID               uint       `gorm:"primaryKey" json:"id"`
	UserID           uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_user_achievement,priority:1" json:"user_id"`
	AchievementID    uint       `gorm:"not null;uniqueIndex:idx_user_achievement,priority:2;index" json:"achievement_id"`
	ProgressCurrent  int        `gorm:"not null;default:0" json:"progress_current"`
	ProgressTarget   int        `gorm:"not null;default:0" json:"progress_target"`
	EarnedAt         *time.Time `gorm:"index" json:"earned_at"`
	NotificationSeen bool       `gorm:"not null;default:false" json:"notification_seen"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Achievement Achievement `gorm:"foreignKey:AchievementID" json:"achievement,omitempty"`
}

func (u *UserAchievement) Earned() bool {
	return u.EarnedAt != nil
}
