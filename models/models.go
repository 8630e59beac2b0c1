// models/models.go - course content and student activity
package models

import (
	"time"

	"github.com/google/uuid"
)

// Forum activity types.
const (
	ForumReply         = "reply"
	ForumParticipation = "participation"
)

// Module groups topics. Inactive modules are ignored by the module rules.
type Module struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"not null;size:120"`
	Icon      string    `json:"icon" gorm:"size:50"`
	Position  int       `json:"position" gorm:"default:0"`
	Active    bool      `json:"active" gorm:"not null"`
	CreatedAt time.Time `json:"created_at"`
	Topics    []Topic   `json:"topics,omitempty" gorm:"foreignKey:ModuleID"`
}

type Topic struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	ModuleID  uint      `json:"module_id" gorm:"not null;index"`
	Module    *Module   `json:"module,omitempty" gorm:"foreignKey:ModuleID"`
	Title     string    `json:"title" gorm:"not null;size:200"`
	Position  int       `json:"position" gorm:"default:0"`
	CreatedAt time.Time `json:"created_at"`
}

// TopicProgress is one student's state on one topic.
type TopicProgress struct {
	ID          uint       `json:"id" gorm:"primaryKey"`
	UserID      uuid.UUID  `json:"user_id" gorm:"type:uuid;not null;uniqueIndex:idx_progress_user_topic,priority:1"`
	TopicID     uint       `json:"topic_id" gorm:"not null;uniqueIndex:idx_progress_user_topic,priority:2"`
	Completed   bool       `json:"completed" gorm:"not null;default:false"`
	CompletedAt *time.Time `json:"completed_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

type ForumActivity struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	UserID    uuid.UUID `json:"user_id" gorm:"type:uuid;not null;index"`
	Type      string    `json:"type" gorm:"not null;size:20"`
	CreatedAt time.Time `json:"created_at"`
}
