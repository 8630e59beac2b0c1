// models/user.go
package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	RoleStudent = "aluno"
	RoleAdmin   = "admin"

	StatusActive = "ativo"
)

// User is owned by the enrollment side of the platform. The achievements
// engine only reads it to resolve the acting student.
type User struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string    `gorm:"not null;size:120" json:"name"`
	Email     string    `gorm:"uniqueIndex;not null;size:200" json:"email"`
	Role      string    `gorm:"not null;size:20;default:'aluno'" json:"role"`
	Status    string    `gorm:"not null;size:20;default:'ativo'" json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Achievements []UserAchievement `gorm:"foreignKey:UserID" json:"achievements,omitempty"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}
