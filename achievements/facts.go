// achievements/facts.go - platform facts read by the evaluators
package achievements

import (
	"context"
	"fmt"
	"time"

	"codemaster/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Completion is one completed topic. CompletedAt is zero for legacy rows
// that were marked complete without a timestamp.
type Completion struct {
	TopicID     uint
	CompletedAt time.Time
}

// ModuleTopics is a module with the ids of all its topics.
type ModuleTopics struct {
	ModuleID uint
	Active   bool
	TopicIDs []uint
}

type ForumEvent struct {
	Type string
	At   time.Time
}

// FactSource reads the activity history the evaluators derive metrics from.
// It is owned by the surrounding platform and read-only to the engine.
type FactSource interface {
	Completions(ctx context.Context, userID uuid.UUID) ([]Completion, error)
	Modules(ctx context.Context) ([]ModuleTopics, error)
	ForumEvents(ctx context.Context, userID uuid.UUID) ([]ForumEvent, error)
}

type gormFactSource struct {
	db *gorm.DB
}

// NewGormFactSource reads facts from the platform tables.
func NewGormFactSource(db *gorm.DB) FactSource {
	return &gormFactSource{db: db}
}

func (s *gormFactSource) Completions(ctx context.Context, userID uuid.UUID) ([]Completion, error) {
	var rows []models.TopicProgress
	err := s.db.WithContext(ctx).
		Select("topic_id", "completed_at").
		Where("user_id = ? AND completed = ?", userID, true).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("load completions: %w", err)
	}

	out := make([]Completion, 0, len(rows))
	for _, r := range rows {
		c := Completion{TopicID: r.TopicID}
		if r.CompletedAt != nil {
			c.CompletedAt = *r.CompletedAt
		}
		out = append(out, c)
	}
	return out, nil
}

func (s *gormFactSource) Modules(ctx context.Context) ([]ModuleTopics, error) {
	var mods []models.Module
	err := s.db.WithContext(ctx).
		Preload("Topics").
		Order("position, id").
		Find(&mods).Error
	if err != nil {
		return nil, fmt.Errorf("load modules: %w", err)
	}

	out := make([]ModuleTopics, 0, len(mods))
	for _, m := range mods {
		ids := make([]uint, 0, len(m.Topics))
		for _, t := range m.Topics {
			ids = append(ids, t.ID)
		}
		out = append(out, ModuleTopics{ModuleID: m.ID, Active: m.Active, TopicIDs: ids})
	}
	return out, nil
}

func (s *gormFactSource) ForumEvents(ctx context.Context, userID uuid.UUID) ([]ForumEvent, error) {
	var rows []models.ForumActivity
	err := s.db.WithContext(ctx).
		Select("type", "created_at").
		Where("user_id = ?", userID).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("load forum activity: %w", err)
	}

	out := make([]ForumEvent, 0, len(rows))
	for _, r := range rows {
		out = append(out, ForumEvent{Type: r.Type, At: r.CreatedAt})
	}
	return out, nil
}
