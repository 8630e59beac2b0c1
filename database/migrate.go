// database/migrate.go - Database Migration Runner
package database

import (
	"fmt"

	"codemaster/logger"
	"codemaster/models"

	"gorm.io/gorm"
)

// Migrate creates or updates every table the service owns or reads.
func Migrate(conn *gorm.DB, log *logger.Logger) error {
	log.Info("running database migrations")

	if err := conn.AutoMigrate(
		&models.User{},
		&models.Module{},
		&models.Topic{},
		&models.TopicProgress{},
		&models.ForumActivity{},
		&models.Achievement{},
		&models.UserAchievement{},
	); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	for _, stmt := range indexes {
		if err := conn.Exec(stmt).Error; err != nil {
			return fmt.Errorf("create index: %w", err)
		}
	}

	log.Info("migrations completed")
	return nil
}

// Indexes backing the evaluator and notification queries.
var indexes = []string{
	"CREATE INDEX IF NOT EXISTS idx_progress_user_completed ON topic_progresses(user_id, completed)",
	"CREATE INDEX IF NOT EXISTS idx_forum_activities_user_type ON forum_activities(user_id, type)",
	"CREATE INDEX IF NOT EXISTS idx_user_achievements_unseen ON user_achievements(user_id, notification_seen)",
	"CREATE INDEX IF NOT EXISTS idx_achievements_active_order ON achievements(active, display_order)",
}
