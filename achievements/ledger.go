// achievements/ledger.go - per-user achievement ledger
package achievements

import (
	"context"
	"fmt"
	"time"

	"codemaster/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Ledger records per-user achievement progress. Every write goes through a
// single INSERT ... ON CONFLICT statement, so the first earn of a pair is
// decided by the database and cannot be lost to a concurrent writer.
type Ledger struct {
	db       *gorm.DB
	now      func() time.Time
	maxTries uint
}

func NewLedger(db *gorm.DB, now func() time.Time) *Ledger {
	if now == nil {
		now = time.Now
	}
	return &Ledger{db: db, now: now, maxTries: defaultMaxTries}
}

// Upsert stores current/target for the pair. A missing row is created, earned
// when current >= target. An existing row takes the new values; it becomes
// earned (and unseen) only if it was not earned before and current >= target.
// An earned row never goes back.
func (l *Ledger) Upsert(ctx context.Context, userID uuid.UUID, achievementID uint, current, target int) (*models.UserAchievement, error) {
	if userID == uuid.Nil {
		return nil, ErrNilUser
	}
	return withRetry(ctx, l.maxTries, func() (*models.UserAchievement, error) {
		return l.upsert(ctx, userID, achievementID, current, target)
	})
}

func (l *Ledger) upsert(ctx context.Context, userID uuid.UUID, achievementID uint, current, target int) (*models.UserAchievement, error) {
	now := l.now().UTC()
	row := models.UserAchievement{
		UserID:          userID,
		AchievementID:   achievementID,
		ProgressCurrent: current,
		ProgressTarget:  target,
	}
	if current >= target {
		row.EarnedAt = &now
	}

	const earnsNow = "user_achievements.earned_at IS NULL AND excluded.progress_current >= excluded.progress_target"

	db := l.db.WithContext(ctx)
	err := db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "achievement_id"}},
		DoUpdates: clause.Set{
			{Column: clause.Column{Name: "progress_current"}, Value: gorm.Expr("excluded.progress_current")},
			{Column: clause.Column{Name: "progress_target"}, Value: gorm.Expr("excluded.progress_target")},
			{Column: clause.Column{Name: "earned_at"}, Value: gorm.Expr(
				"CASE WHEN "+earnsNow+" THEN ? ELSE user_achievements.earned_at END", now)},
			{Column: clause.Column{Name: "notification_seen"}, Value: gorm.Expr(
				"CASE WHEN "+earnsNow+" THEN ? ELSE user_achievements.notification_seen END", false)},
			{Column: clause.Column{Name: "updated_at"}, Value: now},
		},
	}).Create(&row).Error
	if err != nil {
		return nil, fmt.Errorf("upsert achievement %d: %w", achievementID, err)
	}

	var stored models.UserAchievement
	if err := db.Where("user_id = ? AND achievement_id = ?", userID, achievementID).
		First(&stored).Error; err != nil {
		return nil, fmt.Errorf("reload achievement %d: %w", achievementID, err)
	}
	return &stored, nil
}

// Get returns the ledger row for the pair, or gorm.ErrRecordNotFound.
func (l *Ledger) Get(ctx context.Context, userID uuid.UUID, achievementID uint) (*models.UserAchievement, error) {
	var row models.UserAchievement
	err := l.db.WithContext(ctx).
		Where("user_id = ? AND achievement_id = ?", userID, achievementID).
		First(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// Rows returns every ledger row of the user.
func (l *Ledger) Rows(ctx context.Context, userID uuid.UUID) ([]models.UserAchievement, error) {
	var rows []models.UserAchievement
	err := l.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("achievement_id").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("load ledger: %w", err)
	}
	return rows, nil
}
