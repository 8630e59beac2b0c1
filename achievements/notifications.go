// achievements/notifications.go - earned and unseen achievement lists
package achievements

import (
	"context"
	"fmt"
	"time"

	"codemaster/models"

	"github.com/google/uuid"
)

// EarnedAchievement is what clients render as a toast.
type EarnedAchievement struct {
	ID              uint      `json:"id"`
	Name            string    `json:"name"`
	Description     string    `json:"description"`
	Icon            string    `json:"icon"`
	Category        string    `json:"category"`
	Points          int       `json:"points"`
	ProgressCurrent int       `json:"progress_current"`
	ProgressTarget  int       `json:"progress_target"`
	EarnedAt        time.Time `json:"earned_at"`
}

// FetchUnseenEarned lists earned achievements the user has not acknowledged,
// most recent first.
func (s *Service) FetchUnseenEarned(ctx context.Context, userID uuid.UUID) ([]EarnedAchievement, error) {
	return s.earned(ctx, userID, true)
}

// Earned lists every achievement the user has earned, most recent first.
func (s *Service) Earned(ctx context.Context, userID uuid.UUID) ([]EarnedAchievement, error) {
	return s.earned(ctx, userID, false)
}

func (s *Service) earned(ctx context.Context, userID uuid.UUID, unseenOnly bool) ([]EarnedAchievement, error) {
	q := s.db.WithContext(ctx).
		Preload("Achievement").
		Where("user_id = ? AND earned_at IS NOT NULL", userID)
	if unseenOnly {
		q = q.Where("notification_seen = ?", false)
	}

	var rows []models.UserAchievement
	if err := q.Order("earned_at DESC, achievement_id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("load earned achievements: %w", err)
	}

	out := make([]EarnedAchievement, 0, len(rows))
	for _, r := range rows {
		out = append(out, EarnedAchievement{
			ID:              r.AchievementID,
			Name:            r.Achievement.Name,
			Description:     r.Achievement.Description,
			Icon:            r.Achievement.Icon,
			Category:        r.Achievement.Category,
			Points:          r.Achievement.Points,
			ProgressCurrent: r.ProgressCurrent,
			ProgressTarget:  r.ProgressTarget,
			EarnedAt:        *r.EarnedAt,
		})
	}
	return out, nil
}

// MarkSeen acknowledges the user's earned, unseen achievements: all of them
// when ids is empty, otherwise only those listed. It returns how many rows
// changed. Rows that are not earned yet are left alone.
func (s *Service) MarkSeen(ctx context.Context, userID uuid.UUID, ids ...uint) (int64, error) {
	if userID == uuid.Nil {
		return 0, ErrNilUser
	}
	q := s.db.WithContext(ctx).
		Model(&models.UserAchievement{}).
		Where("user_id = ? AND earned_at IS NOT NULL AND notification_seen = ?", userID, false)
	if len(ids) > 0 {
		q = q.Where("achievement_id IN ?", ids)
	}

	res := q.Update("notification_seen", true)
	if res.Error != nil {
		return 0, fmt.Errorf("mark achievements seen: %w", res.Error)
	}
	return res.RowsAffected, nil
}
