// achievements/status.go - status report, points and level
package achievements

import (
	"context"
	"fmt"
	"time"

	"codemaster/models"

	"github.com/google/uuid"
)

// View states.
const (
	StateEarned     = "earned"
	StateInProgress = "in_progress"
	StateLocked     = "locked"
)

const pointsPerLevel = 100

type AchievementView struct {
	ID               uint       `json:"id"`
	Name             string     `json:"name"`
	Description      string     `json:"description"`
	Icon             string     `json:"icon"`
	Category         string     `json:"category"`
	ConditionType    string     `json:"condition_type"`
	ConditionValue   int        `json:"condition_value"`
	Points           int        `json:"points"`
	DisplayOrder     int        `json:"display_order"`
	State            string     `json:"state"`
	ProgressCurrent  int        `json:"progress_current"`
	ProgressTarget   int        `json:"progress_target"`
	EarnedAt         *time.Time `json:"earned_at,omitempty"`
	NotificationSeen bool       `json:"notification_seen"`
}

type StatusReport struct {
	Categories  map[string][]AchievementView `json:"categories"`
	All         []AchievementView            `json:"all"`
	TotalPoints int                          `json:"total_points"`
	Level       int                          `json:"level"`
}

// Level derives the user level from accumulated points.
func Level(points int) int {
	return points/pointsPerLevel + 1
}

// Status reports every active achievement with the user's state on it,
// grouped by category, plus points and level. Points count every earned row,
// including rows of definitions deactivated after the earn.
func (s *Service) Status(ctx context.Context, userID uuid.UUID) (*StatusReport, error) {
	if userID == uuid.Nil {
		return nil, ErrNilUser
	}

	var defs []models.Achievement
	if err := s.db.WithContext(ctx).
		Where("active = ?", true).
		Order("display_order, category, id").
		Find(&defs).Error; err != nil {
		return nil, fmt.Errorf("load definitions: %w", err)
	}

	rows, err := s.ledger.Rows(ctx, userID)
	if err != nil {
		return nil, err
	}
	byID := make(map[uint]models.UserAchievement, len(rows))
	for _, r := range rows {
		byID[r.AchievementID] = r
	}

	report := &StatusReport{
		Categories: make(map[string][]AchievementView, len(models.Categories)),
		All:        make([]AchievementView, 0, len(defs)),
	}
	for _, c := range models.Categories {
		report.Categories[c] = []AchievementView{}
	}

	for _, d := range defs {
		v := AchievementView{
			ID:             d.ID,
			Name:           d.Name,
			Description:    d.Description,
			Icon:           d.Icon,
			Category:       d.Category,
			ConditionType:  d.ConditionType,
			ConditionValue: d.ConditionValue,
			Points:         d.Points,
			DisplayOrder:   d.DisplayOrder,
			State:          StateLocked,
			ProgressTarget: d.ConditionValue,
		}
		if r, ok := byID[d.ID]; ok {
			v.ProgressCurrent = r.ProgressCurrent
			v.ProgressTarget = r.ProgressTarget
			v.EarnedAt = r.EarnedAt
			v.NotificationSeen = r.NotificationSeen
			switch {
			case r.Earned():
				v.State = StateEarned
			case r.ProgressCurrent > 0:
				v.State = StateInProgress
			}
		}
		report.Categories[d.Category] = append(report.Categories[d.Category], v)
		report.All = append(report.All, v)
	}

	total, err := s.TotalPoints(ctx, userID)
	if err != nil {
		return nil, err
	}
	report.TotalPoints = total
	report.Level = Level(total)
	return report, nil
}

// TotalPoints sums the points of every achievement the user has earned.
func (s *Service) TotalPoints(ctx context.Context, userID uuid.UUID) (int, error) {
	var total int64
	err := s.db.WithContext(ctx).
		Model(&models.UserAchievement{}).
		Select("COALESCE(SUM(achievements.points), 0)").
		Joins("JOIN achievements ON achievements.id = user_achievements.achievement_id").
		Where("user_achievements.user_id = ? AND user_achievements.earned_at IS NOT NULL", userID).
		Scan(&total).Error
	if err != nil {
		return 0, fmt.Errorf("sum points: %w", err)
	}
	return int(total), nil
}
