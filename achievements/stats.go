// achievements/stats.go - student statistics and ranking
package achievements

import (
	"context"
	"fmt"

	"codemaster/models"

	"github.com/google/uuid"
)

// statsWindowDays is the look-back window for the daily average.
const statsWindowDays = 30

// StudentStats summarizes a student's study rhythm next to their points.
type StudentStats struct {
	TopicsCompleted int     `json:"topics_completed"`
	ActiveDays      int     `json:"active_days"`
	DailyAverage    float64 `json:"daily_average"`
	AverageGapDays  int     `json:"average_gap_days"`
	CurrentStreak   int     `json:"current_streak"`
	RankingPosition *int    `json:"ranking_position"`
	TotalPoints     int     `json:"total_points"`
	Level           int     `json:"level"`
}

// RankEntry is one row of the topics-completed ranking.
type RankEntry struct {
	Position        int       `json:"position"`
	UserID          uuid.UUID `json:"user_id"`
	Name            string    `json:"name"`
	TopicsCompleted int       `json:"topics_completed"`
}

// Stats computes the student's statistics at the service clock, using the
// same calendar as the streak rules.
func (s *Service) Stats(ctx context.Context, userID uuid.UUID) (*StudentStats, error) {
	if userID == uuid.Nil {
		return nil, ErrNilUser
	}

	cs, err := s.facts.Completions(ctx, userID)
	if err != nil {
		return nil, err
	}
	at := s.now()
	active, total := RecentActivity(cs, at, s.loc, statsWindowDays)

	stats := &StudentStats{
		TopicsCompleted: CountCompleted(cs),
		ActiveDays:      active,
		DailyAverage:    DailyAverage(active, total),
		AverageGapDays:  AverageGapDays(cs),
		CurrentStreak:   CurrentStreak(cs, at, s.loc),
	}

	if stats.TopicsCompleted > 0 {
		pos, err := s.rankOf(ctx, stats.TopicsCompleted)
		if err != nil {
			return nil, err
		}
		stats.RankingPosition = &pos
	}

	points, err := s.TotalPoints(ctx, userID)
	if err != nil {
		return nil, err
	}
	stats.TotalPoints = points
	stats.Level = Level(points)
	return stats, nil
}

// rankOf returns 1 + the number of users with more completed topics.
func (s *Service) rankOf(ctx context.Context, completed int) (int, error) {
	counts := s.db.Model(&models.TopicProgress{}).
		Select("user_id, COUNT(*) AS completed").
		Where("completed = ?", true).
		Group("user_id")

	var ahead int64
	if err := s.db.WithContext(ctx).
		Table("(?) AS counts", counts).
		Where("counts.completed > ?", completed).
		Count(&ahead).Error; err != nil {
		return 0, fmt.Errorf("rank user: %w", err)
	}
	return int(ahead) + 1, nil
}

// Ranking lists active students by completed topics, best first.
func (s *Service) Ranking(ctx context.Context, limit int) ([]RankEntry, error) {
	var rows []RankEntry
	err := s.db.WithContext(ctx).
		Model(&models.User{}).
		Select("users.id AS user_id, users.name AS name, COUNT(tp.id) AS topics_completed").
		Joins("LEFT JOIN topic_progresses tp ON tp.user_id = users.id AND tp.completed = ?", true).
		Where("users.role = ? AND users.status = ?", models.RoleStudent, models.StatusActive).
		Group("users.id, users.name").
		Order("topics_completed DESC, users.name, users.id").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("load ranking: %w", err)
	}
	for i := range rows {
		rows[i].Position = i + 1
	}
	return rows, nil
}

// StudentDetail is the admin view of one student's progress and awards.
type StudentDetail struct {
	Student         models.User         `json:"student"`
	TopicsCompleted int                 `json:"topics_completed"`
	TotalTopics     int                 `json:"total_topics"`
	ProgressPercent int                 `json:"progress_percent"`
	EarnedCount     int                 `json:"earned_count"`
	Earned          []EarnedAchievement `json:"earned"`
	TotalPoints     int                 `json:"total_points"`
	Level           int                 `json:"level"`
}

// StudentDetail loads a student with their course progress and earned
// achievements. Unknown ids and non-student users yield
// gorm.ErrRecordNotFound.
func (s *Service) StudentDetail(ctx context.Context, userID uuid.UUID) (*StudentDetail, error) {
	var user models.User
	if err := s.db.WithContext(ctx).
		Where("id = ? AND role = ?", userID, models.RoleStudent).
		First(&user).Error; err != nil {
		return nil, fmt.Errorf("load student %s: %w", userID, err)
	}

	cs, err := s.facts.Completions(ctx, userID)
	if err != nil {
		return nil, err
	}
	var topics int64
	if err := s.db.WithContext(ctx).Model(&models.Topic{}).Count(&topics).Error; err != nil {
		return nil, fmt.Errorf("count topics: %w", err)
	}
	earned, err := s.Earned(ctx, userID)
	if err != nil {
		return nil, err
	}
	points, err := s.TotalPoints(ctx, userID)
	if err != nil {
		return nil, err
	}

	d := &StudentDetail{
		Student:         user,
		TopicsCompleted: CountCompleted(cs),
		TotalTopics:     int(topics),
		EarnedCount:     len(earned),
		Earned:          earned,
		TotalPoints:     points,
		Level:           Level(points),
	}
	if d.TotalTopics > 0 {
		d.ProgressPercent = d.TopicsCompleted * 100 / d.TotalTopics
	}
	return d, nil
}
