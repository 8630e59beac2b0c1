// handlers/progress.go - student course progress, statistics and next topics
package handlers

import (
	"errors"
	"time"

	"codemaster/achievements"
	"codemaster/middleware"
	"codemaster/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type RecordProgressRequest struct {
	TopicID   uint `json:"topic_id"`
	Completed bool `json:"completed"`
}

type topicProgressView struct {
	ID          uint       `json:"id"`
	Title       string     `json:"title"`
	Completed   bool       `json:"completed"`
	CompletedAt *time.Time `json:"completed_at"`
}

type nextTopicView struct {
	ID         uint   `json:"id"`
	Title      string `json:"title"`
	Position   int    `json:"position"`
	ModuleID   uint   `json:"module_id"`
	ModuleName string `json:"module_name"`
	ModuleIcon string `json:"module_icon"`
}

// nextTopicsLimit caps the "up next" list.
const nextTopicsLimit = 5

type moduleProgressView struct {
	ID        uint                `json:"id"`
	Name      string              `json:"name"`
	Icon      string              `json:"icon"`
	Total     int                 `json:"total"`
	Completed int                 `json:"completed"`
	Percent   int                 `json:"percent"`
	Topics    []topicProgressView `json:"topics"`
}

// GetProgress returns the caller's progress over every active module.
func (h *Handler) GetProgress(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"success": false, "error": err.Error()})
	}

	var modules []models.Module
	if err := h.db.WithContext(c.UserContext()).
		Preload("Topics", func(db *gorm.DB) *gorm.DB { return db.Order("position, id") }).
		Where("active = ?", true).
		Order("position, id").
		Find(&modules).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"success": false, "error": "Failed to fetch progress"})
	}

	var rows []models.TopicProgress
	if err := h.db.WithContext(c.UserContext()).
		Where("user_id = ?", userID).
		Find(&rows).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"success": false, "error": "Failed to fetch progress"})
	}
	byTopic := make(map[uint]models.TopicProgress, len(rows))
	for _, r := range rows {
		byTopic[r.TopicID] = r
	}

	out := make([]moduleProgressView, 0, len(modules))
	for _, m := range modules {
		view := moduleProgressView{ID: m.ID, Name: m.Name, Icon: m.Icon, Topics: []topicProgressView{}}
		for _, t := range m.Topics {
			tv := topicProgressView{ID: t.ID, Title: t.Title}
			if p, ok := byTopic[t.ID]; ok && p.Completed {
				tv.Completed = true
				tv.CompletedAt = p.CompletedAt
				view.Completed++
			}
			view.Topics = append(view.Topics, tv)
		}
		view.Total = len(m.Topics)
		if view.Total > 0 {
			view.Percent = view.Completed * 100 / view.Total
		}
		out = append(out, view)
	}

	return c.JSON(fiber.Map{"success": true, "modules": out})
}

// RecordProgress marks a topic done or undone. Completing a topic runs the
// achievement evaluators; their outcome never fails the request.
func (h *Handler) RecordProgress(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"success": false, "error": err.Error()})
	}

	var req RecordProgressRequest
	if err := c.BodyParser(&req); err != nil || req.TopicID == 0 {
		return c.Status(400).JSON(fiber.Map{"success": false, "error": "Invalid request body"})
	}

	ctx := c.UserContext()
	var topic models.Topic
	if err := h.db.WithContext(ctx).First(&topic, req.TopicID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(404).JSON(fiber.Map{"success": false, "error": "Topic not found"})
		}
		return c.Status(500).JSON(fiber.Map{"success": false, "error": "Failed to load topic"})
	}

	row := models.TopicProgress{UserID: userID, TopicID: topic.ID, Completed: req.Completed}
	if req.Completed {
		now := h.now().UTC()
		row.CompletedAt = &now
	}
	if err := h.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "topic_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"completed", "completed_at", "updated_at"}),
	}).Create(&row).Error; err != nil {
		h.log.Error("saving progress failed", "user_id", userID, "topic_id", topic.ID, "error", err)
		return c.Status(500).JSON(fiber.Map{"success": false, "error": "Failed to update progress"})
	}

	if !req.Completed {
		return c.JSON(fiber.Map{"success": true})
	}

	earned := h.engine.Dispatch(ctx, userID, achievements.ActionTopicCompleted, nil)
	h.acknowledge(userID, earned)

	return c.JSON(fiber.Map{
		"success":          true,
		"new_achievements": earned,
	})
}

// GetStats returns the caller's study statistics: daily average over the last
// 30 days, active days, streak, ranking, average gap between topics, points
// and level.
func (h *Handler) GetStats(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"success": false, "error": err.Error()})
	}

	stats, err := h.engine.Stats(c.UserContext(), userID)
	if err != nil {
		h.log.Error("loading stats failed", "user_id", userID, "error", err)
		return c.Status(StatusFor(err)).JSON(fiber.Map{"success": false, "error": "Failed to fetch statistics"})
	}
	return c.JSON(fiber.Map{"success": true, "stats": stats})
}

// GetNextTopics returns up to five unfinished topics of active modules in
// course order.
func (h *Handler) GetNextTopics(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"success": false, "error": err.Error()})
	}

	topics := []nextTopicView{}
	err = h.db.WithContext(c.UserContext()).
		Table("topics").
		Select("topics.id, topics.title, topics.position, modules.id AS module_id, modules.name AS module_name, modules.icon AS module_icon").
		Joins("JOIN modules ON modules.id = topics.module_id").
		Joins("LEFT JOIN topic_progresses tp ON tp.topic_id = topics.id AND tp.user_id = ?", userID).
		Where("modules.active = ?", true).
		Where("tp.id IS NULL OR tp.completed = ?", false).
		Order("modules.position, modules.id, topics.position, topics.id").
		Limit(nextTopicsLimit).
		Scan(&topics).Error
	if err != nil {
		h.log.Error("loading next topics failed", "user_id", userID, "error", err)
		return c.Status(500).JSON(fiber.Map{"success": false, "error": "Failed to fetch next topics"})
	}
	return c.JSON(fiber.Map{"success": true, "topics": topics})
}
