// handlers/achievements.go - achievement status, checks and notifications
package handlers

import (
	"codemaster/achievements"
	"codemaster/middleware"
	"codemaster/models"

	"github.com/gofiber/fiber/v2"
)

type CheckRequest struct {
	Action string         `json:"action"`
	Data   map[string]any `json:"data"`
}

type MarkSeenRequest struct {
	AchievementIDs []uint `json:"achievement_ids"`
}

// CheckAchievements runs the evaluators for an arbitrary action. The login
// flow calls it with "login" right after issuing a session.
func (h *Handler) CheckAchievements(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"success": false, "error": err.Error()})
	}

	var req CheckRequest
	if err := c.BodyParser(&req); err != nil || req.Action == "" {
		return c.Status(400).JSON(fiber.Map{"success": false, "error": "action is required"})
	}

	earned := h.engine.Dispatch(c.UserContext(), userID, achievements.ActionKind(req.Action), clientData(req.Data))
	return c.JSON(fiber.Map{
		"success":          true,
		"new_achievements": earned,
	})
}

// clientData copies request data without the keys reserved for trusted
// callers, so the evaluation instant always comes from the server clock.
func clientData(data map[string]any) map[string]any {
	if len(data) == 0 {
		return nil
	}
	out := make(map[string]any, len(data))
	for k, v := range data {
		if k == achievements.DataAt {
			continue
		}
		out[k] = v
	}
	return out
}

// GetMyAchievements returns the status report, optionally narrowed with
// ?category=.
func (h *Handler) GetMyAchievements(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"success": false, "error": err.Error()})
	}

	report, err := h.engine.Status(c.UserContext(), userID)
	if err != nil {
		h.log.Error("loading achievement status failed", "user_id", userID, "error", err)
		return c.Status(StatusFor(err)).JSON(fiber.Map{"success": false, "error": "Failed to fetch achievements"})
	}

	if category := c.Query("category"); category != "" && category != "all" {
		views, ok := report.Categories[category]
		if !ok {
			return c.Status(400).JSON(fiber.Map{"success": false, "error": "Unknown category"})
		}
		return c.JSON(fiber.Map{
			"success":      true,
			"category":     category,
			"achievements": views,
			"total_points": report.TotalPoints,
			"level":        report.Level,
		})
	}

	return c.JSON(fiber.Map{
		"success":      true,
		"achievements": report.Categories,
		"all":          report.All,
		"categories":   models.Categories,
		"total_points": report.TotalPoints,
		"level":        report.Level,
	})
}

func (h *Handler) GetUnseenAchievements(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"success": false, "error": err.Error()})
	}

	unseen, err := h.engine.FetchUnseenEarned(c.UserContext(), userID)
	if err != nil {
		h.log.Error("loading unseen achievements failed", "user_id", userID, "error", err)
		return c.Status(500).JSON(fiber.Map{"success": false, "error": "Failed to fetch new achievements"})
	}
	return c.JSON(fiber.Map{"success": true, "achievements": unseen})
}

// MarkAchievementsSeen acknowledges the listed ids, or every unseen earned
// achievement when none are listed. It runs synchronously so the client can
// rely on the next poll being clean.
func (h *Handler) MarkAchievementsSeen(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"success": false, "error": err.Error()})
	}

	var req MarkSeenRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return c.Status(400).JSON(fiber.Map{"success": false, "error": "Invalid request body"})
		}
	}

	n, err := h.engine.MarkSeen(c.UserContext(), userID, req.AchievementIDs...)
	if err != nil {
		h.log.Error("marking achievements seen failed", "user_id", userID, "error", err)
		return c.Status(500).JSON(fiber.Map{"success": false, "error": "Failed to mark achievements"})
	}
	return c.JSON(fiber.Map{"success": true, "updated": n})
}
