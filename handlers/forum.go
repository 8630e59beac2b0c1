// handlers/forum.go - forum activity recording
package handlers

import (
	"codemaster/achievements"
	"codemaster/middleware"
	"codemaster/models"

	"github.com/gofiber/fiber/v2"
)

type ForumActivityRequest struct {
	Type string `json:"type"`
}

// RecordForumActivity stores a reply or participation and runs the social
// achievement rules.
func (h *Handler) RecordForumActivity(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"success": false, "error": err.Error()})
	}

	var req ForumActivityRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "error": "Invalid request body"})
	}
	if req.Type != models.ForumReply && req.Type != models.ForumParticipation {
		return c.Status(400).JSON(fiber.Map{"success": false, "error": "type must be reply or participation"})
	}

	ctx := c.UserContext()
	activity := models.ForumActivity{UserID: userID, Type: req.Type, CreatedAt: h.now().UTC()}
	if err := h.db.WithContext(ctx).Create(&activity).Error; err != nil {
		h.log.Error("saving forum activity failed", "user_id", userID, "error", err)
		return c.Status(500).JSON(fiber.Map{"success": false, "error": "Failed to record activity"})
	}

	earned := h.engine.Dispatch(ctx, userID, achievements.ActionForumReply, nil)
	h.acknowledge(userID, earned)

	return c.Status(201).JSON(fiber.Map{
		"success":          true,
		"activity":         activity,
		"new_achievements": earned,
	})
}
