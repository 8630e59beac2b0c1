// handlers/admin/achievements.go - catalog administration
package admin

import (
	"context"

	"codemaster/achievements"
	"codemaster/handlers"
	"codemaster/logger"
	"codemaster/models"
	"codemaster/utils"

	"github.com/gofiber/fiber/v2"
)

// Catalog is the administrative side of the achievements service.
type Catalog interface {
	Definitions(ctx context.Context) ([]models.Achievement, error)
	UpdateDefinition(ctx context.Context, id uint, p achievements.DefinitionPatch) (*models.Achievement, error)
}

type AchievementsHandler struct {
	catalog Catalog
	log     *logger.Logger
}

func NewAchievementsHandler(catalog Catalog, log *logger.Logger) *AchievementsHandler {
	return &AchievementsHandler{catalog: catalog, log: log.With("component", "admin")}
}

// GetAchievements returns the whole catalog, inactive definitions included.
func (h *AchievementsHandler) GetAchievements(c *fiber.Ctx) error {
	defs, err := h.catalog.Definitions(c.UserContext())
	if err != nil {
		h.log.Error("listing achievements failed", "error", err)
		return utils.JSONError(c, fiber.StatusInternalServerError, "Failed to fetch achievements")
	}
	return utils.JSONSuccess(c, fiber.Map{"achievements": defs})
}

// UpdateAchievement edits a definition. Thresholds already referenced by
// student progress cannot change.
func (h *AchievementsHandler) UpdateAchievement(c *fiber.Ctx) error {
	id, err := utils.ParamUint(c, "id")
	if err != nil {
		return err
	}

	var patch achievements.DefinitionPatch
	if err := utils.ParseJSON(c, &patch); err != nil {
		return err
	}

	def, err := h.catalog.UpdateDefinition(c.UserContext(), id, patch)
	if err != nil {
		status := handlers.StatusFor(err)
		if status == fiber.StatusInternalServerError {
			h.log.Error("updating achievement failed", "achievement_id", id, "error", err)
			return utils.JSONError(c, status, "Failed to update achievement")
		}
		return utils.JSONError(c, status, err.Error())
	}

	h.log.Info("achievement updated", "achievement_id", id)
	return utils.JSONSuccess(c, fiber.Map{"achievement": def})
}
