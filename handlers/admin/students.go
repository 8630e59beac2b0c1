// handlers/admin/students.go - per-student achievement view and ranking
package admin

import (
	"context"
	"errors"

	"codemaster/achievements"
	"codemaster/logger"
	"codemaster/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const rankingLimit = 20

// Students is the reporting side of the achievements service.
type Students interface {
	StudentDetail(ctx context.Context, userID uuid.UUID) (*achievements.StudentDetail, error)
	Ranking(ctx context.Context, limit int) ([]achievements.RankEntry, error)
}

type StudentsHandler struct {
	students Students
	log      *logger.Logger
}

func NewStudentsHandler(students Students, log *logger.Logger) *StudentsHandler {
	return &StudentsHandler{students: students, log: log.With("component", "admin")}
}

// GetStudentAchievements returns a student's progress, earned achievements,
// points and level.
func (h *StudentsHandler) GetStudentAchievements(c *fiber.Ctx) error {
	userID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return utils.JSONError(c, fiber.StatusBadRequest, "Invalid id")
	}

	detail, err := h.students.StudentDetail(c.UserContext(), userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.JSONError(c, fiber.StatusNotFound, "Student not found")
		}
		h.log.Error("loading student detail failed", "user_id", userID, "error", err)
		return utils.JSONError(c, fiber.StatusInternalServerError, "Failed to fetch student")
	}
	return utils.JSONSuccess(c, fiber.Map{"detail": detail})
}

// GetRanking lists the top students by completed topics.
func (h *StudentsHandler) GetRanking(c *fiber.Ctx) error {
	ranking, err := h.students.Ranking(c.UserContext(), rankingLimit)
	if err != nil {
		h.log.Error("loading ranking failed", "error", err)
		return utils.JSONError(c, fiber.StatusInternalServerError, "Failed to fetch ranking")
	}
	return utils.JSONSuccess(c, fiber.Map{"ranking": ranking})
}
