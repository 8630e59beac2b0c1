// handlers/handler.go - shared handler dependencies and error mapping
package handlers

import (
	"context"
	"errors"
	"time"

	"codemaster/achievements"
	"codemaster/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Engine is the part of the achievements service the student handlers use.
type Engine interface {
	Dispatch(ctx context.Context, userID uuid.UUID, kind achievements.ActionKind, data map[string]any) []achievements.EarnedAchievement
	FetchUnseenEarned(ctx context.Context, userID uuid.UUID) ([]achievements.EarnedAchievement, error)
	MarkSeen(ctx context.Context, userID uuid.UUID, ids ...uint) (int64, error)
	Status(ctx context.Context, userID uuid.UUID) (*achievements.StatusReport, error)
	Stats(ctx context.Context, userID uuid.UUID) (*achievements.StudentStats, error)
}

// SeenQueue acknowledges achievements after the response is sent.
type SeenQueue interface {
	Enqueue(userID uuid.UUID, ids []uint) bool
}

type Handler struct {
	db     *gorm.DB
	engine Engine
	seen   SeenQueue
	log    *logger.Logger
	now    func() time.Time
}

func New(db *gorm.DB, engine Engine, seen SeenQueue, log *logger.Logger) *Handler {
	return &Handler{
		db:     db,
		engine: engine,
		seen:   seen,
		log:    log.With("component", "handlers"),
		now:    time.Now,
	}
}

// acknowledge hands the ids shown in this response to the seen queue.
func (h *Handler) acknowledge(userID uuid.UUID, earned []achievements.EarnedAchievement) {
	if len(earned) == 0 || h.seen == nil {
		return
	}
	ids := make([]uint, 0, len(earned))
	for _, e := range earned {
		ids = append(ids, e.ID)
	}
	if !h.seen.Enqueue(userID, ids) {
		h.log.Warn("could not queue seen acknowledgement", "user_id", userID, "ids", ids)
	}
}

// StatusFor maps engine errors to HTTP status codes.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, achievements.ErrUnknownAchievement), errors.Is(err, gorm.ErrRecordNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, achievements.ErrConditionLocked):
		return fiber.StatusConflict
	case errors.Is(err, achievements.ErrInvalidCatalog), errors.Is(err, achievements.ErrNilUser):
		return fiber.StatusBadRequest
	default:
		var fe *fiber.Error
		if errors.As(err, &fe) {
			return fe.Code
		}
		return fiber.StatusInternalServerError
	}
}
