// database/seed.go - achievement catalog seeding
package database

import (
	"context"
	"errors"
	"fmt"

	"codemaster/logger"
	"codemaster/models"

	"gorm.io/gorm"
)

// SeedResult counts what SeedCatalog did.
type SeedResult struct {
	Created int
	Updated int
	Locked  int
}

// SeedCatalog upserts catalog definitions by id. A definition already
// referenced by ledger rows keeps its stored condition_value; every other
// column follows the catalog.
func SeedCatalog(ctx context.Context, conn *gorm.DB, defs []models.Achievement, log *logger.Logger) (SeedResult, error) {
	var res SeedResult

	err := conn.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, def := range defs {
			var existing models.Achievement
			err := tx.First(&existing, def.ID).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				if err := tx.Create(&def).Error; err != nil {
					return fmt.Errorf("create achievement %d: %w", def.ID, err)
				}
				res.Created++
				continue
			}
			if err != nil {
				return fmt.Errorf("load achievement %d: %w", def.ID, err)
			}

			conditionValue := def.ConditionValue
			if existing.ConditionValue != def.ConditionValue {
				var refs int64
				if err := tx.Model(&models.UserAchievement{}).
					Where("achievement_id = ?", def.ID).
					Count(&refs).Error; err != nil {
					return fmt.Errorf("count references of achievement %d: %w", def.ID, err)
				}
				if refs > 0 {
					log.Warn("keeping stored threshold of referenced achievement",
						"achievement_id", def.ID,
						"stored", existing.ConditionValue,
						"catalog", def.ConditionValue,
						"references", refs)
					conditionValue = existing.ConditionValue
					res.Locked++
				}
			}

			if err := tx.Model(&existing).
				Select("Name", "Description", "Icon", "Category", "ConditionType",
					"ConditionValue", "Points", "Active", "DisplayOrder").
				Updates(models.Achievement{
					Name:           def.Name,
					Description:    def.Description,
					Icon:           def.Icon,
					Category:       def.Category,
					ConditionType:  def.ConditionType,
					ConditionValue: conditionValue,
					Points:         def.Points,
					Active:         def.Active,
					DisplayOrder:   def.DisplayOrder,
				}).Error; err != nil {
				return fmt.Errorf("update achievement %d: %w", def.ID, err)
			}
			res.Updated++
		}
		return nil
	})
	if err != nil {
		return SeedResult{}, err
	}

	log.Info("achievement catalog seeded", "created", res.Created, "updated", res.Updated, "locked", res.Locked)
	return res, nil
}
