// achievements/admin.go - catalog definition edits
package achievements

import (
	"context"
	"errors"
	"fmt"

	"codemaster/models"

	"gorm.io/gorm"
)

// DefinitionPatch carries the editable fields of a definition; nil fields
// are left untouched.
type DefinitionPatch struct {
	Name           *string `json:"name"`
	Description    *string `json:"description"`
	Icon           *string `json:"icon"`
	Points         *int    `json:"points"`
	Active         *bool   `json:"active"`
	DisplayOrder   *int    `json:"display_order"`
	ConditionValue *int    `json:"condition_value"`
}

// Definitions lists the whole catalog, inactive entries included.
func (s *Service) Definitions(ctx context.Context) ([]models.Achievement, error) {
	var defs []models.Achievement
	if err := s.db.WithContext(ctx).Order("display_order, id").Find(&defs).Error; err != nil {
		return nil, fmt.Errorf("load definitions: %w", err)
	}
	return defs, nil
}

// UpdateDefinition applies p to definition id. Changing the condition value
// of a definition that any ledger row references fails with
// ErrConditionLocked.
func (s *Service) UpdateDefinition(ctx context.Context, id uint, p DefinitionPatch) (*models.Achievement, error) {
	var def models.Achievement
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&def, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: %d", ErrUnknownAchievement, id)
			}
			return fmt.Errorf("load achievement %d: %w", id, err)
		}

		updates := map[string]any{}
		if p.Name != nil {
			if *p.Name == "" {
				return fmt.Errorf("%w: name must not be empty", ErrInvalidCatalog)
			}
			updates["name"] = *p.Name
		}
		if p.Description != nil {
			updates["description"] = *p.Description
		}
		if p.Icon != nil {
			updates["icon"] = *p.Icon
		}
		if p.Points != nil {
			if *p.Points < 0 {
				return fmt.Errorf("%w: points must not be negative", ErrInvalidCatalog)
			}
			updates["points"] = *p.Points
		}
		if p.Active != nil {
			updates["active"] = *p.Active
		}
		if p.DisplayOrder != nil {
			updates["display_order"] = *p.DisplayOrder
		}
		if p.ConditionValue != nil && *p.ConditionValue != def.ConditionValue {
			if *p.ConditionValue <= 0 {
				return fmt.Errorf("%w: condition value must be positive", ErrInvalidCatalog)
			}
			var refs int64
			if err := tx.Model(&models.UserAchievement{}).
				Where("achievement_id = ?", id).
				Count(&refs).Error; err != nil {
				return fmt.Errorf("count references of achievement %d: %w", id, err)
			}
			if refs > 0 {
				return fmt.Errorf("%w: achievement %d has %d ledger rows", ErrConditionLocked, id, refs)
			}
			updates["condition_value"] = *p.ConditionValue
		}

		if len(updates) == 0 {
			return nil
		}
		if err := tx.Model(&def).Updates(updates).Error; err != nil {
			return fmt.Errorf("update achievement %d: %w", id, err)
		}
		return tx.First(&def, id).Error
	})
	if err != nil {
		return nil, err
	}
	return &def, nil
}
