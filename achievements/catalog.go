// achievements/catalog.go - achievement catalog loading and validation
package achievements

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"

	"codemaster/models"

	"gopkg.in/yaml.v3"
)

// Condition types understood by the evaluators.
const (
	CondTopicsCompleted     = "topics_completed"
	CondModuleCompleted     = "module_completed"
	CondAllModulesCompleted = "all_modules_completed"
	CondStreakDays          = "streak_days"
	CondTopicsPerDay        = "topics_per_day"
	CondNightOwl            = "night_owl"
	CondEarlyRiser          = "early_riser"
	CondForumReplies        = "forum_replies"
	CondForumParticipations = "forum_participations"
)

// conditionCategory pins each condition type to the only category allowed to carry it.
var conditionCategory = map[string]string{
	CondTopicsCompleted:     models.CategoryProgress,
	CondModuleCompleted:     models.CategoryModule,
	CondAllModulesCompleted: models.CategoryModule,
	CondStreakDays:          models.CategoryStreak,
	CondTopicsPerDay:        models.CategoryVelocity,
	CondNightOwl:            models.CategoryHorario,
	CondEarlyRiser:          models.CategoryHorario,
	CondForumReplies:        models.CategorySocial,
	CondForumParticipations: models.CategorySocial,
}

//go:embed catalog.yaml
var defaultCatalog []byte

// ModuleRules maps course modules to the achievement awarded for completing
// them, plus the achievement for completing every active module. It is static
// configuration: modules missing from ByModule award nothing.
type ModuleRules struct {
	ByModule   map[uint]uint `yaml:"by_module"`
	AllModules uint          `yaml:"all_modules"`
}

type Definition struct {
	ID             uint   `yaml:"id"`
	Name           string `yaml:"name"`
	Description    string `yaml:"description"`
	Icon           string `yaml:"icon"`
	Category       string `yaml:"category"`
	ConditionType  string `yaml:"condition_type"`
	ConditionValue int    `yaml:"condition_value"`
	Points         int    `yaml:"points"`
	Active         *bool  `yaml:"active,omitempty"`
	DisplayOrder   int    `yaml:"display_order"`
}

type Catalog struct {
	Achievements []Definition `yaml:"achievements"`
	ModuleRules  ModuleRules  `yaml:"module_rules"`
}

// DefaultCatalog returns the embedded catalog.
func DefaultCatalog() (*Catalog, error) {
	return LoadCatalog(bytes.NewReader(defaultCatalog))
}

// LoadCatalogFile reads a catalog from path, or the embedded one when path is empty.
func LoadCatalogFile(path string) (*Catalog, error) {
	if path == "" {
		return DefaultCatalog()
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()
	return LoadCatalog(f)
}

// LoadCatalog decodes and validates a YAML catalog.
func LoadCatalog(r io.Reader) (*Catalog, error) {
	var c Catalog
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrInvalidCatalog, err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks ids, categories, thresholds and module rule targets.
func (c *Catalog) Validate() error {
	if len(c.Achievements) == 0 {
		return fmt.Errorf("%w: no achievements", ErrInvalidCatalog)
	}

	byID := make(map[uint]Definition, len(c.Achievements))
	for _, d := range c.Achievements {
		if d.ID == 0 {
			return fmt.Errorf("%w: achievement %q has no id", ErrInvalidCatalog, d.Name)
		}
		if _, dup := byID[d.ID]; dup {
			return fmt.Errorf("%w: duplicate id %d", ErrInvalidCatalog, d.ID)
		}
		if d.Name == "" {
			return fmt.Errorf("%w: achievement %d has no name", ErrInvalidCatalog, d.ID)
		}
		want, ok := conditionCategory[d.ConditionType]
		if !ok {
			return fmt.Errorf("%w: achievement %d has unknown condition type %q", ErrInvalidCatalog, d.ID, d.ConditionType)
		}
		if d.Category != want {
			return fmt.Errorf("%w: achievement %d: condition %q belongs to category %q, not %q",
				ErrInvalidCatalog, d.ID, d.ConditionType, want, d.Category)
		}
		if d.ConditionValue <= 0 {
			return fmt.Errorf("%w: achievement %d needs a positive condition value", ErrInvalidCatalog, d.ID)
		}
		if d.Points < 0 {
			return fmt.Errorf("%w: achievement %d has negative points", ErrInvalidCatalog, d.ID)
		}
		byID[d.ID] = d
	}

	for moduleID, achID := range c.ModuleRules.ByModule {
		d, ok := byID[achID]
		if !ok || d.ConditionType != CondModuleCompleted {
			return fmt.Errorf("%w: module %d maps to %d, which is not a module_completed achievement",
				ErrInvalidCatalog, moduleID, achID)
		}
	}
	if all := c.ModuleRules.AllModules; all != 0 {
		d, ok := byID[all]
		if !ok || d.ConditionType != CondAllModulesCompleted {
			return fmt.Errorf("%w: all_modules maps to %d, which is not an all_modules_completed achievement",
				ErrInvalidCatalog, all)
		}
	}
	return nil
}

// Models converts the catalog into rows for database.SeedCatalog.
// Definitions without an explicit active flag are active.
func (c *Catalog) Models() []models.Achievement {
	out := make([]models.Achievement, 0, len(c.Achievements))
	for _, d := range c.Achievements {
		active := true
		if d.Active != nil {
			active = *d.Active
		}
		out = append(out, models.Achievement{
			ID:             d.ID,
			Name:           d.Name,
			Description:    d.Description,
			Icon:           d.Icon,
			Category:       d.Category,
			ConditionType:  d.ConditionType,
			ConditionValue: d.ConditionValue,
			Points:         d.Points,
			Active:         active,
			DisplayOrder:   d.DisplayOrder,
		})
	}
	return out
}
