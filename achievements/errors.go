// achievements/errors.go - sentinel errors
package achievements

import "errors"

var (
	ErrUnknownAchievement = errors.New("achievements: unknown achievement")
	ErrConditionLocked    = errors.New("achievements: condition value is referenced by earned progress")
	ErrInvalidCatalog     = errors.New("achievements: invalid catalog")
	ErrNilUser            = errors.New("achievements: nil user id")
)
