package database_test

import (
	"context"
	"testing"

	"codemaster/database"
	"codemaster/database/testutil"
	"codemaster/logger"
	"codemaster/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func definitions() []models.Achievement {
	return []models.Achievement{
		{ID: 1, Name: "Primeiro Passo", Category: models.CategoryProgress, ConditionType: "topics_completed", ConditionValue: 1, Points: 10, Active: true, DisplayOrder: 1},
		{ID: 2, Name: "Estudante Dedicado", Category: models.CategoryProgress, ConditionType: "topics_completed", ConditionValue: 5, Points: 25, Active: true, DisplayOrder: 2},
	}
}

func TestSeedCatalogCreatesThenUpdates(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()

	res, err := database.SeedCatalog(ctx, db, definitions(), logger.NewNop())
	require.NoError(t, err)
	assert.Equal(t, database.SeedResult{Created: 2}, res)

	defs := definitions()
	defs[1].Name = "Estudante Focado"
	defs[1].ConditionValue = 6
	defs[1].Active = false

	res, err = database.SeedCatalog(ctx, db, defs, logger.NewNop())
	require.NoError(t, err)
	assert.Equal(t, database.SeedResult{Updated: 2}, res)

	var got models.Achievement
	require.NoError(t, db.First(&got, 2).Error)
	assert.Equal(t, "Estudante Focado", got.Name)
	assert.Equal(t, 6, got.ConditionValue)
	assert.False(t, got.Active)
}

func TestSeedCatalogKeepsReferencedThreshold(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	testutil.SeedDefinitions(t, db, definitions())

	user := testutil.SeedUser(t, db, "ana@example.com")
	require.NoError(t, db.Create(&models.UserAchievement{
		UserID: user.ID, AchievementID: 2, ProgressCurrent: 3, ProgressTarget: 5,
	}).Error)

	defs := definitions()
	defs[1].ConditionValue = 8
	defs[1].Points = 40

	res, err := database.SeedCatalog(ctx, db, defs, logger.NewNop())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Locked)

	var got models.Achievement
	require.NoError(t, db.First(&got, 2).Error)
	assert.Equal(t, 5, got.ConditionValue)
	assert.Equal(t, 40, got.Points)
}
