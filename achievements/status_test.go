package achievements

import (
	"context"
	"testing"

	"codemaster/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevel(t *testing.T) {
	assert.Equal(t, 1, Level(0))
	assert.Equal(t, 1, Level(99))
	assert.Equal(t, 2, Level(100))
	assert.Equal(t, 3, Level(265))
}

func TestStatusReport(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()
	ledger := f.svc.Ledger()

	_, err := ledger.Upsert(ctx, f.user.ID, 1, 1, 1) // 10 points
	require.NoError(t, err)
	_, err = ledger.Upsert(ctx, f.user.ID, 5, 27, 27) // 200 points
	require.NoError(t, err)
	_, err = ledger.Upsert(ctx, f.user.ID, 3, 4, 10)
	require.NoError(t, err)

	report, err := f.svc.Status(ctx, f.user.ID)
	require.NoError(t, err)

	assert.Equal(t, 210, report.TotalPoints)
	assert.Equal(t, 3, report.Level)
	assert.Len(t, report.All, 20)
	for _, c := range models.Categories {
		assert.Contains(t, report.Categories, c)
	}
	assert.Len(t, report.Categories[models.CategoryProgress], 5)
	assert.Len(t, report.Categories[models.CategorySocial], 2)

	states := map[uint]AchievementView{}
	for _, v := range report.All {
		states[v.ID] = v
	}
	assert.Equal(t, StateEarned, states[1].State)
	assert.NotNil(t, states[1].EarnedAt)
	assert.Equal(t, StateInProgress, states[3].State)
	assert.Equal(t, 4, states[3].ProgressCurrent)
	assert.Equal(t, StateLocked, states[4].State)
	assert.Equal(t, 20, states[4].ProgressTarget)

	assert.Equal(t, uint(1), report.All[0].ID, "ordered by display order")
}

func TestStatusCountsPointsOfDeactivatedDefinitions(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()

	_, err := f.svc.Ledger().Upsert(ctx, f.user.ID, 1, 1, 1)
	require.NoError(t, err)
	require.NoError(t, f.db.Model(&models.Achievement{}).Where("id = ?", 1).Update("active", false).Error)

	report, err := f.svc.Status(ctx, f.user.ID)
	require.NoError(t, err)
	assert.Len(t, report.All, 19)
	assert.Equal(t, 10, report.TotalPoints)
}

func TestStatusEmptyUser(t *testing.T) {
	f := newFixture(t, Options{})

	report, err := f.svc.Status(context.Background(), f.user.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, report.TotalPoints)
	assert.Equal(t, 1, report.Level)
	for _, v := range report.All {
		assert.Equal(t, StateLocked, v.State)
	}
}
