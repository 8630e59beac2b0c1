package achievements

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestUpdateDefinition(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()

	def, err := f.svc.UpdateDefinition(ctx, 4, DefinitionPatch{
		Name:           ptr("Maratonista Nato"),
		Points:         ptr(120),
		ConditionValue: ptr(18),
	})
	require.NoError(t, err)
	assert.Equal(t, "Maratonista Nato", def.Name)
	assert.Equal(t, 120, def.Points)
	assert.Equal(t, 18, def.ConditionValue)

	def, err = f.svc.UpdateDefinition(ctx, 4, DefinitionPatch{Active: ptr(false)})
	require.NoError(t, err)
	assert.False(t, def.Active)
}

func TestUpdateDefinitionLocksReferencedCondition(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()
	_, err := f.svc.Ledger().Upsert(ctx, f.user.ID, 2, 3, 5)
	require.NoError(t, err)

	_, err = f.svc.UpdateDefinition(ctx, 2, DefinitionPatch{ConditionValue: ptr(6)})
	assert.ErrorIs(t, err, ErrConditionLocked)

	def, err := f.svc.UpdateDefinition(ctx, 2, DefinitionPatch{ConditionValue: ptr(5), Icon: ptr("🔥🔥")})
	require.NoError(t, err, "an unchanged threshold is not an edit")
	assert.Equal(t, "🔥🔥", def.Icon)
}

func TestUpdateDefinitionErrors(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()

	_, err := f.svc.UpdateDefinition(ctx, 999, DefinitionPatch{Name: ptr("x")})
	assert.ErrorIs(t, err, ErrUnknownAchievement)

	_, err = f.svc.UpdateDefinition(ctx, 1, DefinitionPatch{Points: ptr(-1)})
	assert.ErrorIs(t, err, ErrInvalidCatalog)

	_, err = f.svc.UpdateDefinition(ctx, 1, DefinitionPatch{Name: ptr("")})
	assert.ErrorIs(t, err, ErrInvalidCatalog)
}
