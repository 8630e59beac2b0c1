package achievements

import (
	"context"
	"errors"
	"testing"
	"time"

	"codemaster/database/testutil"
	"codemaster/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatchFirstTopicEarnsExactlyOnce(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()
	mod := testutil.SeedModule(t, f.db, "Lógica & Algoritmos", 8)
	f.completeTopics(t, today, mod.Topics[0])

	earned := f.svc.Dispatch(ctx, f.user.ID, ActionTopicCompleted, nil)
	require.Len(t, earned, 1)
	assert.Equal(t, uint(1), earned[0].ID)
	assert.Equal(t, "Primeiro Passo", earned[0].Name)
	assert.Equal(t, 1, earned[0].ProgressCurrent)

	unseen, err := f.svc.FetchUnseenEarned(ctx, f.user.ID)
	require.NoError(t, err)
	assert.Equal(t, []uint{1}, earnedIDs(unseen))

	n, err := f.svc.MarkSeen(ctx, f.user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	unseen, err = f.svc.FetchUnseenEarned(ctx, f.user.ID)
	require.NoError(t, err)
	assert.Empty(t, unseen)

	assert.Empty(t, f.svc.Dispatch(ctx, f.user.ID, ActionTopicCompleted, nil))
}

func TestDispatchUnknownActionIsNoop(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()
	_, err := f.svc.Ledger().Upsert(ctx, f.user.ID, 1, 1, 1)
	require.NoError(t, err)

	earned := f.svc.Dispatch(ctx, f.user.ID, ActionKind("quiz_passed"), nil)
	require.NotNil(t, earned)
	assert.Empty(t, earned)
}

func TestDispatchNilUserReturnsEmpty(t *testing.T) {
	f := newFixture(t, Options{})
	earned := f.svc.Dispatch(context.Background(), uuid.Nil, ActionLogin, nil)
	require.NotNil(t, earned)
	assert.Empty(t, earned)
}

func TestDispatchIsolatesEvaluatorFailures(t *testing.T) {
	tests := []struct {
		name  string
		facts *failingFacts
	}{
		{name: "error", facts: &failingFacts{modulesErr: errors.New("connection reset")}},
		{name: "panic", facts: &failingFacts{modulesPanic: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := testutil.DB(t)
			tt.facts.FactSource = NewGormFactSource(db)

			catalog, err := DefaultCatalog()
			require.NoError(t, err)
			testutil.SeedDefinitions(t, db, catalog.Models())
			user := testutil.SeedUser(t, db, "aluno@example.com")
			mod := testutil.SeedModule(t, db, "Python Aplicado", 1)
			testutil.Complete(t, db, user.ID, mod.Topics[0].ID, today)

			svc := NewService(db, Options{
				Facts:    tt.facts,
				Rules:    catalog.ModuleRules,
				Location: time.UTC,
				Now:      func() time.Time { return today },
			})

			earned := svc.Dispatch(context.Background(), user.ID, ActionTopicCompleted, nil)
			assert.Equal(t, []uint{1}, earnedIDs(earned), "progress must still be evaluated")
		})
	}
}

func TestDispatchModuleCompletion(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()
	first := testutil.SeedModule(t, f.db, "Lógica & Algoritmos", 2)
	second := testutil.SeedModule(t, f.db, "C++ Fundamentos Fortes", 2)

	f.completeTopics(t, today, first.Topics...)
	f.completeTopics(t, today, second.Topics[0])

	f.svc.Dispatch(ctx, f.user.ID, ActionModuleCompleted, nil)

	row, err := f.svc.Ledger().Get(ctx, f.user.ID, 6)
	require.NoError(t, err)
	assert.True(t, row.Earned())
	assert.Equal(t, 2, row.ProgressCurrent)
	assert.Equal(t, 2, row.ProgressTarget)

	_, err = f.svc.Ledger().Get(ctx, f.user.ID, 7)
	assert.Error(t, err, "incomplete module must not be recorded")
	_, err = f.svc.Ledger().Get(ctx, f.user.ID, 10)
	assert.Error(t, err)
}

func TestDispatchAllModules(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()
	var all []models.Topic
	for _, name := range []string{"Lógica", "C++", "Python", "Projetos"} {
		all = append(all, testutil.SeedModule(t, f.db, name, 2).Topics...)
	}
	testutil.SeedModule(t, f.db, "Em breve", 0)
	f.completeTopics(t, today, all...)

	earned := f.svc.Dispatch(ctx, f.user.ID, ActionModuleCompleted, nil)
	assert.ElementsMatch(t, []uint{6, 7, 8, 9, 10}, earnedIDs(earned))

	row, err := f.svc.Ledger().Get(ctx, f.user.ID, 10)
	require.NoError(t, err)
	assert.Equal(t, 4, row.ProgressCurrent)
	assert.Equal(t, 4, row.ProgressTarget)
}

func TestDispatchVelocityTiers(t *testing.T) {
	tests := []struct {
		name  string
		today int
		want  []uint
	}{
		{name: "five today", today: 5, want: []uint{1, 2, 15}},
		{name: "ten today", today: 10, want: []uint{1, 2, 3, 15, 16}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, Options{})
			mod := testutil.SeedModule(t, f.db, "Projetos Práticos", 12)
			f.completeTopics(t, today.Add(-time.Hour), mod.Topics[:tt.today]...)
			f.completeTopics(t, daysAgo(1), mod.Topics[tt.today])

			earned := f.svc.Dispatch(context.Background(), f.user.ID, ActionTopicCompleted, nil)
			assert.ElementsMatch(t, tt.want, earnedIDs(earned))
		})
	}
}

func TestDispatchLoginStreakAndHour(t *testing.T) {
	f := newFixture(t, Options{})
	mod := testutil.SeedModule(t, f.db, "Lógica", 3)
	f.completeTopics(t, daysAgo(1), mod.Topics[0])
	f.completeTopics(t, daysAgo(2), mod.Topics[1])
	f.completeTopics(t, daysAgo(3), mod.Topics[2])

	at := time.Date(2025, 3, 12, 3, 15, 0, 0, time.UTC)
	earned := f.svc.Dispatch(context.Background(), f.user.ID, ActionLogin, map[string]any{
		"at": at.Format(time.RFC3339),
	})

	assert.ElementsMatch(t, []uint{11, 17}, earnedIDs(earned))
}

func TestDispatchEarlyRiserUsesInjectedClock(t *testing.T) {
	f := newFixture(t, Options{})
	f.clock.Set(time.Date(2025, 3, 12, 6, 0, 0, 0, time.UTC))

	earned := f.svc.Dispatch(context.Background(), f.user.ID, ActionLogin, nil)
	assert.Equal(t, []uint{18}, earnedIDs(earned))
}

func TestDispatchSocial(t *testing.T) {
	f := newFixture(t, Options{})
	testutil.SeedForum(t, f.db, f.user.ID, models.ForumReply, 5)
	testutil.SeedForum(t, f.db, f.user.ID, models.ForumParticipation, 9)

	earned := f.svc.Dispatch(context.Background(), f.user.ID, ActionForumReply, nil)
	assert.Equal(t, []uint{19}, earnedIDs(earned))

	testutil.SeedForum(t, f.db, f.user.ID, models.ForumParticipation, 1)
	earned = f.svc.Dispatch(context.Background(), f.user.ID, ActionForumReply, nil)
	assert.ElementsMatch(t, []uint{19, 20}, earnedIDs(earned))
}

func TestDispatchSkipsInactiveDefinitions(t *testing.T) {
	f := newFixture(t, Options{})
	require.NoError(t, f.db.Model(&models.Achievement{}).Where("id = ?", 1).Update("active", false).Error)
	mod := testutil.SeedModule(t, f.db, "Lógica", 2)
	f.completeTopics(t, today, mod.Topics[0])

	assert.Empty(t, f.svc.Dispatch(context.Background(), f.user.ID, ActionTopicCompleted, nil))

	f.completeTopics(t, today, mod.Topics[1])
	earned := earnedIDs(f.svc.Dispatch(context.Background(), f.user.ID, ActionTopicCompleted, nil))
	assert.NotContains(t, earned, uint(1))
	assert.ElementsMatch(t, []uint{6, 10}, earned)
}

func TestDispatchPublishesUnseen(t *testing.T) {
	pub := &recordingPublisher{}
	f := newFixture(t, Options{Publisher: pub})
	mod := testutil.SeedModule(t, f.db, "Lógica", 8)
	f.completeTopics(t, today, mod.Topics[0])

	f.svc.Dispatch(context.Background(), f.user.ID, ActionTopicCompleted, nil)
	f.svc.Dispatch(context.Background(), f.user.ID, ActionForumReply, nil)

	require.Len(t, pub.calls[f.user.ID], 2, "unseen entries are republished until acknowledged")
	assert.Equal(t, []uint{1}, earnedIDs(pub.calls[f.user.ID][0]))

	_, err := f.svc.MarkSeen(context.Background(), f.user.ID)
	require.NoError(t, err)
	f.svc.Dispatch(context.Background(), f.user.ID, ActionForumReply, nil)
	assert.Len(t, pub.calls[f.user.ID], 2)
}

func TestMarkSeenSelectedIDs(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()
	ledger := f.svc.Ledger()
	_, err := ledger.Upsert(ctx, f.user.ID, 1, 1, 1)
	require.NoError(t, err)
	f.clock.Set(today.Add(time.Minute))
	_, err = ledger.Upsert(ctx, f.user.ID, 17, 1, 1)
	require.NoError(t, err)
	_, err = ledger.Upsert(ctx, f.user.ID, 2, 3, 5)
	require.NoError(t, err)

	unseen, err := f.svc.FetchUnseenEarned(ctx, f.user.ID)
	require.NoError(t, err)
	assert.Equal(t, []uint{17, 1}, earnedIDs(unseen), "newest first")

	n, err := f.svc.MarkSeen(ctx, f.user.ID, 17, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n, "unearned rows are not touched")

	unseen, err = f.svc.FetchUnseenEarned(ctx, f.user.ID)
	require.NoError(t, err)
	assert.Equal(t, []uint{1}, earnedIDs(unseen))

	_, err = f.svc.MarkSeen(ctx, uuid.Nil)
	assert.ErrorIs(t, err, ErrNilUser)
}
