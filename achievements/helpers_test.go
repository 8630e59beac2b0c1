package achievements

import (
	"context"
	"sync"
	"testing"
	"time"

	"codemaster/database/testutil"
	"codemaster/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// clock is a settable time source.
type clock struct {
	mu  sync.Mutex
	now time.Time
}

func newClock(t time.Time) *clock { return &clock{now: t} }

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Set(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

type fixture struct {
	db    *gorm.DB
	svc   *Service
	clock *clock
	user  *models.User
}

func newFixture(t *testing.T, opts Options) *fixture {
	t.Helper()
	db := testutil.DB(t)

	catalog, err := DefaultCatalog()
	require.NoError(t, err)
	testutil.SeedDefinitions(t, db, catalog.Models())

	clk := newClock(today)
	if opts.Now == nil {
		opts.Now = clk.Now
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Rules.ByModule == nil {
		opts.Rules = catalog.ModuleRules
	}

	return &fixture{
		db:    db,
		svc:   NewService(db, opts),
		clock: clk,
		user:  testutil.SeedUser(t, db, "aluno@example.com"),
	}
}

// completeTopics marks the given topics complete at the given instant.
func (f *fixture) completeTopics(t *testing.T, at time.Time, topics ...models.Topic) {
	t.Helper()
	for _, topic := range topics {
		testutil.Complete(t, f.db, f.user.ID, topic.ID, at)
	}
}

func earnedIDs(earned []EarnedAchievement) []uint {
	ids := make([]uint, 0, len(earned))
	for _, e := range earned {
		ids = append(ids, e.ID)
	}
	return ids
}

// failingFacts wraps a FactSource and breaks selected reads.
type failingFacts struct {
	FactSource
	modulesErr   error
	modulesPanic bool
}

func (f *failingFacts) Modules(ctx context.Context) ([]ModuleTopics, error) {
	if f.modulesPanic {
		panic("modules table exploded")
	}
	if f.modulesErr != nil {
		return nil, f.modulesErr
	}
	return f.FactSource.Modules(ctx)
}

type recordingPublisher struct {
	mu    sync.Mutex
	calls map[uuid.UUID][][]EarnedAchievement
}

func (p *recordingPublisher) PublishEarned(userID uuid.UUID, earned []EarnedAchievement) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.calls == nil {
		p.calls = map[uuid.UUID][][]EarnedAchievement{}
	}
	p.calls[userID] = append(p.calls[userID], earned)
}
