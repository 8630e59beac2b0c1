package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"codemaster/logger"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type flakyStore struct {
	mu       sync.Mutex
	failures int
	calls    int
	marked   map[uuid.UUID][]uint
}

func (s *flakyStore) MarkSeen(_ context.Context, userID uuid.UUID, ids ...uint) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.calls <= s.failures {
		return 0, errors.New("database is locked")
	}
	if s.marked == nil {
		s.marked = map[uuid.UUID][]uint{}
	}
	s.marked[userID] = append(s.marked[userID], ids...)
	return int64(len(ids)), nil
}

func (s *flakyStore) snapshot() (int, map[uuid.UUID][]uint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls, s.marked
}

func TestSeenMarkerRetriesUntilSuccess(t *testing.T) {
	store := &flakyStore{failures: 2}
	m := NewSeenMarker(store, SeenMarkerConfig{QueueSize: 4, MaxTries: 5, InitialInterval: time.Millisecond}, logger.NewNop())
	m.Start(context.Background())

	user := uuid.New()
	require.True(t, m.Enqueue(user, []uint{1, 17}))
	m.Stop()

	calls, marked := store.snapshot()
	assert.Equal(t, 3, calls)
	assert.Equal(t, []uint{1, 17}, marked[user])
}

func TestSeenMarkerGivesUpAfterMaxTries(t *testing.T) {
	store := &flakyStore{failures: 100}
	m := NewSeenMarker(store, SeenMarkerConfig{QueueSize: 4, MaxTries: 3, InitialInterval: time.Millisecond}, logger.NewNop())
	m.Start(context.Background())

	require.True(t, m.Enqueue(uuid.New(), nil))
	m.Stop()

	calls, marked := store.snapshot()
	assert.Equal(t, 3, calls)
	assert.Empty(t, marked)
}

func TestSeenMarkerEnqueueNeverBlocks(t *testing.T) {
	m := NewSeenMarker(&flakyStore{}, SeenMarkerConfig{QueueSize: 1}, logger.NewNop())

	assert.True(t, m.Enqueue(uuid.New(), nil))
	assert.False(t, m.Enqueue(uuid.New(), nil), "full queue drops the job")
	assert.Equal(t, 1, m.Pending())

	m.Stop()
	assert.False(t, m.Enqueue(uuid.New(), nil), "stopped marker refuses jobs")
}

func TestSeenMarkerDrainsOnStop(t *testing.T) {
	store := &flakyStore{}
	m := NewSeenMarker(store, SeenMarkerConfig{QueueSize: 8, InitialInterval: time.Millisecond}, logger.NewNop())

	users := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}
	for _, u := range users {
		require.True(t, m.Enqueue(u, []uint{2}))
	}
	m.Start(context.Background())
	m.Stop()

	_, marked := store.snapshot()
	for _, u := range users {
		assert.Equal(t, []uint{2}, marked[u])
	}
}
