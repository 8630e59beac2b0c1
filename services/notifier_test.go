package services

import (
	"testing"
	"time"

	"codemaster/achievements"
	"codemaster/logger"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotifierPublishesToUserSubscribers(t *testing.T) {
	n := NewNotifier(logger.NewNop())
	alice, bob := uuid.New(), uuid.New()

	aliceCh, aliceDone := n.Subscribe(alice)
	defer aliceDone()
	bobCh, bobDone := n.Subscribe(bob)
	defer bobDone()
	assert.Equal(t, 1, n.Connected(alice))

	earned := []achievements.EarnedAchievement{{ID: 1, Name: "Primeiro Passo", EarnedAt: time.Now()}}
	n.PublishEarned(alice, earned)

	select {
	case msg := <-aliceCh:
		assert.Equal(t, MessageEarned, msg.Type)
		require.Len(t, msg.Achievements, 1)
		assert.Equal(t, uint(1), msg.Achievements[0].ID)
	case <-time.After(time.Second):
		t.Fatal("alice did not receive the push")
	}

	select {
	case msg := <-bobCh:
		t.Fatalf("bob received %v", msg)
	default:
	}
}

func TestNotifierSkipsEmptyAndSlowClients(t *testing.T) {
	n := NewNotifier(logger.NewNop())
	user := uuid.New()
	ch, done := n.Subscribe(user)

	n.PublishEarned(user, nil)
	assert.Len(t, ch, 0)

	earned := []achievements.EarnedAchievement{{ID: 2}}
	for i := 0; i < sendBufferSize+5; i++ {
		n.PublishEarned(user, earned)
	}
	assert.Len(t, ch, sendBufferSize)

	done()
	done()
	assert.Equal(t, 0, n.Connected(user))
}
