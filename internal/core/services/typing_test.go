package services

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type expiryRecorder struct {
	mu      sync.Mutex
	expired [][2]string
}

func (r *expiryRecorder) record(senderID, receiverID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.expired = append(r.expired, [2]string{senderID, receiverID})
}

func (r *expiryRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.expired)
}

func TestTypingTracker_AutoClearAfterIdle(t *testing.T) {
	rec := &expiryRecorder{}
	tr := NewTypingTracker(30*time.Millisecond, rec.record)

	tr.Set("alice", "bob", true)
	require.True(t, tr.IsTyping("alice"))

	require.Eventually(t, func() bool {
		return !tr.IsTyping("alice") && rec.count() == 1
	}, time.Second, 5*time.Millisecond, "flag should expire without an explicit stop")

	rec.mu.Lock()
	assert.Equal(t, [2]string{"alice", "bob"}, rec.expired[0])
	rec.mu.Unlock()
}

func TestTypingTracker_KeystrokeExtendsWindow(t *testing.T) {
	rec := &expiryRecorder{}
	tr := NewTypingTracker(50*time.Millisecond, rec.record)

	tr.Set("alice", "bob", true)
	time.Sleep(30 * time.Millisecond)
	tr.Set("alice", "bob", true) // fresh keystroke re-arms
	time.Sleep(30 * time.Millisecond)

	assert.True(t, tr.IsTyping("alice"), "window should have been extended")
}

func TestTypingTracker_ExplicitStopSkipsExpiry(t *testing.T) {
	rec := &expiryRecorder{}
	tr := NewTypingTracker(20*time.Millisecond, rec.record)

	tr.Set("alice", "bob", true)
	tr.Set("alice", "bob", false)
	require.False(t, tr.IsTyping("alice"))

	time.Sleep(50 * time.Millisecond)
	assert.Zero(t, rec.count(), "explicit stop must not fire the expiry callback")
}

func TestTypingTracker_ClearSender(t *testing.T) {
	tr := NewTypingTracker(time.Minute, nil)

	tr.Set("alice", "bob", true)
	receiver, had := tr.ClearSender("alice")
	require.True(t, had)
	assert.Equal(t, "bob", receiver)
	assert.False(t, tr.IsTyping("alice"))

	_, had = tr.ClearSender("alice")
	assert.False(t, had)
}
