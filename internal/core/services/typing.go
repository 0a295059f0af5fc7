package services

import (
	"sync"
	"time"
)

// DefaultTypingIdle is how long a typing flag survives without a fresh
// keystroke signal before it clears itself.
const DefaultTypingIdle = 2 * time.Second

type typingEntry struct {
	receiverID string
	timer      *time.Timer
}

// TypingTracker holds the ephemeral who-is-typing-at-whom state on the
// server. Nothing here is ever persisted; on restart it reconstructs
// empty, which is exactly the truth. One-to-one chat means a sender types
// at a single receiver at a time, so the map is keyed by sender.
type TypingTracker struct {
	mu       sync.Mutex
	idle     time.Duration
	active   map[string]*typingEntry
	onExpire func(senderID, receiverID string)
}

// NewTypingTracker builds a tracker. onExpire fires when a flag times out
// without an explicit stop, so the peer can be told the typing ended.
func NewTypingTracker(idle time.Duration, onExpire func(senderID, receiverID string)) *TypingTracker {
	if idle <= 0 {
		idle = DefaultTypingIdle
	}
	return &TypingTracker{
		idle:     idle,
		active:   make(map[string]*typingEntry),
		onExpire: onExpire,
	}
}

// Set records a typing signal. A true flag (re)arms the idle timer; a
// false flag clears immediately. Each fresh keystroke pushes the expiry
// out again.
func (t *TypingTracker) Set(senderID, receiverID string, isTyping bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if entry, ok := t.active[senderID]; ok {
		entry.timer.Stop()
		delete(t.active, senderID)
	}
	if !isTyping {
		return
	}
	entry := &typingEntry{receiverID: receiverID}
	entry.timer = time.AfterFunc(t.idle, func() { t.expire(senderID, entry) })
	t.active[senderID] = entry
}

// ClearSender drops any active flag the sender holds, reporting who was
// being typed at so a synthetic stop can be emitted on disconnect.
func (t *TypingTracker) ClearSender(senderID string) (receiverID string, had bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	entry, ok := t.active[senderID]
	if !ok {
		return "", false
	}
	entry.timer.Stop()
	delete(t.active, senderID)
	return entry.receiverID, true
}

// IsTyping reports whether senderID currently holds a live flag.
func (t *TypingTracker) IsTyping(senderID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.active[senderID]
	return ok
}

func (t *TypingTracker) expire(senderID string, fired *typingEntry) {
	t.mu.Lock()
	cur, ok := t.active[senderID]
	// A newer Set may have replaced the entry since the timer fired.
	if !ok || cur != fired {
		t.mu.Unlock()
		return
	}
	delete(t.active, senderID)
	t.mu.Unlock()
	if t.onExpire != nil {
		t.onExpire(senderID, fired.receiverID)
	}
}
