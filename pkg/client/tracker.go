package client

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/swagculi/chatapp/internal/core/domain"
)

// DefaultTypingIdle mirrors the server's silence window: a peer's typing
// flag clears itself after this long without a fresh signal.
const DefaultTypingIdle = 2 * time.Second

// Collaborator is the HTTP surface the tracker leans on for everything
// durable: history, seen-marks and unread resync live server-side.
type Collaborator interface {
	FetchMessages(ctx context.Context, peerID string) ([]domain.Message, error)
	MarkSeen(ctx context.Context, peerID string) error
	FetchUnreadCounts(ctx context.Context) (map[string]int, error)
}

// TrackerOptions tune the tracker; zero values fall back to defaults.
type TrackerOptions struct {
	TypingIdle time.Duration
	// OnConfetti fires for cosmetic confetti events. No core state moves.
	OnConfetti func(fromUserID string)
}

// Tracker is the client-side conversation mirror: per-peer unread
// counters, the open-conversation log, the online set and ephemeral
// typing flags, all driven by the event stream plus explicit selections.
//
// The state machine per peer is CLOSED -> OPEN on Select, OPEN -> CLOSED
// on Deselect. While OPEN every delivered message from that peer lands in
// the visible log and triggers a seen-mark; while CLOSED it only bumps
// the unread counter. An OPEN conversation wins every race: whatever the
// arrival order, it suppresses the unread increment.
type Tracker struct {
	log        *slog.Logger
	api        Collaborator
	selfID     string
	typingIdle time.Duration
	onConfetti func(string)

	mu            sync.Mutex
	openPeer      string
	messages      []domain.Message
	unread        map[string]int
	online        map[string]struct{}
	typing        map[string]*time.Timer
	handshakeSeen bool
}

func NewTracker(log *slog.Logger, selfID string, api Collaborator, opts TrackerOptions) *Tracker {
	idle := opts.TypingIdle
	if idle <= 0 {
		idle = DefaultTypingIdle
	}
	return &Tracker{
		log:        log,
		api:        api,
		selfID:     selfID,
		typingIdle: idle,
		onConfetti: opts.OnConfetti,
		unread:     make(map[string]int),
		online:     make(map[string]struct{}),
		typing:     make(map[string]*time.Timer),
	}
}

// Select opens the conversation with peerID: fetches history and issues
// exactly one seen-mark for this selection, no matter how many messages
// it covers. The seen-mark is fire-and-forget; a lost one re-emits on the
// next selection.
func (t *Tracker) Select(ctx context.Context, peerID string) error {
	if peerID == "" {
		return domain.ErrInvalidUserID
	}
	msgs, err := t.api.FetchMessages(ctx, peerID)
	if err != nil {
		return err
	}

	t.mu.Lock()
	t.openPeer = peerID
	t.messages = msgs
	t.applySeenByViewerLocked(peerID)
	t.unread[peerID] = 0
	t.mu.Unlock()

	go t.requestSeenMark(peerID)
	return nil
}

// Deselect closes whatever conversation is open.
func (t *Tracker) Deselect() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.openPeer = ""
	t.messages = nil
}

// HandleEvent consumes one raw server event.
func (t *Tracker) HandleEvent(ctx context.Context, raw []byte) error {
	typ, err := domain.EventType(raw)
	if err != nil {
		t.log.Debug("tracker - malformed event", "err", err)
		return err
	}
	switch typ {
	case domain.TypeHandshake:
		t.mu.Lock()
		t.handshakeSeen = true
		t.mu.Unlock()
	case domain.TypePresence:
		var ev domain.PresenceEvent
		if err := json.Unmarshal(raw, &ev); err != nil {
			return err
		}
		t.replaceOnline(ev.Online)
	case domain.TypeTyping:
		var ev domain.TypingEvent
		if err := json.Unmarshal(raw, &ev); err != nil {
			return err
		}
		t.setTyping(ev.FromUserID, ev.IsTyping)
	case domain.TypeMessage:
		var ev domain.MessageEvent
		if err := json.Unmarshal(raw, &ev); err != nil {
			return err
		}
		t.deliver(ev.Message)
	case domain.TypeSeen:
		var ev domain.SeenEvent
		if err := json.Unmarshal(raw, &ev); err != nil {
			return err
		}
		t.applySeenBy(ev.ByUserID)
	case domain.TypeUnread:
		var ev domain.UnreadClearedEvent
		if err := json.Unmarshal(raw, &ev); err != nil {
			return err
		}
		t.mu.Lock()
		t.unread[ev.PeerID] = 0
		t.mu.Unlock()
	case domain.TypeConfetti:
		var ev domain.ConfettiEvent
		if err := json.Unmarshal(raw, &ev); err != nil {
			return err
		}
		if t.onConfetti != nil {
			t.onConfetti(ev.FromUserID)
		}
	case domain.TypeError:
		var ev domain.ErrorEvent
		if err := json.Unmarshal(raw, &ev); err != nil {
			return err
		}
		t.log.Warn("tracker - server rejected a frame", "code", ev.Code, "message", ev.Message)
	default:
		t.log.Debug("tracker - unknown event dropped", "type", typ)
	}
	return nil
}

// RecordSent appends a message this client just sent, so the local log
// matches what the send endpoint stored.
func (t *Tracker) RecordSent(msg domain.Message) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.openPeer != "" && msg.ReceiverID == t.openPeer {
		t.messages = append(t.messages, msg)
	}
}

// Resync refreshes the unread counters from the collaborator, typically
// right after a reconnect when deliveries may have been missed.
func (t *Tracker) Resync(ctx context.Context) error {
	counts, err := t.api.FetchUnreadCounts(ctx)
	if err != nil {
		t.log.Warn("tracker - unread resync failed", "err", err)
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.unread = make(map[string]int, len(counts))
	for id, n := range counts {
		t.unread[id] = n
	}
	return nil
}

// ConnectionLost marks the stream broken: the online set is stale and
// presence snapshots are distrusted until the next handshake. Typing
// flags die with the connection.
func (t *Tracker) ConnectionLost() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.handshakeSeen = false
	t.online = make(map[string]struct{})
	for id, timer := range t.typing {
		timer.Stop()
		delete(t.typing, id)
	}
}

// Shutdown stops all timers. The tracker is unusable afterwards.
func (t *Tracker) Shutdown() {
	t.ConnectionLost()
}

// Accessors

func (t *Tracker) OpenPeer() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.openPeer
}

func (t *Tracker) Unread(peerID string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.unread[peerID]
}

func (t *Tracker) IsTyping(peerID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.typing[peerID]
	return ok
}

func (t *Tracker) IsOnline(userID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.online[userID]
	return ok
}

func (t *Tracker) Online() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	ids := make([]string, 0, len(t.online))
	for id := range t.online {
		ids = append(ids, id)
	}
	return ids
}

func (t *Tracker) Messages() []domain.Message {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]domain.Message, len(t.messages))
	copy(out, t.messages)
	return out
}

// internals

func (t *Tracker) deliver(msg domain.Message) {
	t.mu.Lock()
	if t.openPeer != "" && msg.SenderID == t.openPeer {
		// Open conversation: visible immediately, so it is seen; no
		// unread bump regardless of how the events raced.
		msg.Seen = true
		t.messages = append(t.messages, msg)
		peer := t.openPeer
		t.mu.Unlock()
		go t.requestSeenMark(peer)
		return
	}
	t.unread[msg.SenderID]++
	t.mu.Unlock()
}

func (t *Tracker) replaceOnline(ids []string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.handshakeSeen {
		// A snapshot that predates our re-attach could resurrect a
		// stale view; the next one after handshake is authoritative.
		t.log.Debug("tracker - presence snapshot before handshake ignored")
		return
	}
	t.online = make(map[string]struct{}, len(ids))
	for _, id := range ids {
		t.online[id] = struct{}{}
	}
}

func (t *Tracker) setTyping(fromUserID string, isTyping bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if timer, ok := t.typing[fromUserID]; ok {
		timer.Stop()
		delete(t.typing, fromUserID)
	}
	if !isTyping {
		return
	}
	var timer *time.Timer
	timer = time.AfterFunc(t.typingIdle, func() {
		t.mu.Lock()
		// A fresh signal may have re-armed the flag while this expiry
		// waited on the lock; only the current timer may clear it.
		if cur, ok := t.typing[fromUserID]; ok && cur == timer {
			delete(t.typing, fromUserID)
		}
		t.mu.Unlock()
	})
	t.typing[fromUserID] = timer
}

// applySeenBy flips our sent messages to seen after the peer saw them.
func (t *Tracker) applySeenBy(byUserID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i := range t.messages {
		if t.messages[i].SenderID == t.selfID && t.messages[i].ReceiverID == byUserID {
			t.messages[i].Seen = true
		}
	}
}

// applySeenByViewerLocked flips the peer's messages in the local log once
// we have displayed them.
func (t *Tracker) applySeenByViewerLocked(peerID string) {
	for i := range t.messages {
		if t.messages[i].SenderID == peerID && t.messages[i].ReceiverID == t.selfID {
			t.messages[i].Seen = true
		}
	}
}

func (t *Tracker) requestSeenMark(peerID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := t.api.MarkSeen(ctx, peerID); err != nil {
		// Transient: the next selection or delivery re-emits it.
		t.log.Warn("tracker - seen-mark request failed", "peer_id", peerID, "err", err)
	}
}
