package services

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swagculi/chatapp/internal/core/domain"
)

type stubClient struct {
	userID string
	connID string
	frames [][]byte
}

func (c *stubClient) UserID() string { return c.userID }
func (c *stubClient) ConnID() string { return c.connID }
func (c *stubClient) Send(ctx context.Context, data []byte) error {
	c.frames = append(c.frames, data)
	return nil
}
func (c *stubClient) Close() {}

func newPresenceService(reg *recordingRegistry) (*PresenceService, *fakeLastSeen) {
	ls := newFakeLastSeen()
	return NewPresenceService(discardLog(), reg, ls, 30*time.Millisecond, time.Minute), ls
}

func TestPresenceService_Connect_HandshakeAndLastSeen(t *testing.T) {
	ctx := context.Background()
	reg := newRecordingRegistry()
	svc, ls := newPresenceService(reg)

	c := &stubClient{userID: "alice", connID: "c1"}
	svc.HandleConnect(ctx, c)

	require.NotEmpty(t, c.frames)
	var hs domain.HandshakeEvent
	require.NoError(t, json.Unmarshal(c.frames[0], &hs))
	assert.Equal(t, domain.TypeHandshake, hs.Type)
	assert.Equal(t, "alice", hs.UserID)
	assert.Equal(t, "c1", hs.ConnID)

	_, ok, _ := ls.LastSeen(ctx, "alice")
	assert.True(t, ok)
}

func TestPresenceService_TypingRelay(t *testing.T) {
	ctx := context.Background()
	reg := newRecordingRegistry()
	svc, _ := newPresenceService(reg)

	frame, _ := json.Marshal(domain.ClientFrame{Type: domain.TypeTyping, ReceiverID: "bob", IsTyping: true})
	svc.HandleFrame(ctx, "alice", frame)

	events := reg.sentTo("bob")
	require.Len(t, events, 1)
	ev, ok := events[0].(domain.TypingEvent)
	require.True(t, ok)
	assert.Equal(t, "alice", ev.FromUserID)
	assert.True(t, ev.IsTyping)
	assert.True(t, svc.Typing().IsTyping("alice"))
}

func TestPresenceService_TypingExpiryEmitsStop(t *testing.T) {
	ctx := context.Background()
	reg := newRecordingRegistry()
	svc, _ := newPresenceService(reg)

	frame, _ := json.Marshal(domain.ClientFrame{Type: domain.TypeTyping, ReceiverID: "bob", IsTyping: true})
	svc.HandleFrame(ctx, "alice", frame)

	require.Eventually(t, func() bool {
		events := reg.sentTo("bob")
		if len(events) < 2 {
			return false
		}
		ev, ok := events[len(events)-1].(domain.TypingEvent)
		return ok && !ev.IsTyping
	}, time.Second, 5*time.Millisecond, "idle expiry should emit a synthetic stop")
}

func TestPresenceService_DisconnectClearsTyping(t *testing.T) {
	ctx := context.Background()
	reg := newRecordingRegistry()

	// Long idle so only the disconnect can clear it.
	svc := NewPresenceService(discardLog(), reg, newFakeLastSeen(), time.Minute, time.Minute)
	frame, _ := json.Marshal(domain.ClientFrame{Type: domain.TypeTyping, ReceiverID: "bob", IsTyping: true})
	svc.HandleFrame(ctx, "alice", frame)
	require.True(t, svc.Typing().IsTyping("alice"))

	svc.HandleDisconnect(ctx, &stubClient{userID: "alice", connID: "c1"})

	events := reg.sentTo("bob")
	last, ok := events[len(events)-1].(domain.TypingEvent)
	require.True(t, ok)
	assert.False(t, last.IsTyping, "peer must never see a stuck typing flag")
	assert.False(t, svc.Typing().IsTyping("alice"))
}

func TestPresenceService_AnonymousFramesDropped(t *testing.T) {
	ctx := context.Background()
	reg := newRecordingRegistry()
	svc, _ := newPresenceService(reg)

	frame, _ := json.Marshal(domain.ClientFrame{Type: domain.TypeTyping, ReceiverID: "bob", IsTyping: true})
	svc.HandleFrame(ctx, "", frame)
	assert.Empty(t, reg.sentTo("bob"))
}

func TestPresenceService_BadFramesAnsweredWithError(t *testing.T) {
	ctx := context.Background()
	reg := newRecordingRegistry()
	svc, _ := newPresenceService(reg)

	svc.HandleFrame(ctx, "alice", []byte("not json"))
	frame, _ := json.Marshal(domain.ClientFrame{Type: "unsupported", ReceiverID: "bob"})
	svc.HandleFrame(ctx, "alice", frame)

	events := reg.sentTo("alice")
	require.Len(t, events, 2)
	first, ok := events[0].(domain.ErrorEvent)
	require.True(t, ok)
	assert.Equal(t, "malformed_frame", first.Code)
	second, ok := events[1].(domain.ErrorEvent)
	require.True(t, ok)
	assert.Equal(t, "unknown_frame_type", second.Code)
	assert.Empty(t, reg.sentTo("bob"), "nothing is relayed for a rejected frame")
}

func TestPresenceService_ConfettiRelay(t *testing.T) {
	ctx := context.Background()
	reg := newRecordingRegistry()
	svc, _ := newPresenceService(reg)

	frame, _ := json.Marshal(domain.ClientFrame{Type: domain.TypeConfetti, ReceiverID: "bob"})
	svc.HandleFrame(ctx, "alice", frame)

	events := reg.sentTo("bob")
	require.Len(t, events, 1)
	ev, ok := events[0].(domain.ConfettiEvent)
	require.True(t, ok)
	assert.Equal(t, "alice", ev.FromUserID)
}
