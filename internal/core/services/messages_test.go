package services

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/swagculi/chatapp/internal/core/domain"
)

func discardLog() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func TestMessageService_Send_StoresThenPublishes(t *testing.T) {
	ctx := context.Background()
	repo := new(MockMessageRepository)
	queue := new(MockDeliveryQueue)
	reg := newRecordingRegistry()

	repo.On("Save", mock.Anything, mock.Anything).Return(nil)
	queue.On("Publish", mock.Anything, mock.Anything).Return(nil)

	svc := NewMessageService(discardLog(), repo, queue, reg, passTx{})
	msg, err := svc.Send(ctx, "alice", "bob", "hi", "")

	require.NoError(t, err)
	require.NotNil(t, msg)
	assert.Equal(t, "alice", msg.SenderID)
	assert.Equal(t, "bob", msg.ReceiverID)
	assert.False(t, msg.Seen)
	repo.AssertExpectations(t)
	queue.AssertExpectations(t)
	// Delivery rides the queue, not a direct route.
	assert.Empty(t, reg.sentTo("bob"))
}

func TestMessageService_Send_Validation(t *testing.T) {
	ctx := context.Background()
	svc := NewMessageService(discardLog(), new(MockMessageRepository), new(MockDeliveryQueue), newRecordingRegistry(), passTx{})

	_, err := svc.Send(ctx, "alice", "bob", "", "")
	assert.ErrorIs(t, err, domain.ErrEmptyMessage)

	_, err = svc.Send(ctx, "alice", "alice", "hi", "")
	assert.ErrorIs(t, err, domain.ErrSelfConversation)

	_, err = svc.Send(ctx, "", "bob", "hi", "")
	assert.ErrorIs(t, err, domain.ErrInvalidUserID)
}

func TestMessageService_Send_SaveFailureSurfaces(t *testing.T) {
	ctx := context.Background()
	repo := new(MockMessageRepository)
	repo.On("Save", mock.Anything, mock.Anything).Return(errors.New("db down"))

	svc := NewMessageService(discardLog(), repo, new(MockDeliveryQueue), newRecordingRegistry(), passTx{})
	_, err := svc.Send(ctx, "alice", "bob", "hi", "")
	require.Error(t, err)
}

func TestMessageService_Send_QueueFailureRoutesDirectly(t *testing.T) {
	ctx := context.Background()
	repo := new(MockMessageRepository)
	queue := new(MockDeliveryQueue)
	reg := newRecordingRegistry()

	repo.On("Save", mock.Anything, mock.Anything).Return(nil)
	queue.On("Publish", mock.Anything, mock.Anything).Return(errors.New("redis down"))

	svc := NewMessageService(discardLog(), repo, queue, reg, passTx{})
	msg, err := svc.Send(ctx, "alice", "bob", "", "data:image/png;base64,xyz")

	require.NoError(t, err, "queue failure must not fail the send, the message is stored")
	events := reg.sentTo("bob")
	require.Len(t, events, 1)
	ev, ok := events[0].(domain.MessageEvent)
	require.True(t, ok)
	assert.Equal(t, domain.TypeMessage, ev.Type)
	assert.Equal(t, msg.ID, ev.Message.ID)
}

func TestMessageService_MarkSeen_NotifiesBothSides(t *testing.T) {
	ctx := context.Background()
	repo := new(MockMessageRepository)
	reg := newRecordingRegistry()

	repo.On("MarkSeen", mock.Anything, "bob", "alice").Return(int64(3), nil)

	svc := NewMessageService(discardLog(), repo, new(MockDeliveryQueue), reg, passTx{})
	require.NoError(t, svc.MarkSeen(ctx, "bob", "alice"))

	toAlice := reg.sentTo("alice")
	require.Len(t, toAlice, 1)
	seen, ok := toAlice[0].(domain.SeenEvent)
	require.True(t, ok)
	assert.Equal(t, "bob", seen.ByUserID)

	toBob := reg.sentTo("bob")
	require.Len(t, toBob, 1)
	cleared, ok := toBob[0].(domain.UnreadClearedEvent)
	require.True(t, ok)
	assert.Equal(t, "alice", cleared.PeerID)
}

func TestMessageService_MarkSeen_Idempotent(t *testing.T) {
	ctx := context.Background()
	repo := new(MockMessageRepository)
	reg := newRecordingRegistry()

	// Second call flips nothing; it must still succeed.
	repo.On("MarkSeen", mock.Anything, "bob", "alice").Return(int64(0), nil)

	svc := NewMessageService(discardLog(), repo, new(MockDeliveryQueue), reg, passTx{})
	require.NoError(t, svc.MarkSeen(ctx, "bob", "alice"))
	require.NoError(t, svc.MarkSeen(ctx, "bob", "alice"))
}

func TestMessageService_UnreadCounts(t *testing.T) {
	ctx := context.Background()
	repo := new(MockMessageRepository)
	repo.On("UnreadCounts", mock.Anything, "bob").Return(map[string]int{"alice": 2}, nil)

	svc := NewMessageService(discardLog(), repo, new(MockDeliveryQueue), newRecordingRegistry(), passTx{})
	counts, err := svc.UnreadCounts(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"alice": 2}, counts)
}
