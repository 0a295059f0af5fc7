package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMessage(t *testing.T) {
	tests := []struct {
		name     string
		sender   string
		receiver string
		text     string
		image    string
		wantErr  error
	}{
		{name: "text only", sender: "alice", receiver: "bob", text: "hi"},
		{name: "image only", sender: "alice", receiver: "bob", image: "https://cdn/x.png"},
		{name: "text and image", sender: "alice", receiver: "bob", text: "look", image: "https://cdn/x.png"},
		{name: "missing sender", receiver: "bob", text: "hi", wantErr: ErrInvalidUserID},
		{name: "missing receiver", sender: "alice", text: "hi", wantErr: ErrInvalidUserID},
		{name: "self conversation", sender: "alice", receiver: "alice", text: "hi", wantErr: ErrSelfConversation},
		{name: "empty payload", sender: "alice", receiver: "bob", wantErr: ErrEmptyMessage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := NewMessage(tt.sender, tt.receiver, tt.text, tt.image)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, msg)
				return
			}
			require.NoError(t, err)
			assert.NotZero(t, msg.ID)
			assert.False(t, msg.Seen, "messages start unseen")
			assert.False(t, msg.CreatedAt.IsZero())
		})
	}
}

func TestEventType(t *testing.T) {
	typ, err := EventType([]byte(`{"type":"typingChanged","from_user_id":"bob"}`))
	require.NoError(t, err)
	assert.Equal(t, TypeTyping, typ)

	_, err = EventType([]byte(`{"no_type":true}`))
	require.ErrorIs(t, err, ErrUnknownEvent)

	_, err = EventType([]byte(`garbage`))
	require.Error(t, err)
}
