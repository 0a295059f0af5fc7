package domain

import (
	"time"

	"github.com/google/uuid"
)

// User is the stable chat identity. IDs are opaque strings issued by the
// account collaborator and never reused while active.
type User struct {
	ID          string     `json:"id"`
	DisplayName string     `json:"display_name"`
	LastSeenAt  *time.Time `json:"last_seen_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// Message is a single one-to-one chat entry. Exactly one of Text/Image may
// be empty, never both. Seen only ever transitions false -> true.
type Message struct {
	ID         uuid.UUID `json:"id"`
	SenderID   string    `json:"sender_id"`
	ReceiverID string    `json:"receiver_id"`
	Text       string    `json:"text,omitempty"`
	Image      string    `json:"image,omitempty"`
	Seen       bool      `json:"seen"`
	CreatedAt  time.Time `json:"created_at"`
}

// NewMessage validates and builds an outgoing message.
func NewMessage(senderID, receiverID, text, image string) (*Message, error) {
	if senderID == "" || receiverID == "" {
		return nil, ErrInvalidUserID
	}
	if senderID == receiverID {
		return nil, ErrSelfConversation
	}
	if text == "" && image == "" {
		return nil, ErrEmptyMessage
	}
	return &Message{
		ID:         uuid.New(),
		SenderID:   senderID,
		ReceiverID: receiverID,
		Text:       text,
		Image:      image,
		CreatedAt:  time.Now(),
	}, nil
}
