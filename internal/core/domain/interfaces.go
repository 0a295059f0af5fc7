package domain

import "context"

// UserRepository handles the persistent identities shown in the sidebar.
type UserRepository interface {
	GetUserByID(ctx context.Context, id string) (*User, error)
	// ListUsers returns everyone except the viewer.
	ListUsers(ctx context.Context, exceptID string) ([]User, error)
}

// MessageRepository handles message persistence and the seen transition.
type MessageRepository interface {
	Save(ctx context.Context, msg *Message) error
	// Conversation returns both directions between viewer and peer,
	// oldest first.
	Conversation(ctx context.Context, viewerID, peerID string) ([]Message, error)
	// MarkSeen flips seen=true on every unseen message peer->viewer and
	// reports how many rows changed. Repeating it is a no-op.
	MarkSeen(ctx context.Context, viewerID, peerID string) (int64, error)
	// UnreadCounts groups the viewer's seen=false messages by sender.
	UnreadCounts(ctx context.Context, viewerID string) (map[string]int, error)
}
