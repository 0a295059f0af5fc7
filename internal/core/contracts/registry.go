package contracts

import "context"

// Registry is the process-wide presence authority: at most one live
// connection per user, last handshake wins. It doubles as the event
// router, since routing is nothing more than a registry lookup plus a
// write to the owning connection.
type Registry interface {
	// Attach registers c as the live connection for its user,
	// superseding any prior one, and broadcasts the new online snapshot.
	Attach(ctx context.Context, c Client)
	// Detach removes c only if it is still the current connection for
	// its user. A stale handle from a superseded connection is ignored.
	Detach(ctx context.Context, c Client)
	// Lookup returns the live connection for userID, or nil.
	Lookup(userID string) Client
	// OnlineIDs snapshots the currently reachable user ids.
	OnlineIDs() []string
	// SendToUser delivers an event to one user, silently dropping it if
	// the user is offline. At most once, no queuing, no retry.
	SendToUser(ctx context.Context, userID string, event any)
	// BroadcastAll delivers an event to every live connection.
	BroadcastAll(ctx context.Context, event any)
	// Shutdown closes every live connection and empties the registry.
	Shutdown(ctx context.Context)
}

// Client is the minimal surface the registry needs from one live
// transport connection.
type Client interface {
	UserID() string
	// ConnID distinguishes handles for the same user across reconnects.
	ConnID() string
	Send(ctx context.Context, data []byte) error
	Close()
}
