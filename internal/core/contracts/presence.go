package contracts

import (
	"context"
	"time"
)

// LastSeenStore keeps the durable-ish "last seen" timestamp per user in
// Redis. Live presence itself is reconstructed purely from connections and
// never persisted; this store only feeds the sidebar for offline users.
type LastSeenStore interface {
	// Touch records that userID was reachable just now.
	Touch(ctx context.Context, userID string) error
	// LastSeen returns the recorded timestamp; ok=false when the user
	// has never been seen.
	LastSeen(ctx context.Context, userID string) (t time.Time, ok bool, err error)
}
