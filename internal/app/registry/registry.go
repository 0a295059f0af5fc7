package registry

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/swagculi/chatapp/internal/core/contracts"
	"github.com/swagculi/chatapp/internal/core/domain"
)

// Registry owns the userID -> live connection mapping. It is injected into
// the serving components rather than living as a package-level singleton,
// so its lifetime is explicit: New on startup, Shutdown on teardown.
//
// The mutex spans each whole attach/detach/broadcast operation. That makes
// the mutation and its broadcast atomic: two concurrent attaches can never
// observe a half-updated online set. Client sends only enqueue onto a
// buffered writer channel, so holding the lock across a broadcast does not
// block on the network.
type Registry struct {
	log     *slog.Logger
	mu      sync.RWMutex
	clients map[string]contracts.Client
}

func New(log *slog.Logger) *Registry {
	return &Registry{
		log:     log,
		clients: make(map[string]contracts.Client),
	}
}

// Attach registers c for its user, last handshake wins. A connection that
// carries no user id is anonymous and excluded from presence entirely.
func (r *Registry) Attach(ctx context.Context, c contracts.Client) {
	userID := c.UserID()
	if userID == "" {
		r.log.InfoContext(ctx, "registry - attach - anonymous connection ignored", "conn_id", c.ConnID())
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if prev, ok := r.clients[userID]; ok && prev.ConnID() != c.ConnID() {
		r.log.InfoContext(ctx, "registry - attach - superseding connection", "user_id", userID, "old_conn_id", prev.ConnID(), "new_conn_id", c.ConnID())
		prev.Close()
	}
	r.clients[userID] = c
	r.broadcastLocked(ctx, domain.PresenceEvent{Type: domain.TypePresence, Online: r.onlineLocked()})
}

// Detach removes the mapping only if c still owns it. A stale handle from
// a superseded connection must never evict the newer one, and triggers no
// broadcast.
func (r *Registry) Detach(ctx context.Context, c contracts.Client) {
	userID := c.UserID()
	if userID == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.clients[userID]
	if !ok || cur.ConnID() != c.ConnID() {
		r.log.DebugContext(ctx, "registry - detach - stale handle ignored", "user_id", userID, "conn_id", c.ConnID())
		return
	}
	delete(r.clients, userID)
	r.broadcastLocked(ctx, domain.PresenceEvent{Type: domain.TypePresence, Online: r.onlineLocked()})
}

// Lookup returns the live connection for userID, or nil.
func (r *Registry) Lookup(userID string) contracts.Client {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.clients[userID]
}

// OnlineIDs snapshots the online set.
func (r *Registry) OnlineIDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.onlineLocked()
}

// SendToUser routes one event to one user. An offline target is expected
// steady state, not an error: the event is dropped and the receiver will
// catch up through history fetch on reconnect.
func (r *Registry) SendToUser(ctx context.Context, userID string, event any) {
	r.mu.RLock()
	c := r.clients[userID]
	r.mu.RUnlock()
	if c == nil {
		return
	}
	data, err := json.Marshal(event)
	if err != nil {
		r.log.ErrorContext(ctx, "registry - send to user - marshal failed", "user_id", userID, "err", err)
		return
	}
	if err := c.Send(ctx, data); err != nil {
		r.log.DebugContext(ctx, "registry - send to user - write failed", "user_id", userID, "err", err)
	}
}

// BroadcastAll routes one event to every live connection.
func (r *Registry) BroadcastAll(ctx context.Context, event any) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	r.broadcastLocked(ctx, event)
}

// Shutdown closes every live connection and empties the mapping.
func (r *Registry) Shutdown(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for userID, c := range r.clients {
		c.Close()
		delete(r.clients, userID)
	}
	r.log.InfoContext(ctx, "registry - shutdown complete")
}

func (r *Registry) onlineLocked() []string {
	ids := make([]string, 0, len(r.clients))
	for id := range r.clients {
		ids = append(ids, id)
	}
	return ids
}

func (r *Registry) broadcastLocked(ctx context.Context, event any) {
	data, err := json.Marshal(event)
	if err != nil {
		r.log.ErrorContext(ctx, "registry - broadcast - marshal failed", "err", err)
		return
	}
	for userID, c := range r.clients {
		if err := c.Send(ctx, data); err != nil {
			r.log.DebugContext(ctx, "registry - broadcast - write failed", "user_id", userID, "err", err)
		}
	}
}
