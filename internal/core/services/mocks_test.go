package services

import (
	"context"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/swagculi/chatapp/internal/core/contracts"
	"github.com/swagculi/chatapp/internal/core/domain"
)

// passTx runs the function directly, no real transaction.
type passTx struct{}

func (passTx) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type MockMessageRepository struct {
	mock.Mock
}

func (m *MockMessageRepository) Save(ctx context.Context, msg *domain.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

func (m *MockMessageRepository) Conversation(ctx context.Context, viewerID, peerID string) ([]domain.Message, error) {
	args := m.Called(ctx, viewerID, peerID)
	msgs, _ := args.Get(0).([]domain.Message)
	return msgs, args.Error(1)
}

func (m *MockMessageRepository) MarkSeen(ctx context.Context, viewerID, peerID string) (int64, error) {
	args := m.Called(ctx, viewerID, peerID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockMessageRepository) UnreadCounts(ctx context.Context, viewerID string) (map[string]int, error) {
	args := m.Called(ctx, viewerID)
	counts, _ := args.Get(0).(map[string]int)
	return counts, args.Error(1)
}

type MockDeliveryQueue struct {
	mock.Mock
}

func (m *MockDeliveryQueue) Publish(ctx context.Context, payload []byte) error {
	args := m.Called(ctx, payload)
	return args.Error(0)
}

func (m *MockDeliveryQueue) Subscribe(ctx context.Context, group string, handler func(ctx context.Context, messageID string, data []byte) error) error {
	args := m.Called(ctx, group, handler)
	return args.Error(0)
}

func (m *MockDeliveryQueue) Acknowledge(ctx context.Context, group, messageID string) error {
	args := m.Called(ctx, group, messageID)
	return args.Error(0)
}

func (m *MockDeliveryQueue) Delete(ctx context.Context, messageID string) error {
	args := m.Called(ctx, messageID)
	return args.Error(0)
}

// recordingRegistry captures routed events instead of mocking every call
// site; ordering and payloads matter more than call counts here.
type recordingRegistry struct {
	mu     sync.Mutex
	sent   map[string][]any
	bcasts []any
}

func newRecordingRegistry() *recordingRegistry {
	return &recordingRegistry{sent: make(map[string][]any)}
}

func (r *recordingRegistry) Attach(ctx context.Context, c contracts.Client) {}
func (r *recordingRegistry) Detach(ctx context.Context, c contracts.Client) {}
func (r *recordingRegistry) Lookup(userID string) contracts.Client          { return nil }
func (r *recordingRegistry) OnlineIDs() []string                            { return nil }
func (r *recordingRegistry) Shutdown(ctx context.Context)                   {}

func (r *recordingRegistry) SendToUser(ctx context.Context, userID string, event any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent[userID] = append(r.sent[userID], event)
}

func (r *recordingRegistry) BroadcastAll(ctx context.Context, event any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bcasts = append(r.bcasts, event)
}

func (r *recordingRegistry) sentTo(userID string) []any {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]any, len(r.sent[userID]))
	copy(out, r.sent[userID])
	return out
}

// fakeLastSeen is an in-memory contracts.LastSeenStore.
type fakeLastSeen struct {
	mu    sync.Mutex
	seen  map[string]time.Time
	fails bool
}

func newFakeLastSeen() *fakeLastSeen {
	return &fakeLastSeen{seen: make(map[string]time.Time)}
}

func (f *fakeLastSeen) Touch(ctx context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fails {
		return context.DeadlineExceeded
	}
	f.seen[userID] = time.Now()
	return nil
}

func (f *fakeLastSeen) LastSeen(ctx context.Context, userID string) (time.Time, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.seen[userID]
	return t, ok, nil
}
