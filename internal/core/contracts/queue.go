package contracts

import "context"

// DeliveryQueue decouples the store step from the broadcast step. The send
// path publishes a persisted message; the delivery worker consumes it and
// routes it to the receiver's live connection, if any.
type DeliveryQueue interface {
	Publish(ctx context.Context, payload []byte) error
	// Subscribe consumes the stream through a consumer group, invoking
	// handler for each entry. It returns once the loop is running.
	Subscribe(ctx context.Context, group string, handler func(ctx context.Context, messageID string, data []byte) error) error
	// Acknowledge removes the entry from the group's pending list.
	Acknowledge(ctx context.Context, group, messageID string) error
	// Delete drops the entry from the stream entirely.
	Delete(ctx context.Context, messageID string) error
}
