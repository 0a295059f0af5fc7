package worker

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/swagculi/chatapp/internal/core/contracts"
	"github.com/swagculi/chatapp/internal/core/domain"
)

// DeliveryWorker consumes stored messages from the delivery queue and
// routes them to the receiver's live connection. Offline receivers are a
// silent drop here; they catch up over the history endpoint.
type DeliveryWorker struct {
	log      *slog.Logger
	queue    contracts.DeliveryQueue
	registry contracts.Registry
	group    string
}

func NewDeliveryWorker(
	log *slog.Logger,
	queue contracts.DeliveryQueue,
	registry contracts.Registry,
	group string,
) *DeliveryWorker {
	return &DeliveryWorker{
		log:      log,
		queue:    queue,
		registry: registry,
		group:    group,
	}
}

func (w *DeliveryWorker) Run(ctx context.Context) error {
	if err := w.queue.Subscribe(ctx, w.group, w.Process); err != nil {
		return err
	}
	w.log.InfoContext(ctx, "worker - delivery loop started", "group", w.group)
	return nil
}

func (w *DeliveryWorker) Process(ctx context.Context, messageID string, raw []byte) error {
	var msg domain.Message
	if err := json.Unmarshal(raw, &msg); err != nil {
		w.log.Error("worker - process - malformed payload", "message_id", messageID)
		// Poison entry: ack it away so it never blocks the group.
		_ = w.queue.Acknowledge(ctx, w.group, messageID)
		_ = w.queue.Delete(ctx, messageID)
		return err
	}
	w.registry.SendToUser(ctx, msg.ReceiverID, domain.MessageEvent{Type: domain.TypeMessage, Message: msg})
	if err := w.queue.Acknowledge(ctx, w.group, messageID); err != nil {
		w.log.ErrorContext(ctx, "worker - process - ack failed", "message_id", messageID, "err", err)
		return err
	}
	if err := w.queue.Delete(ctx, messageID); err != nil {
		// Already routed and acked; the stream trims itself eventually.
		w.log.WarnContext(ctx, "worker - process - delete failed", "message_id", messageID, "err", err)
	}
	return nil
}
