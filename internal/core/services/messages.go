package services

import (
	"context"
	"encoding/json"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/swagculi/chatapp/internal/core/contracts"
	"github.com/swagculi/chatapp/internal/core/domain"
)

var tracer = otel.Tracer("chatapp-services")

type IMessageService interface {
	// Send validates, persists, then hands the stored message to the
	// delivery pipeline. Best effort store-then-broadcast: the store is
	// the source of truth, the broadcast may be lost.
	Send(ctx context.Context, senderID, receiverID, text, image string) (*domain.Message, error)
	// MarkSeen flips peer->viewer messages to seen and notifies both
	// sides. Safe to repeat.
	MarkSeen(ctx context.Context, viewerID, peerID string) error
	// History returns the full two-way conversation, oldest first.
	History(ctx context.Context, viewerID, peerID string) ([]domain.Message, error)
	// UnreadCounts returns the viewer's per-sender unseen tallies.
	UnreadCounts(ctx context.Context, viewerID string) (map[string]int, error)
}

type MessageService struct {
	log      *slog.Logger
	repo     domain.MessageRepository
	queue    contracts.DeliveryQueue
	registry contracts.Registry
	tx       TxRunner
}

func NewMessageService(
	log *slog.Logger,
	repo domain.MessageRepository,
	queue contracts.DeliveryQueue,
	registry contracts.Registry,
	tx TxRunner,
) *MessageService {
	return &MessageService{
		log:      log,
		repo:     repo,
		queue:    queue,
		registry: registry,
		tx:       tx,
	}
}

func (s *MessageService) Send(ctx context.Context, senderID, receiverID, text, image string) (*domain.Message, error) {
	ctx, span := tracer.Start(ctx, "MessageService.Send", trace.WithAttributes(
		attribute.String("chat.sender_id", senderID),
		attribute.String("chat.receiver_id", receiverID),
	))
	defer span.End()
	msg, err := domain.NewMessage(senderID, receiverID, text, image)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if err := s.tx.WithTx(ctx, func(txCtx context.Context) error {
		return s.repo.Save(txCtx, msg)
	}); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "save failed")
		s.log.ErrorContext(ctx, "messages - send - save failed", "sender_id", senderID, "receiver_id", receiverID, "err", err)
		return nil, err
	}
	raw, _ := json.Marshal(msg)
	if err := s.queue.Publish(ctx, raw); err != nil {
		// Queue down: deliver directly so the live path stays useful.
		// The message is already stored either way.
		span.RecordError(err)
		s.log.WarnContext(ctx, "messages - send - publish failed, routing directly", "message_id", msg.ID.String(), "err", err)
		s.registry.SendToUser(ctx, msg.ReceiverID, domain.MessageEvent{Type: domain.TypeMessage, Message: *msg})
	}
	s.log.InfoContext(ctx, "messages - send - stored", "message_id", msg.ID.String(), "sender_id", senderID, "receiver_id", receiverID)
	return msg, nil
}

func (s *MessageService) MarkSeen(ctx context.Context, viewerID, peerID string) error {
	ctx, span := tracer.Start(ctx, "MessageService.MarkSeen", trace.WithAttributes(
		attribute.String("chat.viewer_id", viewerID),
		attribute.String("chat.peer_id", peerID),
	))
	defer span.End()
	if viewerID == "" || peerID == "" {
		return domain.ErrInvalidUserID
	}
	var updated int64
	if err := s.tx.WithTx(ctx, func(txCtx context.Context) error {
		var txErr error
		updated, txErr = s.repo.MarkSeen(txCtx, viewerID, peerID)
		return txErr
	}); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "mark seen failed")
		s.log.ErrorContext(ctx, "messages - mark seen - update failed", "viewer_id", viewerID, "peer_id", peerID, "err", err)
		return err
	}
	span.SetAttributes(attribute.Int64("chat.updated", updated))
	// The sender learns its messages were seen; the viewer gets a
	// self-echo zeroing the counter. Both are fire-and-forget routes.
	s.registry.SendToUser(ctx, peerID, domain.SeenEvent{Type: domain.TypeSeen, ByUserID: viewerID, PeerID: peerID})
	s.registry.SendToUser(ctx, viewerID, domain.UnreadClearedEvent{Type: domain.TypeUnread, PeerID: peerID})
	s.log.InfoContext(ctx, "messages - mark seen - done", "viewer_id", viewerID, "peer_id", peerID, "updated", updated)
	return nil
}

func (s *MessageService) History(ctx context.Context, viewerID, peerID string) ([]domain.Message, error) {
	if viewerID == "" || peerID == "" {
		return nil, domain.ErrInvalidUserID
	}
	msgs, err := s.repo.Conversation(ctx, viewerID, peerID)
	if err != nil {
		s.log.ErrorContext(ctx, "messages - history - read failed", "viewer_id", viewerID, "peer_id", peerID, "err", err)
		return nil, err
	}
	return msgs, nil
}

func (s *MessageService) UnreadCounts(ctx context.Context, viewerID string) (map[string]int, error) {
	if viewerID == "" {
		return nil, domain.ErrInvalidUserID
	}
	counts, err := s.repo.UnreadCounts(ctx, viewerID)
	if err != nil {
		s.log.ErrorContext(ctx, "messages - unread counts - read failed", "viewer_id", viewerID, "err", err)
		return nil, err
	}
	return counts, nil
}
