package services

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/swagculi/chatapp/internal/core/contracts"
	"github.com/swagculi/chatapp/internal/core/domain"
)

type IPresenceService interface {
	// HandleConnect attaches the client to the registry and confirms
	// with a handshake event.
	HandleConnect(ctx context.Context, c contracts.Client)
	// HandleDisconnect clears typing state the user held as a sender,
	// emitting the stop on its behalf, then detaches.
	HandleDisconnect(ctx context.Context, c contracts.Client)
	// HandleFrame dispatches one client->server frame (typing, confetti).
	HandleFrame(ctx context.Context, fromUserID string, raw []byte)
	// HandleHeartbeat refreshes the last-seen record until ctx ends.
	HandleHeartbeat(ctx context.Context, userID string)
}

type PresenceService struct {
	log       *slog.Logger
	registry  contracts.Registry
	lastSeen  contracts.LastSeenStore
	typing    *TypingTracker
	heartbeat time.Duration
}

func NewPresenceService(
	log *slog.Logger,
	registry contracts.Registry,
	lastSeen contracts.LastSeenStore,
	typingIdle time.Duration,
	heartbeat time.Duration,
) *PresenceService {
	s := &PresenceService{
		log:       log,
		registry:  registry,
		lastSeen:  lastSeen,
		heartbeat: heartbeat,
	}
	// An idle-expired flag clears the peer's indicator without any
	// explicit stop frame from the typist.
	s.typing = NewTypingTracker(typingIdle, func(senderID, receiverID string) {
		s.registry.SendToUser(context.Background(), receiverID, domain.TypingEvent{
			Type:       domain.TypeTyping,
			FromUserID: senderID,
			IsTyping:   false,
		})
	})
	return s
}

func (s *PresenceService) HandleConnect(ctx context.Context, c contracts.Client) {
	span := trace.SpanFromContext(ctx)
	span.SetAttributes(attribute.String("user.id", c.UserID()))
	s.registry.Attach(ctx, c)
	if c.UserID() == "" {
		return
	}
	if err := s.lastSeen.Touch(ctx, c.UserID()); err != nil {
		s.log.WarnContext(ctx, "presence - connect - last seen touch failed", "user_id", c.UserID(), "err", err)
	}
	hs, _ := json.Marshal(domain.HandshakeEvent{Type: domain.TypeHandshake, UserID: c.UserID(), ConnID: c.ConnID()})
	if err := c.Send(ctx, hs); err != nil {
		s.log.DebugContext(ctx, "presence - connect - handshake send failed", "user_id", c.UserID(), "err", err)
	}
}

func (s *PresenceService) HandleDisconnect(ctx context.Context, c contracts.Client) {
	userID := c.UserID()
	if userID != "" {
		if receiverID, had := s.typing.ClearSender(userID); had {
			// Never leave the peer staring at a stuck "typing..." row.
			s.registry.SendToUser(ctx, receiverID, domain.TypingEvent{
				Type:       domain.TypeTyping,
				FromUserID: userID,
				IsTyping:   false,
			})
		}
		if err := s.lastSeen.Touch(ctx, userID); err != nil {
			s.log.WarnContext(ctx, "presence - disconnect - last seen touch failed", "user_id", userID, "err", err)
		}
	}
	s.registry.Detach(ctx, c)
}

func (s *PresenceService) HandleFrame(ctx context.Context, fromUserID string, raw []byte) {
	if fromUserID == "" {
		// Anonymous connections have no identity to relay as.
		return
	}
	var frame domain.ClientFrame
	if err := json.Unmarshal(raw, &frame); err != nil {
		s.log.DebugContext(ctx, "presence - frame - malformed", "user_id", fromUserID, "err", err)
		s.registry.SendToUser(ctx, fromUserID, domain.ErrorEvent{
			Type:    domain.TypeError,
			Code:    "malformed_frame",
			Message: "frame could not be decoded",
		})
		return
	}
	switch frame.Type {
	case domain.TypeTyping:
		s.typing.Set(fromUserID, frame.ReceiverID, frame.IsTyping)
		s.registry.SendToUser(ctx, frame.ReceiverID, domain.TypingEvent{
			Type:       domain.TypeTyping,
			FromUserID: fromUserID,
			IsTyping:   frame.IsTyping,
		})
	case domain.TypeConfetti:
		s.registry.SendToUser(ctx, frame.ReceiverID, domain.ConfettiEvent{
			Type:       domain.TypeConfetti,
			FromUserID: fromUserID,
		})
	default:
		s.log.DebugContext(ctx, "presence - frame - unknown type dropped", "user_id", fromUserID, "type", frame.Type)
		s.registry.SendToUser(ctx, fromUserID, domain.ErrorEvent{
			Type:    domain.TypeError,
			Code:    "unknown_frame_type",
			Message: "unsupported frame type: " + frame.Type,
		})
	}
}

func (s *PresenceService) HandleHeartbeat(ctx context.Context, userID string) {
	if userID == "" {
		return
	}
	ticker := time.NewTicker(s.heartbeat)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			s.log.DebugContext(ctx, "presence - heartbeat - stopped", "user_id", userID)
			return
		case <-ticker.C:
			if err := s.lastSeen.Touch(ctx, userID); err != nil {
				s.log.WarnContext(ctx, "presence - heartbeat - last seen touch failed", "user_id", userID, "err", err)
			}
		}
	}
}

// Typing exposes the tracker for tests and the ws handler.
func (s *PresenceService) Typing() *TypingTracker { return s.typing }
