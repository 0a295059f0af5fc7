package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/swagculi/chatapp/internal/core/domain"
	"github.com/swagculi/chatapp/internal/core/services"
	"github.com/swagculi/chatapp/pkg/logging"
	"github.com/swagculi/chatapp/pkg/middleware"
)

type MessageHandler struct {
	messages services.IMessageService
}

func NewMessageHandler(messages services.IMessageService) *MessageHandler {
	return &MessageHandler{messages: messages}
}

func viewerID(r *http.Request) (string, bool) {
	id, ok := r.Context().Value(middleware.UserIDKey).(string)
	return id, ok && id != ""
}

// Send handles POST /api/messages/send/{peerId}.
func (h *MessageHandler) Send(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())
	senderID, ok := viewerID(r)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	receiverID := r.PathValue("peerId")
	var req struct {
		Text  string `json:"text"`
		Image string `json:"image"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	msg, err := h.messages.Send(r.Context(), senderID, receiverID, req.Text, req.Image)
	if err != nil {
		if errors.Is(err, domain.ErrEmptyMessage) || errors.Is(err, domain.ErrInvalidUserID) || errors.Is(err, domain.ErrSelfConversation) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		log.ErrorContext(r.Context(), "message handler - send failed", "sender_id", senderID, "receiver_id", receiverID, "err", err)
		http.Error(w, "failed to send message", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(msg)
}

// Seen handles PUT /api/messages/seen/{peerId}.
func (h *MessageHandler) Seen(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())
	viewer, ok := viewerID(r)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	peerID := r.PathValue("peerId")
	if err := h.messages.MarkSeen(r.Context(), viewer, peerID); err != nil {
		if errors.Is(err, domain.ErrInvalidUserID) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		log.ErrorContext(r.Context(), "message handler - mark seen failed", "viewer_id", viewer, "peer_id", peerID, "err", err)
		http.Error(w, "failed to mark messages seen", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// History handles GET /api/messages/{peerId}.
func (h *MessageHandler) History(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())
	viewer, ok := viewerID(r)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	peerID := r.PathValue("peerId")
	msgs, err := h.messages.History(r.Context(), viewer, peerID)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidUserID) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		log.ErrorContext(r.Context(), "message handler - history failed", "viewer_id", viewer, "peer_id", peerID, "err", err)
		http.Error(w, "failed to load messages", http.StatusInternalServerError)
		return
	}
	if msgs == nil {
		msgs = []domain.Message{}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(msgs)
}

// UnreadCounts handles GET /api/messages/unread-counts.
func (h *MessageHandler) UnreadCounts(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())
	viewer, ok := viewerID(r)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	counts, err := h.messages.UnreadCounts(r.Context(), viewer)
	if err != nil {
		log.ErrorContext(r.Context(), "message handler - unread counts failed", "viewer_id", viewer, "err", err)
		http.Error(w, "failed to load unread counts", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(counts)
}
