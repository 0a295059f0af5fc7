package domain

import "encoding/json"

const (
	TypeHandshake = "handshake"
	TypePresence  = "presenceChanged"
	TypeTyping    = "typingChanged"
	TypeMessage   = "messageDelivered"
	TypeSeen      = "messageSeen"
	TypeUnread    = "unreadCleared"
	TypeConfetti  = "confettiTriggered"
	TypeError     = "error"
)

// Envelope carries only the discriminator so receivers can sniff the event
// type before decoding the full payload.
type Envelope struct {
	Type string `json:"type"`
}

// EventType reads the discriminator out of a raw frame.
func EventType(raw []byte) (string, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return "", err
	}
	if env.Type == "" {
		return "", ErrUnknownEvent
	}
	return env.Type, nil
}

// HandshakeEvent is sent once to a client after its connection is attached
// to the presence registry.
type HandshakeEvent struct {
	Type   string `json:"type"` // "handshake"
	UserID string `json:"user_id"`
	ConnID string `json:"conn_id"`
}

// PresenceEvent is the full online snapshot pushed to every live
// connection on each attach/detach. Snapshots are idempotent: a dropped
// intermediate one is repaired by the next.
type PresenceEvent struct {
	Type   string   `json:"type"` // "presenceChanged"
	Online []string `json:"online_user_ids"`
}

// TypingEvent signals that a peer started or stopped composing. An
// is_typing=true flag expires on its own after the idle window if no
// further signal arrives.
type TypingEvent struct {
	Type       string `json:"type"` // "typingChanged"
	FromUserID string `json:"from_user_id"`
	IsTyping   bool   `json:"is_typing"`
}

// MessageEvent delivers a freshly stored message to its receiver.
type MessageEvent struct {
	Type    string  `json:"type"` // "messageDelivered"
	Message Message `json:"message"`
}

// SeenEvent tells the original sender that ByUserID has seen every message
// it had received from them.
type SeenEvent struct {
	Type     string `json:"type"` // "messageSeen"
	ByUserID string `json:"by_user_id"`
	PeerID   string `json:"peer_id"`
}

// UnreadClearedEvent is a self-echo confirming the viewer's counter for
// PeerID went back to zero.
type UnreadClearedEvent struct {
	Type   string `json:"type"` // "unreadCleared"
	PeerID string `json:"peer_id"`
}

// ConfettiEvent is purely cosmetic and mutates no core state.
type ConfettiEvent struct {
	Type       string `json:"type"` // "confettiTriggered"
	FromUserID string `json:"from_user_id"`
}

// ErrorEvent is a WS-safe error frame.
type ErrorEvent struct {
	Type    string `json:"type"` // "error"
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ClientFrame is what a connected client may push up the socket: typing
// signals and confetti, both relayed to the receiver. Losing one is fine,
// the next equivalent frame self-heals.
type ClientFrame struct {
	Type       string `json:"type"`
	ReceiverID string `json:"receiver_id"`
	IsTyping   bool   `json:"is_typing,omitempty"`
}
