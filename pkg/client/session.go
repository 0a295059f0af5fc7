package client

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/swagculi/chatapp/internal/core/domain"
)

const (
	defaultMinBackoff = 1 * time.Second
	defaultMaxBackoff = 30 * time.Second
	// A connection must survive this long before a successful dial counts
	// as recovery; a server that accepts and immediately drops keeps
	// escalating instead of producing a hot redial loop.
	defaultStableAfter = 30 * time.Second
)

var errNotConnected = errors.New("session not connected")

// Session owns the client's long-lived socket: it dials, re-handshakes,
// feeds every inbound event to the tracker and reconnects forever with
// capped exponential backoff. Outbound typing/confetti frames are
// transient signals: a write error is logged and forgotten, the next
// keystroke re-emits it.
type Session struct {
	log     *slog.Logger
	wsURL   string
	userID  string
	token   string
	tracker *Tracker
	dialer  *websocket.Dialer

	minBackoff  time.Duration
	maxBackoff  time.Duration
	stableAfter time.Duration

	mu   sync.Mutex
	conn *websocket.Conn
}

func NewSession(log *slog.Logger, wsURL, userID, token string, tracker *Tracker) *Session {
	return &Session{
		log:         log,
		wsURL:       wsURL,
		userID:      userID,
		token:       token,
		tracker:     tracker,
		dialer:      websocket.DefaultDialer,
		minBackoff:  defaultMinBackoff,
		maxBackoff:  defaultMaxBackoff,
		stableAfter: defaultStableAfter,
	}
}

// Run keeps the session alive until ctx ends. Every successful dial
// re-attaches server-side; the tracker distrusts presence until the
// handshake confirms the attach, and resyncs unread counters that may
// have moved while we were gone.
func (s *Session) Run(ctx context.Context) error {
	backoff := s.minBackoff
	for {
		conn, err := s.dial(ctx)
		if err != nil {
			s.log.Warn("session - dial failed", "err", err, "retry_in", backoff.String())
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
			backoff = min(backoff*2, s.maxBackoff)
			continue
		}
		s.setConn(conn)
		connectedAt := time.Now()
		s.log.Info("session - connected", "user_id", s.userID)

		_ = s.tracker.Resync(ctx)
		s.readLoop(ctx, conn)

		s.setConn(nil)
		s.tracker.ConnectionLost()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if time.Since(connectedAt) >= s.stableAfter {
			backoff = s.minBackoff
		} else {
			// Accepted then dropped: treat it like a failed dial so a
			// flapping server never sees an instant redial.
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
			backoff = min(backoff*2, s.maxBackoff)
		}
		s.log.Info("session - connection lost, reconnecting")
	}
}

// Typing signals composing state to the peer. Fire and forget.
func (s *Session) Typing(receiverID string, isTyping bool) error {
	return s.writeFrame(domain.ClientFrame{
		Type:       domain.TypeTyping,
		ReceiverID: receiverID,
		IsTyping:   isTyping,
	})
}

// Confetti sends the cosmetic confetti trigger. Fire and forget.
func (s *Session) Confetti(receiverID string) error {
	return s.writeFrame(domain.ClientFrame{
		Type:       domain.TypeConfetti,
		ReceiverID: receiverID,
	})
}

func (s *Session) dial(ctx context.Context) (*websocket.Conn, error) {
	u, err := url.Parse(s.wsURL)
	if err != nil {
		return nil, err
	}
	q := u.Query()
	q.Set("userId", s.userID)
	u.RawQuery = q.Encode()

	header := http.Header{}
	if s.token != "" {
		header.Set("Authorization", "Bearer "+s.token)
	}
	conn, _, err := s.dialer.DialContext(ctx, u.String(), header)
	return conn, err
}

func (s *Session) readLoop(ctx context.Context, conn *websocket.Conn) {
	defer conn.Close()
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		if len(data) == 0 {
			continue
		}
		_ = s.tracker.HandleEvent(ctx, data)
	}
}

func (s *Session) setConn(conn *websocket.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conn = conn
}

func (s *Session) writeFrame(frame domain.ClientFrame) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return errNotConnected
	}
	if err := s.conn.WriteJSON(frame); err != nil {
		s.log.Debug("session - frame write failed", "type", frame.Type, "err", err)
		return err
	}
	return nil
}
