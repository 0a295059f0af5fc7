package handlers

import (
	"context"
	"net/http"

	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/swagculi/chatapp/internal/app/server/ws"
	"github.com/swagculi/chatapp/internal/core/services"
	"github.com/swagculi/chatapp/pkg/logging"
	"github.com/swagculi/chatapp/pkg/middleware"
)

type WSHandler struct {
	presence *services.PresenceService
}

func NewWSHandler(presence *services.PresenceService) *WSHandler {
	return &WSHandler{presence: presence}
}

func (h *WSHandler) Handler(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())
	span := trace.SpanFromContext(r.Context())

	// The authenticated identity wins; the query parameter only covers
	// clients that dial without middleware (tests, local tooling). A
	// connection with no identity at all still upgrades, but stays
	// anonymous: excluded from presence, frames dropped.
	userID, _ := r.Context().Value(middleware.UserIDKey).(string)
	if userID == "" {
		userID = r.URL.Query().Get("userId")
	}
	span.SetAttributes(attribute.String("user.id", userID))

	sessionCtx := context.WithoutCancel(r.Context())
	ctx, cancel := context.WithCancel(sessionCtx)
	// The handler returning IS the end of the session, close frame or not.
	// An abnormal drop never reaches the close handler, so the heartbeat
	// and writer goroutines hang off this cancel.
	defer cancel()

	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			return true // tighten later
		},
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.ErrorContext(r.Context(), "ws handler - upgrade failed", logging.Err(err))
		return
	}
	conn.SetCloseHandler(func(code int, text string) error {
		cancel()
		return nil
	})
	socket := ws.NewWebSocket(ctx, conn)
	defer socket.Close()

	client := ws.NewClient(ctx, socket, userID)
	h.presence.HandleConnect(ctx, client)
	defer h.presence.HandleDisconnect(ctx, client)
	if userID == "" {
		log.InfoContext(r.Context(), "ws handler - anonymous connection", "conn_id", client.ConnID())
	} else {
		log.InfoContext(r.Context(), "ws handler - connection established", "user_id", userID, "conn_id", client.ConnID())
		go h.presence.HandleHeartbeat(ctx, userID)
	}

	socket.ReadLoop(log, func(data []byte) {
		h.presence.HandleFrame(ctx, userID, data)
	})
}
