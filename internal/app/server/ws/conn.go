package ws

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeTimeout = 10 * time.Second
	maxFrameSize = 512 * 1024
	pongWait     = 60 * time.Second
	pingInterval = 25 * time.Second
)

// WebSocket wraps a gorilla connection with deadlines, a write mutex
// (writer goroutine and ping loop share the wire) and a lifecycle context
// tied to the owning session.
type WebSocket struct {
	*websocket.Conn
	wmu    sync.Mutex
	ctx    context.Context
	cancel context.CancelFunc
}

func NewWebSocket(parent context.Context, conn *websocket.Conn) *WebSocket {
	ctx, cancel := context.WithCancel(parent)
	return &WebSocket{Conn: conn, ctx: ctx, cancel: cancel}
}

func (w *WebSocket) WriteMessage(data []byte) error {
	w.wmu.Lock()
	defer w.wmu.Unlock()
	w.Conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return w.Conn.WriteMessage(websocket.TextMessage, data)
}

// ReadLoop pumps inbound frames to onFrame until the peer goes away. It
// also answers pongs so idle connections stay alive.
func (w *WebSocket) ReadLoop(log *slog.Logger, onFrame func([]byte)) {
	defer w.Close()

	w.Conn.SetReadLimit(maxFrameSize)
	w.Conn.SetReadDeadline(time.Now().Add(pongWait))
	w.Conn.SetPongHandler(func(string) error {
		w.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	go w.pingLoop()

	for {
		_, data, err := w.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				log.Debug("ws - read loop - unexpected close", "err", err)
			}
			break
		}
		if len(data) > 0 {
			onFrame(data)
		}
	}
}

func (w *WebSocket) pingLoop() {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-w.ctx.Done():
			return
		case <-ticker.C:
			w.wmu.Lock()
			w.Conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			err := w.Conn.WriteMessage(websocket.PingMessage, nil)
			w.wmu.Unlock()
			if err != nil {
				return
			}
		}
	}
}

func (w *WebSocket) Close() {
	w.cancel()
	_ = w.Conn.Close()
}
