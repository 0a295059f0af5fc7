package ws

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
)

var errClientClosed = errors.New("client closed")

// RuntimeClient binds one authenticated user to one live socket. It is the
// concrete contracts.Client handed to the presence registry. Sends enqueue
// onto a buffered channel drained by a single writer goroutine, so callers
// never block on the network.
type RuntimeClient struct {
	ctx    context.Context
	cancel context.CancelFunc
	ws     *WebSocket
	userID string
	connID string
	out    chan []byte
	once   sync.Once
}

func NewClient(parent context.Context, ws *WebSocket, userID string) *RuntimeClient {
	ctx, cancel := context.WithCancel(parent)
	c := &RuntimeClient{
		ctx:    ctx,
		cancel: cancel,
		ws:     ws,
		userID: userID,
		connID: uuid.NewString(),
		out:    make(chan []byte, 256),
	}
	go c.writeLoop()
	return c
}

func (c *RuntimeClient) UserID() string { return c.userID }
func (c *RuntimeClient) ConnID() string { return c.connID }

func (c *RuntimeClient) Send(ctx context.Context, data []byte) error {
	select {
	case c.out <- data:
		return nil
	case <-c.ctx.Done():
		return errClientClosed
	default:
		// Writer fell too far behind; dropping is safer than blocking
		// the registry. Snapshots self-heal on the next event.
		return errClientClosed
	}
}

func (c *RuntimeClient) Close() {
	c.once.Do(func() {
		c.cancel()
		c.ws.Close()
	})
}

func (c *RuntimeClient) writeLoop() {
	defer c.Close()
	for {
		select {
		case <-c.ctx.Done():
			return
		case data := <-c.out:
			if err := c.ws.WriteMessage(data); err != nil {
				return
			}
		}
	}
}
