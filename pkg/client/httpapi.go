package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/swagculi/chatapp/internal/core/domain"
)

// HTTPCollaborator talks to the collaborator HTTP endpoints: history,
// seen-marks, unread counts and sending. It is the default Collaborator
// behind a Tracker.
type HTTPCollaborator struct {
	base   string
	token  string
	client *http.Client
}

func NewHTTPCollaborator(base, token string) *HTTPCollaborator {
	return &HTTPCollaborator{
		base:   base,
		token:  token,
		client: &http.Client{Timeout: 15 * time.Second},
	}
}

func (c *HTTPCollaborator) FetchMessages(ctx context.Context, peerID string) ([]domain.Message, error) {
	var msgs []domain.Message
	if err := c.do(ctx, http.MethodGet, "/api/messages/"+peerID, nil, &msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}

func (c *HTTPCollaborator) MarkSeen(ctx context.Context, peerID string) error {
	return c.do(ctx, http.MethodPut, "/api/messages/seen/"+peerID, nil, nil)
}

func (c *HTTPCollaborator) FetchUnreadCounts(ctx context.Context) (map[string]int, error) {
	counts := make(map[string]int)
	if err := c.do(ctx, http.MethodGet, "/api/messages/unread-counts", nil, &counts); err != nil {
		return nil, err
	}
	return counts, nil
}

// SendMessage posts a new message and returns the stored copy.
func (c *HTTPCollaborator) SendMessage(ctx context.Context, peerID, text, image string) (*domain.Message, error) {
	body := map[string]string{"text": text, "image": image}
	var msg domain.Message
	if err := c.do(ctx, http.MethodPost, "/api/messages/send/"+peerID, body, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// SidebarUsers fetches everyone the viewer can talk to.
func (c *HTTPCollaborator) SidebarUsers(ctx context.Context) ([]domain.User, error) {
	var users []domain.User
	if err := c.do(ctx, http.MethodGet, "/api/users", nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (c *HTTPCollaborator) do(ctx context.Context, method, path string, body, out any) error {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%s %s: unexpected status %d", method, path, resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
