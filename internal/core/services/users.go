package services

import (
	"context"
	"log/slog"

	"github.com/swagculi/chatapp/internal/core/contracts"
	"github.com/swagculi/chatapp/internal/core/domain"
)

// UserService serves the sidebar: everyone the viewer can talk to,
// decorated with the Redis-backed last-seen timestamp for users who are
// currently offline.
type UserService struct {
	log      *slog.Logger
	repo     domain.UserRepository
	lastSeen contracts.LastSeenStore
}

func NewUserService(log *slog.Logger, repo domain.UserRepository, lastSeen contracts.LastSeenStore) *UserService {
	return &UserService{
		log:      log,
		repo:     repo,
		lastSeen: lastSeen,
	}
}

func (s *UserService) GetUser(ctx context.Context, id string) (*domain.User, error) {
	if id == "" {
		return nil, domain.ErrInvalidUserID
	}
	return s.repo.GetUserByID(ctx, id)
}

func (s *UserService) SidebarUsers(ctx context.Context, viewerID string) ([]domain.User, error) {
	if viewerID == "" {
		return nil, domain.ErrInvalidUserID
	}
	users, err := s.repo.ListUsers(ctx, viewerID)
	if err != nil {
		s.log.ErrorContext(ctx, "users - sidebar - list failed", "viewer_id", viewerID, "err", err)
		return nil, err
	}
	for i := range users {
		t, ok, err := s.lastSeen.LastSeen(ctx, users[i].ID)
		if err != nil {
			// The sidebar still works without last-seen decoration.
			s.log.DebugContext(ctx, "users - sidebar - last seen lookup failed", "user_id", users[i].ID, "err", err)
			continue
		}
		if ok {
			ts := t
			users[i].LastSeenAt = &ts
		}
	}
	return users, nil
}
