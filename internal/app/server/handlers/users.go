package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/swagculi/chatapp/internal/core/domain"
	"github.com/swagculi/chatapp/internal/core/services"
	"github.com/swagculi/chatapp/pkg/logging"
)

type UserHandler struct {
	users *services.UserService
}

func NewUserHandler(users *services.UserService) *UserHandler {
	return &UserHandler{users: users}
}

// Sidebar handles GET /api/users.
func (h *UserHandler) Sidebar(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())
	viewer, ok := viewerID(r)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	users, err := h.users.SidebarUsers(r.Context(), viewer)
	if err != nil {
		log.ErrorContext(r.Context(), "user handler - sidebar failed", "viewer_id", viewer, "err", err)
		http.Error(w, "failed to load users", http.StatusInternalServerError)
		return
	}
	if users == nil {
		users = []domain.User{}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(users)
}
