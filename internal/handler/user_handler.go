package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"appointment-planner/internal/api"
	"appointment-planner/internal/auth"
	"appointment-planner/internal/middleware"
	"appointment-planner/internal/model"
	"appointment-planner/internal/store"
	"appointment-planner/internal/tzconv"
)

func userView(u *model.User) api.User {
	return api.User{
		ID:                u.ID,
		Name:              u.Name,
		Username:          u.Username,
		PreferredTimezone: u.PreferredTimezone,
		CreatedAt:         u.CreatedAt,
		UpdatedAt:         u.UpdatedAt,
	}
}

func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.store.ListUsers(r.Context())
	if err != nil {
		internal(w, r, err, "list users")
		return
	}
	out := make([]api.User, len(users))
	for i := range users {
		out[i] = userView(&users[i])
	}
	writeData(w, http.StatusOK, out)
}

func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	u, err := h.store.GetUser(r.Context(), mux.Vars(r)["id"])
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}
	if err != nil {
		internal(w, r, err, "get user")
		return
	}
	writeData(w, http.StatusOK, userView(u))
}

func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req api.CreateUserRequest
	if !decode(w, r, &req) {
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Username = strings.TrimSpace(req.Username)
	if req.Name == "" || req.Username == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "name, username and password required")
		return
	}
	if len(req.Password) < auth.MinPasswordLen {
		writeError(w, http.StatusBadRequest, "password too short")
		return
	}
	if req.PreferredTimezone == "" {
		req.PreferredTimezone = model.DefaultTimezone
	}
	if !tzconv.ValidZone(req.PreferredTimezone) {
		writeError(w, http.StatusBadRequest, "invalid timezone: "+req.PreferredTimezone)
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		internal(w, r, err, "hash password")
		return
	}
	u := &model.User{
		ID:                uuid.New().String(),
		Name:              req.Name,
		Username:          req.Username,
		PreferredTimezone: req.PreferredTimezone,
		PasswordHash:      hash,
	}
	if err := h.store.CreateUser(r.Context(), u); err != nil {
		if errors.Is(err, store.ErrConflict) {
			writeError(w, http.StatusConflict, "username already taken")
			return
		}
		internal(w, r, err, "create user")
		return
	}
	writeData(w, http.StatusCreated, userView(u))
}

func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	var req api.UpdateUserRequest
	if !decode(w, r, &req) {
		return
	}

	u, err := h.store.GetUser(r.Context(), mux.Vars(r)["id"])
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}
	if err != nil {
		internal(w, r, err, "get user")
		return
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			writeError(w, http.StatusBadRequest, "name cannot be empty")
			return
		}
		u.Name = name
	}
	if req.PreferredTimezone != nil {
		if !tzconv.ValidZone(*req.PreferredTimezone) {
			writeError(w, http.StatusBadRequest, "invalid timezone: "+*req.PreferredTimezone)
			return
		}
		u.PreferredTimezone = *req.PreferredTimezone
	}
	if req.Password != nil {
		if len(*req.Password) < auth.MinPasswordLen {
			writeError(w, http.StatusBadRequest, "password too short")
			return
		}
		if u.PasswordHash, err = auth.HashPassword(*req.Password); err != nil {
			internal(w, r, err, "hash password")
			return
		}
	}

	if err := h.store.UpdateUser(r.Context(), u); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "user not found")
			return
		}
		internal(w, r, err, "update user")
		return
	}
	// a new password signs the user out everywhere
	if req.Password != nil {
		if err := h.store.RevokeAllSessions(r.Context(), u.ID); err != nil {
			internal(w, r, err, "revoke sessions")
			return
		}
	}
	writeData(w, http.StatusOK, userView(u))
}

func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if id == middleware.UserID(r.Context()) {
		writeError(w, http.StatusBadRequest, "cannot delete yourself")
		return
	}
	if err := h.store.DeleteUser(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "user not found")
			return
		}
		internal(w, r, err, "delete user")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
