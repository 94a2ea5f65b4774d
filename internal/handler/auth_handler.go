package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/hlog"

	"appointment-planner/internal/api"
	"appointment-planner/internal/auth"
	"appointment-planner/internal/metrics"
	"appointment-planner/internal/middleware"
	"appointment-planner/internal/model"
	"appointment-planner/internal/store"
)

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req api.LoginRequest
	if !decode(w, r, &req) {
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "username and password required")
		return
	}

	u, err := h.store.UserByUsername(r.Context(), req.Username)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		internal(w, r, err, "login lookup")
		return
	}
	// same answer for unknown user and wrong password
	if err != nil || !auth.CheckPassword(u.PasswordHash, req.Password) {
		metrics.LoginFailuresTotal.Inc()
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	sess := &model.Session{ID: uuid.New().String(), UserID: u.ID}
	tok, exp, err := h.issuer.MakeToken(u.ID, sess.ID)
	if err != nil {
		internal(w, r, err, "sign token")
		return
	}
	sess.ExpiresAt = exp
	if err := h.store.CreateSession(r.Context(), sess); err != nil {
		internal(w, r, err, "create session")
		return
	}

	hlog.FromRequest(r).Info().Str("user_id", u.ID).Msg("login")
	writeData(w, http.StatusOK, api.LoginResponse{Token: tok, ExpiresAt: exp, User: userView(u)})
}

// Logout revokes the session the caller's token belongs to.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.store.RevokeSession(r.Context(), middleware.SessionID(r.Context())); err != nil {
		internal(w, r, err, "revoke session")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
