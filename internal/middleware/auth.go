package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/rs/zerolog/hlog"

	"appointment-planner/internal/api"
	"appointment-planner/internal/auth"
)

type ctxKey string

const (
	UserIDKey    ctxKey = "uid"
	SessionIDKey ctxKey = "sid"
)

// Sessions reports whether a server session is still usable.
type Sessions interface {
	SessionActive(ctx context.Context, id string) (bool, error)
}

// Auth requires a valid bearer token whose session has not been revoked.
func Auth(is *auth.Issuer, sessions Sessions) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// token from Authorization: Bearer <jwt>
			raw := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
			if raw == "" || raw == r.Header.Get("Authorization") {
				writeError(w, http.StatusUnauthorized, "no token")
				return
			}

			claims, err := is.ParseToken(raw)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "bad token")
				return
			}

			ok, err := sessions.SessionActive(r.Context(), claims.SessionID())
			if err != nil {
				hlog.FromRequest(r).Error().Err(err).Msg("session lookup")
				writeError(w, http.StatusInternalServerError, "internal error")
				return
			}
			if !ok {
				writeError(w, http.StatusUnauthorized, "session expired")
				return
			}

			ctx := context.WithValue(r.Context(), UserIDKey, claims.UserID)
			ctx = context.WithValue(ctx, SessionIDKey, claims.SessionID())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserID returns the authenticated user, or "" outside Auth.
func UserID(ctx context.Context) string {
	uid, _ := ctx.Value(UserIDKey).(string)
	return uid
}

func SessionID(ctx context.Context) string {
	sid, _ := ctx.Value(SessionIDKey).(string)
	return sid
}

func writeError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(api.ErrorResponse{Error: msg, Code: code})
}
