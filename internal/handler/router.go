package handler

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"

	"appointment-planner/internal/metrics"
	"appointment-planner/internal/middleware"
)

type RouterOptions struct {
	Logger      zerolog.Logger
	CORSOrigin  string
	LoginLimits *middleware.RateLimiter
}

// Router wires every REST route behind the shared middleware chain.
func (h *Handler) Router(opts RouterOptions) *mux.Router {
	root := mux.NewRouter()
	root.Use(middleware.Logging(opts.Logger), middleware.Recover, middleware.CORS(opts.CORSOrigin), metrics.Middleware)
	// preflight requests need a matching route for the CORS middleware to run
	root.Methods(http.MethodOptions).HandlerFunc(func(http.ResponseWriter, *http.Request) {})

	root.HandleFunc("/healthz", h.Health).Methods("GET")
	root.Handle("/metrics", metrics.Handler()).Methods("GET")

	login := http.Handler(http.HandlerFunc(h.Login))
	if opts.LoginLimits != nil {
		login = middleware.RateLimit(opts.LoginLimits)(login)
	}
	root.Handle("/api/login", login).Methods("POST")

	authed := root.PathPrefix("/api").Subrouter()
	authed.Use(middleware.Auth(h.issuer, h.store))

	authed.HandleFunc("/logout", h.Logout).Methods("POST")

	authed.HandleFunc("/users", h.ListUsers).Methods("GET")
	authed.HandleFunc("/users", h.CreateUser).Methods("POST")
	authed.HandleFunc("/users/{id}", h.GetUser).Methods("GET")
	authed.HandleFunc("/users/{id}", h.UpdateUser).Methods("PUT")
	authed.HandleFunc("/users/{id}", h.DeleteUser).Methods("DELETE")

	authed.HandleFunc("/appointments", h.ListAppointments).Methods("GET")
	authed.HandleFunc("/appointments", h.CreateAppointment).Methods("POST")
	authed.HandleFunc("/appointments/preview", h.PreviewAppointment).Methods("POST")
	authed.HandleFunc("/appointments/{id}", h.GetAppointment).Methods("GET")
	authed.HandleFunc("/appointments/{id}", h.CancelAppointment).Methods("DELETE")

	return root
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Ping(r.Context()); err != nil {
		hlog.FromRequest(r).Warn().Err(err).Msg("health check failed")
		writeError(w, http.StatusServiceUnavailable, "database unavailable")
		return
	}
	writeData(w, http.StatusOK, map[string]string{"status": "ok"})
}
