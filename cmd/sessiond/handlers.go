package main

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dmitrymomot/sessionkit/pkg/httpserver"
	"github.com/dmitrymomot/sessionkit/pkg/logger"
	"github.com/dmitrymomot/sessionkit/pkg/session"
)

type handlers struct {
	log  *slog.Logger
	idle time.Duration
}

type visitResponse struct {
	Count int    `json:"count"`
	User  string `json:"user,omitempty"`
}

func newRouter(manager *session.Manager[visit], log *slog.Logger, idle time.Duration, checks ...httpserver.Check) http.Handler {
	h := &handlers{log: log, idle: idle}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", httpserver.LivenessHandler())
	r.Get("/readyz", httpserver.ReadinessHandler(log, checks...))

	r.Group(func(r chi.Router) {
		r.Use(manager.Middleware)
		r.Get("/", h.count)
		r.Post("/login", h.login)
		r.Post("/logout", h.logout)
	})

	return r
}

// count increments the visitor's counter, starting a session on the first visit.
func (h *handlers) count(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := session.MustFromContext[visit](ctx)

	state, err := sess.Load(ctx)
	if err != nil {
		h.sessionError(w, r, "load", err)
		return
	}

	if state != nil {
		mut := state.DataMut()
		mut.Data().Count++
		mut.Data().Idle = h.idle
		if state, err = mut.Save(ctx); err != nil {
			h.sessionError(w, r, "save", err)
			return
		}
	}

	// Absent, lapsed, or deleted between load and save.
	if state == nil {
		if state, err = sess.Create(ctx, visit{Count: 1, Idle: h.idle}); err != nil {
			h.sessionError(w, r, "create", err)
			return
		}
	}

	h.respond(w, r, state.Data())
}

// login attaches a user name and rotates the identifier.
func (h *handlers) login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := r.FormValue("user")
	if user == "" {
		http.Error(w, "user is required", http.StatusBadRequest)
		return
	}

	sess := session.MustFromContext[visit](ctx)
	state, err := sess.Load(ctx)
	if err != nil {
		h.sessionError(w, r, "load", err)
		return
	}

	if state == nil {
		if state, err = sess.Create(ctx, visit{User: user, Idle: h.idle}); err != nil {
			h.sessionError(w, r, "create", err)
			return
		}
		h.respond(w, r, state.Data())
		return
	}

	mut := state.DataMut()
	mut.Data().User = user
	if state, err = mut.Save(ctx); err != nil {
		h.sessionError(w, r, "save", err)
		return
	}
	if state == nil {
		http.Error(w, "session expired", http.StatusConflict)
		return
	}

	cycled, err := state.Cycle(ctx)
	if err != nil {
		h.sessionError(w, r, "cycle", err)
		return
	}
	if cycled == nil {
		http.Error(w, "session expired", http.StatusConflict)
		return
	}

	h.log.InfoContext(ctx, "session cycled on login", logger.SessionID(cycled.ID()))
	h.respond(w, r, cycled.Data())
}

func (h *handlers) logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := session.MustFromContext[visit](ctx)

	state, err := sess.Load(ctx)
	if err != nil {
		h.sessionError(w, r, "load", err)
		return
	}
	if state != nil {
		if _, err := state.Delete(ctx); err != nil {
			h.sessionError(w, r, "delete", err)
			return
		}
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *handlers) respond(w http.ResponseWriter, r *http.Request, v visit) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(visitResponse{Count: v.Count, User: v.User}); err != nil {
		h.log.ErrorContext(r.Context(), "failed to write response", logger.Error(err))
	}
}

// sessionError answers 500 and logs which tier failed. A store-tier failure
// is reported first since it means the session state is unknown.
func (h *handlers) sessionError(w http.ResponseWriter, r *http.Request, op string, err error) {
	var (
		storeErr *session.StoreError
		cacheErr *session.CacheError
	)
	inStore := errors.As(err, &storeErr)
	inCache := errors.As(err, &cacheErr)

	details := []slog.Attr{slog.String("op", op)}
	errAttr := logger.Error(err)
	switch {
	case inStore && inCache:
		details = append(details, logger.Tier("store"))
		errAttr = logger.Errors(storeErr, cacheErr)
	case inStore:
		details = append(details, logger.Tier("store"))
	case inCache:
		details = append(details, logger.Tier("cache"))
	}

	attrs := []any{logger.Group("session", details...), errAttr}
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		attrs = append(attrs, logger.Handler(r.Method+" "+rctx.RoutePattern()))
	}

	h.log.ErrorContext(r.Context(), "session operation failed", attrs...)
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}
