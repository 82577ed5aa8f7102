/*
middleware.go - Request logging and session middleware

PURPOSE:
  RequestLogger replaces chi's text logger with a zap entry per request.
  RequireSession resolves the session cookie and stores the session in the
  request context for the handlers behind it.

SEE ALSO:
  - server.go: Where the middleware is mounted
  - session/session.go: Manager.Get
*/
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/warp/leave-portal/session"
	"go.uber.org/zap"
)

type ctxKey int

const sessionKey ctxKey = iota

func withSession(ctx context.Context, s session.Session) context.Context {
	return context.WithValue(ctx, sessionKey, s)
}

// sessionFrom returns the session stored by RequireSession, or the zero
// session on public routes.
func sessionFrom(ctx context.Context) session.Session {
	s, _ := ctx.Value(sessionKey).(session.Session)
	return s
}

// RequestLogger logs method, path, status and duration for every request.
func RequestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				logger.Info("http request",
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.Int("status", ww.Status()),
					zap.Int("bytes", ww.BytesWritten()),
					zap.Duration("duration", time.Since(start)),
					zap.String("request_id", middleware.GetReqID(r.Context())))
			}()
			next.ServeHTTP(ww, r)
		})
	}
}

// RequireSession rejects requests without a live session with 401.
func (h *Handler) RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := r.Cookie(h.CookieName)
		if err != nil || c.Value == "" {
			h.writeServiceError(w, r, session.ErrNoSession)
			return
		}
		s, err := h.Service.Sessions.Get(r.Context(), c.Value)
		if err != nil {
			h.writeServiceError(w, r, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(withSession(r.Context(), s)))
	})
}
