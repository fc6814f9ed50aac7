package session

import (
	"context"
	"net/http"
)

type contextKey string

const sessionContextKey contextKey = "session"

// Middleware loads the session for every request and stores it in the request context.
func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := m.Load(r.Context(), w, r)
		next.ServeHTTP(w, r.WithContext(NewContext(r.Context(), sess)))
	})
}

// NewContext returns a child context carrying sess.
func NewContext(ctx context.Context, sess *Session) context.Context {
	return context.WithValue(ctx, sessionContextKey, sess)
}

// FromContext returns the session stored by Middleware, or nil.
func FromContext(ctx context.Context) *Session {
	sess, _ := ctx.Value(sessionContextKey).(*Session)
	return sess
}
