package graph

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/user/redditclone-go/logging"
	"github.com/user/redditclone-go/session"
)

// RequestContext is everything a resolver needs to know about the request it
// is serving. It is built once per HTTP request.
type RequestContext struct {
	Session *session.Session
	Logger  logging.Logger
}

type contextKey string

const requestContextKey contextKey = "graph_request_context"

// WithRequestContext returns a child context carrying rc.
func WithRequestContext(ctx context.Context, rc *RequestContext) context.Context {
	return context.WithValue(ctx, requestContextKey, rc)
}

// RequestContextFrom returns the RequestContext stored in ctx, or nil.
func RequestContextFrom(ctx context.Context) *RequestContext {
	rc, _ := ctx.Value(requestContextKey).(*RequestContext)
	return rc
}

// ContextMiddleware builds the RequestContext from the session loaded by
// session.Manager.Middleware and the chi request id. It must run after both.
func ContextMiddleware(log logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			rc := &RequestContext{
				Session: session.FromContext(ctx),
				Logger:  log.With("requestID", middleware.GetReqID(ctx)),
			}
			next.ServeHTTP(w, r.WithContext(WithRequestContext(ctx, rc)))
		})
	}
}
