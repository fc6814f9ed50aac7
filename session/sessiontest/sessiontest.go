// Package sessiontest builds real sessions backed by an in-memory Redis for tests
// in other packages.
package sessiontest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/user/redditclone-go/logging"
	"github.com/user/redditclone-go/session"
)

// CookieName is the cookie name used by managers built here.
const CookieName = "qid"

// NewManager returns a Manager over a fresh miniredis instance.
func NewManager(t *testing.T) (*session.Manager, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	m := session.NewManager(session.NewRedisStore(client), session.Options{
		CookieName: CookieName,
		MaxAge:     24 * time.Hour,
		Secret:     "test-secret",
	}, logging.Nop())
	return m, mr
}

// Anonymous returns a session with nobody logged in.
func Anonymous(t *testing.T) *session.Session {
	t.Helper()
	m, _ := NewManager(t)
	return m.Load(context.Background(), httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
}

// LoggedIn returns a persisted session for userID.
func LoggedIn(t *testing.T, userID int) *session.Session {
	t.Helper()
	sess := Anonymous(t)
	require.NoError(t, sess.SetUserID(context.Background(), userID))
	return sess
}
