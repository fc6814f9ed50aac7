package session

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

// Session is the state of one browser session for the duration of a request.
// It is not safe for concurrent use; each request gets its own.
type Session struct {
	manager *Manager
	w       http.ResponseWriter
	id      string
	data    Data
}

// ID returns the session id, or "" for a session that was never persisted.
func (s *Session) ID() string {
	return s.id
}

// UserID returns the logged-in user's id, if any.
func (s *Session) UserID() (int, bool) {
	if s == nil || s.data.UserID == 0 {
		return 0, false
	}
	return s.data.UserID, true
}

// SetUserID logs userID in on this session: it persists the session under a
// freshly minted id, sets the cookie and deletes the session the browser
// arrived with, if any.
func (s *Session) SetUserID(ctx context.Context, userID int) error {
	previous := s.id
	id := uuid.NewString()
	data := Data{UserID: userID}

	if err := s.manager.store.Save(ctx, id, data, s.manager.opts.MaxAge); err != nil {
		return err
	}
	value, err := s.manager.sign(id)
	if err != nil {
		return err
	}
	s.id, s.data = id, data
	s.manager.writeCookie(s.w, value)

	if previous != "" {
		if err := s.manager.store.Destroy(ctx, previous); err != nil {
			s.manager.log.Warn(ctx, "failed to delete replaced session", "error", err)
		}
	}
	return nil
}

// Destroy removes the session from the store and clears the cookie.
// The cookie is cleared even when the store delete fails.
func (s *Session) Destroy(ctx context.Context) error {
	sid := s.id
	s.id = ""
	s.data = Data{}
	s.manager.clearCookie(s.w)

	if sid == "" {
		return nil
	}
	return s.manager.store.Destroy(ctx, sid)
}
