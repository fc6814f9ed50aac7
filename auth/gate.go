package auth

import (
	"github.com/user/redditclone-go/apperror"
	"github.com/user/redditclone-go/session"
)

// NotAuthenticatedMessage is the message of the error returned by RequireAuth.
// The web frontend matches on it to redirect to the login page.
const NotAuthenticatedMessage = "not authenticated"

// RequireAuth returns the session's user id, or an AuthError when nobody is logged in.
func RequireAuth(sess *session.Session) (int, error) {
	userID, ok := sess.UserID()
	if !ok {
		return 0, apperror.NewAuthError(NotAuthenticatedMessage, nil)
	}
	return userID, nil
}
