package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/user/redditclone-go/logging"
)

// Options configures the session cookie.
type Options struct {
	CookieName string
	MaxAge     time.Duration
	Secure     bool
	Secret     string
}

// Manager loads sessions from incoming requests and writes their cookies.
type Manager struct {
	store  Store
	opts   Options
	secret []byte
	log    logging.Logger
}

func NewManager(store Store, opts Options, log logging.Logger) *Manager {
	return &Manager{
		store:  store,
		opts:   opts,
		secret: []byte(opts.Secret),
		log:    log,
	}
}

// cookieClaims is the payload of the signed cookie. Only the session id travels
// to the browser; the user id stays in Redis.
type cookieClaims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

// Load returns the session for r. A missing, tampered or unknown cookie yields an
// empty session that will not be persisted unless a user id is set on it.
func (m *Manager) Load(ctx context.Context, w http.ResponseWriter, r *http.Request) *Session {
	sess := &Session{manager: m, w: w}

	cookie, err := r.Cookie(m.opts.CookieName)
	if err != nil || cookie.Value == "" {
		return sess
	}

	sid, err := m.parse(cookie.Value)
	if err != nil {
		m.log.Debug(ctx, "ignoring invalid session cookie", "error", err)
		return sess
	}

	data, err := m.store.Get(ctx, sid)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			m.log.Warn(ctx, "failed to load session", "error", err)
		}
		return sess
	}

	sess.id = sid
	sess.data = *data
	return sess
}

func (m *Manager) sign(sid string) (string, error) {
	claims := cookieClaims{
		SessionID: sid,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt: jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign session cookie: %w", err)
	}
	return signed, nil
}

func (m *Manager) parse(value string) (string, error) {
	claims := &cookieClaims{}
	token, err := jwt.ParseWithClaims(value, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		return "", err
	}
	if !token.Valid || claims.SessionID == "" {
		return "", errors.New("session cookie carries no session id")
	}
	return claims.SessionID, nil
}

func (m *Manager) writeCookie(w http.ResponseWriter, value string) {
	http.SetCookie(w, &http.Cookie{
		Name:     m.opts.CookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   int(m.opts.MaxAge.Seconds()),
		HttpOnly: true,
		Secure:   m.opts.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (m *Manager) clearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     m.opts.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.opts.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}
