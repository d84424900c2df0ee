// Package session implements a signed cookie session.
//
// A session is in one of three states: anonymous (no cookie), pending
// registration (identity token carried, no account yet) and authenticated
// (account id carried).
package session

import (
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// CookieName ...
const CookieName = "hesiod_session"

// Session is a state carried between requests.
type Session struct {
	AccountID    int64
	PendingToken string
}

// Authenticated returns true when the session is bound to an account.
func (s Session) Authenticated() bool {
	return s.AccountID != 0
}

// PendingRegistration returns true when external auth succeeded but no local
// account exists yet.
func (s Session) PendingRegistration() bool {
	return !s.Authenticated() && s.PendingToken != ""
}

type claims struct {
	jwt.RegisteredClaims

	AccountID    int64  `json:"account_id,omitempty"`
	PendingToken string `json:"pending_token,omitempty"`
}

// Manager reads and writes sessions as signed cookies.
type Manager struct {
	secret []byte
	ttl    time.Duration
}

// NewManager creates new instance of Manager.
func NewManager(secret []byte, ttl time.Duration) *Manager {
	return &Manager{
		secret: secret,
		ttl:    ttl,
	}
}

// Read extracts the session from the request. An absent, expired or tampered
// cookie yields an anonymous session.
func (m *Manager) Read(r *http.Request) Session {
	c, err := r.Cookie(CookieName)
	if err != nil {
		return Session{}
	}

	var cl claims
	t, err := jwt.ParseWithClaims(c.Value, &cl, func(*jwt.Token) (interface{}, error) {
		return m.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

	if err != nil || !t.Valid {
		return Session{}
	}

	return Session{
		AccountID:    cl.AccountID,
		PendingToken: cl.PendingToken,
	}
}

// Write sets the session cookie.
func (m *Manager) Write(w http.ResponseWriter, s Session) error {
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(m.ttl)),
		},
		AccountID:    s.AccountID,
		PendingToken: s.PendingToken,
	})

	v, err := t.SignedString(m.secret)
	if err != nil {
		return fmt.Errorf("failed to sign session: %w", err)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    v,
		Path:     "/",
		MaxAge:   int(m.ttl / time.Second),
		HttpOnly: true,
	})

	return nil
}

// Clear destroys the session cookie.
func (m *Manager) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
}

// Authenticated wraps a protected handler. Unauthenticated requests are
// redirected to the login page.
func (m *Manager) Authenticated(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !m.Read(r).Authenticated() {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}

		next(w, r)
	}
}
