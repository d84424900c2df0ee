package session

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var secret = []byte("secret")

func request(t *testing.T, m *Manager, s Session) *http.Request {
	w := httptest.NewRecorder()
	require.NoError(t, m.Write(w, s))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range w.Result().Cookies() {
		r.AddCookie(c)
	}

	return r
}

func TestManager_ReadWrite(t *testing.T) {
	m := NewManager(secret, time.Hour)

	s := m.Read(request(t, m, Session{AccountID: 42}))
	assert.EqualValues(t, 42, s.AccountID)
	assert.True(t, s.Authenticated())
	assert.False(t, s.PendingRegistration())

	s = m.Read(request(t, m, Session{PendingToken: "token"}))
	assert.Equal(t, "token", s.PendingToken)
	assert.False(t, s.Authenticated())
	assert.True(t, s.PendingRegistration())
}

func TestManager_Read_anonymous(t *testing.T) {
	m := NewManager(secret, time.Hour)

	s := m.Read(httptest.NewRequest(http.MethodGet, "/", nil))
	assert.False(t, s.Authenticated())
	assert.False(t, s.PendingRegistration())
}

func TestManager_Read_tampered(t *testing.T) {
	m := NewManager(secret, time.Hour)

	r := request(t, NewManager([]byte("other"), time.Hour), Session{AccountID: 42})
	assert.Equal(t, Session{}, m.Read(r))
}

func TestManager_Read_expired(t *testing.T) {
	m := NewManager(secret, -time.Hour)

	r := request(t, m, Session{AccountID: 42})
	assert.Equal(t, Session{}, NewManager(secret, time.Hour).Read(r))
}

func TestManager_Clear(t *testing.T) {
	m := NewManager(secret, time.Hour)

	w := httptest.NewRecorder()
	m.Clear(w)

	cc := w.Result().Cookies()
	require.Len(t, cc, 1)
	assert.Equal(t, CookieName, cc[0].Name)
	assert.Empty(t, cc[0].Value)
	assert.True(t, cc[0].MaxAge < 0)
}

func TestManager_Authenticated(t *testing.T) {
	m := NewManager(secret, time.Hour)

	called := false
	h := m.Authenticated(func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	w := httptest.NewRecorder()
	h(w, httptest.NewRequest(http.MethodGet, "/profile", nil))
	assert.False(t, called)
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/login", w.Header().Get("Location"))

	w = httptest.NewRecorder()
	h(w, request(t, m, Session{AccountID: 1}))
	assert.True(t, called)
}
