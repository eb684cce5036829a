package session

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func newManager(t *testing.T, ttl time.Duration) *Manager {
	t.Helper()
	m, err := NewManager(Config{Secret: testSecret, TTL: ttl, CookieName: "sg_session"})
	require.NoError(t, err)
	return m
}

func TestNewManager_RejectsWeakSecret(t *testing.T) {
	_, err := NewManager(Config{Secret: ""})
	assert.Error(t, err)

	_, err = NewManager(Config{Secret: "short"})
	assert.Error(t, err)
}

func TestIssueVerify_RoundTrip(t *testing.T) {
	m := newManager(t, time.Hour)
	id := uuid.New()

	token, err := m.Issue(id, "jane@example.com", "google")
	require.NoError(t, err)

	claims, err := m.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, id.String(), claims.AccountID)
	assert.Equal(t, "jane@example.com", claims.Email)
	assert.Equal(t, "google", claims.Provider)
}

func TestVerify_Expired(t *testing.T) {
	m := newManager(t, 1*time.Millisecond)

	token, err := m.Issue(uuid.New(), "x@example.com", "google")
	require.NoError(t, err)

	time.Sleep(10 * time.Millisecond)

	_, err = m.Verify(token)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestVerify_WrongSecret(t *testing.T) {
	m := newManager(t, time.Hour)
	token, err := m.Issue(uuid.New(), "x@example.com", "google")
	require.NoError(t, err)

	other, err := NewManager(Config{Secret: "ffffffffffffffffffffffffffffffff"})
	require.NoError(t, err)

	_, err = other.Verify(token)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestEstablish_SetsCookie(t *testing.T) {
	m := newManager(t, time.Hour)
	rec := httptest.NewRecorder()

	require.NoError(t, m.Establish(rec, uuid.New(), "jane@example.com", "facebook"))

	res := rec.Result()
	cookies := res.Cookies()
	require.Len(t, cookies, 1)
	c := cookies[0]
	assert.Equal(t, "sg_session", c.Name)
	assert.True(t, c.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, c.SameSite)
	assert.NotEmpty(t, c.Value)

	// la cookie emitida es verificable
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(c)
	claims, err := m.FromRequest(req)
	require.NoError(t, err)
	assert.Equal(t, "jane@example.com", claims.Email)
}

func TestEstablish_Idempotent(t *testing.T) {
	m := newManager(t, time.Hour)
	id := uuid.New()

	rec := httptest.NewRecorder()
	require.NoError(t, m.Establish(rec, id, "jane@example.com", "google"))
	require.NoError(t, m.Establish(rec, id, "jane@example.com", "google"))

	// dos logins seguidos: dos Set-Cookie, la última gana, ambas válidas
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 2)
	for _, c := range cookies {
		_, err := m.Verify(c.Value)
		assert.NoError(t, err)
	}
}

func TestClear_ExpiresCookie(t *testing.T) {
	m := newManager(t, time.Hour)
	rec := httptest.NewRecorder()
	m.Clear(rec)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, -1, cookies[0].MaxAge)
	assert.Empty(t, cookies[0].Value)
}

func TestFromRequest_NoCookie(t *testing.T) {
	m := newManager(t, time.Hour)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	_, err := m.FromRequest(req)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}
