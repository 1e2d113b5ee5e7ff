package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newsdaily-web/internal/storage"
)

func newTestService(t *testing.T) (*Service, *storage.MemoryStore, *time.Time) {
	t.Helper()
	session := storage.NewMemoryStore()
	s, err := NewService(Options{
		Username:  "admin",
		Password:  "admin123",
		JWTSecret: "test-secret",
	}, session)
	require.NoError(t, err)

	clock := time.Date(2026, 10, 15, 10, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return clock }
	return s, session, &clock
}

func TestLoginAndCheck(t *testing.T) {
	s, session, _ := newTestService(t)

	token, err := s.Login("admin", "admin123")
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	flag, ok := session.Get(storage.KeyAdminAuthenticated)
	assert.True(t, ok)
	assert.Equal(t, "true", flag)

	claims, err := s.Check(token)
	require.NoError(t, err)
	assert.Equal(t, "admin", claims.Username)
	assert.NotEmpty(t, claims.ID)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	s, session, _ := newTestService(t)

	_, err := s.Login("admin", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = s.Login("root", "admin123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.Empty(t, session.Keys())
}

func TestSessionExpires(t *testing.T) {
	s, session, clock := newTestService(t)
	token, err := s.Login("admin", "admin123")
	require.NoError(t, err)

	*clock = clock.Add(DefaultSessionDuration - time.Minute)
	_, err = s.Check(token)
	require.NoError(t, err)

	*clock = clock.Add(2 * time.Minute)
	_, err = s.Check(token)
	assert.ErrorIs(t, err, ErrSessionExpired)
	assert.Empty(t, session.Keys())
}

func TestCheckRequiresSessionAndToken(t *testing.T) {
	s, _, _ := newTestService(t)
	token, err := s.Login("admin", "admin123")
	require.NoError(t, err)

	_, err = s.Check("")
	assert.ErrorIs(t, err, ErrNotAuthenticated)
	_, err = s.Check("not-a-token")
	assert.ErrorIs(t, err, ErrNotAuthenticated)

	require.NoError(t, s.Logout())
	_, err = s.Check(token)
	assert.ErrorIs(t, err, ErrNotAuthenticated)
}

func TestNewServiceAcceptsHash(t *testing.T) {
	hash, err := HashPassword("s3cret")
	require.NoError(t, err)

	s, err := NewService(Options{Username: "editor", PasswordHash: hash, JWTSecret: "x"}, storage.NewMemoryStore())
	require.NoError(t, err)
	_, err = s.Login("editor", "s3cret")
	assert.NoError(t, err)
	assert.Equal(t, DefaultSessionDuration, s.SessionDuration())

	_, err = NewService(Options{Username: "editor", JWTSecret: "x"}, storage.NewMemoryStore())
	assert.Error(t, err)
}
