// Package auth is the admin panel gate. A successful login records a flag
// and the login time in the ephemeral store and hands back a signed token
// for the session cookie; every protected page checks both.
package auth

import (
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"

	"newsdaily-web/internal/storage"
)

const (
	DefaultSessionDuration = 2 * time.Hour
	issuer                 = "newsdaily-web"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNotAuthenticated   = errors.New("not authenticated")
	ErrSessionExpired     = errors.New("session expired")
)

type Options struct {
	Username string
	// PasswordHash is a bcrypt hash. When empty, Password is hashed at
	// construction.
	PasswordHash    string
	Password        string
	JWTSecret       string
	SessionDuration time.Duration
}

type Service struct {
	username        string
	passwordHash    []byte
	jwtSecret       []byte
	sessionDuration time.Duration
	session         storage.Store
	now             func() time.Time
}

type Claims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

func NewService(opts Options, session storage.Store) (*Service, error) {
	if opts.JWTSecret == "" {
		return nil, errors.New("auth: jwt secret is required")
	}
	hash := opts.PasswordHash
	if hash == "" {
		if opts.Password == "" {
			return nil, errors.New("auth: admin password or password hash is required")
		}
		h, err := HashPassword(opts.Password)
		if err != nil {
			return nil, errors.Wrap(err, "auth: hash admin password")
		}
		hash = h
	}
	duration := opts.SessionDuration
	if duration <= 0 {
		duration = DefaultSessionDuration
	}
	return &Service{
		username:        opts.Username,
		passwordHash:    []byte(hash),
		jwtSecret:       []byte(opts.JWTSecret),
		sessionDuration: duration,
		session:         session,
		now:             time.Now,
	}, nil
}

// Login checks the credentials, opens the session and returns the token
// for the session cookie.
func (s *Service) Login(username, password string) (string, error) {
	if username != s.username || !CheckPassword(password, string(s.passwordHash)) {
		return "", ErrInvalidCredentials
	}

	now := s.now()
	claims := &Claims{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.sessionDuration)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    issuer,
			Subject:   username,
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
	if err != nil {
		return "", errors.Wrap(err, "sign session token")
	}

	if err := s.session.Set(storage.KeyAdminAuthenticated, "true"); err != nil {
		return "", err
	}
	if err := s.session.Set(storage.KeyLoginTime, strconv.FormatInt(now.UnixMilli(), 10)); err != nil {
		return "", err
	}
	return token, nil
}

// Check validates the token and the session. An expired session is closed
// before ErrSessionExpired is returned.
func (s *Service) Check(token string) (*Claims, error) {
	if token == "" {
		return nil, ErrNotAuthenticated
	}

	flag, ok := s.session.Get(storage.KeyAdminAuthenticated)
	if !ok || flag != "true" {
		return nil, ErrNotAuthenticated
	}
	raw, ok := s.session.Get(storage.KeyLoginTime)
	loginMillis, err := strconv.ParseInt(raw, 10, 64)
	if !ok || err != nil {
		_ = s.Logout()
		return nil, ErrNotAuthenticated
	}
	if s.now().Sub(time.UnixMilli(loginMillis)) > s.sessionDuration {
		_ = s.Logout()
		return nil, ErrSessionExpired
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.jwtSecret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil || !parsed.Valid {
		return nil, ErrNotAuthenticated
	}
	return claims, nil
}

// Logout closes the admin session.
func (s *Service) Logout() error {
	if err := s.session.Remove(storage.KeyAdminAuthenticated); err != nil {
		return err
	}
	return s.session.Remove(storage.KeyLoginTime)
}

// SessionDuration is how long a login stays valid.
func (s *Service) SessionDuration() time.Duration {
	return s.sessionDuration
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

func CheckPassword(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}
