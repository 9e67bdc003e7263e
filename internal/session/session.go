// Package session issues and verifies admin session tokens.
//
// A session is an HS256 JWT carrying a random token ID. Logging out records
// that ID in a revocation list until the token would have expired anyway.
package session

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"textile-store/internal/config"
	"textile-store/internal/repository"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

// CookieName is the cookie carrying the session token.
const CookieName = "admin_session"

var (
	// ErrInvalidToken is returned for malformed, forged or expired tokens.
	ErrInvalidToken = errors.New("invalid session token")
	// ErrRevoked is returned for tokens that were logged out.
	ErrRevoked = errors.New("session has been revoked")
)

// Session describes a verified admin session.
type Session struct {
	TokenID   uuid.UUID
	Subject   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Manager issues, verifies and revokes admin sessions.
type Manager struct {
	secret       []byte
	ttl          time.Duration
	phone        string
	passwordHash []byte
	revocations  repository.SessionRepository
	now          func() time.Time
	logger       zerolog.Logger
}

// NewManager creates a session manager for the configured admin account.
func NewManager(cfg config.AuthConfig, revocations repository.SessionRepository, logger zerolog.Logger) *Manager {
	return &Manager{
		secret:       []byte(cfg.SessionSecret),
		ttl:          cfg.SessionTTL,
		phone:        cfg.AdminPhone,
		passwordHash: []byte(cfg.AdminPasswordHash),
		revocations:  revocations,
		now:          time.Now,
		logger:       logger.With().Str("component", "session").Logger(),
	}
}

// TTL returns the lifetime of issued sessions.
func (m *Manager) TTL() time.Duration {
	return m.ttl
}

// Authenticate reports whether phone and password match the admin account.
func (m *Manager) Authenticate(phone, password string) bool {
	phoneOK := subtle.ConstantTimeCompare([]byte(phone), []byte(m.phone)) == 1
	// bcrypt runs even when the phone is wrong.
	passwordOK := bcrypt.CompareHashAndPassword(m.passwordHash, []byte(password)) == nil
	return phoneOK && passwordOK
}

// Issue creates a signed session token for the admin.
func (m *Manager) Issue() (string, *Session, error) {
	now := m.now().UTC().Truncate(time.Second)
	s := &Session{
		TokenID:   uuid.New(),
		Subject:   m.phone,
		IssuedAt:  now,
		ExpiresAt: now.Add(m.ttl),
	}

	claims := jwt.RegisteredClaims{
		ID:        s.TokenID.String(),
		Subject:   s.Subject,
		IssuedAt:  jwt.NewNumericDate(s.IssuedAt),
		ExpiresAt: jwt.NewNumericDate(s.ExpiresAt),
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", nil, fmt.Errorf("failed to sign session token: %w", err)
	}

	m.logger.Info().Str("token_id", s.TokenID.String()).Time("expires_at", s.ExpiresAt).Msg("session issued")
	return token, s, nil
}

// parse validates the signature and expiry of token.
func (m *Manager) parse(token string) (*Session, error) {
	var claims jwt.RegisteredClaims
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	_, err := parser.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return m.secret, nil
	})
	if err != nil {
		return nil, ErrInvalidToken
	}
	if claims.ExpiresAt == nil || claims.Subject != m.phone {
		return nil, ErrInvalidToken
	}

	id, err := uuid.Parse(claims.ID)
	if err != nil {
		return nil, ErrInvalidToken
	}

	s := &Session{
		TokenID:   id,
		Subject:   claims.Subject,
		ExpiresAt: claims.ExpiresAt.Time,
	}
	if claims.IssuedAt != nil {
		s.IssuedAt = claims.IssuedAt.Time
	}
	return s, nil
}

// Verify returns the session for a valid, unexpired and unrevoked token.
func (m *Manager) Verify(ctx context.Context, token string) (*Session, error) {
	s, err := m.parse(token)
	if err != nil {
		return nil, err
	}

	revoked, err := m.revocations.IsRevoked(ctx, s.TokenID)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, ErrRevoked
	}
	return s, nil
}

// Revoke invalidates token until it expires. Tokens that are already
// invalid are ignored.
func (m *Manager) Revoke(ctx context.Context, token string) error {
	s, err := m.parse(token)
	if err != nil {
		return nil
	}
	if err := m.revocations.Revoke(ctx, s.TokenID, s.ExpiresAt); err != nil {
		return err
	}
	m.logger.Info().Str("token_id", s.TokenID.String()).Msg("session revoked")
	return nil
}

// PruneRevoked drops revocations for tokens that have expired.
func (m *Manager) PruneRevoked(ctx context.Context) (int64, error) {
	return m.revocations.PruneExpired(ctx, m.now())
}
