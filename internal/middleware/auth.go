package middleware

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"net/url"

	"textile-store/internal/model"
	"textile-store/internal/session"

	"github.com/rs/zerolog"
)

// APIKeyHeader carries the key used by machine clients of the admin API.
const APIKeyHeader = "X-API-Key"

// SessionVerifier checks admin session tokens.
type SessionVerifier interface {
	Verify(ctx context.Context, token string) (*session.Session, error)
}

type contextKey int

const (
	adminKey contextKey = iota
	sessionKey
)

// Authenticator identifies admin requests by session cookie or API key.
type Authenticator struct {
	sessions SessionVerifier
	apiKey   string
	logger   zerolog.Logger
}

// NewAuthenticator creates an authenticator. An empty apiKey disables
// API key access.
func NewAuthenticator(sessions SessionVerifier, apiKey string, logger zerolog.Logger) *Authenticator {
	return &Authenticator{
		sessions: sessions,
		apiKey:   apiKey,
		logger:   logger.With().Str("component", "auth").Logger(),
	}
}

// Identify marks the request context as admin when it carries a valid
// session or API key. It never rejects a request.
func (a *Authenticator) Identify(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if cookie, err := r.Cookie(session.CookieName); err == nil && cookie.Value != "" {
			s, err := a.sessions.Verify(ctx, cookie.Value)
			switch {
			case err == nil:
				ctx = context.WithValue(ctx, sessionKey, s)
				ctx = context.WithValue(ctx, adminKey, true)
			case errors.Is(err, session.ErrInvalidToken), errors.Is(err, session.ErrRevoked):
				a.logger.Debug().Err(err).Str("path", r.URL.Path).Msg("session rejected")
			default:
				a.logger.Error().Err(err).Str("path", r.URL.Path).Msg("failed to verify session")
			}
		}

		if !IsAdmin(ctx) {
			if key := r.Header.Get(APIKeyHeader); key != "" {
				if a.validKey(key) {
					ctx = context.WithValue(ctx, adminKey, true)
				} else {
					a.logger.Warn().
						Str("path", r.URL.Path).
						Str("provided_key", key[:min(4, len(key))]).
						Msg("invalid API key")
				}
			}
		}

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (a *Authenticator) validKey(key string) bool {
	if a.apiKey == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(key), []byte(a.apiKey)) == 1
}

// RequireAdminPage redirects requests that are not admin to the login page.
func RequireAdminPage(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !IsAdmin(r.Context()) {
			http.Redirect(w, r, "/login?next="+url.QueryEscape(r.URL.RequestURI()), http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdminAPI rejects requests that are not admin with 401.
func RequireAdminAPI(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !IsAdmin(r.Context()) {
			writeError(w, http.StatusUnauthorized, model.ErrCodeUnauthorised, model.ErrUnauthorised.Message)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// IsAdmin reports whether Identify authenticated the request.
func IsAdmin(ctx context.Context) bool {
	admin, _ := ctx.Value(adminKey).(bool)
	return admin
}

// SessionFromContext returns the admin session, if the request used one.
func SessionFromContext(ctx context.Context) (*session.Session, bool) {
	s, ok := ctx.Value(sessionKey).(*session.Session)
	return s, ok
}
