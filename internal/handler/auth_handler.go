package handler

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"textile-store/internal/middleware"
	"textile-store/internal/session"
	"textile-store/internal/view"

	"github.com/rs/zerolog"
)

// Sessions issues and revokes admin sessions.
type Sessions interface {
	Authenticate(phone, password string) bool
	Issue() (string, *session.Session, error)
	Revoke(ctx context.Context, token string) error
	TTL() time.Duration
}

// AuthHandler handles admin login and logout.
type AuthHandler struct {
	sessions     Sessions
	pages        *view.Renderer
	secureCookie bool
	logger       zerolog.Logger
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(sessions Sessions, pages *view.Renderer, secureCookie bool, logger zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		sessions:     sessions,
		pages:        pages,
		secureCookie: secureCookie,
		logger:       logger.With().Str("handler", "auth").Logger(),
	}
}

// LoginPage handles GET /login.
func (h *AuthHandler) LoginPage(w http.ResponseWriter, r *http.Request) {
	next := safeNext(r.URL.Query().Get("next"))
	if middleware.IsAdmin(r.Context()) {
		http.Redirect(w, r, next, http.StatusSeeOther)
		return
	}

	h.pages.Render(w, http.StatusOK, "login", view.Page{
		Title:   "Login",
		Content: view.Login{Failed: r.URL.Query().Get("error") != "", Next: r.URL.Query().Get("next")},
	})
}

// Login handles POST /login form submissions.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Redirect(w, r, "/login?error=1", http.StatusSeeOther)
		return
	}
	next := safeNext(r.PostFormValue("next"))

	if !h.sessions.Authenticate(strings.TrimSpace(r.PostFormValue("phone")), r.PostFormValue("password")) {
		h.logger.Warn().Str("remote_addr", r.RemoteAddr).Msg("failed admin login")
		target := "/login?error=1"
		if next != "/admin" {
			target += "&next=" + url.QueryEscape(next)
		}
		http.Redirect(w, r, target, http.StatusSeeOther)
		return
	}

	token, s, err := h.sessions.Issue()
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to issue session")
		h.pages.Render(w, http.StatusInternalServerError, "error", view.Page{
			Content: view.ErrorPage{Status: http.StatusInternalServerError, Message: "Something went wrong, please try again."},
		})
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     session.CookieName,
		Value:    token,
		Path:     "/",
		Expires:  s.ExpiresAt,
		MaxAge:   int(h.sessions.TTL().Seconds()),
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})

	h.logger.Info().Str("token_id", s.TokenID.String()).Msg("admin logged in")
	http.Redirect(w, r, next, http.StatusSeeOther)
}

// Logout handles GET /logout.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(session.CookieName); err == nil && cookie.Value != "" {
		if err := h.sessions.Revoke(r.Context(), cookie.Value); err != nil {
			h.logger.Error().Err(err).Msg("failed to revoke session")
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     session.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// safeNext returns target when it is a local path and /admin otherwise.
func safeNext(target string) string {
	if !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") || strings.HasPrefix(target, "/\\") {
		return "/admin"
	}
	return target
}
