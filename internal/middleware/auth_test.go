package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"textile-store/internal/model"
	"textile-store/internal/session"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockSessionVerifier struct {
	mock.Mock
}

func (m *MockSessionVerifier) Verify(ctx context.Context, token string) (*session.Session, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*session.Session), args.Error(1)
}

const testAPIKey = "test-api-key-12345"

func TestAuthenticator_Identify(t *testing.T) {
	valid := &session.Session{TokenID: uuid.New(), Subject: "9876543210", ExpiresAt: time.Now().Add(time.Hour)}

	tests := []struct {
		name          string
		cookie        string
		apiKey        string
		setupMock     func(*MockSessionVerifier)
		expectAdmin   bool
		expectSession bool
	}{
		{
			name:        "Anonymous",
			setupMock:   func(m *MockSessionVerifier) {},
			expectAdmin: false,
		},
		{
			name:   "Valid session cookie",
			cookie: "good-token",
			setupMock: func(m *MockSessionVerifier) {
				m.On("Verify", mock.Anything, "good-token").Return(valid, nil)
			},
			expectAdmin:   true,
			expectSession: true,
		},
		{
			name:   "Revoked session cookie",
			cookie: "old-token",
			setupMock: func(m *MockSessionVerifier) {
				m.On("Verify", mock.Anything, "old-token").Return(nil, session.ErrRevoked)
			},
			expectAdmin: false,
		},
		{
			name:   "Verification failure",
			cookie: "token",
			setupMock: func(m *MockSessionVerifier) {
				m.On("Verify", mock.Anything, "token").Return(nil, errors.New("connection refused"))
			},
			expectAdmin: false,
		},
		{
			name:        "Valid API key",
			apiKey:      testAPIKey,
			setupMock:   func(m *MockSessionVerifier) {},
			expectAdmin: true,
		},
		{
			name:        "Invalid API key",
			apiKey:      "wrong",
			setupMock:   func(m *MockSessionVerifier) {},
			expectAdmin: false,
		},
		{
			name:   "Forged cookie with valid API key",
			cookie: "forged",
			apiKey: testAPIKey,
			setupMock: func(m *MockSessionVerifier) {
				m.On("Verify", mock.Anything, "forged").Return(nil, session.ErrInvalidToken)
			},
			expectAdmin: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verifier := &MockSessionVerifier{}
			tt.setupMock(verifier)
			auth := NewAuthenticator(verifier, testAPIKey, zerolog.Nop())

			var admin, hasSession bool
			handler := auth.Identify(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				admin = IsAdmin(r.Context())
				_, hasSession = SessionFromContext(r.Context())
			}))

			req := httptest.NewRequest(http.MethodGet, "/admin", nil)
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: session.CookieName, Value: tt.cookie})
			}
			if tt.apiKey != "" {
				req.Header.Set(APIKeyHeader, tt.apiKey)
			}

			handler.ServeHTTP(httptest.NewRecorder(), req)

			assert.Equal(t, tt.expectAdmin, admin)
			assert.Equal(t, tt.expectSession, hasSession)
			verifier.AssertExpectations(t)
		})
	}
}

func TestAuthenticator_EmptyAPIKeyDisablesKeyAccess(t *testing.T) {
	auth := NewAuthenticator(&MockSessionVerifier{}, "", zerolog.Nop())

	var admin bool
	handler := auth.Identify(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		admin = IsAdmin(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/orders", nil)
	req.Header.Set(APIKeyHeader, "anything")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	assert.False(t, admin)
}

func adminContext(r *http.Request) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), adminKey, true))
}

func TestRequireAdminPage(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	t.Run("Anonymous is redirected to login", func(t *testing.T) {
		w := httptest.NewRecorder()
		RequireAdminPage(next).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin/orders?status=Pending", nil))

		assert.Equal(t, http.StatusSeeOther, w.Code)
		assert.Equal(t, "/login?next=%2Fadmin%2Forders%3Fstatus%3DPending", w.Header().Get("Location"))
	})

	t.Run("Admin passes", func(t *testing.T) {
		w := httptest.NewRecorder()
		RequireAdminPage(next).ServeHTTP(w, adminContext(httptest.NewRequest(http.MethodGet, "/admin", nil)))

		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestRequireAdminAPI(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	t.Run("Anonymous gets 401", func(t *testing.T) {
		w := httptest.NewRecorder()
		RequireAdminAPI(next).ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/api/products/x", nil))

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		var resp model.ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, model.ErrCodeUnauthorised, resp.Error)
	})

	t.Run("Admin passes", func(t *testing.T) {
		w := httptest.NewRecorder()
		RequireAdminAPI(next).ServeHTTP(w, adminContext(httptest.NewRequest(http.MethodGet, "/api/orders", nil)))

		assert.Equal(t, http.StatusOK, w.Code)
	})
}
