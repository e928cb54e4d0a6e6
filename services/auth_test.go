package services

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testJWTSecret = "test-secret-key-for-jwt-signing-minimum-32-bytes"

func TestAuthService_IssueAndVerify(t *testing.T) {
	auth := NewAuthService(testJWTSecret, "https://auth.example.com")

	token, err := auth.IssueToken(Identity{ExternalID: "user_123", Email: "ada@example.com", FirstName: "Ada"}, time.Hour)
	require.NoError(t, err)

	identity, err := auth.VerifyToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user_123", identity.ExternalID)
	assert.Equal(t, "ada@example.com", identity.Email)
	assert.Equal(t, "Ada", identity.FirstName)
}

func TestAuthService_VerifyRejects(t *testing.T) {
	auth := NewAuthService(testJWTSecret, "https://auth.example.com")

	expired, err := auth.IssueToken(Identity{ExternalID: "user_123"}, -time.Minute)
	require.NoError(t, err)

	otherIssuer, err := NewAuthService(testJWTSecret, "https://evil.example.com").IssueToken(Identity{ExternalID: "user_123"}, time.Hour)
	require.NoError(t, err)

	otherSecret, err := NewAuthService("another-secret-key-that-is-long-enough", "https://auth.example.com").IssueToken(Identity{ExternalID: "user_123"}, time.Hour)
	require.NoError(t, err)

	noSubject, err := auth.IssueToken(Identity{}, time.Hour)
	require.NoError(t, err)

	noneAlg, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": "user_123", "iss": "https://auth.example.com"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{name: "garbage", token: "not-a-jwt"},
		{name: "expired", token: expired},
		{name: "wrong issuer", token: otherIssuer},
		{name: "wrong secret", token: otherSecret},
		{name: "no subject", token: noSubject},
		{name: "alg none", token: noneAlg},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			identity, err := auth.VerifyToken(tt.token)
			assert.Error(t, err)
			assert.Nil(t, identity)
		})
	}
}

func TestAuthService_NoIssuerConfigured(t *testing.T) {
	token, err := NewAuthService(testJWTSecret, "https://any.example.com").IssueToken(Identity{ExternalID: "u"}, time.Hour)
	require.NoError(t, err)

	identity, err := NewAuthService(testJWTSecret, "").VerifyToken(token)
	require.NoError(t, err)
	assert.Equal(t, "u", identity.ExternalID)
}

func TestAuthMiddleware(t *testing.T) {
	auth := NewAuthService(testJWTSecret, "")
	token, err := auth.IssueToken(Identity{ExternalID: "user_123"}, time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name       string
		setup      func(r *http.Request)
		wantStatus int
	}{
		{
			name:       "bearer header",
			setup:      func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) },
			wantStatus: http.StatusOK,
		},
		{
			name:       "lower case scheme",
			setup:      func(r *http.Request) { r.Header.Set("Authorization", "bearer "+token) },
			wantStatus: http.StatusOK,
		},
		{
			name:       "session cookie",
			setup:      func(r *http.Request) { r.AddCookie(&http.Cookie{Name: SessionCookieName, Value: token}) },
			wantStatus: http.StatusOK,
		},
		{
			name:       "missing token",
			setup:      func(r *http.Request) {},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "basic auth",
			setup:      func(r *http.Request) { r.Header.Set("Authorization", "Basic dXNlcjpwYXNz") },
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "tampered token",
			setup:      func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token+"x") },
			wantStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen *Identity
			handler := auth.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen = IdentityFromContext(r.Context())
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(http.MethodGet, "/api/user/profile", nil)
			tt.setup(req)
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantStatus == http.StatusOK {
				require.NotNil(t, seen)
				assert.Equal(t, "user_123", seen.ExternalID)
			} else {
				assert.Nil(t, seen)
				assert.JSONEq(t, `{"error":"Unauthorized"}`, w.Body.String())
			}
		})
	}
}

func TestIdentityFromContext_Missing(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Nil(t, IdentityFromContext(req.Context()))
}
