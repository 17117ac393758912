package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/facturier/facturier/internal/auth"
	"github.com/facturier/facturier/internal/config"
)

type stubVerifier struct {
	user     *auth.User
	err      error
	gotToken string
}

func (s *stubVerifier) GetUser(ctx context.Context, accessToken string) (*auth.User, error) {
	s.gotToken = accessToken
	if s.err != nil {
		return nil, s.err
	}
	return s.user, nil
}

func captureUser(t *testing.T, target *User) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := UserFromContext(r.Context())
		require.True(t, ok, "expected a user in the request context")
		*target = user
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequireUser_DisabledInjectsDevUser(t *testing.T) {
	var got User
	handler := RequireUser(config.AuthConfig{Enabled: false}, nil)(captureUser(t, &got))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, DevUserID, got.ID)
	assert.Equal(t, "dev@localhost", got.Email)
	assert.Empty(t, got.Token)
}

func TestRequireUser_DisabledHonorsUserIDHeader(t *testing.T) {
	override := uuid.New()

	var got User
	handler := RequireUser(config.AuthConfig{Enabled: false}, nil)(captureUser(t, &got))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-User-ID", override.String())
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, override, got.ID)
}

func TestRequireUser_MissingHeader(t *testing.T) {
	verifier := &stubVerifier{}
	handler := RequireUser(config.AuthConfig{Enabled: true}, verifier)(captureUser(t, &User{}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusUnauthorized, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "missing authorization header", body["error"])
	assert.Empty(t, verifier.gotToken)
}

func TestRequireUser_MalformedHeader(t *testing.T) {
	handler := RequireUser(config.AuthConfig{Enabled: true}, &stubVerifier{})(captureUser(t, &User{}))

	for _, header := range []string{"token-without-scheme", "Basic abc123"} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", header)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code, "header %q", header)
	}
}

func TestRequireUser_ValidToken(t *testing.T) {
	userID := uuid.New()
	verifier := &stubVerifier{user: &auth.User{ID: userID.String(), Email: "amelie@example.com"}}

	var got User
	handler := RequireUser(config.AuthConfig{Enabled: true}, verifier)(captureUser(t, &got))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer tok-123")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "tok-123", verifier.gotToken)
	assert.Equal(t, userID, got.ID)
	assert.Equal(t, "amelie@example.com", got.Email)
	assert.Equal(t, "tok-123", got.Token)
}

func TestRequireUser_BearerSchemeIsCaseInsensitive(t *testing.T) {
	verifier := &stubVerifier{user: &auth.User{ID: uuid.NewString(), Email: "x@example.com"}}

	var got User
	handler := RequireUser(config.AuthConfig{Enabled: true}, verifier)(captureUser(t, &got))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "bearer tok-abc")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "tok-abc", got.Token)
}

func TestRequireUser_ExpiredToken(t *testing.T) {
	verifier := &stubVerifier{err: auth.ErrUnauthorized}
	handler := RequireUser(config.AuthConfig{Enabled: true}, verifier)(captureUser(t, &User{}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer stale")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "invalid or expired token", body["error"])
}

func TestRequireUser_IdentityServiceDown(t *testing.T) {
	verifier := &stubVerifier{err: errors.New("connection refused")}
	handler := RequireUser(config.AuthConfig{Enabled: true}, verifier)(captureUser(t, &User{}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer tok")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRequireUser_NonUUIDIdentity(t *testing.T) {
	verifier := &stubVerifier{user: &auth.User{ID: "not-a-uuid", Email: "x@example.com"}}
	handler := RequireUser(config.AuthConfig{Enabled: true}, verifier)(captureUser(t, &User{}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer tok")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCORS_AllowedOrigin(t *testing.T) {
	handler := CORS([]string{"http://localhost:5173"})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "DELETE")
}

func TestCORS_UnknownOrigin(t *testing.T) {
	handler := CORS([]string{"http://localhost:5173"})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORS_Preflight(t *testing.T) {
	handler := CORS([]string{"*"})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("preflight must not reach the next handler")
	}))

	req := httptest.NewRequest(http.MethodOptions, "/", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
}
