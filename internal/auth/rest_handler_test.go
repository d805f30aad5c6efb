package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T) (*mux.Router, *testEnv) {
	t.Helper()
	env := newTestEnv(t)
	h := NewJSONHandler(env.svc, CookieConfig{
		Secure:     true,
		AccessTTL:  15 * time.Minute,
		RefreshTTL: 30 * 24 * time.Hour,
	})
	r := mux.NewRouter()
	SetupRoutes(r, h, Middleware(env.tokens))
	return r, env
}

func doJSON(t *testing.T, r http.Handler, method, path string, body any, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func cookieByName(t *testing.T, rec *httptest.ResponseRecorder, name string) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	t.Fatalf("cookie %q not set", name)
	return nil
}

func registerBody(addr string) map[string]string {
	return map[string]string{
		"firstName": "Dana",
		"lastName":  "Reyes",
		"email":     addr,
		"password":  testPassword,
		"role":      "CLIENT",
	}
}

func TestRegisterEndpointSetsCookies(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/auth/register", registerBody("dana@example.com"))
	require.Equal(t, http.StatusOK, rec.Code)

	access := cookieByName(t, rec, AccessTokenCookie)
	assert.Equal(t, "/", access.Path)
	assert.True(t, access.HttpOnly)
	assert.True(t, access.Secure)
	assert.Equal(t, http.SameSiteStrictMode, access.SameSite)
	assert.Equal(t, int((15 * time.Minute).Seconds()), access.MaxAge)

	refresh := cookieByName(t, rec, RefreshTokenCookie)
	assert.Equal(t, "/auth/refresh", refresh.Path, "the refresh token travels only to the refresh endpoint")
	assert.True(t, refresh.HttpOnly)
	assert.True(t, refresh.Secure)

	var resp struct {
		User struct {
			Email      string `json:"email"`
			IsVerified bool   `json:"isVerified"`
		} `json:"user"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "dana@example.com", resp.User.Email)
	assert.False(t, resp.User.IsVerified)
}

func TestRegisterEndpointErrors(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/auth/register", registerBody("dana@example.com"))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/auth/register", registerBody("dana@example.com"))
	assert.Equal(t, http.StatusConflict, rec.Code)

	bad := registerBody("other@example.com")
	bad["password"] = "weak"
	rec = doJSON(t, router, http.MethodPost, "/auth/register", bad)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLoginEndpoint(t *testing.T) {
	router, _ := newTestRouter(t)
	doJSON(t, router, http.MethodPost, "/auth/register", registerBody("dana@example.com"))

	rec := doJSON(t, router, http.MethodPost, "/auth/login", map[string]string{
		"email": "dana@example.com", "password": testPassword,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	cookieByName(t, rec, AccessTokenCookie)
	cookieByName(t, rec, RefreshTokenCookie)

	rec = doJSON(t, router, http.MethodPost, "/auth/login", map[string]string{
		"email": "dana@example.com", "password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, rec.Result().Cookies())
}

func TestRefreshEndpoint(t *testing.T) {
	router, _ := newTestRouter(t)
	reg := doJSON(t, router, http.MethodPost, "/auth/register", registerBody("dana@example.com"))
	refresh := cookieByName(t, reg, RefreshTokenCookie)

	rec := doJSON(t, router, http.MethodGet, "/auth/refresh", nil, refresh)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		AccessToken string `json:"accessToken"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.NotEmpty(t, resp.AccessToken)
	assert.Equal(t, resp.AccessToken, cookieByName(t, rec, AccessTokenCookie).Value)

	// The session is young, so the refresh cookie is left alone.
	for _, c := range rec.Result().Cookies() {
		assert.NotEqual(t, RefreshTokenCookie, c.Name)
	}
}

func TestRefreshEndpointWithoutCookie(t *testing.T) {
	router, _ := newTestRouter(t)
	rec := doJSON(t, router, http.MethodGet, "/auth/refresh", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestVerifyEmailEndpoint(t *testing.T) {
	router, env := newTestRouter(t)
	doJSON(t, router, http.MethodPost, "/auth/register", registerBody("dana@example.com"))
	env.waitForMail(t, 1)

	codeID := extractCodeID(t, env.mailer.last().Body, "/verify-email/")

	rec := doJSON(t, router, http.MethodGet, "/auth/email/verify/"+codeID.String(), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		User struct {
			IsVerified bool `json:"isVerified"`
		} `json:"user"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.True(t, resp.User.IsVerified)

	rec = doJSON(t, router, http.MethodGet, "/auth/email/verify/"+codeID.String(), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/auth/email/verify/not-a-uuid", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestForgotPasswordEndpointMasksOutcome(t *testing.T) {
	router, env := newTestRouter(t)
	doJSON(t, router, http.MethodPost, "/auth/register", registerBody("dana@example.com"))
	env.waitForMail(t, 1)

	known := doJSON(t, router, http.MethodPost, "/auth/password/forgot", map[string]string{"email": "dana@example.com"})
	unknown := doJSON(t, router, http.MethodPost, "/auth/password/forgot", map[string]string{"email": "nobody@example.com"})

	assert.Equal(t, http.StatusOK, known.Code)
	assert.Equal(t, http.StatusOK, unknown.Code)
	assert.Equal(t, known.Body.String(), unknown.Body.String())

	// Only the known address got mail.
	assert.Equal(t, 2, env.mailer.count())
}

func TestResetPasswordEndpoint(t *testing.T) {
	router, env := newTestRouter(t)
	doJSON(t, router, http.MethodPost, "/auth/register", registerBody("dana@example.com"))
	env.waitForMail(t, 1)
	doJSON(t, router, http.MethodPost, "/auth/password/forgot", map[string]string{"email": "dana@example.com"})

	codeID := extractCodeID(t, env.mailer.last().Body, "code=")

	rec := doJSON(t, router, http.MethodPost, "/auth/password/reset", map[string]string{
		"verificationCode": codeID.String(),
		"password":         "an entirely new passphrase",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/auth/login", map[string]string{
		"email": "dana@example.com", "password": "an entirely new passphrase",
	})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestLogoutEndpoint(t *testing.T) {
	router, _ := newTestRouter(t)
	reg := doJSON(t, router, http.MethodPost, "/auth/register", registerBody("dana@example.com"))
	access := cookieByName(t, reg, AccessTokenCookie)
	refresh := cookieByName(t, reg, RefreshTokenCookie)

	rec := doJSON(t, router, http.MethodGet, "/auth/logout", nil, access)
	require.Equal(t, http.StatusOK, rec.Code)

	cleared := rec.Result().Cookies()
	require.Len(t, cleared, 2)
	for _, c := range cleared {
		assert.Empty(t, c.Value)
		assert.Negative(t, c.MaxAge)
	}

	// The session is gone, so the old refresh token is dead.
	rec = doJSON(t, router, http.MethodGet, "/auth/refresh", nil, refresh)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLogoutEndpointRequiresAuth(t *testing.T) {
	router, _ := newTestRouter(t)
	rec := doJSON(t, router, http.MethodGet, "/auth/logout", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMiddlewareAcceptsBearerHeader(t *testing.T) {
	env := newTestEnv(t)
	token, err := env.tokens.IssueAccessToken(uuid.New(), uuid.New())
	require.NoError(t, err)

	var called bool
	handler := Middleware(env.tokens)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/users", nil).WithContext(context.Background())
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.True(t, called)
	assert.Equal(t, http.StatusOK, rec.Code)
}
