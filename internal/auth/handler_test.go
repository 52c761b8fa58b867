package auth

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/coursemart/coursemart/internal/platform/httpx"
	"github.com/coursemart/coursemart/internal/rbac"
	"github.com/coursemart/coursemart/internal/shared"
)

func newTestRouter(t *testing.T) (http.Handler, *Codec) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	codec := newTestCodec(t, &fakeClock{t: time.Now()})
	resolver := NewResolver(codec)
	gate := rbac.NewGate(resolver, logger, nil)
	svc := NewService(newMemoryRepo(), codec, nil, bcrypt.MinCost)
	handler := NewHandler(logger, svc, resolver, gate, NewCookieWriter("", false, codec.TTL()))

	r := chi.NewRouter()
	r.Route("/api/auth", handler.MountRoutes)
	return r, codec
}

func doJSON(t *testing.T, h http.Handler, method, path, body string, cookies ...*http.Cookie) (*httptest.ResponseRecorder, httpx.Envelope) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	var env httpx.Envelope
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env), rr.Body.String())
	return rr, env
}

func TestRegisterLoginMeFlow(t *testing.T) {
	router, _ := newTestRouter(t)

	rr, env := doJSON(t, router, http.MethodPost, "/api/auth/register",
		`{"name":"Ada","email":"ada@example.com","password":"secret1"}`)
	require.Equal(t, http.StatusCreated, rr.Code)
	assert.True(t, env.Success)
	assert.Equal(t, "User registered successfully", env.Message)

	rr, env = doJSON(t, router, http.MethodPost, "/api/auth/login",
		`{"email":"ada@example.com","password":"secret1"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "Login successful", env.Message)

	var session *http.Cookie
	for _, c := range rr.Result().Cookies() {
		if c.Name == DefaultCookieName {
			session = c
		}
	}
	require.NotNil(t, session)
	assert.True(t, session.HttpOnly)

	rr, env = doJSON(t, router, http.MethodGet, "/api/auth/me", "", session)
	require.Equal(t, http.StatusOK, rr.Code)
	data, ok := env.Data.(map[string]any)
	require.True(t, ok)
	user, ok := data["user"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "ada@example.com", user["email"])
	assert.Equal(t, "student", user["role"])
	assert.NotContains(t, user, "password")
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	router, _ := newTestRouter(t)
	rr, env := doJSON(t, router, http.MethodPost, "/api/auth/login",
		`{"email":"ada@example.com","password":"nope"}`)
	require.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.False(t, env.Success)
	assert.Equal(t, "Invalid email or password", env.Message)
}

func TestRegisterValidation(t *testing.T) {
	router, _ := newTestRouter(t)

	rr, env := doJSON(t, router, http.MethodPost, "/api/auth/register",
		`{"name":"Ada","email":"not-an-email","password":"secret1"}`)
	require.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, env.Error, "Email")

	rr, _ = doJSON(t, router, http.MethodPost, "/api/auth/register",
		`{"name":"Root","email":"root@example.com","password":"secret1","role":"admin"}`)
	require.Equal(t, http.StatusBadRequest, rr.Code)

	_, _ = doJSON(t, router, http.MethodPost, "/api/auth/register",
		`{"name":"Ada","email":"ada@example.com","password":"secret1"}`)
	rr, _ = doJSON(t, router, http.MethodPost, "/api/auth/register",
		`{"name":"Ada","email":"ada@example.com","password":"secret1"}`)
	require.Equal(t, http.StatusConflict, rr.Code)
}

func TestMeRequiresSession(t *testing.T) {
	router, _ := newTestRouter(t)

	rr, env := doJSON(t, router, http.MethodGet, "/api/auth/me", "")
	require.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, shared.MsgNoToken, env.Message)

	rr, env = doJSON(t, router, http.MethodGet, "/api/auth/me", "",
		&http.Cookie{Name: DefaultCookieName, Value: "expired-or-forged"})
	require.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, shared.MsgInvalidToken, env.Message)
}

func TestMeForDeletedAccount(t *testing.T) {
	router, codec := newTestRouter(t)
	token, err := codec.Issue(404, "ghost@example.com", shared.RoleStudent)
	require.NoError(t, err)

	rr, env := doJSON(t, router, http.MethodGet, "/api/auth/me", "",
		&http.Cookie{Name: DefaultCookieName, Value: token})
	require.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "User not found", env.Message)
}

func TestLogoutClearsCookie(t *testing.T) {
	router, _ := newTestRouter(t)
	for _, method := range []string{http.MethodPost, http.MethodGet} {
		rr, env := doJSON(t, router, method, "/api/auth/logout", "")
		require.Equal(t, http.StatusOK, rr.Code)
		assert.True(t, env.Success)
		cookies := rr.Result().Cookies()
		require.Len(t, cookies, 1)
		assert.Equal(t, DefaultCookieName, cookies[0].Name)
		assert.Less(t, cookies[0].MaxAge, 0)
	}
}
