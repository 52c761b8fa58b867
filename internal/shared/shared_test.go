package shared

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRole(t *testing.T) {
	for _, r := range Roles() {
		parsed, err := ParseRole(" " + string(r) + " ")
		require.NoError(t, err)
		assert.Equal(t, r, parsed)
		assert.True(t, r.Valid())
	}
	parsed, err := ParseRole("ADMIN")
	require.NoError(t, err)
	assert.Equal(t, RoleAdmin, parsed)

	_, err = ParseRole("superuser")
	require.Error(t, err)
	assert.False(t, Role("").Valid())
}

func TestAccessErrorKinds(t *testing.T) {
	assert.Equal(t, http.StatusUnauthorized, Unauthenticated(MsgNoToken, nil).Status())
	assert.Equal(t, http.StatusForbidden, Forbidden("", "").Status())
	assert.Equal(t, http.StatusNotFound, NotFound("Course").Status())
	assert.Equal(t, http.StatusBadRequest, SelfActionForbidden("").Status())
	assert.Equal(t, http.StatusInternalServerError, AccessKind(0).Status())

	nf := NotFound("Course")
	assert.Equal(t, "Course not found", nf.Message)
	assert.ErrorIs(t, nf, ErrNotFound)

	cause := errors.New("signature mismatch")
	wrapped := fmt.Errorf("gate: %w", Unauthenticated(MsgInvalidToken, cause))
	assert.True(t, IsKind(wrapped, KindUnauthenticated))
	assert.False(t, IsKind(wrapped, KindForbidden))
	assert.ErrorIs(t, wrapped, cause)
	assert.False(t, IsKind(errors.New("plain"), KindForbidden))
}

func TestPagination(t *testing.T) {
	assert.Equal(t, Pagination{Page: 1, Limit: 10, Total: 0, TotalPages: 0}, NewPagination(0, 0, 0))
	assert.Equal(t, Pagination{Page: 2, Limit: 100, Total: 250, TotalPages: 3}, NewPagination(2, 500, 250))
	assert.Equal(t, 20, Offset(3, 10))
	assert.Equal(t, 0, Offset(-1, 10))
}

func TestIdentityContext(t *testing.T) {
	_, ok := IdentityFromContext(t.Context())
	assert.False(t, ok)

	ctx := ContextWithIdentity(t.Context(), Identity{ID: 3, Role: RoleStudent})
	id, ok := IdentityFromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, Subject{ID: 3, Role: RoleStudent}, id.Subject())
}

func TestCSRFGuard(t *testing.T) {
	guard := NewCSRFGuard(false)
	var rejected []error
	h := guard.Middleware(func(w http.ResponseWriter, r *http.Request, err error) {
		rejected = append(rejected, err)
		w.WriteHeader(http.StatusForbidden)
	})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "http://shop.test/api/courses", nil))
	require.Equal(t, http.StatusNoContent, rr.Code)
	cookies := rr.Result().Cookies()
	require.Len(t, cookies, 1)
	token := cookies[0].Value
	require.NotEmpty(t, token)

	post := func(cookie, header, origin string) int {
		req := httptest.NewRequest(http.MethodPost, "http://shop.test/api/courses", nil)
		if cookie != "" {
			req.AddCookie(&http.Cookie{Name: CSRFCookieName, Value: cookie})
		}
		if header != "" {
			req.Header.Set(CSRFHeaderName, header)
		}
		if origin != "" {
			req.Header.Set("Origin", origin)
		}
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		return rr.Code
	}

	assert.Equal(t, http.StatusNoContent, post(token, token, ""))
	assert.Equal(t, http.StatusNoContent, post(token, token, "http://shop.test"))
	assert.Equal(t, http.StatusForbidden, post(token, token, "http://evil.test"))
	assert.Equal(t, http.StatusForbidden, post(token, "", ""))
	assert.Equal(t, http.StatusForbidden, post("", token, ""))
	assert.Equal(t, http.StatusForbidden, post(token, "other", ""))

	require.Len(t, rejected, 4)
	assert.ErrorIs(t, rejected[0], ErrCSRFOrigin)
	assert.ErrorIs(t, rejected[1], ErrCSRFTokenMissing)
	assert.ErrorIs(t, rejected[2], ErrCSRFTokenMissing)
	assert.ErrorIs(t, rejected[3], ErrCSRFTokenMismatch)
}

func TestCSRFGuardExempt(t *testing.T) {
	guard := NewCSRFGuard(false)
	guard.Exempt = func(r *http.Request) bool { return r.Header.Get("Authorization") != "" }
	h := guard.Middleware(func(w http.ResponseWriter, r *http.Request, err error) {
		w.WriteHeader(http.StatusForbidden)
	})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodDelete, "/api/enrollments/1", nil)
	req.Header.Set("Authorization", "Bearer x")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusNoContent, rr.Code)
}
