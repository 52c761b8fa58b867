package users

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coursemart/coursemart/internal/rbac"
	"github.com/coursemart/coursemart/internal/shared"
)

type memoryRepo struct {
	mu    sync.Mutex
	users map[int64]User
}

func newMemoryRepo(users ...User) *memoryRepo {
	m := &memoryRepo{users: make(map[int64]User)}
	for _, u := range users {
		m.users[u.ID] = u
	}
	return m
}

func (m *memoryRepo) ListUsers(ctx context.Context) ([]User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []User
	for _, u := range m.users {
		out = append(out, u)
	}
	return out, nil
}

func (m *memoryRepo) GetUser(ctx context.Context, id int64) (User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return User{}, shared.ErrNotFound
	}
	return u, nil
}

func (m *memoryRepo) DeleteUser(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[id]; !ok {
		return shared.ErrNotFound
	}
	delete(m.users, id)
	return nil
}

func (m *memoryRepo) UpdateRole(ctx context.Context, id int64, role shared.Role) (User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return User{}, shared.ErrNotFound
	}
	u.Role = role
	m.users[id] = u
	return u, nil
}

var (
	admin      = shared.Subject{ID: 1, Role: shared.RoleAdmin}
	instructor = shared.Subject{ID: 5, Role: shared.RoleInstructor}
	student    = shared.Subject{ID: 9, Role: shared.RoleStudent}
)

func seededRepo() *memoryRepo {
	now := time.Now()
	return newMemoryRepo(
		User{ID: 1, Name: "Admin", Email: "admin@example.com", Role: shared.RoleAdmin, CreatedAt: now},
		User{ID: 5, Name: "Ines", Email: "ines@example.com", Role: shared.RoleInstructor, CreatedAt: now},
		User{ID: 9, Name: "Sam", Email: "sam@example.com", Role: shared.RoleStudent, CreatedAt: now},
	)
}

func accessKind(t *testing.T, err error) shared.AccessKind {
	t.Helper()
	ae, ok := shared.AsAccessError(err)
	require.True(t, ok, "expected access error, got %v", err)
	return ae.Kind
}

func TestListUsers(t *testing.T) {
	svc := NewService(seededRepo())

	users, err := svc.ListUsers(context.Background(), admin)
	require.NoError(t, err)
	assert.Len(t, users, 3)

	users, err = svc.ListUsers(context.Background(), instructor)
	require.NoError(t, err)
	assert.Len(t, users, 3)

	_, err = svc.ListUsers(context.Background(), student)
	assert.Equal(t, shared.KindForbidden, accessKind(t, err))

	empty, err := NewService(newMemoryRepo()).ListUsers(context.Background(), admin)
	require.NoError(t, err)
	assert.NotNil(t, empty)
}

func TestDeleteUserOrdering(t *testing.T) {
	repo := seededRepo()
	svc := NewService(repo)

	err := svc.DeleteUser(context.Background(), admin, admin.ID)
	assert.Equal(t, shared.KindSelfAction, accessKind(t, err))
	ae, _ := shared.AsAccessError(err)
	assert.Equal(t, http.StatusBadRequest, ae.Status())
	assert.Equal(t, "Cannot delete your own account", ae.Message)

	err = svc.DeleteUser(context.Background(), admin, 404)
	assert.Equal(t, shared.KindNotFound, accessKind(t, err))

	err = svc.DeleteUser(context.Background(), instructor, student.ID)
	assert.Equal(t, shared.KindForbidden, accessKind(t, err))

	require.NoError(t, svc.DeleteUser(context.Background(), admin, student.ID))
	_, err = repo.GetUser(context.Background(), student.ID)
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestUpdateRole(t *testing.T) {
	svc := NewService(seededRepo())

	user, err := svc.UpdateRole(context.Background(), admin, student.ID, shared.RoleInstructor)
	require.NoError(t, err)
	assert.Equal(t, shared.RoleInstructor, user.Role)

	_, err = svc.UpdateRole(context.Background(), admin, student.ID, shared.Role("owner"))
	require.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.UpdateRole(context.Background(), admin, 404, shared.RoleStudent)
	assert.Equal(t, shared.KindNotFound, accessKind(t, err))

	_, err = svc.UpdateRole(context.Background(), student, admin.ID, shared.RoleStudent)
	assert.Equal(t, shared.KindForbidden, accessKind(t, err))
}

type roleResolver map[string]shared.Identity

func (m roleResolver) Resolve(r *http.Request) (shared.Identity, error) {
	id, ok := m[r.Header.Get("Authorization")]
	if !ok {
		return shared.Identity{}, shared.Unauthenticated(shared.MsgNoToken, nil)
	}
	return id, nil
}

func TestAdminRoutes(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	gate := rbac.NewGate(roleResolver{
		"admin":      {ID: admin.ID, Role: shared.RoleAdmin},
		"instructor": {ID: instructor.ID, Role: shared.RoleInstructor},
		"student":    {ID: student.ID, Role: shared.RoleStudent},
	}, logger, nil)
	r := chi.NewRouter()
	r.Route("/api/admin/users", NewHandler(logger, NewService(seededRepo()), gate).MountRoutes)

	cases := []struct {
		name   string
		method string
		path   string
		who    string
		body   string
		want   int
	}{
		{"anonymous list", http.MethodGet, "/api/admin/users/", "", "", http.StatusUnauthorized},
		{"student list", http.MethodGet, "/api/admin/users/", "student", "", http.StatusForbidden},
		{"instructor list", http.MethodGet, "/api/admin/users/", "instructor", "", http.StatusOK},
		{"admin deletes self", http.MethodDelete, "/api/admin/users/1", "admin", "", http.StatusBadRequest},
		{"admin deletes missing", http.MethodDelete, "/api/admin/users/404", "admin", "", http.StatusNotFound},
		{"instructor deletes", http.MethodDelete, "/api/admin/users/9", "instructor", "", http.StatusForbidden},
		{"bad id", http.MethodDelete, "/api/admin/users/x", "admin", "", http.StatusBadRequest},
		{"bad role", http.MethodPut, "/api/admin/users/9/role", "admin", `{"role":"owner"}`, http.StatusBadRequest},
		{"role change", http.MethodPut, "/api/admin/users/9/role", "admin", `{"role":"instructor"}`, http.StatusOK},
		{"admin deletes student", http.MethodDelete, "/api/admin/users/9", "admin", "", http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.path, strings.NewReader(tc.body))
			if tc.who != "" {
				req.Header.Set("Authorization", tc.who)
			}
			rr := httptest.NewRecorder()
			r.ServeHTTP(rr, req)
			assert.Equal(t, tc.want, rr.Code, rr.Body.String())
		})
	}
}
