package users

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/coursemart/coursemart/internal/platform/httpx"
	"github.com/coursemart/coursemart/internal/rbac"
	"github.com/coursemart/coursemart/internal/shared"
)

// Handler manages user management endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	gate      *rbac.Gate
	validator *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, gate *rbac.Gate) *Handler {
	return &Handler{logger: logger, service: service, gate: gate, validator: validator.New()}
}

// MountRoutes registers /api/admin/users routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.gate.Protect(shared.RoleAdmin, shared.RoleInstructor))
		r.Use(h.gate.Require(rbac.ActionAdminAccess))
		r.Get("/", h.listUsers)
		r.Delete("/{id}", h.deleteUser)
		r.Put("/{id}/role", h.updateRole)
	})
}

type roleRequest struct {
	Role string `json:"role" validate:"required,oneof=admin instructor student"`
}

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.ListUsers(r.Context(), subject(r))
	if err != nil {
		h.fail(w, r, "list users failed", err)
		return
	}
	httpx.OK(w, http.StatusOK, "", users)
}

func (h *Handler) deleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := userID(w, r)
	if !ok {
		return
	}
	if err := h.service.DeleteUser(r.Context(), subject(r), id); err != nil {
		h.fail(w, r, "delete user failed", err)
		return
	}
	httpx.OK(w, http.StatusOK, "User deleted successfully", nil)
}

func (h *Handler) updateRole(w http.ResponseWriter, r *http.Request) {
	id, ok := userID(w, r)
	if !ok {
		return
	}
	var req roleRequest
	if !httpx.Bind(w, r, h.validator, &req) {
		return
	}
	user, err := h.service.UpdateRole(r.Context(), subject(r), id, shared.Role(req.Role))
	if err != nil {
		h.fail(w, r, "update role failed", err)
		return
	}
	httpx.OK(w, http.StatusOK, "User role updated successfully", user)
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, msg string, err error) {
	if _, ok := shared.AsAccessError(err); ok {
		h.gate.Reject(w, r, err)
		return
	}
	h.logger.Error(msg, slog.Any("error", err))
	httpx.RespondError(w, h.logger, err)
}

func userID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.Reject(w, http.StatusBadRequest, "Invalid user ID", "")
		return 0, false
	}
	return id, true
}

func subject(r *http.Request) shared.Subject {
	identity, _ := shared.IdentityFromContext(r.Context())
	return identity.Subject()
}
