package rbac

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/coursemart/coursemart/internal/platform/httpx"
	"github.com/coursemart/coursemart/internal/shared"
)

// PermissionsHandler reports which resource-less actions the caller may perform.
type PermissionsHandler struct {
	gate *Gate
}

// NewPermissionsHandler builds PermissionsHandler instance.
func NewPermissionsHandler(gate *Gate) *PermissionsHandler {
	return &PermissionsHandler{gate: gate}
}

// MountRoutes registers permission routes.
func (h *PermissionsHandler) MountRoutes(r chi.Router) {
	r.With(h.gate.ProtectAll()).Get("/", h.listPermissions)
}

type permissionsResponse struct {
	Role    shared.Role     `json:"role"`
	Actions map[string]bool `json:"actions"`
}

func (h *PermissionsHandler) listPermissions(w http.ResponseWriter, r *http.Request) {
	identity, _ := shared.IdentityFromContext(r.Context())
	httpx.OK(w, http.StatusOK, "", permissionsResponse{
		Role:    identity.Role,
		Actions: Decisions(identity.Subject()),
	})
}
