package auth

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/coursemart/coursemart/internal/platform/httpx"
	"github.com/coursemart/coursemart/internal/rbac"
	"github.com/coursemart/coursemart/internal/shared"
)

// Handler wires HTTP endpoints for authentication flows.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	resolver  *Resolver
	gate      *rbac.Gate
	cookies   CookieWriter
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, resolver *Resolver, gate *rbac.Gate, cookies CookieWriter) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		resolver:  resolver,
		gate:      gate,
		cookies:   cookies,
		validator: validator.New(),
	}
}

// MountRoutes registers auth routes on provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/register", h.handleRegister)
	r.Post("/login", h.handleLogin)
	r.Post("/logout", h.handleLogout)
	r.Get("/logout", h.handleLogout)
	r.With(h.gate.ProtectAll()).Get("/me", h.handleMe)
}

type registerRequest struct {
	Name     string `json:"name" validate:"required,max=255"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Role     string `json:"role" validate:"omitempty,oneof=student instructor"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !httpx.Bind(w, r, h.validator, &req) {
		return
	}
	session, err := h.service.Register(r.Context(), req.Name, req.Email, req.Password, shared.Role(req.Role))
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	h.cookies.Set(w, session.Token)
	httpx.OK(w, http.StatusCreated, "User registered successfully", session)
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !httpx.Bind(w, r, h.validator, &req) {
		return
	}
	session, err := h.service.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	h.cookies.Set(w, session.Token)
	httpx.OK(w, http.StatusOK, "Login successful", session)
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Logout(r.Context(), h.resolver.Token(r)); err != nil {
		h.logger.Warn("revoke token", slog.Any("error", err))
	}
	h.cookies.Clear(w)
	httpx.OK(w, http.StatusOK, "Logout successful. Please remove token from client.", nil)
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	identity, _ := shared.IdentityFromContext(r.Context())
	user, err := h.service.CurrentUser(r.Context(), identity.ID)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.OK(w, http.StatusOK, "", map[string]any{"user": user})
}
