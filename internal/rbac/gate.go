package rbac

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/coursemart/coursemart/internal/platform/httpx"
	"github.com/coursemart/coursemart/internal/shared"
)

// SessionResolver establishes the caller identity of a request.
type SessionResolver interface {
	Resolve(r *http.Request) (shared.Identity, error)
}

// RejectionRecorder counts rejections by status code.
type RejectionRecorder interface {
	ObserveRejection(status int)
}

// Gate wires authentication and coarse role filtering into HTTP handlers.
// Fine-grained, resource-aware checks go through Authorize once the handler
// has loaded the resource.
type Gate struct {
	resolver SessionResolver
	logger   *slog.Logger
	recorder RejectionRecorder
}

// NewGate constructs a Gate. recorder may be nil.
func NewGate(resolver SessionResolver, logger *slog.Logger, recorder RejectionRecorder) *Gate {
	return &Gate{resolver: resolver, logger: logger, recorder: recorder}
}

// Protect authenticates the request and admits only the listed roles.
// With no roles every authenticated caller is admitted.
func (g *Gate) Protect(roles ...shared.Role) func(http.Handler) http.Handler {
	allowed := make(map[shared.Role]struct{}, len(roles))
	names := make([]string, 0, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
		names = append(names, string(r))
	}
	detail := ""
	if len(names) > 0 {
		detail = "required role: " + strings.Join(names, ", ")
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, err := g.resolver.Resolve(r)
			if err != nil {
				g.Reject(w, r, err)
				return
			}
			if len(allowed) > 0 {
				if _, ok := allowed[identity.Role]; !ok {
					g.Reject(w, r, shared.Forbidden(shared.MsgForbidden, detail))
					return
				}
			}
			next.ServeHTTP(w, r.WithContext(shared.ContextWithIdentity(r.Context(), identity)))
		})
	}
}

// ProtectAll admits any authenticated caller.
func (g *Gate) ProtectAll() func(http.Handler) http.Handler {
	return g.Protect()
}

// Require admits callers for which a resource-less action is allowed. It must
// run after Protect.
func (g *Gate) Require(action Action) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := Authorize(r.Context(), action, nil); err != nil {
				g.Reject(w, r, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Identify attaches the caller identity when a valid session is present and
// otherwise lets the request through anonymously. Used on public routes whose
// output depends on the caller.
func (g *Gate) Identify() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, err := g.resolver.Resolve(r)
			if err == nil {
				r = r.WithContext(shared.ContextWithIdentity(r.Context(), identity))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Reject writes err as a caller-safe rejection.
func (g *Gate) Reject(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	if ae, ok := shared.AsAccessError(err); ok {
		status = ae.Status()
	}
	if g.recorder != nil {
		g.recorder.ObserveRejection(status)
	}
	if g.logger != nil && status == http.StatusInternalServerError {
		g.logger.Error("access gate", slog.String("path", r.URL.Path), slog.Any("error", err))
	}
	httpx.RespondError(w, g.logger, err)
}

// Authorize runs the fine check for the caller stored in ctx.
func Authorize(ctx context.Context, action Action, res Resource) error {
	identity, ok := shared.IdentityFromContext(ctx)
	if !ok {
		return shared.Unauthenticated(shared.MsgNoToken, nil)
	}
	return Check(identity.Subject(), action, res)
}

// Can is Authorize returning a bool.
func Can(ctx context.Context, action Action, res Resource) bool {
	return Authorize(ctx, action, res) == nil
}
