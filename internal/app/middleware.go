package app

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/unrolled/secure"

	"github.com/coursemart/coursemart/internal/observability"
	"github.com/coursemart/coursemart/internal/platform/httpx"
	"github.com/coursemart/coursemart/internal/shared"
)

// MiddlewareConfig aggregates dependencies shared by the middleware stack.
type MiddlewareConfig struct {
	Logger  *slog.Logger
	Config  *Config
	Metrics *observability.Metrics
}

// MiddlewareStack installs the global middleware chain.
func MiddlewareStack(cfg MiddlewareConfig) []func(http.Handler) http.Handler {
	production := cfg.Config != nil && cfg.Config.IsProduction()
	secureMiddleware := secure.New(secure.Options{
		FrameDeny:             true,
		ContentTypeNosniff:    true,
		BrowserXssFilter:      true,
		ReferrerPolicy:        "strict-origin-when-cross-origin",
		ContentSecurityPolicy: "default-src 'none'; frame-ancestors 'none'",
		SSLRedirect:           production,
		SSLProxyHeaders:       map[string]string{"X-Forwarded-Proto": "https"},
	})

	timeout := 30 * time.Second
	rate := 120
	var origins []string
	if cfg.Config != nil {
		if cfg.Config.AppRequestTimeout > 0 {
			timeout = cfg.Config.AppRequestTimeout
		}
		if cfg.Config.RateLimitPerMinute > 0 {
			rate = cfg.Config.RateLimitPerMinute
		}
		origins = cfg.Config.CORSAllowedOrigins
	}

	middlewares := []func(http.Handler) http.Handler{
		middleware.RealIP,
		middleware.RequestID,
		middleware.Recoverer,
		middleware.Timeout(timeout),
		secureMiddleware.Handler,
		cors.Handler(cors.Options{
			AllowedOrigins:   origins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", shared.CSRFHeaderName},
			ExposedHeaders:   []string{"X-Request-Id"},
			AllowCredentials: true,
			MaxAge:           300,
		}),
		middleware.Compress(5),
		httprate.Limit(rate, time.Minute,
			httprate.WithKeyFuncs(httprate.KeyByIP),
			httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
				httpx.Reject(w, http.StatusTooManyRequests, "Too many requests. Please try again later.", "")
			}),
		),
	}
	if cfg.Metrics != nil {
		middlewares = append(middlewares, cfg.Metrics.Middleware)
	}
	return middlewares
}

// CSRFMiddleware guards mutating API calls made with the session cookie.
// Requests without the cookie carry no ambient credential and are not checked.
func CSRFMiddleware(logger *slog.Logger, cfg *Config) func(http.Handler) http.Handler {
	cookieName := "auth_token"
	if cfg != nil && cfg.AuthCookieName != "" {
		cookieName = cfg.AuthCookieName
	}
	guard := shared.NewCSRFGuard(cfg.IsProduction())
	guard.Exempt = func(r *http.Request) bool {
		c, err := r.Cookie(cookieName)
		return err != nil || strings.TrimSpace(c.Value) == ""
	}
	return guard.Middleware(func(w http.ResponseWriter, r *http.Request, err error) {
		if errors.Is(err, shared.ErrCSRFTokenMissing) || errors.Is(err, shared.ErrCSRFTokenMismatch) || errors.Is(err, shared.ErrCSRFOrigin) {
			logger.Warn("csrf validation failed", slog.String("path", r.URL.Path), slog.Any("error", err))
			httpx.Reject(w, http.StatusForbidden, "Invalid CSRF token", "")
			return
		}
		logger.Error("csrf token", slog.Any("error", err))
		httpx.Reject(w, http.StatusInternalServerError, "Internal server error", "")
	})
}
