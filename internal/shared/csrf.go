package shared

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"net/http"
	"net/url"
)

const (
	// CSRFCookieName is the double-submit cookie carrying the CSRF token.
	CSRFCookieName = "csrf_token"
	// CSRFHeaderName is the header clients echo the cookie value in.
	CSRFHeaderName = "X-CSRF-Token"
)

// CSRFGuard enforces a double-submit cookie on mutating requests.
type CSRFGuard struct {
	Secure bool
	// Exempt reports whether a request skips verification, e.g. bearer-only clients.
	Exempt func(*http.Request) bool
}

// NewCSRFGuard returns a guard issuing cookies with the given Secure flag.
func NewCSRFGuard(secure bool) *CSRFGuard {
	return &CSRFGuard{Secure: secure}
}

// EnsureToken returns the request's CSRF token, issuing a new cookie when absent.
func (g *CSRFGuard) EnsureToken(w http.ResponseWriter, r *http.Request) (string, error) {
	if c, err := r.Cookie(CSRFCookieName); err == nil && c.Value != "" {
		return c.Value, nil
	}
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	token := base64.RawURLEncoding.EncodeToString(buf)
	http.SetCookie(w, &http.Cookie{
		Name:     CSRFCookieName,
		Value:    token,
		Path:     "/",
		Secure:   g.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	return token, nil
}

// Verify checks origin and token for a mutating request.
func (g *CSRFGuard) Verify(r *http.Request) error {
	if !sameOrigin(r) {
		return ErrCSRFOrigin
	}
	cookie, err := r.Cookie(CSRFCookieName)
	if err != nil || cookie.Value == "" {
		return ErrCSRFTokenMissing
	}
	header := r.Header.Get(CSRFHeaderName)
	if header == "" {
		return ErrCSRFTokenMissing
	}
	if subtle.ConstantTimeCompare([]byte(cookie.Value), []byte(header)) != 1 {
		return ErrCSRFTokenMismatch
	}
	return nil
}

// Middleware issues tokens on safe methods and verifies them on the rest.
func (g *CSRFGuard) Middleware(reject func(http.ResponseWriter, *http.Request, error)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				if _, err := g.EnsureToken(w, r); err != nil {
					reject(w, r, err)
					return
				}
			default:
				if g.Exempt == nil || !g.Exempt(r) {
					if err := g.Verify(r); err != nil {
						reject(w, r, err)
						return
					}
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

func sameOrigin(r *http.Request) bool {
	source := r.Header.Get("Origin")
	if source == "" {
		source = r.Header.Get("Referer")
	}
	if source == "" {
		return true
	}
	u, err := url.Parse(source)
	if err != nil {
		return false
	}
	return u.Host == r.Host
}
