package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/coursemart/coursemart/internal/shared"
)

// DefaultCookieName is the cookie carrying the session token.
const DefaultCookieName = "auth_token"

const bearerPrefix = "Bearer "

// TokenVerifier verifies a raw session token.
type TokenVerifier interface {
	Verify(token string) (shared.Identity, error)
}

// RevocationChecker reports whether a token id was revoked before its natural expiry.
type RevocationChecker interface {
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// Resolver establishes who is asking. The cookie is consulted before the
// Authorization header in every context.
type Resolver struct {
	verifier    TokenVerifier
	cookieName  string
	revocations RevocationChecker
}

// ResolverOption customises a Resolver.
type ResolverOption func(*Resolver)

// WithCookieName overrides the session cookie name.
func WithCookieName(name string) ResolverOption {
	return func(r *Resolver) {
		if name != "" {
			r.cookieName = name
		}
	}
}

// WithRevocations enables the revocation lookup.
func WithRevocations(checker RevocationChecker) ResolverOption {
	return func(r *Resolver) {
		r.revocations = checker
	}
}

// NewResolver constructs a Resolver.
func NewResolver(verifier TokenVerifier, opts ...ResolverOption) *Resolver {
	r := &Resolver{verifier: verifier, cookieName: DefaultCookieName}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve extracts and verifies the session token of req.
func (r *Resolver) Resolve(req *http.Request) (shared.Identity, error) {
	token := r.extractToken(req)
	if token == "" {
		return shared.Identity{}, shared.Unauthenticated(shared.MsgNoToken, nil)
	}
	identity, err := r.verifier.Verify(token)
	if err != nil {
		return shared.Identity{}, shared.Unauthenticated(shared.MsgInvalidToken, err)
	}
	if r.revocations != nil && identity.TokenID != "" {
		revoked, err := r.revocations.IsRevoked(req.Context(), identity.TokenID)
		if err != nil {
			return shared.Identity{}, fmt.Errorf("auth: revocation lookup: %w", err)
		}
		if revoked {
			return shared.Identity{}, shared.Unauthenticated(shared.MsgInvalidToken, ErrInvalidToken)
		}
	}
	return identity, nil
}

// Token returns the raw token carried by req, if any.
func (r *Resolver) Token(req *http.Request) string {
	return r.extractToken(req)
}

func (r *Resolver) extractToken(req *http.Request) string {
	if cookie, err := req.Cookie(r.cookieName); err == nil {
		if value := strings.TrimSpace(cookie.Value); value != "" {
			return value
		}
	}
	header := req.Header.Get("Authorization")
	if strings.HasPrefix(header, bearerPrefix) {
		return strings.TrimSpace(header[len(bearerPrefix):])
	}
	return ""
}

// CookieWriter writes and clears the session cookie.
type CookieWriter struct {
	Name   string
	Secure bool
	MaxAge time.Duration
}

// NewCookieWriter returns a CookieWriter with the default name and lifetime.
func NewCookieWriter(name string, secure bool, maxAge time.Duration) CookieWriter {
	if name == "" {
		name = DefaultCookieName
	}
	if maxAge <= 0 {
		maxAge = DefaultTokenTTL
	}
	return CookieWriter{Name: name, Secure: secure, MaxAge: maxAge}
}

// Set stores token in an HTTP-only cookie.
func (c CookieWriter) Set(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.Name,
		Value:    token,
		Path:     "/",
		MaxAge:   int(c.MaxAge / time.Second),
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Clear expires the session cookie.
func (c CookieWriter) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.Name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}
