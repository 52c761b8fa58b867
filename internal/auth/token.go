package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/coursemart/coursemart/internal/shared"
)

// DefaultTokenTTL is the lifetime of a freshly issued session token.
const DefaultTokenTTL = 7 * 24 * time.Hour

var (
	// ErrInvalidToken is returned when a token is malformed or its signature does not match.
	ErrInvalidToken = errors.New("auth: invalid token")
	// ErrExpiredToken is returned when the current time is at or after the token expiry.
	ErrExpiredToken = errors.New("auth: expired token")
)

// Claims is the JWT payload carried by session tokens.
type Claims struct {
	jwt.RegisteredClaims

	UserID int64  `json:"userId"`
	Email  string `json:"email"`
	Role   string `json:"role"`
}

// Codec signs and verifies session tokens with a process-wide HMAC secret.
// It is safe for concurrent use; nothing in it is mutated after construction.
type Codec struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// CodecOption customises a Codec.
type CodecOption func(*Codec)

// WithTTL overrides the token lifetime.
func WithTTL(ttl time.Duration) CodecOption {
	return func(c *Codec) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithClock overrides the time source used for issuing and verifying.
func WithClock(now func() time.Time) CodecOption {
	return func(c *Codec) {
		if now != nil {
			c.now = now
		}
	}
}

// NewCodec constructs a Codec. The secret must not be empty.
func NewCodec(secret string, opts ...CodecOption) (*Codec, error) {
	if secret == "" {
		return nil, errors.New("auth: token secret must be provided")
	}
	c := &Codec{secret: []byte(secret), ttl: DefaultTokenTTL, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// TTL exposes the configured token lifetime.
func (c *Codec) TTL() time.Duration {
	return c.ttl
}

// Issue produces a signed token for the subject.
func (c *Codec) Issue(subjectID int64, email string, role shared.Role) (string, error) {
	if !role.Valid() {
		return "", fmt.Errorf("auth: issue: %w", shared.ErrValidation)
	}
	now := c.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   strconv.FormatInt(subjectID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
		},
		UserID: subjectID,
		Email:  email,
		Role:   string(role),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("auth: sign token: %w", err)
	}
	return token, nil
}

// Verify checks signature and expiry and rebuilds the caller identity.
func (c *Codec) Verify(token string) (shared.Identity, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return c.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(c.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return shared.Identity{}, ErrExpiredToken
		}
		return shared.Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	role, err := shared.ParseRole(claims.Role)
	if err != nil || claims.UserID == 0 {
		return shared.Identity{}, ErrInvalidToken
	}
	id := shared.Identity{
		ID:        claims.UserID,
		Email:     claims.Email,
		Role:      role,
		TokenID:   claims.ID,
		ExpiresAt: claims.ExpiresAt.Time,
	}
	if claims.IssuedAt != nil {
		id.IssuedAt = claims.IssuedAt.Time
	}
	return id, nil
}
