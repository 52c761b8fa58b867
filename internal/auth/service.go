package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/coursemart/coursemart/internal/shared"
)

// TokenIssuer issues session tokens.
type TokenIssuer interface {
	Issue(subjectID int64, email string, role shared.Role) (string, error)
	Verify(token string) (shared.Identity, error)
}

// Revoker records a token id as revoked until its expiry.
type Revoker interface {
	Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error
}

// Service wraps authentication business rules.
type Service struct {
	repo       Repository
	tokens     TokenIssuer
	revoker    Revoker
	bcryptCost int
}

// NewService constructs a new Service. revoker may be nil when logout is purely client-side.
func NewService(repo Repository, tokens TokenIssuer, revoker Revoker, bcryptCost int) *Service {
	if bcryptCost < bcrypt.MinCost {
		bcryptCost = bcrypt.DefaultCost
	}
	return &Service{repo: repo, tokens: tokens, revoker: revoker, bcryptCost: bcryptCost}
}

// Authenticate validates email/password credentials and issues a session.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*Session, error) {
	user, err := s.repo.FindByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.ErrInvalidCredentials
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	return s.issue(*user)
}

// Register creates a new account and issues a session for it.
func (s *Service) Register(ctx context.Context, name, email, password string, role shared.Role) (*Session, error) {
	if role == "" {
		role = shared.RoleStudent
	}
	if role == shared.RoleAdmin || !role.Valid() {
		return nil, fmt.Errorf("auth: register: role %q cannot self-register: %w", role, shared.ErrValidation)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("auth: hash password: %w", err)
	}
	user, err := s.repo.CreateUser(ctx, NewUser{
		Name:         strings.TrimSpace(name),
		Email:        strings.ToLower(strings.TrimSpace(email)),
		PasswordHash: string(hash),
		Role:         role,
	})
	if err != nil {
		return nil, err
	}
	return s.issue(*user)
}

// CurrentUser loads the account behind a resolved identity.
func (s *Service) CurrentUser(ctx context.Context, id int64) (*User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NotFound("User")
		}
		return nil, err
	}
	return user, nil
}

// Logout revokes the token when a revocation set is configured. Without one,
// logout is stateless and the token stays valid until it expires.
func (s *Service) Logout(ctx context.Context, token string) error {
	if s.revoker == nil || token == "" {
		return nil
	}
	identity, err := s.tokens.Verify(token)
	if err != nil {
		return nil
	}
	return s.revoker.Revoke(ctx, identity.TokenID, identity.ExpiresAt)
}

func (s *Service) issue(user User) (*Session, error) {
	token, err := s.tokens.Issue(user.ID, user.Email, user.Role)
	if err != nil {
		return nil, err
	}
	// Expiry is read back from the signed claims.
	identity, err := s.tokens.Verify(token)
	if err != nil {
		return nil, fmt.Errorf("auth: read issued token: %w", err)
	}
	return &Session{
		Token:     token,
		ExpiresAt: identity.ExpiresAt,
		User:      user,
	}, nil
}
