package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/coursemart/coursemart/internal/rbac"
	"github.com/coursemart/coursemart/internal/shared"
)

// RepositoryPort defines data access methods for users.
type RepositoryPort interface {
	ListUsers(ctx context.Context) ([]User, error)
	GetUser(ctx context.Context, id int64) (User, error)
	DeleteUser(ctx context.Context, id int64) error
	UpdateRole(ctx context.Context, id int64, role shared.Role) (User, error)
}

// Service handles user business logic.
type Service struct {
	repo RepositoryPort
}

// NewService builds Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// ListUsers returns all users.
func (s *Service) ListUsers(ctx context.Context, caller shared.Subject) ([]User, error) {
	if err := rbac.Check(caller, rbac.ActionUserManage, nil); err != nil {
		return nil, err
	}
	users, err := s.repo.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	if users == nil {
		users = []User{}
	}
	return users, nil
}

// DeleteUser removes an account. Self-deletion is refused before the target
// is looked up; a missing target is reported before any policy denial.
func (s *Service) DeleteUser(ctx context.Context, caller shared.Subject, id int64) error {
	if caller.ID == id {
		return shared.SelfActionForbidden(shared.MsgSelfDeletion)
	}
	target, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := rbac.Check(caller, rbac.ActionUserDelete, target.PolicyResource()); err != nil {
		return err
	}
	if err := s.repo.DeleteUser(ctx, id); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return shared.NotFound("User")
		}
		return err
	}
	return nil
}

// UpdateRole changes the role of an account.
func (s *Service) UpdateRole(ctx context.Context, caller shared.Subject, id int64, role shared.Role) (User, error) {
	if !role.Valid() {
		return User{}, fmt.Errorf("users: role %q: %w", role, shared.ErrValidation)
	}
	if _, err := s.load(ctx, id); err != nil {
		return User{}, err
	}
	if err := rbac.Check(caller, rbac.ActionUserUpdateRole, nil); err != nil {
		return User{}, err
	}
	return s.repo.UpdateRole(ctx, id, role)
}

func (s *Service) load(ctx context.Context, id int64) (User, error) {
	user, err := s.repo.GetUser(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return User{}, shared.NotFound("User")
		}
		return User{}, err
	}
	return user, nil
}
