package user

import (
	"log/slog"
	"time"

	"github.com/frahmantamala/access-management/internal"
	"github.com/frahmantamala/access-management/internal/auth"
	"github.com/frahmantamala/access-management/internal/core/datamodel/rbac"
)

type Service struct {
	repo       RepositoryAPI
	roles      RoleReader
	bcryptCost int
	logger     *slog.Logger
}

func NewService(repo RepositoryAPI, roles RoleReader, bcryptCost int, logger *slog.Logger) *Service {
	return &Service{
		repo:       repo,
		roles:      roles,
		bcryptCost: bcryptCost,
		logger:     logger,
	}
}

func (s *Service) ListUsers(params ListParams) ([]rbac.User, error) {
	return s.repo.All(params)
}

func (s *Service) GetUser(id string) (*Detail, error) {
	found, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	roleIDs, err := s.repo.ActiveRoleIDs(id)
	if err != nil {
		return nil, err
	}
	return &Detail{
		User:    *found,
		RoleIDs: roleIDs,
	}, nil
}

func (s *Service) CreateUser(dto CreateUserDTO) (*rbac.User, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	if err := s.validateRoles(dto.RoleIDs); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(dto.Password, s.bcryptCost)
	if err != nil {
		return nil, internal.NewInternalError("failed to hash password", err)
	}

	newUser := &rbac.User{
		Name:         dto.Name,
		Email:        dto.Email,
		PasswordHash: hash,
		Superstaff:   dto.Superstaff,
	}
	if dto.Activated {
		now := time.Now()
		newUser.ActivatedAt = &now
	}

	if err := s.repo.Create(newUser, dto.RoleIDs); err != nil {
		s.logger.Error("failed to create user", "error", err, "email", dto.Email)
		return nil, internal.NewReconciliationError(err)
	}

	s.logger.Info("user created", "user_id", newUser.ID, "superstaff", newUser.Superstaff)
	return newUser, nil
}

// UpdateUser saves the user's fields and reconciles their role memberships
// in one transaction. A non-superstaff actor editing their own account
// cannot drop a role they currently hold.
func (s *Service) UpdateUser(actor auth.Principal, id string, dto UpdateUserDTO) (*rbac.User, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	if err := s.validateRoles(dto.RoleIDs); err != nil {
		return nil, err
	}

	target, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}

	if actor.ID == target.ID && !actor.Superstaff {
		current, err := s.repo.ActiveRoleIDs(id)
		if err != nil {
			return nil, err
		}
		if dropsAny(current, dto.RoleIDs) {
			return nil, internal.ErrSelfRoleRevocation
		}
	}

	target.Name = dto.Name
	target.Email = dto.Email
	target.Superstaff = dto.Superstaff
	if dto.Password != nil {
		hash, err := auth.HashPassword(*dto.Password, s.bcryptCost)
		if err != nil {
			return nil, internal.NewInternalError("failed to hash password", err)
		}
		target.PasswordHash = hash
	}
	if dto.Activated && target.ActivatedAt == nil {
		now := time.Now()
		target.ActivatedAt = &now
	}
	if !dto.Activated {
		target.ActivatedAt = nil
	}

	if err := s.repo.Update(target, dto.RoleIDs); err != nil {
		s.logger.Error("failed to update user", "error", err, "user_id", id)
		return nil, internal.NewReconciliationError(err)
	}

	s.logger.Info("user updated", "user_id", target.ID, "role_count", len(dto.RoleIDs))
	return target, nil
}

// DeleteUser soft-deletes the user and revokes their memberships in the
// same transaction. Nobody deletes their own account, superstaff included.
func (s *Service) DeleteUser(actor auth.Principal, id string) error {
	if actor.ID == id {
		return internal.ErrSelfDeletion
	}
	if _, err := s.repo.GetByID(id); err != nil {
		return err
	}
	if err := s.repo.SoftDelete(id); err != nil {
		s.logger.Error("failed to delete user", "error", err, "user_id", id)
		return internal.NewReconciliationError(err)
	}
	s.logger.Info("user deleted", "user_id", id, "actor_id", actor.ID)
	return nil
}

func (s *Service) validateRoles(roleIDs []string) error {
	for _, roleID := range roleIDs {
		if _, err := s.roles.GetByID(roleID); err != nil {
			return err
		}
	}
	return nil
}

// dropsAny reports whether any currently held id is missing from desired.
func dropsAny(current, desired []string) bool {
	keep := make(map[string]struct{}, len(desired))
	for _, id := range desired {
		keep[id] = struct{}{}
	}
	for _, id := range current {
		if _, ok := keep[id]; !ok {
			return true
		}
	}
	return false
}
