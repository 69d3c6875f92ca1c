package role

import (
	"fmt"
	"log/slog"

	"github.com/frahmantamala/access-management/internal"
	"github.com/frahmantamala/access-management/internal/auth"
	"github.com/frahmantamala/access-management/internal/core/datamodel/rbac"
	"github.com/frahmantamala/access-management/internal/reconcile"
)

type Service struct {
	repo    RepositoryAPI
	modules ModuleReader
	logger  *slog.Logger
}

func NewService(repo RepositoryAPI, modules ModuleReader, logger *slog.Logger) *Service {
	return &Service{
		repo:    repo,
		modules: modules,
		logger:  logger,
	}
}

func (s *Service) ListRoles() ([]rbac.Role, error) {
	return s.repo.All()
}

func (s *Service) GetRole(id string) (*Detail, error) {
	role, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}

	grants, err := s.repo.ActivePermissions(id)
	if err != nil {
		return nil, err
	}
	permissions := make(map[string][]rbac.Action)
	for _, grant := range grants {
		permissions[grant.ModuleID] = append(permissions[grant.ModuleID], grant.Action)
	}

	userIDs, err := s.repo.ActiveUserIDs(id)
	if err != nil {
		return nil, err
	}

	return &Detail{
		Role:        *role,
		Permissions: permissions,
		UserIDs:     userIDs,
	}, nil
}

func (s *Service) CreateRole(dto CreateRoleDTO) (*rbac.Role, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	desired, err := s.desiredKeys(dto.ForAdmin, dto.Permissions)
	if err != nil {
		return nil, err
	}

	role := &rbac.Role{
		Name:        dto.Name,
		Description: dto.Description,
		ForAdmin:    dto.ForAdmin,
	}
	if err := s.repo.Create(role, desired); err != nil {
		s.logger.Error("failed to create role", "error", err, "name", dto.Name)
		return nil, internal.NewReconciliationError(err)
	}

	s.logger.Info("role created", "role_id", role.ID, "name", role.Name, "for_admin", role.ForAdmin)
	return role, nil
}

// UpdateRole saves the role's fields and reconciles its grant matrix in one
// transaction. Demoting a role to non-admin wipes its grants entirely; the
// submitted matrix is ignored in that case.
func (s *Service) UpdateRole(id string, dto UpdateRoleDTO) (*rbac.Role, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	role, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}

	desired, err := s.desiredKeys(dto.ForAdmin, dto.Permissions)
	if err != nil {
		return nil, err
	}

	role.Name = dto.Name
	role.Description = dto.Description
	role.ForAdmin = dto.ForAdmin

	if err := s.repo.Update(role, desired); err != nil {
		s.logger.Error("failed to update role", "error", err, "role_id", id)
		return nil, internal.NewReconciliationError(err)
	}

	s.logger.Info("role updated", "role_id", role.ID, "for_admin", role.ForAdmin)
	return role, nil
}

// DeleteRole soft-deletes the role and revokes its memberships in the same
// transaction. Grant rows stay in place so a restore keeps its history.
func (s *Service) DeleteRole(id string) error {
	if _, err := s.repo.GetByID(id); err != nil {
		return err
	}
	if err := s.repo.SoftDelete(id); err != nil {
		s.logger.Error("failed to delete role", "error", err, "role_id", id)
		return internal.NewReconciliationError(err)
	}
	s.logger.Info("role deleted", "role_id", id)
	return nil
}

// SyncUsers reconciles the role's member list. An actor editing a role they
// belong to cannot drop their own membership; superstaff is exempt since
// its access never depends on roles.
func (s *Service) SyncUsers(actor auth.Principal, id string, dto SyncUsersDTO) error {
	if err := dto.Validate(); err != nil {
		return err
	}
	if _, err := s.repo.GetByID(id); err != nil {
		return err
	}

	if !actor.Superstaff {
		current, err := s.repo.ActiveUserIDs(id)
		if err != nil {
			return err
		}
		if containsID(current, actor.ID) && !containsID(dto.UserIDs, actor.ID) {
			return internal.ErrSelfRoleRevocation
		}
	}

	if err := s.repo.SyncUsers(id, dto.UserIDs); err != nil {
		s.logger.Error("failed to sync role users", "error", err, "role_id", id)
		return internal.NewReconciliationError(err)
	}

	s.logger.Info("role members reconciled", "role_id", id, "member_count", len(dto.UserIDs))
	return nil
}

// desiredKeys validates the submitted matrix against the module store and
// flattens it to reconciliation keys. A non-admin role always resolves to
// an empty matrix.
func (s *Service) desiredKeys(forAdmin bool, inputs []PermissionInput) ([]reconcile.PermissionKey, error) {
	if !forAdmin {
		return nil, nil
	}

	var keys []reconcile.PermissionKey
	for _, input := range inputs {
		module, err := s.modules.GetByID(input.ModuleID)
		if err != nil {
			return nil, err
		}
		for _, action := range input.Actions {
			if !action.Valid() {
				return nil, internal.NewValidationError(
					fmt.Sprintf("unknown action %q", action), internal.ErrCodeInvalidAction)
			}
			if !module.Offers(action) {
				return nil, internal.NewValidationError(
					fmt.Sprintf("module %s does not offer action %q", module.Name, action), internal.ErrCodeInvalidAction)
			}
			keys = append(keys, reconcile.PermissionKey{ModuleID: module.ID, Action: action})
		}
	}
	return keys, nil
}

func containsID(ids []string, id string) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}
