package module

import (
	"fmt"
	"log/slog"

	"github.com/frahmantamala/access-management/internal"
	"github.com/frahmantamala/access-management/internal/core/datamodel/rbac"
)

type Service struct {
	repo   RepositoryAPI
	roles  RoleReader
	logger *slog.Logger
}

func NewService(repo RepositoryAPI, roles RoleReader, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		roles:  roles,
		logger: logger,
	}
}

func (s *Service) ListModules() ([]rbac.Module, error) {
	return s.repo.All()
}

func (s *Service) GetModule(id string) (*Detail, error) {
	module, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	viewers, err := s.repo.ActiveViewerRoleIDs(id)
	if err != nil {
		return nil, err
	}
	return &Detail{
		Module:        *module,
		ViewerRoleIDs: viewers,
	}, nil
}

func (s *Service) CreateModule(dto CreateModuleDTO) (*rbac.Module, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	if err := s.validateActions(dto.AvailableActions); err != nil {
		return nil, err
	}
	if err := s.validateParent(dto.ParentID); err != nil {
		return nil, err
	}
	if err := s.validateViewers(dto.ViewerRoleIDs); err != nil {
		return nil, err
	}

	module := &rbac.Module{
		Name:             dto.Name,
		Path:             dto.Path,
		Icon:             dto.Icon,
		Description:      dto.Description,
		Order:            dto.Order,
		ParentID:         dto.ParentID,
		AvailableActions: dto.AvailableActions,
		IsClient:         dto.IsClient,
		GroupTitle:       dto.GroupTitle,
	}
	if err := s.repo.Create(module, dto.ViewerRoleIDs); err != nil {
		s.logger.Error("failed to create module", "error", err, "name", dto.Name)
		return nil, internal.NewReconciliationError(err)
	}

	s.logger.Info("module created", "module_id", module.ID, "name", module.Name)
	return module, nil
}

// UpdateModule saves the module's fields, reconciles which roles can view
// it, and prunes grants for actions the module no longer offers. All three
// run in one transaction.
func (s *Service) UpdateModule(id string, dto UpdateModuleDTO) (*rbac.Module, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	if err := s.validateActions(dto.AvailableActions); err != nil {
		return nil, err
	}
	if err := s.validateParent(dto.ParentID); err != nil {
		return nil, err
	}
	if err := s.validateViewers(dto.ViewerRoleIDs); err != nil {
		return nil, err
	}

	module, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}

	module.Name = dto.Name
	module.Path = dto.Path
	module.Icon = dto.Icon
	module.Description = dto.Description
	module.Order = dto.Order
	module.ParentID = dto.ParentID
	module.AvailableActions = dto.AvailableActions
	module.IsClient = dto.IsClient
	module.GroupTitle = dto.GroupTitle

	if err := s.repo.Update(module, dto.ViewerRoleIDs); err != nil {
		s.logger.Error("failed to update module", "error", err, "module_id", id)
		return nil, internal.NewReconciliationError(err)
	}

	s.logger.Info("module updated", "module_id", module.ID, "actions", module.AvailableActions)
	return module, nil
}

// DeleteModule soft-deletes the module and revokes its grants in the same
// transaction.
func (s *Service) DeleteModule(id string) error {
	if _, err := s.repo.GetByID(id); err != nil {
		return err
	}
	if err := s.repo.SoftDelete(id); err != nil {
		s.logger.Error("failed to delete module", "error", err, "module_id", id)
		return internal.NewReconciliationError(err)
	}
	s.logger.Info("module deleted", "module_id", id)
	return nil
}

func (s *Service) validateActions(actions []rbac.Action) error {
	for _, action := range actions {
		if !action.Valid() {
			return internal.NewValidationError(
				fmt.Sprintf("unknown action %q", action), internal.ErrCodeInvalidAction)
		}
	}
	return nil
}

// validateParent enforces two-level nesting: a parent must exist and be a
// top-level module itself.
func (s *Service) validateParent(parentID *string) error {
	if parentID == nil {
		return nil
	}
	parent, err := s.repo.GetByID(*parentID)
	if err != nil {
		return err
	}
	if parent.ParentID != nil {
		return internal.NewValidationError(
			"parent module must be top-level", internal.ErrCodeValidationFailed)
	}
	return nil
}

func (s *Service) validateViewers(roleIDs []string) error {
	for _, roleID := range roleIDs {
		if _, err := s.roles.GetByID(roleID); err != nil {
			return err
		}
	}
	return nil
}
