package module

import (
	"github.com/frahmantamala/access-management/internal/core/datamodel/rbac"
)

// Detail is a module plus the roles currently holding visibility into it.
type Detail struct {
	rbac.Module
	ViewerRoleIDs []string `json:"viewer_role_ids"`
}

type ServiceAPI interface {
	ListModules() ([]rbac.Module, error)
	GetModule(id string) (*Detail, error)
	CreateModule(dto CreateModuleDTO) (*rbac.Module, error)
	UpdateModule(id string, dto UpdateModuleDTO) (*rbac.Module, error)
	DeleteModule(id string) error
}

type RepositoryAPI interface {
	All() ([]rbac.Module, error)
	GetByID(id string) (*rbac.Module, error)
	FindByName(name string) (*rbac.Module, error)
	FindByPath(path string) (*rbac.Module, error)
	Create(module *rbac.Module, viewerRoleIDs []string) error
	Update(module *rbac.Module, viewerRoleIDs []string) error
	SoftDelete(id string) error
	ActiveViewerRoleIDs(moduleID string) ([]string, error)
}

// RoleReader is the slice of the role store the service needs to validate
// a submitted viewer role list.
type RoleReader interface {
	GetByID(id string) (*rbac.Role, error)
}
