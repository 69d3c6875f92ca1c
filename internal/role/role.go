package role

import (
	"github.com/frahmantamala/access-management/internal/auth"
	"github.com/frahmantamala/access-management/internal/core/datamodel/rbac"
	"github.com/frahmantamala/access-management/internal/reconcile"
)

// Detail is a role with its active grant matrix and its active member ids.
type Detail struct {
	rbac.Role
	Permissions map[string][]rbac.Action `json:"permissions"`
	UserIDs     []string                 `json:"user_ids"`
}

type ServiceAPI interface {
	ListRoles() ([]rbac.Role, error)
	GetRole(id string) (*Detail, error)
	CreateRole(dto CreateRoleDTO) (*rbac.Role, error)
	UpdateRole(id string, dto UpdateRoleDTO) (*rbac.Role, error)
	DeleteRole(id string) error
	SyncUsers(actor auth.Principal, id string, dto SyncUsersDTO) error
}

type RepositoryAPI interface {
	All() ([]rbac.Role, error)
	GetByID(id string) (*rbac.Role, error)
	Create(role *rbac.Role, desired []reconcile.PermissionKey) error
	Update(role *rbac.Role, desired []reconcile.PermissionKey) error
	SoftDelete(id string) error
	ActivePermissions(roleID string) ([]rbac.ModulePermission, error)
	ActiveUserIDs(roleID string) ([]string, error)
	SyncUsers(roleID string, userIDs []string) error
}

// ModuleReader is the slice of the module store the service needs to
// validate a submitted grant matrix.
type ModuleReader interface {
	GetByID(id string) (*rbac.Module, error)
}
