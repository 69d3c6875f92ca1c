package user

import (
	"github.com/frahmantamala/access-management/internal/auth"
	"github.com/frahmantamala/access-management/internal/core/datamodel/rbac"
)

// Detail is a user with their active role memberships.
type Detail struct {
	rbac.User
	RoleIDs []string `json:"role_ids"`
}

// ListParams narrows and pages the user list. A zero Limit means no paging.
type ListParams struct {
	Limit  int
	Offset int
	Search string
}

type ServiceAPI interface {
	ListUsers(params ListParams) ([]rbac.User, error)
	GetUser(id string) (*Detail, error)
	CreateUser(dto CreateUserDTO) (*rbac.User, error)
	UpdateUser(actor auth.Principal, id string, dto UpdateUserDTO) (*rbac.User, error)
	DeleteUser(actor auth.Principal, id string) error
}

type RepositoryAPI interface {
	All(params ListParams) ([]rbac.User, error)
	GetByID(id string) (*rbac.User, error)
	Create(user *rbac.User, roleIDs []string) error
	Update(user *rbac.User, roleIDs []string) error
	SoftDelete(id string) error
	ActiveRoleIDs(userID string) ([]string, error)
}

// RoleReader is the slice of the role store the service needs to validate
// submitted role memberships.
type RoleReader interface {
	GetByID(id string) (*rbac.Role, error)
}
