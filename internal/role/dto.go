package role

import (
	"strings"

	"github.com/frahmantamala/access-management/internal/core/common/validation"
	"github.com/frahmantamala/access-management/internal/core/datamodel/rbac"
)

// PermissionInput is one row of the submitted grant matrix: the actions the
// role should hold on one module. Omitting a module the role currently has
// grants on revokes them.
type PermissionInput struct {
	ModuleID string        `json:"module_id"`
	Actions  []rbac.Action `json:"actions"`
}

type CreateRoleDTO struct {
	Name        string            `json:"name"`
	Description *string           `json:"description"`
	ForAdmin    bool              `json:"for_admin"`
	Permissions []PermissionInput `json:"permissions"`
}

func (d *CreateRoleDTO) Validate() error {
	d.Name = strings.TrimSpace(d.Name)

	v := validation.NewValidator()
	v.Field("name", d.Name).Required().MaxLength(255)
	v.Field("description", d.Description).MaxLength(255)
	for _, p := range d.Permissions {
		v.Field("permissions.module_id", p.ModuleID).Required()
	}
	return v.Validate()
}

type UpdateRoleDTO struct {
	Name        string            `json:"name"`
	Description *string           `json:"description"`
	ForAdmin    bool              `json:"for_admin"`
	Permissions []PermissionInput `json:"permissions"`
}

func (d *UpdateRoleDTO) Validate() error {
	d.Name = strings.TrimSpace(d.Name)

	v := validation.NewValidator()
	v.Field("name", d.Name).Required().MaxLength(255)
	v.Field("description", d.Description).MaxLength(255)
	for _, p := range d.Permissions {
		v.Field("permissions.module_id", p.ModuleID).Required()
	}
	return v.Validate()
}

// SyncUsersDTO is the full desired member list for a role. An empty list
// revokes every membership.
type SyncUsersDTO struct {
	UserIDs []string `json:"user_ids"`
}

func (d *SyncUsersDTO) Validate() error {
	v := validation.NewValidator()
	for _, id := range d.UserIDs {
		v.Field("user_ids", id).Required()
	}
	return v.Validate()
}
