package module

import (
	"strings"

	"github.com/frahmantamala/access-management/internal/core/common/validation"
	"github.com/frahmantamala/access-management/internal/core/datamodel/rbac"
)

type CreateModuleDTO struct {
	Name             string        `json:"name"`
	Path             *string       `json:"path"`
	Icon             *string       `json:"icon"`
	Description      *string       `json:"description"`
	Order            int           `json:"order"`
	ParentID         *string       `json:"parent_id"`
	AvailableActions []rbac.Action `json:"available_actions"`
	IsClient         bool          `json:"is_client"`
	GroupTitle       string        `json:"group_title"`
	ViewerRoleIDs    []string      `json:"viewer_role_ids"`
}

func (d *CreateModuleDTO) Validate() error {
	d.Name = strings.TrimSpace(d.Name)

	v := validation.NewValidator()
	v.Field("name", d.Name).Required().MaxLength(255)
	v.Field("path", d.Path).MaxLength(255)
	v.Field("order", d.Order).MinInt(0)
	return v.Validate()
}

// UpdateModuleDTO carries the module's full target state: its fields, the
// actions it offers, and the roles that should hold visibility into it.
type UpdateModuleDTO struct {
	Name             string        `json:"name"`
	Path             *string       `json:"path"`
	Icon             *string       `json:"icon"`
	Description      *string       `json:"description"`
	Order            int           `json:"order"`
	ParentID         *string       `json:"parent_id"`
	AvailableActions []rbac.Action `json:"available_actions"`
	IsClient         bool          `json:"is_client"`
	GroupTitle       string        `json:"group_title"`
	ViewerRoleIDs    []string      `json:"viewer_role_ids"`
}

func (d *UpdateModuleDTO) Validate() error {
	d.Name = strings.TrimSpace(d.Name)

	v := validation.NewValidator()
	v.Field("name", d.Name).Required().MaxLength(255)
	v.Field("path", d.Path).MaxLength(255)
	v.Field("order", d.Order).MinInt(0)
	return v.Validate()
}
