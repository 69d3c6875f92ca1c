package navigation

import (
	"context"

	"github.com/frahmantamala/access-management/internal/auth"
	"github.com/frahmantamala/access-management/internal/core/datamodel/rbac"
	"github.com/frahmantamala/access-management/internal/permission"
)

// Item is one navigation entry. Children are the module's second-level
// entries, already visibility-filtered.
type Item struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Path     *string `json:"path"`
	Icon     *string `json:"icon"`
	Order    int     `json:"order"`
	Children []Item  `json:"children,omitempty"`
}

// Group is a titled section of the navigation tree. Groups with no visible
// items are never emitted.
type Group struct {
	Title string `json:"title"`
	Items []Item `json:"items"`
}

type ServiceAPI interface {
	Navigation(ctx context.Context, principal auth.Principal) ([]Group, error)
}

// ModuleSource lists modules in display order, soft-deleted ones excluded.
type ModuleSource interface {
	All() ([]rbac.Module, error)
}

// GrantResolver yields a principal's effective grants.
type GrantResolver interface {
	Resolve(principal auth.Principal) (permission.Grants, error)
}
