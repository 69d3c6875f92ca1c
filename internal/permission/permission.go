package permission

import (
	"github.com/frahmantamala/access-management/internal/core/datamodel/rbac"
)

// Grant is one effective (module, action) pair a user holds through a role.
type Grant struct {
	ModuleID string      `json:"module_id"`
	Action   rbac.Action `json:"action"`
}

// ActionSet is the set of actions a user holds on one module.
type ActionSet map[rbac.Action]struct{}

func (s ActionSet) Has(action rbac.Action) bool {
	_, ok := s[action]
	return ok
}

func (s ActionSet) Add(action rbac.Action) {
	s[action] = struct{}{}
}

// Actions returns the set in the canonical action order.
func (s ActionSet) Actions() []rbac.Action {
	out := make([]rbac.Action, 0, len(s))
	for _, a := range rbac.AllActions() {
		if s.Has(a) {
			out = append(out, a)
		}
	}
	return out
}

// Grants is a user's resolved permission state: either the superuser
// short-circuit, or a module-id-keyed union of action sets across all the
// user's active roles.
type Grants struct {
	Superuser bool
	Modules   map[string]ActionSet
}

func (g Grants) Has(moduleID string, action rbac.Action) bool {
	if g.Superuser {
		return true
	}
	return g.Modules[moduleID].Has(action)
}

func (g Grants) HasView(moduleID string) bool {
	return g.Has(moduleID, rbac.CanView)
}

func (g Grants) ForModule(moduleID string) ActionSet {
	return g.Modules[moduleID]
}

type RepositoryAPI interface {
	ActiveGrants(userID string) ([]Grant, error)
}
