package permission

import (
	"log/slog"

	"github.com/frahmantamala/access-management/internal/auth"
	"github.com/frahmantamala/access-management/internal/core/datamodel/rbac"
)

// Service resolves a principal's effective grants. Resolution is always
// fresh from the store: a reconciliation committed by one request is
// visible to the very next permission check.
type Service struct {
	repo   RepositoryAPI
	logger *slog.Logger
}

func NewService(repo RepositoryAPI, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
	}
}

// Resolve computes the module-id-keyed union of active permission actions
// across all the principal's active roles. Superstaff short-circuits before
// any grant query; a user with no roles resolves to an empty mapping.
func (s *Service) Resolve(principal auth.Principal) (Grants, error) {
	if principal.Superstaff {
		return Grants{Superuser: true}, nil
	}

	rows, err := s.repo.ActiveGrants(principal.ID)
	if err != nil {
		s.logger.Error("failed to load active grants", "error", err, "user_id", principal.ID)
		return Grants{}, err
	}

	grants := Grants{Modules: make(map[string]ActionSet)}
	for _, row := range rows {
		set, ok := grants.Modules[row.ModuleID]
		if !ok {
			set = make(ActionSet)
			grants.Modules[row.ModuleID] = set
		}
		set.Add(row.Action)
	}

	return grants, nil
}

// ResolveForModule restricts resolution to a single module.
func (s *Service) ResolveForModule(principal auth.Principal, moduleID string) (ActionSet, error) {
	grants, err := s.Resolve(principal)
	if err != nil {
		return nil, err
	}
	if grants.Superuser {
		set := make(ActionSet, len(rbac.AllActions()))
		for _, a := range rbac.AllActions() {
			set.Add(a)
		}
		return set, nil
	}
	return grants.ForModule(moduleID), nil
}
