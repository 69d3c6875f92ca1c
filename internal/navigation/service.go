package navigation

import (
	"context"
	"log/slog"

	"github.com/frahmantamala/access-management/internal"
	"github.com/frahmantamala/access-management/internal/auth"
	"github.com/frahmantamala/access-management/internal/core/datamodel/rbac"
)

// Service projects the permission-filtered navigation tree for a
// principal. It is a read-only consumer of the resolver; nothing here
// mutates state.
type Service struct {
	modules  ModuleSource
	resolver GrantResolver
	logger   *slog.Logger
}

func NewService(modules ModuleSource, resolver GrantResolver, logger *slog.Logger) *Service {
	return &Service{
		modules:  modules,
		resolver: resolver,
		logger:   logger,
	}
}

// Navigation builds the grouped tree for the request's audience. Client
// routes see client modules, admin routes the rest. A module appears only
// when the principal can view it; children are filtered on their own
// grants, so a viewable child never resurrects a hidden parent.
func (s *Service) Navigation(ctx context.Context, principal auth.Principal) ([]Group, error) {
	modules, err := s.modules.All()
	if err != nil {
		s.logger.Error("failed to load modules for navigation", "error", err, "user_id", principal.ID)
		return nil, err
	}

	grants, err := s.resolver.Resolve(principal)
	if err != nil {
		return nil, err
	}

	isClient := internal.IsClientRoute(ctx)

	visible := make(map[string]rbac.Module)
	var ordered []rbac.Module
	for _, m := range modules {
		if m.IsClient != isClient {
			continue
		}
		if !grants.HasView(m.ID) {
			continue
		}
		visible[m.ID] = m
		ordered = append(ordered, m)
	}

	children := make(map[string][]Item)
	for _, m := range ordered {
		if m.ParentID == nil {
			continue
		}
		if _, parentVisible := visible[*m.ParentID]; !parentVisible {
			continue
		}
		children[*m.ParentID] = append(children[*m.ParentID], itemFor(m, nil))
	}

	groupIndex := make(map[string]int)
	var groups []Group
	for _, m := range ordered {
		if m.ParentID != nil {
			continue
		}
		item := itemFor(m, children[m.ID])
		idx, ok := groupIndex[m.GroupTitle]
		if !ok {
			idx = len(groups)
			groupIndex[m.GroupTitle] = idx
			groups = append(groups, Group{Title: m.GroupTitle})
		}
		groups[idx].Items = append(groups[idx].Items, item)
	}

	return groups, nil
}

func itemFor(m rbac.Module, children []Item) Item {
	return Item{
		ID:       m.ID,
		Name:     m.Name,
		Path:     m.Path,
		Icon:     m.Icon,
		Order:    m.Order,
		Children: children,
	}
}
