package guard

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/frahmantamala/access-management/internal"
	"github.com/frahmantamala/access-management/internal/auth"
	"github.com/frahmantamala/access-management/internal/core/datamodel/rbac"
	"github.com/frahmantamala/access-management/internal/permission"
)

// DefaultLandingPath is where denied users land when the denied module has
// no viewable path of its own.
const DefaultLandingPath = "/dashboard"

type refKind int

const (
	refByName refKind = iota
	refByPath
)

// ModuleRef names a module either by its unique name or by its unique path.
// Both forms resolve to the same module record before any check runs.
type ModuleRef struct {
	kind  refKind
	value string
}

func ByName(name string) ModuleRef {
	return ModuleRef{kind: refByName, value: name}
}

func ByPath(path string) ModuleRef {
	return ModuleRef{kind: refByPath, value: path}
}

func (r ModuleRef) String() string {
	if r.kind == refByPath {
		return "path:" + r.value
	}
	return "name:" + r.value
}

// Check declares that an operation requires one action on one module.
type Check struct {
	Module ModuleRef
	Action rbac.Action
}

// Decision is the outcome of evaluating a check for a principal. Denials
// carry a redirect target and a user-facing message instead of a bare
// status code, so clients can send the user somewhere sensible.
type Decision struct {
	Allowed    bool   `json:"allowed"`
	RedirectTo string `json:"redirect_to,omitempty"`
	Message    string `json:"message,omitempty"`
}

func allow() Decision {
	return Decision{Allowed: true}
}

// Registry holds the declared checks per route. It is populated once at
// startup while the router is wired and read-only afterwards.
type Registry struct {
	checks map[string][]Check
}

func NewRegistry() *Registry {
	return &Registry{checks: make(map[string][]Check)}
}

// Register declares the checks a route requires. Misdeclarations are wiring
// bugs, so they panic at startup rather than surfacing per request.
func (reg *Registry) Register(routeID string, checks ...Check) {
	if routeID == "" {
		panic("guard: route id must not be empty")
	}
	if len(checks) == 0 {
		panic(fmt.Sprintf("guard: route %q registered without checks", routeID))
	}
	for _, c := range checks {
		if c.Module.value == "" {
			panic(fmt.Sprintf("guard: route %q has a check with an empty module ref", routeID))
		}
		if !c.Action.Valid() {
			panic(fmt.Sprintf("guard: route %q requires unknown action %q", routeID, c.Action))
		}
	}
	reg.checks[routeID] = append(reg.checks[routeID], checks...)
}

// RequiredChecks returns the checks declared for a route, or nil when the
// route declared none.
func (reg *Registry) RequiredChecks(routeID string) []Check {
	return reg.checks[routeID]
}

// GrantResolver yields a principal's effective grants.
type GrantResolver interface {
	Resolve(principal auth.Principal) (permission.Grants, error)
}

// ModuleFinder resolves a module ref to its record. Both lookups must
// exclude soft-deleted modules.
type ModuleFinder interface {
	FindByName(name string) (*rbac.Module, error)
	FindByPath(path string) (*rbac.Module, error)
}

// Guard evaluates declared checks against a principal's resolved grants.
type Guard struct {
	registry *Registry
	resolver GrantResolver
	modules  ModuleFinder
	logger   *slog.Logger
}

func New(registry *Registry, resolver GrantResolver, modules ModuleFinder, logger *slog.Logger) *Guard {
	return &Guard{
		registry: registry,
		resolver: resolver,
		modules:  modules,
		logger:   logger,
	}
}

// DecideRoute evaluates every check declared for the route in registration
// order and returns the first denial. Routes with no declared checks pass.
func (g *Guard) DecideRoute(principal auth.Principal, routeID string) (Decision, error) {
	for _, check := range g.registry.RequiredChecks(routeID) {
		decision, err := g.Decide(principal, check)
		if err != nil {
			return Decision{}, err
		}
		if !decision.Allowed {
			return decision, nil
		}
	}
	return allow(), nil
}

// Decide evaluates a single check. Superstaff is allowed before anything is
// looked up, including when the referenced module does not exist. Everyone
// else must pass both the action-specific predicate and the coarse module
// gate over the same resolved grant set.
func (g *Guard) Decide(principal auth.Principal, check Check) (Decision, error) {
	if principal.Superstaff {
		return allow(), nil
	}

	module, err := g.lookup(check.Module)
	if err != nil {
		return Decision{}, err
	}

	grants, err := g.resolver.Resolve(principal)
	if err != nil {
		return Decision{}, err
	}

	if HasRequiredAction(grants, module, check.Action) && CanAccessModule(grants, module) {
		return allow(), nil
	}

	decision := denialFor(check.Action, grants, module)
	g.logger.Warn("access denied",
		"user_id", principal.ID,
		"module", check.Module.String(),
		"action", check.Action,
		"redirect_to", decision.RedirectTo,
	)
	return decision, nil
}

// HasRequiredAction is the action-specific predicate: the principal holds
// the required action on the module. A ref that resolved to no module
// denies here.
func HasRequiredAction(grants permission.Grants, module *rbac.Module, action rbac.Action) bool {
	if grants.Superuser {
		return true
	}
	if module == nil {
		return false
	}
	return grants.Has(module.ID, action)
}

// CanAccessModule is the coarse module gate: the principal may enter the
// module at all, meaning it holds can_view on it. Kept as a predicate of
// its own rather than folded into HasRequiredAction; the two only coincide
// when the required action is can_view.
func CanAccessModule(grants permission.Grants, module *rbac.Module) bool {
	if grants.Superuser {
		return true
	}
	if module == nil {
		return false
	}
	return grants.HasView(module.ID)
}

// denialFor picks the redirect target: the denied module's own path when
// the user can at least view it, the landing page otherwise.
func denialFor(action rbac.Action, grants permission.Grants, module *rbac.Module) Decision {
	decision := Decision{
		RedirectTo: DefaultLandingPath,
		Message:    fmt.Sprintf("Unauthorized to %s.", action.Verb()),
	}
	if module != nil && grants.HasView(module.ID) && module.Path != nil && *module.Path != "" {
		decision.RedirectTo = *module.Path
	}
	return decision
}

func (g *Guard) lookup(ref ModuleRef) (*rbac.Module, error) {
	var (
		module *rbac.Module
		err    error
	)
	switch ref.kind {
	case refByPath:
		module, err = g.modules.FindByPath(ref.value)
	default:
		module, err = g.modules.FindByName(ref.value)
	}
	if err != nil {
		if errors.Is(err, internal.ErrModuleNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return module, nil
}
