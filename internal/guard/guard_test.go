package guard_test

import (
	"log/slog"
	"os"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	apperrors "github.com/frahmantamala/access-management/internal"
	"github.com/frahmantamala/access-management/internal/auth"
	"github.com/frahmantamala/access-management/internal/core/datamodel/rbac"
	"github.com/frahmantamala/access-management/internal/guard"
	"github.com/frahmantamala/access-management/internal/permission"
)

func TestGuard(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Guard Suite")
}

type mockResolver struct {
	grants permission.Grants
	err    error
}

func (m *mockResolver) Resolve(principal auth.Principal) (permission.Grants, error) {
	if m.err != nil {
		return permission.Grants{}, m.err
	}
	return m.grants, nil
}

type mockModuleFinder struct {
	byName map[string]*rbac.Module
	byPath map[string]*rbac.Module
}

func (m *mockModuleFinder) FindByName(name string) (*rbac.Module, error) {
	if found, ok := m.byName[name]; ok {
		return found, nil
	}
	return nil, apperrors.ErrModuleNotFound
}

func (m *mockModuleFinder) FindByPath(path string) (*rbac.Module, error) {
	if found, ok := m.byPath[path]; ok {
		return found, nil
	}
	return nil, apperrors.ErrModuleNotFound
}

func grantsFor(modules map[string][]rbac.Action) permission.Grants {
	grants := permission.Grants{Modules: make(map[string]permission.ActionSet)}
	for moduleID, actions := range modules {
		set := make(permission.ActionSet)
		for _, a := range actions {
			set.Add(a)
		}
		grants.Modules[moduleID] = set
	}
	return grants
}

var _ = Describe("Access Decision Guard", func() {
	var (
		resolver *mockResolver
		finder   *mockModuleFinder
		registry *guard.Registry
		g        *guard.Guard
		logger   *slog.Logger

		usersPath   = "/users"
		usersModule *rbac.Module
		rolesModule *rbac.Module
	)

	BeforeEach(func() {
		usersModule = &rbac.Module{
			ID:   "mod-users",
			Name: "Users",
			Path: &usersPath,
		}
		rolesPath := "/roles"
		rolesModule = &rbac.Module{
			ID:   "mod-roles",
			Name: "Roles",
			Path: &rolesPath,
		}

		resolver = &mockResolver{grants: grantsFor(nil)}
		finder = &mockModuleFinder{
			byName: map[string]*rbac.Module{"Users": usersModule, "Roles": rolesModule},
			byPath: map[string]*rbac.Module{"/users": usersModule, "/roles": rolesModule},
		}
		registry = guard.NewRegistry()
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
		g = guard.New(registry, resolver, finder, logger)
	})

	Describe("Decide", func() {
		Context("superstaff principal", func() {
			It("allows every check regardless of stored grants", func() {
				decision, err := g.Decide(auth.Principal{ID: "u1", Superstaff: true},
					guard.Check{Module: guard.ByName("Users"), Action: rbac.CanDelete})
				Expect(err).NotTo(HaveOccurred())
				Expect(decision.Allowed).To(BeTrue())
			})

			It("allows even when the module does not exist", func() {
				decision, err := g.Decide(auth.Principal{ID: "u1", Superstaff: true},
					guard.Check{Module: guard.ByName("Ghost"), Action: rbac.CanView})
				Expect(err).NotTo(HaveOccurred())
				Expect(decision.Allowed).To(BeTrue())
			})
		})

		Context("principal with can_view and can_update but not can_delete", func() {
			BeforeEach(func() {
				resolver.grants = grantsFor(map[string][]rbac.Action{
					"mod-users": {rbac.CanView, rbac.CanUpdate},
				})
			})

			It("denies can_delete and redirects to the module's own path", func() {
				decision, err := g.Decide(auth.Principal{ID: "x"},
					guard.Check{Module: guard.ByName("Users"), Action: rbac.CanDelete})
				Expect(err).NotTo(HaveOccurred())
				Expect(decision.Allowed).To(BeFalse())
				Expect(decision.RedirectTo).To(Equal("/users"))
				Expect(decision.Message).To(Equal("Unauthorized to delete."))
			})

			It("allows the actions actually granted", func() {
				decision, err := g.Decide(auth.Principal{ID: "x"},
					guard.Check{Module: guard.ByName("Users"), Action: rbac.CanUpdate})
				Expect(err).NotTo(HaveOccurred())
				Expect(decision.Allowed).To(BeTrue())
			})
		})

		Context("principal with no grants at all", func() {
			It("denies can_view and redirects to the landing page", func() {
				decision, err := g.Decide(auth.Principal{ID: "y"},
					guard.Check{Module: guard.ByName("Roles"), Action: rbac.CanView})
				Expect(err).NotTo(HaveOccurred())
				Expect(decision.Allowed).To(BeFalse())
				Expect(decision.RedirectTo).To(Equal(guard.DefaultLandingPath))
				Expect(decision.Message).To(Equal("Unauthorized to view."))
			})
		})

		Context("module referenced by path", func() {
			It("resolves to the same module as the name ref", func() {
				resolver.grants = grantsFor(map[string][]rbac.Action{
					"mod-users": {rbac.CanView},
				})

				byName, err := g.Decide(auth.Principal{ID: "z"},
					guard.Check{Module: guard.ByName("Users"), Action: rbac.CanView})
				Expect(err).NotTo(HaveOccurred())
				byPath, err := g.Decide(auth.Principal{ID: "z"},
					guard.Check{Module: guard.ByPath("/users"), Action: rbac.CanView})
				Expect(err).NotTo(HaveOccurred())

				Expect(byPath).To(Equal(byName))
			})
		})

		Context("unknown module for a regular principal", func() {
			It("denies and redirects to the landing page", func() {
				decision, err := g.Decide(auth.Principal{ID: "z"},
					guard.Check{Module: guard.ByName("Ghost"), Action: rbac.CanExport})
				Expect(err).NotTo(HaveOccurred())
				Expect(decision.Allowed).To(BeFalse())
				Expect(decision.RedirectTo).To(Equal(guard.DefaultLandingPath))
				Expect(decision.Message).To(Equal("Unauthorized to export."))
			})
		})

		Context("module with no path of its own", func() {
			It("falls back to the landing page even with can_view", func() {
				pathless := &rbac.Module{ID: "mod-free", Name: "Programs"}
				finder.byName["Programs"] = pathless
				resolver.grants = grantsFor(map[string][]rbac.Action{
					"mod-free": {rbac.CanView},
				})

				decision, err := g.Decide(auth.Principal{ID: "z"},
					guard.Check{Module: guard.ByName("Programs"), Action: rbac.CanUpdate})
				Expect(err).NotTo(HaveOccurred())
				Expect(decision.Allowed).To(BeFalse())
				Expect(decision.RedirectTo).To(Equal(guard.DefaultLandingPath))
			})
		})
	})

	Describe("predicates", func() {
		It("keeps the action check and the module gate distinct", func() {
			grants := grantsFor(map[string][]rbac.Action{
				"mod-users": {rbac.CanUpdate},
			})

			Expect(guard.HasRequiredAction(grants, usersModule, rbac.CanUpdate)).To(BeTrue())
			Expect(guard.CanAccessModule(grants, usersModule)).To(BeFalse())
		})

		It("both deny on an unknown module for regular grants", func() {
			grants := grantsFor(nil)
			Expect(guard.HasRequiredAction(grants, nil, rbac.CanView)).To(BeFalse())
			Expect(guard.CanAccessModule(grants, nil)).To(BeFalse())
		})

		It("both pass for superuser grants, unknown module included", func() {
			grants := permission.Grants{Superuser: true}
			Expect(guard.HasRequiredAction(grants, nil, rbac.CanDelete)).To(BeTrue())
			Expect(guard.CanAccessModule(grants, nil)).To(BeTrue())
		})
	})

	Describe("DecideRoute", func() {
		It("requires every declared check to pass", func() {
			registry.Register("users.update",
				guard.Check{Module: guard.ByName("Users"), Action: rbac.CanView},
				guard.Check{Module: guard.ByName("Users"), Action: rbac.CanUpdate},
			)
			resolver.grants = grantsFor(map[string][]rbac.Action{
				"mod-users": {rbac.CanView},
			})

			decision, err := g.DecideRoute(auth.Principal{ID: "u"}, "users.update")
			Expect(err).NotTo(HaveOccurred())
			Expect(decision.Allowed).To(BeFalse())
			Expect(decision.Message).To(Equal("Unauthorized to update."))
		})

		It("allows when all declared checks pass", func() {
			registry.Register("users.view", guard.Check{Module: guard.ByName("Users"), Action: rbac.CanView})
			resolver.grants = grantsFor(map[string][]rbac.Action{
				"mod-users": {rbac.CanView},
			})

			decision, err := g.DecideRoute(auth.Principal{ID: "u"}, "users.view")
			Expect(err).NotTo(HaveOccurred())
			Expect(decision.Allowed).To(BeTrue())
		})
	})

	Describe("Registry", func() {
		It("panics on an unknown action at registration", func() {
			Expect(func() {
				registry.Register("bad.route", guard.Check{Module: guard.ByName("Users"), Action: rbac.Action("can_fly")})
			}).To(Panic())
		})

		It("panics on a route with no checks", func() {
			Expect(func() {
				registry.Register("empty.route")
			}).To(Panic())
		})
	})
})
