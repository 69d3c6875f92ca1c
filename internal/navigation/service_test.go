package navigation_test

import (
	"context"
	"log/slog"
	"os"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/access-management/internal"
	"github.com/frahmantamala/access-management/internal/auth"
	"github.com/frahmantamala/access-management/internal/core/datamodel/rbac"
	"github.com/frahmantamala/access-management/internal/navigation"
	"github.com/frahmantamala/access-management/internal/permission"
)

func TestNavigation(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Navigation Suite")
}

type mockModuleSource struct {
	modules []rbac.Module
}

func (m *mockModuleSource) All() ([]rbac.Module, error) {
	return m.modules, nil
}

type mockGrantResolver struct {
	grants permission.Grants
}

func (m *mockGrantResolver) Resolve(principal auth.Principal) (permission.Grants, error) {
	return m.grants, nil
}

func viewGrants(moduleIDs ...string) permission.Grants {
	grants := permission.Grants{Modules: make(map[string]permission.ActionSet)}
	for _, id := range moduleIDs {
		set := make(permission.ActionSet)
		set.Add(rbac.CanView)
		grants.Modules[id] = set
	}
	return grants
}

func strPtr(s string) *string { return &s }

var _ = Describe("Navigation Service", func() {
	var (
		source   *mockModuleSource
		resolver *mockGrantResolver
		service  *navigation.Service
	)

	BeforeEach(func() {
		source = &mockModuleSource{modules: []rbac.Module{
			{ID: "dash", Name: "Dashboard", Path: strPtr("/dashboard"), Order: 1, GroupTitle: "Platform"},
			{ID: "programs", Name: "Programs", Order: 2, GroupTitle: "Platform"},
			{ID: "programs-1", Name: "Programs 1", Order: 3, GroupTitle: "Platform", ParentID: strPtr("programs")},
			{ID: "users", Name: "Users", Path: strPtr("/users"), Order: 4, GroupTitle: "Role Management"},
			{ID: "roles", Name: "Roles", Path: strPtr("/roles"), Order: 5, GroupTitle: "Role Management"},
			{ID: "portal", Name: "Portal", Path: strPtr("/portal"), Order: 6, GroupTitle: "Client", IsClient: true},
		}}
		resolver = &mockGrantResolver{grants: viewGrants()}
		lg := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
		service = navigation.NewService(source, resolver, lg)
	})

	It("returns only modules the principal can view", func() {
		resolver.grants = viewGrants("dash", "users")

		groups, err := service.Navigation(context.Background(), auth.Principal{ID: "u1"})
		Expect(err).NotTo(HaveOccurred())
		Expect(groups).To(HaveLen(2))
		Expect(groups[0].Title).To(Equal("Platform"))
		Expect(groups[0].Items).To(HaveLen(1))
		Expect(groups[0].Items[0].Name).To(Equal("Dashboard"))
		Expect(groups[1].Title).To(Equal("Role Management"))
		Expect(groups[1].Items[0].Name).To(Equal("Users"))
	})

	It("omits groups with no visible items", func() {
		resolver.grants = viewGrants("users")

		groups, err := service.Navigation(context.Background(), auth.Principal{ID: "u1"})
		Expect(err).NotTo(HaveOccurred())
		Expect(groups).To(HaveLen(1))
		Expect(groups[0].Title).To(Equal("Role Management"))
	})

	It("preserves first-seen group order", func() {
		resolver.grants = viewGrants("dash", "users", "roles")

		groups, err := service.Navigation(context.Background(), auth.Principal{ID: "u1"})
		Expect(err).NotTo(HaveOccurred())
		Expect(groups[0].Title).To(Equal("Platform"))
		Expect(groups[1].Title).To(Equal("Role Management"))
		Expect(groups[1].Items).To(HaveLen(2))
	})

	It("nests viewable children under their parent", func() {
		resolver.grants = viewGrants("programs", "programs-1")

		groups, err := service.Navigation(context.Background(), auth.Principal{ID: "u1"})
		Expect(err).NotTo(HaveOccurred())
		Expect(groups).To(HaveLen(1))
		Expect(groups[0].Items).To(HaveLen(1))
		Expect(groups[0].Items[0].Name).To(Equal("Programs"))
		Expect(groups[0].Items[0].Children).To(HaveLen(1))
		Expect(groups[0].Items[0].Children[0].Name).To(Equal("Programs 1"))
	})

	It("drops a viewable child when its parent is hidden", func() {
		resolver.grants = viewGrants("programs-1")

		groups, err := service.Navigation(context.Background(), auth.Principal{ID: "u1"})
		Expect(err).NotTo(HaveOccurred())
		Expect(groups).To(BeEmpty())
	})

	It("filters a parent without view even when a child has it", func() {
		resolver.grants = viewGrants("dash", "programs-1")

		groups, err := service.Navigation(context.Background(), auth.Principal{ID: "u1"})
		Expect(err).NotTo(HaveOccurred())
		Expect(groups).To(HaveLen(1))
		Expect(groups[0].Items).To(HaveLen(1))
		Expect(groups[0].Items[0].Name).To(Equal("Dashboard"))
	})

	It("shows everything admin-side to a superstaff principal", func() {
		resolver.grants = permission.Grants{Superuser: true}

		groups, err := service.Navigation(context.Background(), auth.Principal{ID: "u1", Superstaff: true})
		Expect(err).NotTo(HaveOccurred())
		Expect(groups).To(HaveLen(2))

		var names []string
		for _, g := range groups {
			for _, item := range g.Items {
				names = append(names, item.Name)
			}
		}
		Expect(names).To(Equal([]string{"Dashboard", "Programs", "Users", "Roles"}))
	})

	It("serves only client modules on client routes", func() {
		resolver.grants = viewGrants("dash", "portal")
		ctx := internal.ContextWithClientRoute(context.Background())

		groups, err := service.Navigation(ctx, auth.Principal{ID: "u1"})
		Expect(err).NotTo(HaveOccurred())
		Expect(groups).To(HaveLen(1))
		Expect(groups[0].Title).To(Equal("Client"))
		Expect(groups[0].Items[0].Name).To(Equal("Portal"))
	})
})
