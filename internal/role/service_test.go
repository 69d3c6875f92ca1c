package role_test

import (
	"log/slog"
	"os"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	apperrors "github.com/frahmantamala/access-management/internal"
	"github.com/frahmantamala/access-management/internal/auth"
	"github.com/frahmantamala/access-management/internal/core/datamodel/rbac"
	"github.com/frahmantamala/access-management/internal/reconcile"
	"github.com/frahmantamala/access-management/internal/role"
)

func TestRole(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Role Suite")
}

type mockRoleRepository struct {
	roles         map[string]*rbac.Role
	members       map[string][]string
	lastDesired   []reconcile.PermissionKey
	lastSyncedIDs []string
	syncCalled    bool
}

func newMockRoleRepository() *mockRoleRepository {
	return &mockRoleRepository{
		roles:   make(map[string]*rbac.Role),
		members: make(map[string][]string),
	}
}

func (m *mockRoleRepository) All() ([]rbac.Role, error) {
	var out []rbac.Role
	for _, r := range m.roles {
		out = append(out, *r)
	}
	return out, nil
}

func (m *mockRoleRepository) GetByID(id string) (*rbac.Role, error) {
	if r, ok := m.roles[id]; ok {
		return r, nil
	}
	return nil, apperrors.ErrRoleNotFound
}

func (m *mockRoleRepository) Create(r *rbac.Role, desired []reconcile.PermissionKey) error {
	if r.ID == "" {
		r.ID = "role-" + r.Name
	}
	m.roles[r.ID] = r
	m.lastDesired = desired
	return nil
}

func (m *mockRoleRepository) Update(r *rbac.Role, desired []reconcile.PermissionKey) error {
	m.roles[r.ID] = r
	m.lastDesired = desired
	return nil
}

func (m *mockRoleRepository) SoftDelete(id string) error {
	delete(m.roles, id)
	delete(m.members, id)
	return nil
}

func (m *mockRoleRepository) ActivePermissions(roleID string) ([]rbac.ModulePermission, error) {
	return nil, nil
}

func (m *mockRoleRepository) ActiveUserIDs(roleID string) ([]string, error) {
	return m.members[roleID], nil
}

func (m *mockRoleRepository) SyncUsers(roleID string, userIDs []string) error {
	m.syncCalled = true
	m.lastSyncedIDs = userIDs
	m.members[roleID] = userIDs
	return nil
}

type mockModuleReader struct {
	modules map[string]*rbac.Module
}

func (m *mockModuleReader) GetByID(id string) (*rbac.Module, error) {
	if found, ok := m.modules[id]; ok {
		return found, nil
	}
	return nil, apperrors.ErrModuleNotFound
}

var _ = Describe("Role Service", func() {
	var (
		repo    *mockRoleRepository
		modules *mockModuleReader
		service *role.Service
	)

	BeforeEach(func() {
		repo = newMockRoleRepository()
		modules = &mockModuleReader{modules: map[string]*rbac.Module{
			"m1": {ID: "m1", Name: "Users", AvailableActions: []rbac.Action{rbac.CanView, rbac.CanUpdate}},
		}}
		lg := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
		service = role.NewService(repo, modules, lg)
	})

	Describe("CreateRole", func() {
		It("rejects an empty name", func() {
			_, err := service.CreateRole(role.CreateRoleDTO{Name: "  "})
			Expect(err).To(HaveOccurred())
		})

		It("rejects grants on unknown modules", func() {
			_, err := service.CreateRole(role.CreateRoleDTO{
				Name:     "Editor",
				ForAdmin: true,
				Permissions: []role.PermissionInput{
					{ModuleID: "ghost", Actions: []rbac.Action{rbac.CanView}},
				},
			})
			Expect(err).To(Equal(apperrors.ErrModuleNotFound))
		})

		It("rejects actions the module does not offer", func() {
			_, err := service.CreateRole(role.CreateRoleDTO{
				Name:     "Editor",
				ForAdmin: true,
				Permissions: []role.PermissionInput{
					{ModuleID: "m1", Actions: []rbac.Action{rbac.CanPrint}},
				},
			})
			Expect(err).To(HaveOccurred())
			appErr, ok := apperrors.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(apperrors.ErrCodeInvalidAction))
		})

		It("ignores the submitted matrix for a non-admin role", func() {
			created, err := service.CreateRole(role.CreateRoleDTO{
				Name: "Client",
				Permissions: []role.PermissionInput{
					{ModuleID: "m1", Actions: []rbac.Action{rbac.CanView}},
				},
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(created.ForAdmin).To(BeFalse())
			Expect(repo.lastDesired).To(BeEmpty())
		})

		It("flattens the matrix into reconciliation keys", func() {
			_, err := service.CreateRole(role.CreateRoleDTO{
				Name:     "Editor",
				ForAdmin: true,
				Permissions: []role.PermissionInput{
					{ModuleID: "m1", Actions: []rbac.Action{rbac.CanView, rbac.CanUpdate}},
				},
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(repo.lastDesired).To(ConsistOf(
				reconcile.PermissionKey{ModuleID: "m1", Action: rbac.CanView},
				reconcile.PermissionKey{ModuleID: "m1", Action: rbac.CanUpdate},
			))
		})
	})

	Describe("SyncUsers", func() {
		var editor *rbac.Role

		BeforeEach(func() {
			editor = &rbac.Role{ID: "r1", Name: "Editor", ForAdmin: true}
			repo.roles["r1"] = editor
			repo.members["r1"] = []string{"actor-1", "other-1"}
		})

		It("blocks an actor from dropping their own membership", func() {
			err := service.SyncUsers(auth.Principal{ID: "actor-1"}, "r1",
				role.SyncUsersDTO{UserIDs: []string{"other-1"}})
			Expect(err).To(Equal(apperrors.ErrSelfRoleRevocation))
			Expect(repo.syncCalled).To(BeFalse())
		})

		It("allows the actor to keep their membership while editing others", func() {
			err := service.SyncUsers(auth.Principal{ID: "actor-1"}, "r1",
				role.SyncUsersDTO{UserIDs: []string{"actor-1", "new-1"}})
			Expect(err).NotTo(HaveOccurred())
			Expect(repo.lastSyncedIDs).To(Equal([]string{"actor-1", "new-1"}))
		})

		It("exempts superstaff from the self-protection rule", func() {
			err := service.SyncUsers(auth.Principal{ID: "actor-1", Superstaff: true}, "r1",
				role.SyncUsersDTO{UserIDs: []string{"other-1"}})
			Expect(err).NotTo(HaveOccurred())
			Expect(repo.syncCalled).To(BeTrue())
		})

		It("fails for an unknown role", func() {
			err := service.SyncUsers(auth.Principal{ID: "actor-1"}, "nope", role.SyncUsersDTO{})
			Expect(err).To(Equal(apperrors.ErrRoleNotFound))
		})
	})

	Describe("UpdateRole", func() {
		It("applies field changes and the new matrix", func() {
			repo.roles["r1"] = &rbac.Role{ID: "r1", Name: "Editor", ForAdmin: true}

			updated, err := service.UpdateRole("r1", role.UpdateRoleDTO{
				Name:     "Publisher",
				ForAdmin: true,
				Permissions: []role.PermissionInput{
					{ModuleID: "m1", Actions: []rbac.Action{rbac.CanView}},
				},
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(updated.Name).To(Equal("Publisher"))
			Expect(repo.lastDesired).To(HaveLen(1))
		})

		It("sends an empty matrix when demoting to non-admin", func() {
			repo.roles["r1"] = &rbac.Role{ID: "r1", Name: "Editor", ForAdmin: true}

			updated, err := service.UpdateRole("r1", role.UpdateRoleDTO{
				Name: "Editor",
				Permissions: []role.PermissionInput{
					{ModuleID: "m1", Actions: []rbac.Action{rbac.CanView}},
				},
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(updated.ForAdmin).To(BeFalse())
			Expect(repo.lastDesired).To(BeEmpty())
		})
	})
})
