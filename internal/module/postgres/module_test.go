package postgres_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	apperrors "github.com/frahmantamala/access-management/internal"
	"github.com/frahmantamala/access-management/internal/core/datamodel/rbac"
	"github.com/frahmantamala/access-management/internal/module"
	modulePostgres "github.com/frahmantamala/access-management/internal/module/postgres"
	"github.com/frahmantamala/access-management/internal/reconcile"
)

func TestModulePostgres(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Module Postgres Suite")
}

var _ = Describe("Module Repository", func() {
	var (
		db   *gorm.DB
		repo module.RepositoryAPI
	)

	BeforeEach(func() {
		var err error
		db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		})
		Expect(err).NotTo(HaveOccurred())

		err = db.AutoMigrate(&rbac.User{}, &rbac.Role{}, &rbac.Module{}, &rbac.ModulePermission{}, &rbac.RoleUser{})
		Expect(err).NotTo(HaveOccurred())

		repo = modulePostgres.NewModuleRepository(db)
	})

	newRole := func(name string) rbac.Role {
		r := rbac.Role{Name: name, ForAdmin: true}
		Expect(db.Create(&r).Error).NotTo(HaveOccurred())
		return r
	}

	Describe("lookups", func() {
		It("finds the same module by name and by path", func() {
			path := "/users"
			created := &rbac.Module{Name: "Users", Path: &path, Order: 1, AvailableActions: rbac.AllActions()}
			Expect(repo.Create(created, nil)).To(Succeed())

			byName, err := repo.FindByName("Users")
			Expect(err).NotTo(HaveOccurred())
			byPath, err := repo.FindByPath("/users")
			Expect(err).NotTo(HaveOccurred())
			Expect(byPath.ID).To(Equal(byName.ID))
		})

		It("returns the not-found sentinel for unknown refs", func() {
			_, err := repo.FindByName("Ghost")
			Expect(err).To(Equal(apperrors.ErrModuleNotFound))

			_, err = repo.FindByPath("/ghost")
			Expect(err).To(Equal(apperrors.ErrModuleNotFound))
		})

		It("excludes soft-deleted modules", func() {
			created := &rbac.Module{Name: "Old", Order: 1, AvailableActions: rbac.AllActions()}
			Expect(repo.Create(created, nil)).To(Succeed())
			Expect(repo.SoftDelete(created.ID)).To(Succeed())

			_, err := repo.FindByName("Old")
			Expect(err).To(Equal(apperrors.ErrModuleNotFound))
		})
	})

	Describe("Update", func() {
		It("prunes grants for dropped actions in the same transaction", func() {
			created := &rbac.Module{Name: "Reports", Order: 1, AvailableActions: rbac.AllActions()}
			Expect(repo.Create(created, nil)).To(Succeed())

			r := newRole("Printer")
			Expect(reconcile.RolePermissions(db, r.ID, []reconcile.PermissionKey{
				{ModuleID: created.ID, Action: rbac.CanView},
				{ModuleID: created.ID, Action: rbac.CanPrint},
			})).To(Succeed())

			created.AvailableActions = []rbac.Action{rbac.CanView, rbac.CanCreate, rbac.CanUpdate, rbac.CanDelete, rbac.CanExport}
			Expect(repo.Update(created, []string{r.ID})).To(Succeed())

			var active []rbac.ModulePermission
			Expect(db.Where("module_id = ?", created.ID).Find(&active).Error).NotTo(HaveOccurred())
			Expect(active).To(HaveLen(1))
			Expect(active[0].Action).To(Equal(rbac.CanView))

			// The can_print grant is revoked, not erased.
			var all []rbac.ModulePermission
			Expect(db.Unscoped().Where("module_id = ?", created.ID).Find(&all).Error).NotTo(HaveOccurred())
			Expect(all).To(HaveLen(2))
		})

		It("reconciles the viewer role list", func() {
			created := &rbac.Module{Name: "Reports", Order: 1, AvailableActions: rbac.AllActions()}
			Expect(repo.Create(created, nil)).To(Succeed())

			r1 := newRole("First")
			r2 := newRole("Second")

			Expect(repo.Update(created, []string{r1.ID})).To(Succeed())
			Expect(repo.Update(created, []string{r2.ID})).To(Succeed())

			ids, err := repo.ActiveViewerRoleIDs(created.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(ids).To(Equal([]string{r2.ID}))
		})
	})

	Describe("SoftDelete", func() {
		It("revokes the module's grants in the same transaction", func() {
			created := &rbac.Module{Name: "Reports", Order: 1, AvailableActions: rbac.AllActions()}
			Expect(repo.Create(created, nil)).To(Succeed())

			r := newRole("Viewer")
			Expect(repo.Update(created, []string{r.ID})).To(Succeed())

			Expect(repo.SoftDelete(created.ID)).To(Succeed())

			var active []rbac.ModulePermission
			Expect(db.Where("module_id = ?", created.ID).Find(&active).Error).NotTo(HaveOccurred())
			Expect(active).To(BeEmpty())
		})
	})
})
