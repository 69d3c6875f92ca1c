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
	"github.com/frahmantamala/access-management/internal/user"
	userPostgres "github.com/frahmantamala/access-management/internal/user/postgres"
)

func TestUserPostgres(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "User Postgres Suite")
}

var _ = Describe("User Repository", func() {
	var (
		db   *gorm.DB
		repo user.RepositoryAPI
	)

	BeforeEach(func() {
		var err error
		db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		})
		Expect(err).NotTo(HaveOccurred())

		err = db.AutoMigrate(&rbac.User{}, &rbac.Role{}, &rbac.Module{}, &rbac.ModulePermission{}, &rbac.RoleUser{})
		Expect(err).NotTo(HaveOccurred())

		repo = userPostgres.NewUserRepository(db)
	})

	newUser := func(name, email string) *rbac.User {
		u := &rbac.User{Name: name, Email: email, PasswordHash: "x"}
		Expect(repo.Create(u, nil)).To(Succeed())
		return u
	}

	Describe("All", func() {
		BeforeEach(func() {
			newUser("Alice", "alice@mail.com")
			newUser("Bob", "bob@mail.com")
			newUser("Carol", "carol@corp.example")
		})

		It("orders by name and pages with limit and offset", func() {
			page, err := repo.All(user.ListParams{Limit: 2})
			Expect(err).NotTo(HaveOccurred())
			Expect(page).To(HaveLen(2))
			Expect(page[0].Name).To(Equal("Alice"))

			rest, err := repo.All(user.ListParams{Limit: 2, Offset: 2})
			Expect(err).NotTo(HaveOccurred())
			Expect(rest).To(HaveLen(1))
			Expect(rest[0].Name).To(Equal("Carol"))
		})

		It("filters on a name or email substring", func() {
			found, err := repo.All(user.ListParams{Search: "corp"})
			Expect(err).NotTo(HaveOccurred())
			Expect(found).To(HaveLen(1))
			Expect(found[0].Name).To(Equal("Carol"))
		})

		It("excludes soft-deleted users", func() {
			gone := newUser("Dave", "dave@mail.com")
			Expect(repo.SoftDelete(gone.ID)).To(Succeed())

			all, err := repo.All(user.ListParams{})
			Expect(err).NotTo(HaveOccurred())
			Expect(all).To(HaveLen(3))
		})
	})

	Describe("GetByID", func() {
		It("returns the not-found sentinel for unknown ids", func() {
			_, err := repo.GetByID("nope")
			Expect(err).To(Equal(apperrors.ErrUserNotFound))
		})
	})

	Describe("membership reconciliation", func() {
		var r1, r2 rbac.Role

		BeforeEach(func() {
			r1 = rbac.Role{Name: "Editor", ForAdmin: true}
			r2 = rbac.Role{Name: "Viewer", ForAdmin: true}
			Expect(db.Create(&r1).Error).NotTo(HaveOccurred())
			Expect(db.Create(&r2).Error).NotTo(HaveOccurred())
		})

		It("creates memberships alongside the user", func() {
			created := &rbac.User{Name: "Alice", Email: "alice@mail.com", PasswordHash: "x"}
			Expect(repo.Create(created, []string{r1.ID})).To(Succeed())

			ids, err := repo.ActiveRoleIDs(created.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(ids).To(Equal([]string{r1.ID}))
		})

		It("replaces memberships on update", func() {
			created := &rbac.User{Name: "Alice", Email: "alice@mail.com", PasswordHash: "x"}
			Expect(repo.Create(created, []string{r1.ID})).To(Succeed())
			Expect(repo.Update(created, []string{r2.ID})).To(Succeed())

			ids, err := repo.ActiveRoleIDs(created.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(ids).To(Equal([]string{r2.ID}))
		})
	})

	Describe("SoftDelete", func() {
		It("revokes memberships in the same transaction", func() {
			r := rbac.Role{Name: "Editor", ForAdmin: true}
			Expect(db.Create(&r).Error).NotTo(HaveOccurred())

			created := &rbac.User{Name: "Alice", Email: "alice@mail.com", PasswordHash: "x"}
			Expect(repo.Create(created, []string{r.ID})).To(Succeed())

			Expect(repo.SoftDelete(created.ID)).To(Succeed())

			ids, err := repo.ActiveRoleIDs(created.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(ids).To(BeEmpty())

			var rows []rbac.RoleUser
			Expect(db.Unscoped().Where("user_id = ?", created.ID).Find(&rows).Error).NotTo(HaveOccurred())
			Expect(rows).To(HaveLen(1))
			Expect(rows[0].DeletedAt.Valid).To(BeTrue())
		})
	})
})
