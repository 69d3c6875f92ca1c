package cmd

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/frahmantamala/access-management/internal/core/datamodel/rbac"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with the default modules, roles and users",
	Long:  `Seed the database with the navigation modules, a default admin role and development users.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(".")
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}

		sqlxDB, err := initDB(cfg.Database)
		if err != nil {
			log.Fatalf("failed to init db: %v", err)
		}
		db, err := gorm.Open(gormpostgres.New(gormpostgres.Config{Conn: sqlxDB.DB}), &gorm.Config{})
		if err != nil {
			log.Fatalf("failed to init orm: %v", err)
		}

		if clearData {
			for _, table := range []string{"module_permissions", "role_user", "modules", "roles", "users"} {
				if err := db.Exec("DELETE FROM " + table).Error; err != nil {
					log.Fatalf("failed to clear table %s: %v", table, err)
				}
			}
			fmt.Println("Cleared existing data")
		}

		modules := seedModules(db)
		adminRole := seedAdminRole(db, modules)
		seedUsers(db, cfg.Security.BCryptCost, adminRole)

		fmt.Println("Seeding complete")
	},
}

func seedModules(db *gorm.DB) []rbac.Module {
	var programsID string

	defs := []rbac.Module{
		{
			GroupTitle:       "Platform",
			Icon:             strPtr("LayoutGrid"),
			Order:            1,
			Path:             strPtr("/dashboard"),
			Name:             "Dashboard",
			Description:      strPtr("Welcome to your dashboard"),
			AvailableActions: []rbac.Action{rbac.CanView},
		},
		{
			GroupTitle:       "Platform",
			Icon:             strPtr("Pi"),
			Order:            2,
			Name:             "Programs",
			AvailableActions: []rbac.Action{rbac.CanView},
		},
		{
			GroupTitle:       "Platform",
			Icon:             strPtr("Pi"),
			Order:            3,
			Name:             "Programs 1",
			AvailableActions: []rbac.Action{rbac.CanView},
		},
		{
			GroupTitle:       "Role Management",
			Icon:             strPtr("UsersRound"),
			Order:            4,
			Path:             strPtr("/users"),
			Name:             "Users",
			Description:      strPtr("Manage the users of this system"),
			AvailableActions: []rbac.Action{rbac.CanView, rbac.CanCreate, rbac.CanUpdate, rbac.CanDelete},
		},
		{
			GroupTitle:       "Role Management",
			Icon:             strPtr("UserRoundCog"),
			Order:            5,
			Path:             strPtr("/roles"),
			Name:             "Roles",
			Description:      strPtr("Manage the roles and permissions for your users"),
			AvailableActions: []rbac.Action{rbac.CanView, rbac.CanCreate, rbac.CanUpdate, rbac.CanDelete},
		},
		{
			GroupTitle:       "Role Management",
			Icon:             strPtr("SquareDashedMousePointer"),
			Order:            6,
			Path:             strPtr("/modules"),
			Name:             "Modules",
			Description:      strPtr("Manage the modules of the system."),
			AvailableActions: []rbac.Action{rbac.CanView, rbac.CanCreate, rbac.CanUpdate, rbac.CanDelete},
		},
	}

	var seeded []rbac.Module
	for _, def := range defs {
		var existing rbac.Module
		err := db.Unscoped().Where("name = ?", def.Name).First(&existing).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			if def.Name == "Programs 1" && programsID != "" {
				def.ParentID = &programsID
			}
			if err := db.Create(&def).Error; err != nil {
				log.Fatalf("failed to seed module %s: %v", def.Name, err)
			}
			existing = def
		case err != nil:
			log.Fatalf("failed to look up module %s: %v", def.Name, err)
		default:
			if existing.DeletedAt.Valid {
				if err := db.Unscoped().Model(&rbac.Module{}).
					Where("id = ?", existing.ID).
					Update("deleted_at", nil).Error; err != nil {
					log.Fatalf("failed to restore module %s: %v", def.Name, err)
				}
			}
		}
		if existing.Name == "Programs" {
			programsID = existing.ID
		}
		seeded = append(seeded, existing)
	}
	return seeded
}

func seedAdminRole(db *gorm.DB, modules []rbac.Module) *rbac.Role {
	adminRole := rbac.Role{
		Name:        "Admin2",
		Description: strPtr("Role for admins"),
		ForAdmin:    true,
	}

	var existing rbac.Role
	err := db.Unscoped().Where("name = ?", adminRole.Name).First(&existing).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		if err := db.Create(&adminRole).Error; err != nil {
			log.Fatalf("failed to seed admin role: %v", err)
		}
		existing = adminRole
	case err != nil:
		log.Fatalf("failed to look up admin role: %v", err)
	default:
		if existing.DeletedAt.Valid {
			if err := db.Unscoped().Model(&rbac.Role{}).
				Where("id = ?", existing.ID).
				Update("deleted_at", nil).Error; err != nil {
				log.Fatalf("failed to restore admin role: %v", err)
			}
		}
	}

	// Visibility into every seeded module, restore-or-create like any
	// other re-grant.
	for _, m := range modules {
		var grant rbac.ModulePermission
		err := db.Unscoped().
			Where("role_id = ? AND module_id = ? AND action = ?", existing.ID, m.ID, rbac.CanView).
			First(&grant).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			grant = rbac.ModulePermission{RoleID: existing.ID, ModuleID: m.ID, Action: rbac.CanView}
			if err := db.Create(&grant).Error; err != nil {
				log.Fatalf("failed to grant can_view on %s: %v", m.Name, err)
			}
		case err != nil:
			log.Fatalf("failed to look up grant on %s: %v", m.Name, err)
		default:
			if grant.DeletedAt.Valid {
				if err := db.Unscoped().Model(&rbac.ModulePermission{}).
					Where("id = ?", grant.ID).
					Update("deleted_at", nil).Error; err != nil {
					log.Fatalf("failed to restore grant on %s: %v", m.Name, err)
				}
			}
		}
	}

	return &existing
}

func seedUsers(db *gorm.DB, bcryptCost int, adminRole *rbac.Role) {
	hash, err := bcrypt.GenerateFromPassword([]byte("password"), bcryptCost)
	if err != nil {
		log.Fatalf("failed to hash seed password: %v", err)
	}
	now := time.Now()

	users := []rbac.User{
		{
			Name:         "Super Admin",
			Email:        "admin@mail.com",
			PasswordHash: string(hash),
			Superstaff:   true,
			ActivatedAt:  &now,
		},
		{
			Name:         "Staff",
			Email:        "staff@mail.com",
			PasswordHash: string(hash),
			ActivatedAt:  &now,
		},
	}

	for i, u := range users {
		var existing rbac.User
		err := db.Where("email = ?", u.Email).First(&existing).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			if err := db.Create(&u).Error; err != nil {
				log.Fatalf("failed to seed user %s: %v", u.Email, err)
			}
			existing = u
			fmt.Println("Seeded user:", u.Email)
		case err != nil:
			log.Fatalf("failed to look up user %s: %v", u.Email, err)
		}

		// The non-superstaff user gets the admin role so permission
		// checks have something to resolve.
		if i == 1 {
			var membership rbac.RoleUser
			err := db.Unscoped().
				Where("user_id = ? AND role_id = ?", existing.ID, adminRole.ID).
				First(&membership).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				membership = rbac.RoleUser{UserID: existing.ID, RoleID: adminRole.ID}
				if err := db.Create(&membership).Error; err != nil {
					log.Fatalf("failed to assign role to %s: %v", existing.Email, err)
				}
			} else if err == nil && membership.DeletedAt.Valid {
				if err := db.Unscoped().Model(&rbac.RoleUser{}).
					Where("id = ?", membership.ID).
					Update("deleted_at", nil).Error; err != nil {
					log.Fatalf("failed to restore role for %s: %v", existing.Email, err)
				}
			}
		}
	}
}

func strPtr(s string) *string { return &s }
