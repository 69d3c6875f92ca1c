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

var (
	superuserEmail    string
	superuserName     string
	superuserPassword string
)

var createSuperuserCmd = &cobra.Command{
	Use:   "createsuperuser",
	Short: "Create a superstaff user",
	Long:  `Create an activated superstaff user that bypasses every permission check.`,
	Run: func(cmd *cobra.Command, args []string) {
		if superuserEmail == "" || superuserPassword == "" {
			log.Fatal("--email and --password are required")
		}
		if superuserName == "" {
			superuserName = superuserEmail
		}

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

		var existing rbac.User
		err = db.Where("email = ?", superuserEmail).First(&existing).Error
		if err == nil {
			log.Fatalf("user %s already exists", superuserEmail)
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Fatalf("failed to look up user: %v", err)
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(superuserPassword), cfg.Security.BCryptCost)
		if err != nil {
			log.Fatalf("failed to hash password: %v", err)
		}

		now := time.Now()
		newUser := rbac.User{
			Name:         superuserName,
			Email:        superuserEmail,
			PasswordHash: string(hash),
			Superstaff:   true,
			ActivatedAt:  &now,
		}
		if err := db.Create(&newUser).Error; err != nil {
			log.Fatalf("failed to create superuser: %v", err)
		}

		fmt.Println("Created superstaff user:", superuserEmail)
	},
}

func init() {
	createSuperuserCmd.Flags().StringVar(&superuserEmail, "email", "", "Email address for the new superstaff user")
	createSuperuserCmd.Flags().StringVar(&superuserName, "name", "", "Display name (defaults to the email)")
	createSuperuserCmd.Flags().StringVar(&superuserPassword, "password", "", "Password for the new superstaff user")
}
