package cmd

import (
	"context"
	"fmt"
	"log"

	"github.com/exiledproject/launcher-cms/internal/auth"
	"github.com/exiledproject/launcher-cms/internal/permission"
	permissionpg "github.com/exiledproject/launcher-cms/internal/permission/postgres"
	"github.com/exiledproject/launcher-cms/internal/user"
	userpg "github.com/exiledproject/launcher-cms/internal/user/postgres"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	adminLogin    string
	adminPassword string

	createAdminCmd = &cobra.Command{
		Use:   "create-admin",
		Short: "Create an account holding the wildcard permission",
		Run: func(cmd *cobra.Command, args []string) {
			if adminLogin == "" || adminPassword == "" {
				log.Fatal("--login and --password are required")
			}

			cfg, err := loadConfig(".")
			if err != nil {
				log.Fatalf("failed to load config: %v", err)
			}
			if cfg.Database.UsesMemoryStore() {
				log.Fatal("create-admin requires a configured database")
			}

			gormDB, _, err := openDatabase(cfg.Database)
			if err != nil {
				log.Fatalf("failed to open database: %v", err)
			}

			ctx := context.Background()
			users := userpg.NewRepository(gormDB)
			permStore := permissionpg.NewRepository(gormDB)

			if existing, err := users.FindByLogin(ctx, adminLogin); err != nil {
				log.Fatalf("failed to look up %q: %v", adminLogin, err)
			} else if existing != nil {
				log.Fatalf("login %q is already taken", adminLogin)
			}

			perms, err := permStore.ListPermissions(ctx)
			if err != nil {
				log.Fatalf("failed to list permissions: %v", err)
			}
			var wildcardID int64
			for _, p := range perms {
				if p.Code == permission.Wildcard {
					wildcardID = p.ID
				}
			}
			if wildcardID == 0 {
				p := &permission.Permission{Code: permission.Wildcard, Name: "Все разрешения"}
				if err := permStore.CreatePermission(ctx, p); err != nil {
					log.Fatalf("failed to create wildcard permission: %v", err)
				}
				wildcardID = p.ID
			}

			salt, err := auth.GenerateSalt()
			if err != nil {
				log.Fatalf("failed to generate salt: %v", err)
			}
			u := &user.User{
				Login:        adminLogin,
				Email:        adminLogin + "@localhost",
				DisplayName:  adminLogin,
				PasswordHash: auth.HashPassword(adminPassword, salt),
				PasswordSalt: salt,
				UserUUID:     uuid.NewString(),
			}
			if err := users.Create(ctx, u); err != nil {
				log.Fatalf("failed to create user: %v", err)
			}
			if err := users.AddUserPermission(ctx, u.ID, wildcardID); err != nil {
				log.Fatalf("failed to grant wildcard: %v", err)
			}

			fmt.Printf("created administrator %q (id %d)\n", adminLogin, u.ID)
		},
	}
)

func init() {
	createAdminCmd.Flags().StringVar(&adminLogin, "login", "", "login for the new administrator")
	createAdminCmd.Flags().StringVar(&adminPassword, "password", "", "password for the new administrator")
}
