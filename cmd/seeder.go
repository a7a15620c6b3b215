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

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with the capability permissions and demo accounts",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(".")
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}
		if cfg.Database.UsesMemoryStore() {
			log.Fatal("seed requires a configured database; the memory store seeds itself")
		}

		gormDB, _, err := openDatabase(cfg.Database)
		if err != nil {
			log.Fatalf("failed to open database: %v", err)
		}

		ctx := context.Background()
		permStore := permissionpg.NewRepository(gormDB)
		users := userpg.NewRepository(gormDB)

		seedPermissions := []struct {
			code permission.Code
			name string
		}{
			{permission.Wildcard, "Все разрешения"},
			{permission.CodeAPIToken, "Выпуск API-токенов"},
			{permission.CodeAuditView, "Просмотр журнала аудита"},
			{permission.CodeAuditPurge, "Очистка журнала аудита"},
			{permission.CodeRolesManage, "Управление ролями"},
			{permission.CodeUsersManage, "Управление пользователями"},
			{permission.CodeNewsManage, "Управление новостями"},
			{permission.CodeTicketsManage, "Управление тикетами"},
			{permission.CodePagesManage, "Управление страницами"},
		}

		existing, err := permStore.ListPermissions(ctx)
		if err != nil {
			log.Fatalf("failed to list permissions: %v", err)
		}
		byCode := make(map[permission.Code]int64)
		for _, p := range existing {
			byCode[p.Code] = p.ID
		}
		for _, sp := range seedPermissions {
			if _, ok := byCode[sp.code]; ok {
				continue
			}
			p := &permission.Permission{Code: sp.code, Name: sp.name}
			if err := permStore.CreatePermission(ctx, p); err != nil {
				log.Fatalf("failed to create permission %q: %v", sp.code, err)
			}
			byCode[sp.code] = p.ID
			fmt.Println("seeded permission:", sp.code)
		}

		roles, err := permStore.ListRoles(ctx)
		if err != nil {
			log.Fatalf("failed to list roles: %v", err)
		}
		var adminRoleID int64
		for _, r := range roles {
			if r.Code == "admin" {
				adminRoleID = r.ID
			}
		}
		if adminRoleID == 0 {
			role := &permission.Role{Name: "Администратор", Code: "admin", Color: "#e53935"}
			if err := permStore.CreateRole(ctx, role); err != nil {
				log.Fatalf("failed to create admin role: %v", err)
			}
			if err := permStore.AddRolePermission(ctx, role.ID, byCode[permission.Wildcard]); err != nil {
				log.Fatalf("failed to grant wildcard to admin role: %v", err)
			}
			adminRoleID = role.ID
			fmt.Println("seeded admin role")
		}

		demo := []struct {
			login      string
			password   string
			admin      bool
			require2FA bool
			banned     bool
			reason     string
		}{
			{login: "admin", password: "admin123", admin: true},
			{login: "tester", password: "test123", require2FA: true},
			{login: "banned", password: "banned123", banned: true, reason: "Раздача на спавне"},
		}
		for _, d := range demo {
			u, err := users.FindByLogin(ctx, d.login)
			if err != nil {
				log.Fatalf("failed to look up %q: %v", d.login, err)
			}
			if u != nil {
				continue
			}
			salt, err := auth.GenerateSalt()
			if err != nil {
				log.Fatalf("failed to generate salt: %v", err)
			}
			u = &user.User{
				Login:        d.login,
				Email:        d.login + "@localhost",
				DisplayName:  d.login,
				PasswordHash: auth.HashPassword(d.password, salt),
				PasswordSalt: salt,
				UserUUID:     uuid.NewString(),
			}
			if d.require2FA {
				u.Require2FA = true
			}
			if d.banned {
				u.IsBanned = true
				reason := d.reason
				u.BanReason = &reason
			}
			if err := users.Create(ctx, u); err != nil {
				log.Fatalf("failed to create %q: %v", d.login, err)
			}
			if d.admin {
				if err := users.AddUserRole(ctx, u.ID, adminRoleID); err != nil {
					log.Fatalf("failed to assign admin role: %v", err)
				}
			}
			fmt.Println("seeded user:", d.login)
		}
	},
}
