package memory

import (
	"context"
	"fmt"

	"github.com/exiledproject/launcher-cms/internal/auth"
	"github.com/exiledproject/launcher-cms/internal/news"
	"github.com/exiledproject/launcher-cms/internal/permission"
	"github.com/exiledproject/launcher-cms/internal/user"
	"github.com/google/uuid"
)

// Seed loads the demo dataset: the capability permissions, an admin role
// carrying the wildcard, and three accounts (admin, a 2FA-required tester
// and a banned account) matching what the database seeder installs.
func (s *Store) Seed(ctx context.Context) error {
	codes := []struct {
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
	byCode := make(map[permission.Code]int64, len(codes))
	for _, c := range codes {
		p := &permission.Permission{Code: c.code, Name: c.name}
		if err := s.CreatePermission(ctx, p); err != nil {
			return err
		}
		byCode[c.code] = p.ID
	}

	adminRole := &permission.Role{Name: "Администратор", Code: "admin", Color: "#e53935"}
	if err := s.CreateRole(ctx, adminRole); err != nil {
		return err
	}
	if err := s.AddRolePermission(ctx, adminRole.ID, byCode[permission.Wildcard]); err != nil {
		return err
	}

	users := s.Users()
	admin, err := seedUser(ctx, users, "admin", "admin123")
	if err != nil {
		return err
	}
	if err := users.AddUserRole(ctx, admin.ID, adminRole.ID); err != nil {
		return err
	}

	tester, err := seedUser(ctx, users, "tester", "test123")
	if err != nil {
		return err
	}
	tester.Require2FA = true
	if err := users.Update(ctx, tester); err != nil {
		return err
	}

	banned, err := seedUser(ctx, users, "banned", "banned123")
	if err != nil {
		return err
	}
	reason := "Раздача на спавне"
	banned.IsBanned = true
	banned.BanReason = &reason
	if err := users.Update(ctx, banned); err != nil {
		return err
	}

	item := &news.News{
		Title:       "Добро пожаловать",
		Description: "Сервер запущен в демонстрационном режиме.",
		CreatedAt:   s.now().UTC(),
	}
	item.UpdatedAt = item.CreatedAt
	return s.News().Create(ctx, item)
}

func seedUser(ctx context.Context, repo user.Repository, login, password string) (*user.User, error) {
	salt, err := auth.GenerateSalt()
	if err != nil {
		return nil, fmt.Errorf("seed %s: %w", login, err)
	}
	u := &user.User{
		Login:        login,
		Email:        login + "@localhost",
		DisplayName:  login,
		PasswordHash: auth.HashPassword(password, salt),
		PasswordSalt: salt,
		UserUUID:     uuid.NewString(),
	}
	if err := repo.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}
