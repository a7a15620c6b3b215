package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/exiledproject/launcher-cms/internal/permission"
	"github.com/exiledproject/launcher-cms/internal/user"
)

type userRepo struct {
	s *Store
}

func (r *userRepo) FindByLogin(_ context.Context, login string) (*user.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, u := range r.s.users {
		if strings.EqualFold(u.Login, login) {
			copied := u
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *userRepo) GetByID(_ context.Context, id int64) (*user.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, nil
	}
	copied := u
	return &copied, nil
}

func (r *userRepo) Create(_ context.Context, u *user.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if u.ID == 0 {
		u.ID = r.s.id("users")
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = r.s.now().UTC()
	}
	u.UpdatedAt = u.CreatedAt
	r.s.users[u.ID] = *u
	return nil
}

func (r *userRepo) Update(_ context.Context, u *user.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u.UpdatedAt = r.s.now().UTC()
	r.s.users[u.ID] = *u
	return nil
}

func (r *userRepo) List(_ context.Context, limit, offset int) ([]user.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	users := make([]user.User, 0, len(r.s.users))
	for _, u := range r.s.users {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return page(users, limit, offset), nil
}

func (r *userRepo) AddUserRole(_ context.Context, userID, roleID int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.userRoles[permission.UserRole{UserID: userID, RoleID: roleID}] = struct{}{}
	return nil
}

func (r *userRepo) RemoveUserRole(_ context.Context, userID, roleID int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.userRoles, permission.UserRole{UserID: userID, RoleID: roleID})
	return nil
}

func (r *userRepo) AddUserPermission(_ context.Context, userID, permissionID int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.userPermissions[permission.UserPermission{UserID: userID, PermissionID: permissionID}] = struct{}{}
	return nil
}

func (r *userRepo) RemoveUserPermission(_ context.Context, userID, permissionID int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.userPermissions, permission.UserPermission{UserID: userID, PermissionID: permissionID})
	return nil
}

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	out := make([]T, len(items))
	copy(out, items)
	return out
}
