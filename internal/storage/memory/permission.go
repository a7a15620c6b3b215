package memory

import (
	"context"
	"sort"

	"github.com/exiledproject/launcher-cms/internal/permission"
)

func (s *Store) UserPermissionCodes(_ context.Context, userID int64) ([]permission.Code, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var codes []permission.Code
	for link := range s.userPermissions {
		if link.UserID != userID {
			continue
		}
		if p, ok := s.permissions[link.PermissionID]; ok {
			codes = append(codes, p.Code)
		}
	}
	return codes, nil
}

func (s *Store) UserRoleIDs(_ context.Context, userID int64) ([]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var ids []int64
	for link := range s.userRoles {
		if link.UserID == userID {
			ids = append(ids, link.RoleID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (s *Store) RoleGrants(_ context.Context, roleID int64) (*permission.RoleGrants, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	role, ok := s.roles[roleID]
	if !ok {
		return nil, nil
	}
	return &permission.RoleGrants{
		ID:           role.ID,
		ParentRoleID: role.ParentRoleID,
		Codes:        s.rolePermissionCodesLocked(roleID),
	}, nil
}

func (s *Store) AllCodes(_ context.Context) ([]permission.Code, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	codes := make([]permission.Code, 0, len(s.permissions))
	for _, p := range s.permissions {
		codes = append(codes, p.Code)
	}
	return codes, nil
}

func (s *Store) ListPermissions(_ context.Context) ([]permission.Permission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	perms := make([]permission.Permission, 0, len(s.permissions))
	for _, p := range s.permissions {
		perms = append(perms, p)
	}
	sort.Slice(perms, func(i, j int) bool { return perms[i].Code < perms[j].Code })
	return perms, nil
}

func (s *Store) CreatePermission(_ context.Context, p *permission.Permission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == 0 {
		p.ID = s.id("permissions")
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = s.now().UTC()
	}
	s.permissions[p.ID] = *p
	return nil
}

func (s *Store) DeletePermission(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.permissions, id)
	for link := range s.rolePermissions {
		if link.PermissionID == id {
			delete(s.rolePermissions, link)
		}
	}
	for link := range s.userPermissions {
		if link.PermissionID == id {
			delete(s.userPermissions, link)
		}
	}
	return nil
}

func (s *Store) ListRoles(_ context.Context) ([]permission.Role, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	roles := make([]permission.Role, 0, len(s.roles))
	for _, r := range s.roles {
		roles = append(roles, r)
	}
	sort.Slice(roles, func(i, j int) bool { return roles[i].Code < roles[j].Code })
	return roles, nil
}

func (s *Store) GetRole(_ context.Context, id int64) (*permission.Role, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	role, ok := s.roles[id]
	if !ok {
		return nil, nil
	}
	copied := role
	return &copied, nil
}

func (s *Store) CreateRole(_ context.Context, r *permission.Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r.ID == 0 {
		r.ID = s.id("roles")
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = s.now().UTC()
	}
	r.UpdatedAt = r.CreatedAt
	s.roles[r.ID] = *r
	return nil
}

func (s *Store) UpdateRole(_ context.Context, r *permission.Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.roles[r.ID]
	if ok {
		r.CreatedAt = existing.CreatedAt
	}
	r.UpdatedAt = s.now().UTC()
	s.roles[r.ID] = *r
	return nil
}

func (s *Store) DeleteRole(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.roles, id)
	for link := range s.rolePermissions {
		if link.RoleID == id {
			delete(s.rolePermissions, link)
		}
	}
	for link := range s.userRoles {
		if link.RoleID == id {
			delete(s.userRoles, link)
		}
	}
	// Orphan children instead of cascading.
	for childID, child := range s.roles {
		if child.ParentRoleID != nil && *child.ParentRoleID == id {
			child.ParentRoleID = nil
			s.roles[childID] = child
		}
	}
	return nil
}

func (s *Store) RolePermissionCodes(_ context.Context, roleID int64) ([]permission.Code, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rolePermissionCodesLocked(roleID), nil
}

func (s *Store) rolePermissionCodesLocked(roleID int64) []permission.Code {
	var codes []permission.Code
	for link := range s.rolePermissions {
		if link.RoleID != roleID {
			continue
		}
		if p, ok := s.permissions[link.PermissionID]; ok {
			codes = append(codes, p.Code)
		}
	}
	sort.Slice(codes, func(i, j int) bool { return codes[i] < codes[j] })
	return codes
}

func (s *Store) AddRolePermission(_ context.Context, roleID, permissionID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rolePermissions[permission.RolePermission{RoleID: roleID, PermissionID: permissionID}] = struct{}{}
	return nil
}

func (s *Store) RemoveRolePermission(_ context.Context, roleID, permissionID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rolePermissions, permission.RolePermission{RoleID: roleID, PermissionID: permissionID})
	return nil
}
