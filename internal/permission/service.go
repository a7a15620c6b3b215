package permission

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/exiledproject/launcher-cms/internal/audit"
)

var (
	ErrRoleNotFound       = errors.New("role not found")
	ErrPermissionNotFound = errors.New("permission not found")
	// ErrParentCycle: the requested parent chain reaches the role itself.
	ErrParentCycle = errors.New("parent role chain forms a cycle")
)

// Service carries the role/permission admin operations. Mutations are
// audited with the acting user.
type Service struct {
	store    Store
	recorder audit.Recorder
	logger   *slog.Logger
}

func NewService(store Store, recorder audit.Recorder, logger *slog.Logger) *Service {
	return &Service{store: store, recorder: recorder, logger: logger}
}

func (s *Service) ListPermissions(ctx context.Context) ([]Permission, error) {
	return s.store.ListPermissions(ctx)
}

func (s *Service) CreatePermission(ctx context.Context, actorID int64, ip string, p *Permission) error {
	if err := s.store.CreatePermission(ctx, p); err != nil {
		return err
	}
	s.recorder.Record(ctx, audit.Entry{
		UserID:  &actorID,
		Action:  "create_permission",
		Details: fmt.Sprintf("разрешение %q", p.Code),
		IP:      ip,
	})
	return nil
}

func (s *Service) DeletePermission(ctx context.Context, actorID int64, ip string, id int64) error {
	if err := s.store.DeletePermission(ctx, id); err != nil {
		return err
	}
	s.recorder.Record(ctx, audit.Entry{
		UserID:  &actorID,
		Action:  "delete_permission",
		Details: fmt.Sprintf("разрешение #%d", id),
		IP:      ip,
	})
	return nil
}

func (s *Service) ListRoles(ctx context.Context) ([]Role, error) {
	return s.store.ListRoles(ctx)
}

// RoleDetail is a role plus the codes it grants directly.
type RoleDetail struct {
	Role
	Permissions []Code `json:"permissions"`
}

func (s *Service) GetRole(ctx context.Context, id int64) (*RoleDetail, error) {
	role, err := s.store.GetRole(ctx, id)
	if err != nil {
		return nil, err
	}
	if role == nil {
		return nil, ErrRoleNotFound
	}
	codes, err := s.store.RolePermissionCodes(ctx, id)
	if err != nil {
		return nil, err
	}
	return &RoleDetail{Role: *role, Permissions: codes}, nil
}

func (s *Service) CreateRole(ctx context.Context, actorID int64, ip string, r *Role) error {
	if r.ParentRoleID != nil {
		if err := s.checkParentChain(ctx, 0, *r.ParentRoleID); err != nil {
			return err
		}
	}
	if err := s.store.CreateRole(ctx, r); err != nil {
		return err
	}
	s.recorder.Record(ctx, audit.Entry{
		UserID:  &actorID,
		Action:  "create_role",
		Details: fmt.Sprintf("роль %q", r.Code),
		IP:      ip,
	})
	return nil
}

// UpdateRole rejects a parent pointer whose chain would reach the role being
// updated. The resolver tolerates cycles anyway, but refusing them at write
// time keeps the role tree a tree.
func (s *Service) UpdateRole(ctx context.Context, actorID int64, ip string, r *Role) error {
	existing, err := s.store.GetRole(ctx, r.ID)
	if err != nil {
		return err
	}
	if existing == nil {
		return ErrRoleNotFound
	}
	if r.ParentRoleID != nil {
		if err := s.checkParentChain(ctx, r.ID, *r.ParentRoleID); err != nil {
			return err
		}
	}
	if err := s.store.UpdateRole(ctx, r); err != nil {
		return err
	}
	s.recorder.Record(ctx, audit.Entry{
		UserID:  &actorID,
		Action:  "update_role",
		Details: fmt.Sprintf("роль %q", r.Code),
		IP:      ip,
	})
	return nil
}

func (s *Service) DeleteRole(ctx context.Context, actorID int64, ip string, id int64) error {
	existing, err := s.store.GetRole(ctx, id)
	if err != nil {
		return err
	}
	if existing == nil {
		return ErrRoleNotFound
	}
	if err := s.store.DeleteRole(ctx, id); err != nil {
		return err
	}
	s.recorder.Record(ctx, audit.Entry{
		UserID:  &actorID,
		Action:  "delete_role",
		Details: fmt.Sprintf("роль %q", existing.Code),
		IP:      ip,
	})
	return nil
}

func (s *Service) AddRolePermission(ctx context.Context, actorID int64, ip string, roleID, permissionID int64) error {
	if err := s.store.AddRolePermission(ctx, roleID, permissionID); err != nil {
		return err
	}
	s.recorder.Record(ctx, audit.Entry{
		UserID:  &actorID,
		Action:  "grant_role_permission",
		Details: fmt.Sprintf("роль #%d, разрешение #%d", roleID, permissionID),
		IP:      ip,
	})
	return nil
}

func (s *Service) RemoveRolePermission(ctx context.Context, actorID int64, ip string, roleID, permissionID int64) error {
	if err := s.store.RemoveRolePermission(ctx, roleID, permissionID); err != nil {
		return err
	}
	s.recorder.Record(ctx, audit.Entry{
		UserID:  &actorID,
		Action:  "revoke_role_permission",
		Details: fmt.Sprintf("роль #%d, разрешение #%d", roleID, permissionID),
		IP:      ip,
	})
	return nil
}

// checkParentChain walks up from parentID; reaching roleID means a cycle.
// The visited set terminates the walk even over already-malformed data.
func (s *Service) checkParentChain(ctx context.Context, roleID, parentID int64) error {
	visited := make(map[int64]struct{})
	current := parentID
	for {
		if current == roleID {
			return ErrParentCycle
		}
		if _, seen := visited[current]; seen {
			return ErrParentCycle
		}
		visited[current] = struct{}{}

		parent, err := s.store.GetRole(ctx, current)
		if err != nil {
			return err
		}
		if parent == nil {
			return ErrRoleNotFound
		}
		if parent.ParentRoleID == nil {
			return nil
		}
		current = *parent.ParentRoleID
	}
}
