package postgres

import (
	"context"
	"errors"

	"github.com/exiledproject/launcher-cms/internal/permission"
	"gorm.io/gorm"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) UserPermissionCodes(ctx context.Context, userID int64) ([]permission.Code, error) {
	var codes []permission.Code
	err := r.db.WithContext(ctx).
		Table("permissions").
		Select("permissions.code").
		Joins("JOIN user_permissions ON user_permissions.permission_id = permissions.id").
		Where("user_permissions.user_id = ?", userID).
		Scan(&codes).Error
	return codes, err
}

func (r *Repository) UserRoleIDs(ctx context.Context, userID int64) ([]int64, error) {
	var ids []int64
	err := r.db.WithContext(ctx).
		Table("user_roles").
		Select("role_id").
		Where("user_id = ?", userID).
		Scan(&ids).Error
	return ids, err
}

func (r *Repository) RoleGrants(ctx context.Context, roleID int64) (*permission.RoleGrants, error) {
	var role permission.Role
	if err := r.db.WithContext(ctx).Table("roles").Where("id = ?", roleID).Take(&role).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	codes, err := r.RolePermissionCodes(ctx, roleID)
	if err != nil {
		return nil, err
	}
	return &permission.RoleGrants{
		ID:           role.ID,
		ParentRoleID: role.ParentRoleID,
		Codes:        codes,
	}, nil
}

func (r *Repository) AllCodes(ctx context.Context) ([]permission.Code, error) {
	var codes []permission.Code
	err := r.db.WithContext(ctx).Table("permissions").Select("code").Scan(&codes).Error
	return codes, err
}

func (r *Repository) ListPermissions(ctx context.Context) ([]permission.Permission, error) {
	var perms []permission.Permission
	err := r.db.WithContext(ctx).Table("permissions").Order("code").Find(&perms).Error
	return perms, err
}

func (r *Repository) CreatePermission(ctx context.Context, p *permission.Permission) error {
	return r.db.WithContext(ctx).Table("permissions").Create(p).Error
}

func (r *Repository) DeletePermission(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Table("role_permissions").Where("permission_id = ?", id).Delete(&permission.RolePermission{}).Error; err != nil {
			return err
		}
		if err := tx.Table("user_permissions").Where("permission_id = ?", id).Delete(&permission.UserPermission{}).Error; err != nil {
			return err
		}
		return tx.Table("permissions").Where("id = ?", id).Delete(&permission.Permission{}).Error
	})
}

func (r *Repository) ListRoles(ctx context.Context) ([]permission.Role, error) {
	var roles []permission.Role
	err := r.db.WithContext(ctx).Table("roles").Order("code").Find(&roles).Error
	return roles, err
}

func (r *Repository) GetRole(ctx context.Context, id int64) (*permission.Role, error) {
	var role permission.Role
	if err := r.db.WithContext(ctx).Table("roles").Where("id = ?", id).Take(&role).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &role, nil
}

func (r *Repository) CreateRole(ctx context.Context, role *permission.Role) error {
	return r.db.WithContext(ctx).Table("roles").Create(role).Error
}

func (r *Repository) UpdateRole(ctx context.Context, role *permission.Role) error {
	return r.db.WithContext(ctx).Table("roles").Where("id = ?", role.ID).
		Select("name", "code", "color", "logo_url", "parent_role_id", "updated_at").
		Updates(role).Error
}

func (r *Repository) DeleteRole(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Table("role_permissions").Where("role_id = ?", id).Delete(&permission.RolePermission{}).Error; err != nil {
			return err
		}
		if err := tx.Table("user_roles").Where("role_id = ?", id).Delete(&permission.UserRole{}).Error; err != nil {
			return err
		}
		// Children are orphaned, not deleted: their parent pointer is cleared.
		if err := tx.Table("roles").Where("parent_role_id = ?", id).Update("parent_role_id", nil).Error; err != nil {
			return err
		}
		return tx.Table("roles").Where("id = ?", id).Delete(&permission.Role{}).Error
	})
}

func (r *Repository) RolePermissionCodes(ctx context.Context, roleID int64) ([]permission.Code, error) {
	var codes []permission.Code
	err := r.db.WithContext(ctx).
		Table("permissions").
		Select("permissions.code").
		Joins("JOIN role_permissions ON role_permissions.permission_id = permissions.id").
		Where("role_permissions.role_id = ?", roleID).
		Scan(&codes).Error
	return codes, err
}

func (r *Repository) AddRolePermission(ctx context.Context, roleID, permissionID int64) error {
	link := permission.RolePermission{RoleID: roleID, PermissionID: permissionID}
	return r.db.WithContext(ctx).Table("role_permissions").
		Where("role_id = ? AND permission_id = ?", roleID, permissionID).
		FirstOrCreate(&link).Error
}

func (r *Repository) RemoveRolePermission(ctx context.Context, roleID, permissionID int64) error {
	return r.db.WithContext(ctx).Table("role_permissions").
		Where("role_id = ? AND permission_id = ?", roleID, permissionID).
		Delete(&permission.RolePermission{}).Error
}
