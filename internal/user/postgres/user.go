package postgres

import (
	"context"
	"errors"

	"github.com/exiledproject/launcher-cms/internal/permission"
	"github.com/exiledproject/launcher-cms/internal/user"
	"gorm.io/gorm"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// FindByLogin matches the login case-insensitively, per the launcher
// contract. Unknown logins return (nil, nil).
func (r *Repository) FindByLogin(ctx context.Context, login string) (*user.User, error) {
	var u user.User
	err := r.db.WithContext(ctx).Table("users").
		Where("LOWER(login) = LOWER(?)", login).
		Take(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

func (r *Repository) GetByID(ctx context.Context, id int64) (*user.User, error) {
	var u user.User
	err := r.db.WithContext(ctx).Table("users").Where("id = ?", id).Take(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

func (r *Repository) Create(ctx context.Context, u *user.User) error {
	return r.db.WithContext(ctx).Table("users").Create(u).Error
}

func (r *Repository) Update(ctx context.Context, u *user.User) error {
	return r.db.WithContext(ctx).Table("users").Where("id = ?", u.ID).Save(u).Error
}

func (r *Repository) List(ctx context.Context, limit, offset int) ([]user.User, error) {
	var users []user.User
	err := r.db.WithContext(ctx).Table("users").
		Order("id").
		Limit(limit).
		Offset(offset).
		Find(&users).Error
	return users, err
}

func (r *Repository) AddUserRole(ctx context.Context, userID, roleID int64) error {
	link := permission.UserRole{UserID: userID, RoleID: roleID}
	return r.db.WithContext(ctx).Table("user_roles").
		Where("user_id = ? AND role_id = ?", userID, roleID).
		FirstOrCreate(&link).Error
}

func (r *Repository) RemoveUserRole(ctx context.Context, userID, roleID int64) error {
	return r.db.WithContext(ctx).Table("user_roles").
		Where("user_id = ? AND role_id = ?", userID, roleID).
		Delete(&permission.UserRole{}).Error
}

func (r *Repository) AddUserPermission(ctx context.Context, userID, permissionID int64) error {
	link := permission.UserPermission{UserID: userID, PermissionID: permissionID}
	return r.db.WithContext(ctx).Table("user_permissions").
		Where("user_id = ? AND permission_id = ?", userID, permissionID).
		FirstOrCreate(&link).Error
}

func (r *Repository) RemoveUserPermission(ctx context.Context, userID, permissionID int64) error {
	return r.db.WithContext(ctx).Table("user_permissions").
		Where("user_id = ? AND permission_id = ?", userID, permissionID).
		Delete(&permission.UserPermission{}).Error
}
