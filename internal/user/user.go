package user

import (
	"context"
	"time"

	"github.com/exiledproject/launcher-cms/internal/permission"
)

// User is the account entity shared by the launcher sign-in and the admin
// panel. mustSetup2FA and twoFactorEnabled are mutually exclusive: the first
// marks an account frozen until a TOTP secret is bound, the second that a
// code has been verified at least once.
type User struct {
	ID               int64     `json:"id" gorm:"primaryKey"`
	Login            string    `json:"login" gorm:"uniqueIndex;size:64"`
	Email            string    `json:"email"`
	DisplayName      string    `json:"display_name"`
	PasswordHash     string    `json:"-"`
	PasswordSalt     string    `json:"-"`
	IsBanned         bool      `json:"is_banned"`
	BanReason        *string   `json:"ban_reason,omitempty"`
	Require2FA       bool      `json:"require_2fa" gorm:"column:require_2fa"`
	MustSetup2FA     bool      `json:"must_setup_2fa" gorm:"column:must_setup_2fa"`
	TwoFactorSecret  *string   `json:"-"`
	TwoFactorEnabled bool      `json:"two_factor_enabled"`
	UserUUID         string    `json:"user_uuid" gorm:"uniqueIndex;size:36"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// Repository is the persistence surface for accounts and their role and
// permission links. FindByLogin matches case-insensitively and returns
// (nil, nil) for an unknown login; absence is a business outcome here, not
// an error.
type Repository interface {
	FindByLogin(ctx context.Context, login string) (*User, error)
	GetByID(ctx context.Context, id int64) (*User, error)
	Create(ctx context.Context, u *User) error
	Update(ctx context.Context, u *User) error
	List(ctx context.Context, limit, offset int) ([]User, error)

	AddUserRole(ctx context.Context, userID, roleID int64) error
	RemoveUserRole(ctx context.Context, userID, roleID int64) error
	AddUserPermission(ctx context.Context, userID, permissionID int64) error
	RemoveUserPermission(ctx context.Context, userID, permissionID int64) error
}

// WithPermissions is the request-scoped principal: the account plus its
// resolved effective permission set.
type WithPermissions struct {
	User        *User
	Permissions permission.CodeSet
}
