package permission

import (
	"context"
	"time"
)

// Code is an interned permission code. Using a named type instead of loose
// strings keeps call sites typo-checked; the wildcard stays a sentinel value
// of the same type.
type Code string

// Wildcard grants every permission known to the system. It is expanded at
// resolution time against the live permission table, never checked for
// membership literally.
const Wildcard Code = "*"

// Known capability codes seeded at install time. The permission table is
// open: codes created at runtime participate in wildcard expansion too.
const (
	CodeAPIToken      Code = "api_token"
	CodeAuditView     Code = "audit_view"
	CodeAuditPurge    Code = "audit_purge"
	CodeRolesManage   Code = "roles_manage"
	CodeUsersManage   Code = "users_manage"
	CodeNewsManage    Code = "news_manage"
	CodeTicketsManage Code = "tickets_manage"
	CodePagesManage   Code = "pages_manage"
)

type Permission struct {
	ID          int64     `json:"id" gorm:"primaryKey"`
	Code        Code      `json:"code" gorm:"uniqueIndex;size:64"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

type Role struct {
	ID           int64     `json:"id" gorm:"primaryKey"`
	Name         string    `json:"name"`
	Code         string    `json:"code" gorm:"uniqueIndex;size:64"`
	Color        string    `json:"color"`
	LogoURL      string    `json:"logo_url"`
	ParentRoleID *int64    `json:"parent_role_id"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type RolePermission struct {
	RoleID       int64 `json:"role_id" gorm:"primaryKey"`
	PermissionID int64 `json:"permission_id" gorm:"primaryKey"`
}

type UserRole struct {
	UserID int64 `json:"user_id" gorm:"primaryKey"`
	RoleID int64 `json:"role_id" gorm:"primaryKey"`
}

type UserPermission struct {
	UserID       int64 `json:"user_id" gorm:"primaryKey"`
	PermissionID int64 `json:"permission_id" gorm:"primaryKey"`
}

// RoleGrants is the slice of a role the resolver needs: its parent pointer
// and the codes it grants directly.
type RoleGrants struct {
	ID           int64
	ParentRoleID *int64
	Codes        []Code
}

// Repository is the read surface the resolver depends on. All methods are
// pure reads of current relational state.
type Repository interface {
	UserPermissionCodes(ctx context.Context, userID int64) ([]Code, error)
	UserRoleIDs(ctx context.Context, userID int64) ([]int64, error)
	RoleGrants(ctx context.Context, roleID int64) (*RoleGrants, error)
	AllCodes(ctx context.Context) ([]Code, error)
}

// Store extends Repository with the mutations behind the role and
// permission admin endpoints.
type Store interface {
	Repository

	ListPermissions(ctx context.Context) ([]Permission, error)
	CreatePermission(ctx context.Context, p *Permission) error
	DeletePermission(ctx context.Context, id int64) error

	ListRoles(ctx context.Context) ([]Role, error)
	GetRole(ctx context.Context, id int64) (*Role, error)
	CreateRole(ctx context.Context, r *Role) error
	UpdateRole(ctx context.Context, r *Role) error
	DeleteRole(ctx context.Context, id int64) error

	RolePermissionCodes(ctx context.Context, roleID int64) ([]Code, error)
	AddRolePermission(ctx context.Context, roleID, permissionID int64) error
	RemoveRolePermission(ctx context.Context, roleID, permissionID int64) error
}

// CodeSet is the resolved effective-permission set of a principal.
type CodeSet map[Code]struct{}

func NewCodeSet(codes ...Code) CodeSet {
	s := make(CodeSet, len(codes))
	for _, c := range codes {
		s[c] = struct{}{}
	}
	return s
}

func (s CodeSet) Add(c Code) { s[c] = struct{}{} }

func (s CodeSet) Contains(c Code) bool {
	_, ok := s[c]
	return ok
}

// Intersect returns the members of codes that are present in the set,
// preserving the order of the argument.
func (s CodeSet) Intersect(codes []Code) []Code {
	var out []Code
	for _, c := range codes {
		if s.Contains(c) {
			out = append(out, c)
		}
	}
	return out
}

// Codes returns the set as a slice. Order is unspecified.
func (s CodeSet) Codes() []Code {
	out := make([]Code, 0, len(s))
	for c := range s {
		out = append(out, c)
	}
	return out
}
