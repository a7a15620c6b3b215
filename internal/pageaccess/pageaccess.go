package pageaccess

import (
	"context"

	"github.com/exiledproject/launcher-cms/internal/permission"
)

// PageAccess maps an admin panel page path to the permission code a user
// must hold to see it. The SPA fetches the full map once after login and
// combines it with the principal's effective codes.
type PageAccess struct {
	ID          int64           `json:"id" gorm:"primaryKey"`
	Path        string          `json:"path" gorm:"uniqueIndex"`
	Code        permission.Code `json:"code"`
	Description string          `json:"description,omitempty"`
}

type Repository interface {
	List(ctx context.Context) ([]PageAccess, error)
	GetByID(ctx context.Context, id int64) (*PageAccess, error)
	Create(ctx context.Context, p *PageAccess) error
	Update(ctx context.Context, p *PageAccess) error
	Delete(ctx context.Context, id int64) error
}
