package news

import (
	"context"
	"time"
)

// News is a launcher-facing announcement. The public feed serializes the
// camelCase shape the launcher expects; timestamps go out in UTC.
type News struct {
	ID          int64     `json:"id" gorm:"primaryKey"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"-"`
}

type Repository interface {
	// List returns items newest-first.
	List(ctx context.Context, limit, offset int) ([]News, error)
	GetByID(ctx context.Context, id int64) (*News, error)
	Create(ctx context.Context, n *News) error
	Update(ctx context.Context, n *News) error
	Delete(ctx context.Context, id int64) error
}
