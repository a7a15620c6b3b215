package postgres

import (
	"context"
	"errors"

	"github.com/exiledproject/launcher-cms/internal/news"
	"gorm.io/gorm"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) List(ctx context.Context, limit, offset int) ([]news.News, error) {
	var items []news.News
	err := r.db.WithContext(ctx).Table("news").
		Order("created_at DESC, id DESC").
		Limit(limit).
		Offset(offset).
		Find(&items).Error
	return items, err
}

func (r *Repository) GetByID(ctx context.Context, id int64) (*news.News, error) {
	var item news.News
	err := r.db.WithContext(ctx).Table("news").Where("id = ?", id).Take(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

func (r *Repository) Create(ctx context.Context, n *news.News) error {
	return r.db.WithContext(ctx).Table("news").Create(n).Error
}

func (r *Repository) Update(ctx context.Context, n *news.News) error {
	return r.db.WithContext(ctx).Table("news").Where("id = ?", n.ID).Save(n).Error
}

func (r *Repository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Table("news").Where("id = ?", id).Delete(&news.News{}).Error
}
