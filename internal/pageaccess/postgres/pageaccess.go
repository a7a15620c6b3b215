package postgres

import (
	"context"
	"errors"

	"github.com/exiledproject/launcher-cms/internal/pageaccess"
	"gorm.io/gorm"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) List(ctx context.Context) ([]pageaccess.PageAccess, error) {
	var rules []pageaccess.PageAccess
	err := r.db.WithContext(ctx).Table("page_accesses").Order("path").Find(&rules).Error
	return rules, err
}

func (r *Repository) GetByID(ctx context.Context, id int64) (*pageaccess.PageAccess, error) {
	var rule pageaccess.PageAccess
	err := r.db.WithContext(ctx).Table("page_accesses").Where("id = ?", id).Take(&rule).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &rule, nil
}

func (r *Repository) Create(ctx context.Context, p *pageaccess.PageAccess) error {
	return r.db.WithContext(ctx).Table("page_accesses").Create(p).Error
}

func (r *Repository) Update(ctx context.Context, p *pageaccess.PageAccess) error {
	return r.db.WithContext(ctx).Table("page_accesses").Where("id = ?", p.ID).Save(p).Error
}

func (r *Repository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Table("page_accesses").Where("id = ?", id).Delete(&pageaccess.PageAccess{}).Error
}
