package postgres

import (
	"context"
	"errors"

	"github.com/exiledproject/launcher-cms/internal/ticket"
	"gorm.io/gorm"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, t *ticket.Ticket) error {
	return r.db.WithContext(ctx).Table("tickets").Create(t).Error
}

func (r *Repository) GetByID(ctx context.Context, id int64) (*ticket.Ticket, error) {
	var t ticket.Ticket
	err := r.db.WithContext(ctx).Table("tickets").Where("id = ?", id).Take(&t).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &t, nil
}

func (r *Repository) ListByUser(ctx context.Context, userID int64, limit, offset int) ([]ticket.Ticket, error) {
	var tickets []ticket.Ticket
	err := r.db.WithContext(ctx).Table("tickets").
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Offset(offset).
		Find(&tickets).Error
	return tickets, err
}

func (r *Repository) ListAll(ctx context.Context, status ticket.Status, limit, offset int) ([]ticket.Ticket, error) {
	query := r.db.WithContext(ctx).Table("tickets")
	if status != "" {
		query = query.Where("status = ?", status)
	}
	var tickets []ticket.Ticket
	err := query.Order("created_at DESC, id DESC").
		Limit(limit).
		Offset(offset).
		Find(&tickets).Error
	return tickets, err
}

func (r *Repository) Update(ctx context.Context, t *ticket.Ticket) error {
	return r.db.WithContext(ctx).Table("tickets").Where("id = ?", t.ID).Save(t).Error
}
