package postgres

import (
	"context"
	"errors"

	"github.com/exiledproject/launcher-cms/internal/apitoken"
	"github.com/exiledproject/launcher-cms/internal/permission"
	"gorm.io/gorm"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// CreateWithPermissions writes the token row and its frozen permission links
// in one transaction so a partial insert never leaves a scopeless token.
func (r *Repository) CreateWithPermissions(ctx context.Context, t *apitoken.APIToken, codes []permission.Code) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Table("api_tokens").Create(t).Error; err != nil {
			return err
		}
		for _, code := range codes {
			link := apitoken.TokenPermission{TokenID: t.ID, Code: code}
			if err := tx.Table("token_permissions").Create(&link).Error; err != nil {
				return err
			}
		}
		t.Permissions = make([]apitoken.TokenPermission, len(codes))
		for i, code := range codes {
			t.Permissions[i] = apitoken.TokenPermission{TokenID: t.ID, Code: code}
		}
		return nil
	})
}

func (r *Repository) ListByUser(ctx context.Context, userID int64) ([]apitoken.APIToken, error) {
	var tokens []apitoken.APIToken
	err := r.db.WithContext(ctx).Table("api_tokens").
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&tokens).Error
	if err != nil {
		return nil, err
	}
	for i := range tokens {
		var links []apitoken.TokenPermission
		if err := r.db.WithContext(ctx).Table("token_permissions").
			Where("token_id = ?", tokens[i].ID).
			Order("code").
			Find(&links).Error; err != nil {
			return nil, err
		}
		tokens[i].Permissions = links
	}
	return tokens, nil
}

func (r *Repository) GetByID(ctx context.Context, id int64) (*apitoken.APIToken, error) {
	var t apitoken.APIToken
	err := r.db.WithContext(ctx).Table("api_tokens").Where("id = ?", id).Take(&t).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &t, nil
}

func (r *Repository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Table("token_permissions").Where("token_id = ?", id).Delete(&apitoken.TokenPermission{}).Error; err != nil {
			return err
		}
		return tx.Table("api_tokens").Where("id = ?", id).Delete(&apitoken.APIToken{}).Error
	})
}
