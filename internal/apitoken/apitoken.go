package apitoken

import (
	"context"
	"time"

	"github.com/exiledproject/launcher-cms/internal/permission"
)

// APIToken is a scoped machine credential owned by one user. Only the salted
// hash of the secret is stored; the plaintext leaves the service exactly
// once, in the issuance response.
type APIToken struct {
	ID        int64      `json:"id" gorm:"primaryKey"`
	UserID    int64      `json:"user_id" gorm:"index"`
	Name      string     `json:"name"`
	TokenHash string     `json:"-"`
	TokenSalt string     `json:"-"`
	CreatedAt time.Time  `json:"created_at"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`

	Permissions []TokenPermission `json:"permissions" gorm:"foreignKey:TokenID"`
}

// TokenPermission freezes one granted code at issuance time. Codes are
// stored verbatim so later role or permission-table changes never widen or
// narrow an existing token.
type TokenPermission struct {
	TokenID int64           `json:"-" gorm:"primaryKey"`
	Code    permission.Code `json:"code" gorm:"primaryKey;size:64"`
}

type Repository interface {
	// CreateWithPermissions inserts the token and its permission links as one
	// atomic unit.
	CreateWithPermissions(ctx context.Context, t *APIToken, codes []permission.Code) error
	ListByUser(ctx context.Context, userID int64) ([]APIToken, error)
	GetByID(ctx context.Context, id int64) (*APIToken, error)
	Delete(ctx context.Context, id int64) error
}

// IssuedToken is the one-time issuance response carrying the plaintext.
type IssuedToken struct {
	ID          int64             `json:"Id"`
	Name        string            `json:"Name"`
	Token       string            `json:"Token"`
	CreatedAt   time.Time         `json:"CreatedAt"`
	ExpiresAt   *time.Time        `json:"ExpiresAt,omitempty"`
	Permissions []permission.Code `json:"Permissions"`
}
