package twofactor

import (
	"context"
	"errors"

	"github.com/exiledproject/launcher-cms/internal/user"
)

// Account 2FA states: no secret at all, PENDING (secret stored,
// mustSetup2FA set, not yet verified) and ACTIVE (a code has been verified;
// require2FA and twoFactorEnabled set, mustSetup2FA cleared).

var (
	ErrUserNotFound   = errors.New("user not found")
	ErrAlreadyEnabled = errors.New("two-factor already enabled")
	// ErrNotInitialized: verification attempted before any secret was issued.
	ErrNotInitialized = errors.New("two-factor setup not initialized")
	ErrInvalidCode    = errors.New("invalid two-factor code")
	ErrBadCredentials = errors.New("invalid login or password")
	ErrUserBanned     = errors.New("user is banned")
)

type UserRepository interface {
	FindByLogin(ctx context.Context, login string) (*user.User, error)
	GetByID(ctx context.Context, id int64) (*user.User, error)
	Update(ctx context.Context, u *user.User) error
}

// SetupResult carries everything the UI needs to enroll an authenticator:
// the shared secret, the otpauth provisioning URI and a scannable QR PNG.
type SetupResult struct {
	Secret          string `json:"secret"`
	ProvisioningURI string `json:"provisioning_uri"`
	QRCodePNG       []byte `json:"qr_code_png"`
}
