package twofactor

import (
	"bytes"
	"context"
	"fmt"
	"image/png"
	"log/slog"
	"time"

	"github.com/exiledproject/launcher-cms/internal/audit"
	"github.com/exiledproject/launcher-cms/internal/auth"
	"github.com/exiledproject/launcher-cms/internal/user"
	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

// TOTP parameters compatible with the common authenticator apps.
const (
	codeDigits = otp.DigitsSix
	period     = 30
	secretSize = 20 // 160 bits
	// skew allows one adjacent time step in each direction.
	skew = 1
)

type Service struct {
	users    UserRepository
	recorder audit.Recorder
	issuer   string
	logger   *slog.Logger
	now      func() time.Time
}

func NewService(users UserRepository, recorder audit.Recorder, issuer string, logger *slog.Logger) *Service {
	return &Service{
		users:    users,
		recorder: recorder,
		issuer:   issuer,
		logger:   logger,
		now:      time.Now,
	}
}

// WithClock replaces the time source used for code validation, for tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// BeginSetupWithCredentials is the bootstrap path for accounts frozen by
// mustSetup2FA: they cannot obtain a session token yet, so enrollment
// authenticates by password instead of by bearer token.
func (s *Service) BeginSetupWithCredentials(ctx context.Context, login, password string) (*SetupResult, error) {
	u, err := s.authenticate(ctx, login, password)
	if err != nil {
		return nil, err
	}
	return s.BeginSetup(ctx, u.ID)
}

// VerifyWithCredentials completes the credential-based enrollment.
func (s *Service) VerifyWithCredentials(ctx context.Context, login, password, code string) error {
	u, err := s.authenticate(ctx, login, password)
	if err != nil {
		return err
	}
	return s.VerifyAndActivate(ctx, u.ID, code)
}

func (s *Service) authenticate(ctx context.Context, login, password string) (*user.User, error) {
	u, err := s.users.FindByLogin(ctx, login)
	if err != nil {
		return nil, fmt.Errorf("find user %q: %w", login, err)
	}
	if u == nil {
		return nil, ErrUserNotFound
	}
	if u.IsBanned {
		return nil, ErrUserBanned
	}
	if !auth.VerifyPassword(password, u.PasswordHash, u.PasswordSalt) {
		return nil, ErrBadCredentials
	}
	return u, nil
}

// BeginSetup issues a fresh shared secret for the account, freezes the
// account until a code is verified (mustSetup2FA) and returns the
// provisioning URI plus its QR image. require2FA is left untouched; it flips
// only on activation.
func (s *Service) BeginSetup(ctx context.Context, userID int64) (*SetupResult, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load user %d: %w", userID, err)
	}
	if u == nil {
		return nil, ErrUserNotFound
	}
	if u.TwoFactorEnabled {
		return nil, ErrAlreadyEnabled
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      s.issuer,
		AccountName: u.Login,
		SecretSize:  secretSize,
		Digits:      codeDigits,
		Period:      period,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		return nil, fmt.Errorf("generate totp secret: %w", err)
	}

	img, err := key.Image(256, 256)
	if err != nil {
		return nil, fmt.Errorf("encode qr image: %w", err)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode qr png: %w", err)
	}

	secret := key.Secret()
	u.TwoFactorSecret = &secret
	u.TwoFactorEnabled = false
	u.MustSetup2FA = true
	if err := s.users.Update(ctx, u); err != nil {
		return nil, fmt.Errorf("store totp secret: %w", err)
	}

	s.logger.Info("two-factor setup started", "login", u.Login)

	return &SetupResult{
		Secret:          secret,
		ProvisioningURI: key.URL(),
		QRCodePNG:       buf.Bytes(),
	}, nil
}

// VerifyAndActivate checks the submitted code against the pending secret,
// allowing one step of clock skew, and on success transitions the account to
// ACTIVE. A wrong code leaves the state untouched.
func (s *Service) VerifyAndActivate(ctx context.Context, userID int64, code string) error {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("load user %d: %w", userID, err)
	}
	if u == nil {
		return ErrUserNotFound
	}
	if u.TwoFactorSecret == nil || *u.TwoFactorSecret == "" {
		return ErrNotInitialized
	}

	ok, err := totp.ValidateCustom(code, *u.TwoFactorSecret, s.now().UTC(), totp.ValidateOpts{
		Period:    period,
		Skew:      skew,
		Digits:    codeDigits,
		Algorithm: otp.AlgorithmSHA1,
	})
	if err != nil {
		return fmt.Errorf("validate totp code: %w", err)
	}
	if !ok {
		s.logger.Warn("two-factor activation failed", "login", u.Login)
		return ErrInvalidCode
	}

	u.TwoFactorEnabled = true
	u.Require2FA = true
	u.MustSetup2FA = false
	if err := s.users.Update(ctx, u); err != nil {
		return fmt.Errorf("activate two-factor: %w", err)
	}

	s.recorder.Record(ctx, audit.Entry{
		UserID:  &u.ID,
		Action:  "2fa_enabled",
		Details: "двухфакторная аутентификация активирована",
	})
	s.logger.Info("two-factor activated", "login", u.Login)
	return nil
}
