package auth

import (
	"context"
	"errors"
	"time"

	"github.com/exiledproject/launcher-cms/internal/user"
	"github.com/golang-jwt/jwt/v5"
)

// Outcome is the closed set of results a sign-in attempt can produce. The
// flow never returns an error for an expected business condition; storage
// failures are the only thing surfaced as errors.
type Outcome int

const (
	OutcomeSuccess Outcome = iota
	// OutcomeInvalidInput: login or password missing; no lookup performed.
	OutcomeInvalidInput
	OutcomeNotFound
	// OutcomeForbidden: the account is banned.
	OutcomeForbidden
	// OutcomeSetupRequired: the account is frozen until 2FA setup completes.
	OutcomeSetupRequired
	// OutcomeUnauthorized: 2FA code required or bad credentials.
	OutcomeUnauthorized
)

// Messages returned to the launcher, kept bit-exact with the GML contract.
const (
	MsgUserNotFound   = "Пользователь не найден"
	MsgBanned         = "Пользователь заблокирован"
	MsgBannedReason   = "Пользователь заблокирован. Причина: "
	MsgTwoFactorCode  = "Введите проверочный код 2FA"
	MsgBadCredentials = "Неверный логин или пароль"
	MsgSuccess        = "Успешная авторизация"
	MsgSetupRequired  = "Требуется настройка двухфакторной аутентификации"
)

// NextSetup2FA is the machine-readable hint the web login attaches to the
// setup-pending outcome so the admin UI can route to the 2FA setup screen.
const NextSetup2FA = "setup-2fa"

type SignInResult struct {
	Outcome  Outcome
	Message  string
	Login    string
	UserUUID string
}

// UserRepository is the slice of the account store the flow needs.
type UserRepository interface {
	FindByLogin(ctx context.Context, login string) (*user.User, error)
	GetByID(ctx context.Context, id int64) (*user.User, error)
}

// TokenGenerator mints and validates the admin panel's session tokens.
type TokenGenerator interface {
	GenerateAccessToken(userID int64, login string) (string, error)
	GenerateRefreshToken(userID int64, login string) (string, error)
	ValidateToken(tokenString string) (*Claims, error)
}

type AuthTokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type Claims struct {
	UserID int64  `json:"user_id"`
	Login  string `json:"login"`
	jwt.RegisteredClaims
}

type JWTTokenGenerator struct {
	AccessTokenSecret  []byte
	RefreshTokenSecret []byte
	AccessTokenTTL     time.Duration
	RefreshTokenTTL    time.Duration
}

func NewJWTTokenGenerator(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) *JWTTokenGenerator {
	return &JWTTokenGenerator{
		AccessTokenSecret:  []byte(accessSecret),
		RefreshTokenSecret: []byte(refreshSecret),
		AccessTokenTTL:     accessTTL,
		RefreshTokenTTL:    refreshTTL,
	}
}

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)

type ctxKey string

// ContextUserKey holds the authenticated principal for the request.
const ContextUserKey ctxKey = "authUser"

func UserFromContext(ctx context.Context) (*user.WithPermissions, bool) {
	u, ok := ctx.Value(ContextUserKey).(*user.WithPermissions)
	return u, ok
}

func ContextWithUser(ctx context.Context, u *user.WithPermissions) context.Context {
	return context.WithValue(ctx, ContextUserKey, u)
}
