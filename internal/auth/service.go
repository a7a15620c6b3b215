package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/exiledproject/launcher-cms/internal/audit"
	"github.com/exiledproject/launcher-cms/internal/permission"
	"github.com/exiledproject/launcher-cms/internal/user"
	"github.com/golang-jwt/jwt/v5"
)

// PermissionResolver computes the principal's effective permission set once
// authentication succeeds.
type PermissionResolver interface {
	EffectivePermissions(ctx context.Context, userID int64) (permission.CodeSet, error)
}

// Service runs the login state machine shared by the launcher sign-in and
// the web login, and manages the web session tokens layered on top.
type Service struct {
	users    UserRepository
	tokens   TokenGenerator
	resolver PermissionResolver
	recorder audit.Recorder
	logger   *slog.Logger
}

func NewService(users UserRepository, tokens TokenGenerator, resolver PermissionResolver, recorder audit.Recorder, logger *slog.Logger) *Service {
	return &Service{
		users:    users,
		tokens:   tokens,
		resolver: resolver,
		recorder: recorder,
		logger:   logger,
	}
}

// SignIn evaluates a login attempt in the fixed precedence order: missing
// input, unknown login, ban, pending 2FA setup, required 2FA code, password.
// The 2FA-required branch deliberately fires before the password is checked;
// the launcher prompts for a code on that exact 401 message. Only the
// password-verification outcomes reach the audit trail.
func (s *Service) SignIn(ctx context.Context, dto SignInDTO, ip string) (SignInResult, error) {
	if dto.Login == "" || dto.Password == "" {
		return SignInResult{Outcome: OutcomeInvalidInput}, nil
	}

	u, err := s.users.FindByLogin(ctx, dto.Login)
	if err != nil {
		return SignInResult{}, fmt.Errorf("find user %q: %w", dto.Login, err)
	}
	if u == nil {
		s.logger.Warn("sign-in attempt for unknown login", "login", dto.Login)
		return SignInResult{Outcome: OutcomeNotFound, Message: MsgUserNotFound}, nil
	}

	if u.IsBanned {
		msg := MsgBanned
		if u.BanReason != nil && *u.BanReason != "" {
			msg = MsgBannedReason + *u.BanReason
		}
		s.logger.Warn("sign-in attempt for banned user", "login", u.Login)
		return SignInResult{Outcome: OutcomeForbidden, Message: msg}, nil
	}

	if u.MustSetup2FA && !u.TwoFactorEnabled {
		return SignInResult{Outcome: OutcomeSetupRequired, Message: MsgSetupRequired}, nil
	}

	if u.Require2FA {
		return SignInResult{Outcome: OutcomeUnauthorized, Message: MsgTwoFactorCode}, nil
	}

	if !VerifyPassword(dto.Password, u.PasswordHash, u.PasswordSalt) {
		s.logger.Warn("sign-in with wrong password", "login", u.Login)
		s.recorder.Record(ctx, audit.Entry{
			UserID:  &u.ID,
			Action:  "login_failed",
			Details: "неверный пароль",
			IP:      ip,
		})
		return SignInResult{Outcome: OutcomeUnauthorized, Message: MsgBadCredentials}, nil
	}

	s.recorder.Record(ctx, audit.Entry{
		UserID:  &u.ID,
		Action:  "login_success",
		Details: "вход по паролю",
		IP:      ip,
	})
	s.logger.Info("sign-in succeeded", "login", u.Login)

	return SignInResult{
		Outcome:  OutcomeSuccess,
		Message:  MsgSuccess,
		Login:    u.Login,
		UserUUID: u.UserUUID,
	}, nil
}

// WebLogin runs the same flow and, on success, mints the admin panel's
// session tokens.
func (s *Service) WebLogin(ctx context.Context, dto SignInDTO, ip string) (SignInResult, *AuthTokens, error) {
	result, err := s.SignIn(ctx, dto, ip)
	if err != nil || result.Outcome != OutcomeSuccess {
		return result, nil, err
	}

	u, err := s.users.FindByLogin(ctx, dto.Login)
	if err != nil || u == nil {
		return SignInResult{}, nil, fmt.Errorf("reload user %q: %w", dto.Login, err)
	}

	access, err := s.tokens.GenerateAccessToken(u.ID, u.Login)
	if err != nil {
		return SignInResult{}, nil, err
	}
	refresh, err := s.tokens.GenerateRefreshToken(u.ID, u.Login)
	if err != nil {
		return SignInResult{}, nil, err
	}
	return result, &AuthTokens{AccessToken: access, RefreshToken: refresh}, nil
}

// RefreshTokens rotates the web session pair.
func (s *Service) RefreshTokens(refreshToken string) (AuthTokens, error) {
	claims, err := s.tokens.ValidateToken(refreshToken)
	if err != nil {
		return AuthTokens{}, err
	}

	access, err := s.tokens.GenerateAccessToken(claims.UserID, claims.Login)
	if err != nil {
		return AuthTokens{}, err
	}
	refresh, err := s.tokens.GenerateRefreshToken(claims.UserID, claims.Login)
	if err != nil {
		return AuthTokens{}, err
	}
	return AuthTokens{AccessToken: access, RefreshToken: refresh}, nil
}

func (s *Service) ValidateAccessToken(tokenString string) (*Claims, error) {
	return s.tokens.ValidateToken(tokenString)
}

// Principal loads the account and resolves its effective permissions; the
// auth middleware attaches the result to the request context.
func (s *Service) Principal(ctx context.Context, userID int64) (*user.WithPermissions, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, fmt.Errorf("user %d not found", userID)
	}
	perms, err := s.resolver.EffectivePermissions(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &user.WithPermissions{User: u, Permissions: perms}, nil
}

func (j *JWTTokenGenerator) GenerateAccessToken(userID int64, login string) (string, error) {
	return j.signed(userID, login, j.AccessTokenTTL, j.AccessTokenSecret)
}

func (j *JWTTokenGenerator) GenerateRefreshToken(userID int64, login string) (string, error) {
	return j.signed(userID, login, j.RefreshTokenTTL, j.RefreshTokenSecret)
}

func (j *JWTTokenGenerator) signed(userID int64, login string, ttl time.Duration, secret []byte) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID: userID,
		Login:  login,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Subject:   login,
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// ValidateToken accepts both token kinds: refresh tokens outlive the access
// TTL, which is how the right secret is picked.
func (j *JWTTokenGenerator) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		if claims, ok := token.Claims.(*Claims); ok && claims.ExpiresAt != nil {
			if time.Until(claims.ExpiresAt.Time) > j.AccessTokenTTL {
				return j.RefreshTokenSecret, nil
			}
		}
		return j.AccessTokenSecret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}
	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}
	return nil, ErrInvalidToken
}
