package apitoken

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/exiledproject/launcher-cms/internal/audit"
	"github.com/exiledproject/launcher-cms/internal/auth"
	"github.com/exiledproject/launcher-cms/internal/permission"
)

var ErrNotFound = errors.New("api token not found")

// PermissionResolver supplies the issuer's effective set for scope clamping.
type PermissionResolver interface {
	EffectivePermissions(ctx context.Context, userID int64) (permission.CodeSet, error)
}

type Service struct {
	repo     Repository
	resolver PermissionResolver
	recorder audit.Recorder
	logger   *slog.Logger
	now      func() time.Time
}

func NewService(repo Repository, resolver PermissionResolver, recorder audit.Recorder, logger *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		resolver: resolver,
		recorder: recorder,
		logger:   logger,
		now:      time.Now,
	}
}

func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Issue mints a token scoped to the intersection of the requested codes and
// the issuer's effective permissions at this moment. Codes the issuer does
// not hold are dropped silently; the caller sees the clamped list in the
// response. The api_token capability itself is checked by the route gate,
// not here. The snapshot is frozen: later role changes do not touch it.
func (s *Service) Issue(ctx context.Context, userID int64, name string, expiresAt *time.Time, requested []permission.Code) (*IssuedToken, error) {
	effective, err := s.resolver.EffectivePermissions(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("resolve issuer permissions: %w", err)
	}

	clamped := dedupe(effective.Intersect(requested))

	plaintext, err := generateTokenValue()
	if err != nil {
		return nil, fmt.Errorf("generate token value: %w", err)
	}
	salt, err := auth.GenerateSalt()
	if err != nil {
		return nil, fmt.Errorf("generate token salt: %w", err)
	}

	token := &APIToken{
		UserID:    userID,
		Name:      name,
		TokenHash: auth.HashPassword(plaintext, salt),
		TokenSalt: salt,
		CreatedAt: s.now().UTC(),
		ExpiresAt: expiresAt,
	}
	if err := s.repo.CreateWithPermissions(ctx, token, clamped); err != nil {
		return nil, fmt.Errorf("store api token: %w", err)
	}

	s.recorder.Record(ctx, audit.Entry{
		UserID:     &userID,
		APITokenID: &token.ID,
		Action:     "api_token_issued",
		Details:    fmt.Sprintf("токен %q: %s", name, joinCodes(clamped)),
	})
	s.logger.Info("api token issued", "user_id", userID, "token_name", name)

	return &IssuedToken{
		ID:          token.ID,
		Name:        token.Name,
		Token:       plaintext,
		CreatedAt:   token.CreatedAt,
		ExpiresAt:   token.ExpiresAt,
		Permissions: clamped,
	}, nil
}

// ListByUser returns the user's tokens, hashes excluded by the model's json
// mapping.
func (s *Service) ListByUser(ctx context.Context, userID int64) ([]APIToken, error) {
	return s.repo.ListByUser(ctx, userID)
}

// Revoke deletes the token and its permission links. Owners may revoke their
// own tokens; allowAny lets users_manage holders revoke anyone's. A foreign
// token reads as not-found so revocation does not leak token existence.
func (s *Service) Revoke(ctx context.Context, actorID, tokenID int64, allowAny bool) error {
	token, err := s.repo.GetByID(ctx, tokenID)
	if err != nil {
		return err
	}
	if token == nil || (!allowAny && token.UserID != actorID) {
		return ErrNotFound
	}
	if err := s.repo.Delete(ctx, tokenID); err != nil {
		return err
	}
	s.recorder.Record(ctx, audit.Entry{
		UserID:     &actorID,
		APITokenID: &tokenID,
		Action:     "api_token_revoked",
		Details:    fmt.Sprintf("токен %q", token.Name),
	})
	return nil
}

// generateTokenValue returns 32 cryptographically random bytes hex-encoded.
func generateTokenValue() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

func dedupe(codes []permission.Code) []permission.Code {
	seen := make(map[permission.Code]struct{}, len(codes))
	out := make([]permission.Code, 0, len(codes))
	for _, c := range codes {
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}

func joinCodes(codes []permission.Code) string {
	parts := make([]string, len(codes))
	for i, c := range codes {
		parts[i] = string(c)
	}
	return strings.Join(parts, ", ")
}
