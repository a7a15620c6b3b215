package user

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/exiledproject/launcher-cms/internal/audit"
)

type Service struct {
	repo     Repository
	recorder audit.Recorder
	logger   *slog.Logger
}

func NewService(repo Repository, recorder audit.Recorder, logger *slog.Logger) *Service {
	return &Service{repo: repo, recorder: recorder, logger: logger}
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]User, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.List(ctx, limit, offset)
}

func (s *Service) Get(ctx context.Context, id int64) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

// Ban freezes the account. The reason, if given, is echoed to the launcher
// on subsequent sign-in attempts.
func (s *Service) Ban(ctx context.Context, actorID int64, ip string, userID int64, reason string) error {
	u, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if u == nil {
		return fmt.Errorf("user %d not found", userID)
	}

	u.IsBanned = true
	if reason != "" {
		u.BanReason = &reason
	} else {
		u.BanReason = nil
	}
	if err := s.repo.Update(ctx, u); err != nil {
		return err
	}

	s.recorder.Record(ctx, audit.Entry{
		UserID:  &actorID,
		Action:  "ban_user",
		Details: fmt.Sprintf("пользователь %q, причина: %s", u.Login, reason),
		IP:      ip,
	})
	s.logger.Info("user banned", "login", u.Login, "actor_id", actorID)
	return nil
}

func (s *Service) Unban(ctx context.Context, actorID int64, ip string, userID int64) error {
	u, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if u == nil {
		return fmt.Errorf("user %d not found", userID)
	}

	u.IsBanned = false
	u.BanReason = nil
	if err := s.repo.Update(ctx, u); err != nil {
		return err
	}

	s.recorder.Record(ctx, audit.Entry{
		UserID:  &actorID,
		Action:  "unban_user",
		Details: fmt.Sprintf("пользователь %q", u.Login),
		IP:      ip,
	})
	return nil
}

func (s *Service) GrantPermission(ctx context.Context, actorID int64, ip string, userID, permissionID int64) error {
	if err := s.repo.AddUserPermission(ctx, userID, permissionID); err != nil {
		return err
	}
	s.recorder.Record(ctx, audit.Entry{
		UserID:  &actorID,
		Action:  "grant_user_permission",
		Details: fmt.Sprintf("пользователь #%d, разрешение #%d", userID, permissionID),
		IP:      ip,
	})
	return nil
}

func (s *Service) RevokePermission(ctx context.Context, actorID int64, ip string, userID, permissionID int64) error {
	if err := s.repo.RemoveUserPermission(ctx, userID, permissionID); err != nil {
		return err
	}
	s.recorder.Record(ctx, audit.Entry{
		UserID:  &actorID,
		Action:  "revoke_user_permission",
		Details: fmt.Sprintf("пользователь #%d, разрешение #%d", userID, permissionID),
		IP:      ip,
	})
	return nil
}

func (s *Service) AssignRole(ctx context.Context, actorID int64, ip string, userID, roleID int64) error {
	if err := s.repo.AddUserRole(ctx, userID, roleID); err != nil {
		return err
	}
	s.recorder.Record(ctx, audit.Entry{
		UserID:  &actorID,
		Action:  "assign_user_role",
		Details: fmt.Sprintf("пользователь #%d, роль #%d", userID, roleID),
		IP:      ip,
	})
	return nil
}

func (s *Service) RemoveRole(ctx context.Context, actorID int64, ip string, userID, roleID int64) error {
	if err := s.repo.RemoveUserRole(ctx, userID, roleID); err != nil {
		return err
	}
	s.recorder.Record(ctx, audit.Entry{
		UserID:  &actorID,
		Action:  "remove_user_role",
		Details: fmt.Sprintf("пользователь #%d, роль #%d", userID, roleID),
		IP:      ip,
	})
	return nil
}
