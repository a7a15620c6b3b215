package apitoken

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/exiledproject/launcher-cms/internal/auth"
	"github.com/exiledproject/launcher-cms/internal/permission"
	"github.com/exiledproject/launcher-cms/internal/transport"
	"github.com/exiledproject/launcher-cms/pkg/logger"
	"github.com/go-chi/chi"
)

type Handler struct {
	*transport.BaseHandler
	Service *Service
}

func NewHandler(svc *Service) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     svc,
	}
}

type issueDTO struct {
	Name        string            `json:"name"`
	ExpiresAt   *time.Time        `json:"expires_at,omitempty"`
	Permissions []permission.Code `json:"permissions"`
}

func (d issueDTO) Validate() error {
	if d.Name == "" {
		return errors.New("name is required")
	}
	return nil
}

// Issue mints a token for the authenticated user. The route is gated by the
// api_token permission.
func (h *Handler) Issue(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.UserFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "missing authorization token")
		return
	}

	var dto issueDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := dto.Validate(); err != nil {
		h.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	issued, err := h.Service.Issue(r.Context(), principal.User.ID, dto.Name, dto.ExpiresAt, dto.Permissions)
	if err != nil {
		h.Logger.Error("token issuance failed", "error", err)
		h.WriteError(w, http.StatusInternalServerError, "Внутренняя ошибка сервера")
		return
	}

	h.WriteJSON(w, http.StatusCreated, issued)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.UserFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "missing authorization token")
		return
	}

	tokens, err := h.Service.ListByUser(r.Context(), principal.User.ID)
	if err != nil {
		h.Logger.Error("token list failed", "error", err)
		h.WriteError(w, http.StatusInternalServerError, "Внутренняя ошибка сервера")
		return
	}
	h.WriteJSON(w, http.StatusOK, tokens)
}

func (h *Handler) Revoke(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.UserFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "missing authorization token")
		return
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid token id")
		return
	}

	allowAny := principal.Permissions.Contains(permission.CodeUsersManage)
	if err := h.Service.Revoke(r.Context(), principal.User.ID, id, allowAny); err != nil {
		if errors.Is(err, ErrNotFound) {
			h.WriteError(w, http.StatusNotFound, "Токен не найден")
			return
		}
		h.Logger.Error("token revoke failed", "error", err)
		h.WriteError(w, http.StatusInternalServerError, "Внутренняя ошибка сервера")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
