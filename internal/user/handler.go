package user

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/exiledproject/launcher-cms/internal/transport"
	"github.com/exiledproject/launcher-cms/pkg/logger"
	"github.com/go-chi/chi"
)

// PrincipalFunc looks up the authenticated principal on the request; wired
// to the auth package's context helpers at route registration (declared as
// a function type because internal/auth already depends on this package).
type PrincipalFunc func(r *http.Request) (*WithPermissions, bool)

type Handler struct {
	*transport.BaseHandler
	Service   *Service
	principal PrincipalFunc
	clientIP  func(r *http.Request) string
}

func NewHandler(svc *Service, principal PrincipalFunc, clientIP func(r *http.Request) string) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     svc,
		principal:   principal,
		clientIP:    clientIP,
	}
}

func (h *Handler) actor(w http.ResponseWriter, r *http.Request) (*WithPermissions, bool) {
	principal, ok := h.principal(r)
	if !ok || principal == nil {
		h.WriteError(w, http.StatusUnauthorized, "missing authorization token")
		return nil, false
	}
	return principal, true
}

type meResponse struct {
	*User
	Permissions []string `json:"permissions"`
}

// GetCurrentUser returns the authenticated account with its effective
// permission codes, which the admin SPA uses for its route guard.
func (h *Handler) GetCurrentUser(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.actor(w, r)
	if !ok {
		return
	}

	codes := principal.Permissions.Codes()
	perms := make([]string, len(codes))
	for i, c := range codes {
		perms[i] = string(c)
	}

	h.WriteJSON(w, http.StatusOK, meResponse{User: principal.User, Permissions: perms})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	users, err := h.Service.List(r.Context(), limit, offset)
	if err != nil {
		h.Logger.Error("list users failed", "error", err)
		h.WriteError(w, http.StatusInternalServerError, "Внутренняя ошибка сервера")
		return
	}
	h.WriteJSON(w, http.StatusOK, users)
}

type banDTO struct {
	Reason string `json:"reason"`
}

func (h *Handler) Ban(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.actor(w, r)
	if !ok {
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	var dto banDTO
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&dto)
	}

	if err := h.Service.Ban(r.Context(), principal.User.ID, h.clientIP(r), id, dto.Reason); err != nil {
		h.Logger.Error("ban user failed", "error", err, "user_id", id)
		h.WriteError(w, http.StatusInternalServerError, "Внутренняя ошибка сервера")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Unban(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.actor(w, r)
	if !ok {
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	if err := h.Service.Unban(r.Context(), principal.User.ID, h.clientIP(r), id); err != nil {
		h.Logger.Error("unban user failed", "error", err, "user_id", id)
		h.WriteError(w, http.StatusInternalServerError, "Внутренняя ошибка сервера")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type linkDTO struct {
	PermissionID int64 `json:"permission_id,omitempty"`
	RoleID       int64 `json:"role_id,omitempty"`
}

func (h *Handler) GrantPermission(w http.ResponseWriter, r *http.Request) {
	h.mutateLink(w, r, func(actorID int64, ip string, userID int64, dto linkDTO) error {
		return h.Service.GrantPermission(r.Context(), actorID, ip, userID, dto.PermissionID)
	}, "permission_id")
}

func (h *Handler) RevokePermission(w http.ResponseWriter, r *http.Request) {
	h.mutateLink(w, r, func(actorID int64, ip string, userID int64, dto linkDTO) error {
		return h.Service.RevokePermission(r.Context(), actorID, ip, userID, dto.PermissionID)
	}, "permission_id")
}

func (h *Handler) AssignRole(w http.ResponseWriter, r *http.Request) {
	h.mutateLink(w, r, func(actorID int64, ip string, userID int64, dto linkDTO) error {
		return h.Service.AssignRole(r.Context(), actorID, ip, userID, dto.RoleID)
	}, "role_id")
}

func (h *Handler) RemoveRole(w http.ResponseWriter, r *http.Request) {
	h.mutateLink(w, r, func(actorID int64, ip string, userID int64, dto linkDTO) error {
		return h.Service.RemoveRole(r.Context(), actorID, ip, userID, dto.RoleID)
	}, "role_id")
}

func (h *Handler) mutateLink(w http.ResponseWriter, r *http.Request, op func(actorID int64, ip string, userID int64, dto linkDTO) error, field string) {
	principal, ok := h.actor(w, r)
	if !ok {
		return
	}
	userID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	var dto linkDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if (field == "permission_id" && dto.PermissionID == 0) || (field == "role_id" && dto.RoleID == 0) {
		h.WriteError(w, http.StatusBadRequest, field+" is required")
		return
	}

	if err := op(principal.User.ID, h.clientIP(r), userID, dto); err != nil {
		h.Logger.Error("user link mutation failed", "error", err, "user_id", userID)
		h.WriteError(w, http.StatusInternalServerError, "Внутренняя ошибка сервера")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
