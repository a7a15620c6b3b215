package permission

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/exiledproject/launcher-cms/internal/transport"
	"github.com/exiledproject/launcher-cms/pkg/logger"
	"github.com/go-chi/chi"
)

// PrincipalFunc looks up the acting user id on the request; wired to the
// auth package's context helpers at route registration (declared as a
// function type to avoid an import cycle with internal/user).
type PrincipalFunc func(r *http.Request) (int64, bool)

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

type roleDTO struct {
	Name         string `json:"name"`
	Code         string `json:"code"`
	Color        string `json:"color"`
	LogoURL      string `json:"logo_url"`
	ParentRoleID *int64 `json:"parent_role_id"`
}

func (d roleDTO) Validate() error {
	if d.Name == "" {
		return errors.New("name is required")
	}
	if d.Code == "" {
		return errors.New("code is required")
	}
	return nil
}

type permissionDTO struct {
	Code        Code   `json:"code"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (d permissionDTO) Validate() error {
	if d.Code == "" {
		return errors.New("code is required")
	}
	if d.Name == "" {
		return errors.New("name is required")
	}
	return nil
}

func (h *Handler) actor(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, ok := h.principal(r)
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "missing authorization token")
	}
	return id, ok
}

func (h *Handler) ListPermissions(w http.ResponseWriter, r *http.Request) {
	perms, err := h.Service.ListPermissions(r.Context())
	if err != nil {
		h.Logger.Error("list permissions failed", "error", err)
		h.WriteError(w, http.StatusInternalServerError, "Внутренняя ошибка сервера")
		return
	}
	h.WriteJSON(w, http.StatusOK, perms)
}

func (h *Handler) CreatePermission(w http.ResponseWriter, r *http.Request) {
	actorID, ok := h.actor(w, r)
	if !ok {
		return
	}

	var dto permissionDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := dto.Validate(); err != nil {
		h.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	p := &Permission{Code: dto.Code, Name: dto.Name, Description: dto.Description}
	if err := h.Service.CreatePermission(r.Context(), actorID, h.clientIP(r), p); err != nil {
		h.Logger.Error("create permission failed", "error", err)
		h.WriteError(w, http.StatusInternalServerError, "Внутренняя ошибка сервера")
		return
	}
	h.WriteJSON(w, http.StatusCreated, p)
}

func (h *Handler) DeletePermission(w http.ResponseWriter, r *http.Request) {
	actorID, ok := h.actor(w, r)
	if !ok {
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid permission id")
		return
	}
	if err := h.Service.DeletePermission(r.Context(), actorID, h.clientIP(r), id); err != nil {
		h.Logger.Error("delete permission failed", "error", err)
		h.WriteError(w, http.StatusInternalServerError, "Внутренняя ошибка сервера")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ListRoles(w http.ResponseWriter, r *http.Request) {
	roles, err := h.Service.ListRoles(r.Context())
	if err != nil {
		h.Logger.Error("list roles failed", "error", err)
		h.WriteError(w, http.StatusInternalServerError, "Внутренняя ошибка сервера")
		return
	}
	h.WriteJSON(w, http.StatusOK, roles)
}

func (h *Handler) GetRole(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid role id")
		return
	}
	role, err := h.Service.GetRole(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrRoleNotFound) {
			h.WriteError(w, http.StatusNotFound, "Роль не найдена")
			return
		}
		h.Logger.Error("get role failed", "error", err)
		h.WriteError(w, http.StatusInternalServerError, "Внутренняя ошибка сервера")
		return
	}
	h.WriteJSON(w, http.StatusOK, role)
}

func (h *Handler) CreateRole(w http.ResponseWriter, r *http.Request) {
	actorID, ok := h.actor(w, r)
	if !ok {
		return
	}

	var dto roleDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := dto.Validate(); err != nil {
		h.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	role := &Role{
		Name:         dto.Name,
		Code:         dto.Code,
		Color:        dto.Color,
		LogoURL:      dto.LogoURL,
		ParentRoleID: dto.ParentRoleID,
	}
	if err := h.Service.CreateRole(r.Context(), actorID, h.clientIP(r), role); err != nil {
		h.writeRoleError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, role)
}

func (h *Handler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	actorID, ok := h.actor(w, r)
	if !ok {
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid role id")
		return
	}

	var dto roleDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := dto.Validate(); err != nil {
		h.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	role := &Role{
		ID:           id,
		Name:         dto.Name,
		Code:         dto.Code,
		Color:        dto.Color,
		LogoURL:      dto.LogoURL,
		ParentRoleID: dto.ParentRoleID,
	}
	if err := h.Service.UpdateRole(r.Context(), actorID, h.clientIP(r), role); err != nil {
		h.writeRoleError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, role)
}

func (h *Handler) DeleteRole(w http.ResponseWriter, r *http.Request) {
	actorID, ok := h.actor(w, r)
	if !ok {
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid role id")
		return
	}
	if err := h.Service.DeleteRole(r.Context(), actorID, h.clientIP(r), id); err != nil {
		h.writeRoleError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type rolePermissionDTO struct {
	PermissionID int64 `json:"permission_id"`
}

func (h *Handler) AddRolePermission(w http.ResponseWriter, r *http.Request) {
	actorID, ok := h.actor(w, r)
	if !ok {
		return
	}
	roleID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid role id")
		return
	}

	var dto rolePermissionDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil || dto.PermissionID == 0 {
		h.WriteError(w, http.StatusBadRequest, "permission_id is required")
		return
	}

	if err := h.Service.AddRolePermission(r.Context(), actorID, h.clientIP(r), roleID, dto.PermissionID); err != nil {
		h.writeRoleError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) RemoveRolePermission(w http.ResponseWriter, r *http.Request) {
	actorID, ok := h.actor(w, r)
	if !ok {
		return
	}
	roleID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid role id")
		return
	}
	permissionID, err := strconv.ParseInt(chi.URLParam(r, "permissionID"), 10, 64)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid permission id")
		return
	}

	if err := h.Service.RemoveRolePermission(r.Context(), actorID, h.clientIP(r), roleID, permissionID); err != nil {
		h.writeRoleError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) writeRoleError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrRoleNotFound):
		h.WriteError(w, http.StatusNotFound, "Роль не найдена")
	case errors.Is(err, ErrParentCycle):
		h.WriteError(w, http.StatusConflict, "Родительская роль образует цикл")
	case errors.Is(err, ErrPermissionNotFound):
		h.WriteError(w, http.StatusNotFound, "Разрешение не найдено")
	default:
		h.Logger.Error("role operation failed", "error", err)
		h.WriteError(w, http.StatusInternalServerError, "Внутренняя ошибка сервера")
	}
}
