package pageaccess

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

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

// List is readable by any authenticated user so the SPA can build its menu.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	rules, err := h.Service.List(r.Context())
	if err != nil {
		h.Logger.Error("page access list failed", "error", err)
		h.WriteError(w, http.StatusInternalServerError, "Внутренняя ошибка сервера")
		return
	}
	h.WriteJSON(w, http.StatusOK, rules)
}

type pageDTO struct {
	Path        string          `json:"path"`
	Code        permission.Code `json:"code"`
	Description string          `json:"description"`
}

func (d pageDTO) Validate() error {
	if d.Path == "" {
		return errors.New("path is required")
	}
	if d.Code == "" {
		return errors.New("code is required")
	}
	return nil
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.UserFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "missing authorization token")
		return
	}

	var dto pageDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := dto.Validate(); err != nil {
		h.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	rule := &PageAccess{Path: dto.Path, Code: dto.Code, Description: dto.Description}
	if err := h.Service.Create(r.Context(), principal.User.ID, auth.ClientIP(r), rule); err != nil {
		h.Logger.Error("page access create failed", "error", err)
		h.WriteError(w, http.StatusInternalServerError, "Внутренняя ошибка сервера")
		return
	}
	h.WriteJSON(w, http.StatusCreated, rule)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.UserFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "missing authorization token")
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid rule id")
		return
	}

	var dto pageDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := dto.Validate(); err != nil {
		h.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	rule := &PageAccess{ID: id, Path: dto.Path, Code: dto.Code, Description: dto.Description}
	if err := h.Service.Update(r.Context(), principal.User.ID, auth.ClientIP(r), rule); err != nil {
		if errors.Is(err, ErrNotFound) {
			h.WriteError(w, http.StatusNotFound, "Правило не найдено")
			return
		}
		h.Logger.Error("page access update failed", "error", err)
		h.WriteError(w, http.StatusInternalServerError, "Внутренняя ошибка сервера")
		return
	}
	h.WriteJSON(w, http.StatusOK, rule)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.UserFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "missing authorization token")
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid rule id")
		return
	}
	if err := h.Service.Delete(r.Context(), principal.User.ID, auth.ClientIP(r), id); err != nil {
		if errors.Is(err, ErrNotFound) {
			h.WriteError(w, http.StatusNotFound, "Правило не найдено")
			return
		}
		h.Logger.Error("page access delete failed", "error", err)
		h.WriteError(w, http.StatusInternalServerError, "Внутренняя ошибка сервера")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
