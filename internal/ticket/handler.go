package ticket

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

type createDTO struct {
	Subject string `json:"subject"`
	Message string `json:"message"`
}

func (d createDTO) Validate() error {
	if d.Subject == "" {
		return errors.New("subject is required")
	}
	if d.Message == "" {
		return errors.New("message is required")
	}
	return nil
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.UserFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "missing authorization token")
		return
	}

	var dto createDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := dto.Validate(); err != nil {
		h.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	t, err := h.Service.Create(r.Context(), principal.User.ID, auth.ClientIP(r), dto.Subject, dto.Message)
	if err != nil {
		h.Logger.Error("ticket create failed", "error", err)
		h.WriteError(w, http.StatusInternalServerError, "Внутренняя ошибка сервера")
		return
	}
	h.WriteJSON(w, http.StatusCreated, t)
}

// List shows the caller's own tickets; tickets_manage holders can pass
// all=true to see everyone's, optionally filtered by status.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.UserFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "missing authorization token")
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	manage := principal.Permissions.Contains(permission.CodeTicketsManage)
	if manage && r.URL.Query().Get("all") == "true" {
		tickets, err := h.Service.ListAll(r.Context(), Status(r.URL.Query().Get("status")), limit, offset)
		if err != nil {
			h.Logger.Error("ticket list failed", "error", err)
			h.WriteError(w, http.StatusInternalServerError, "Внутренняя ошибка сервера")
			return
		}
		h.WriteJSON(w, http.StatusOK, tickets)
		return
	}

	tickets, err := h.Service.ListByUser(r.Context(), principal.User.ID, limit, offset)
	if err != nil {
		h.Logger.Error("ticket list failed", "error", err)
		h.WriteError(w, http.StatusInternalServerError, "Внутренняя ошибка сервера")
		return
	}
	h.WriteJSON(w, http.StatusOK, tickets)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.UserFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "missing authorization token")
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid ticket id")
		return
	}

	allowAny := principal.Permissions.Contains(permission.CodeTicketsManage)
	t, err := h.Service.Get(r.Context(), principal.User.ID, id, allowAny)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			h.WriteError(w, http.StatusNotFound, "Тикет не найден")
			return
		}
		h.Logger.Error("ticket get failed", "error", err)
		h.WriteError(w, http.StatusInternalServerError, "Внутренняя ошибка сервера")
		return
	}
	h.WriteJSON(w, http.StatusOK, t)
}

func (h *Handler) Close(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.UserFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "missing authorization token")
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid ticket id")
		return
	}

	allowAny := principal.Permissions.Contains(permission.CodeTicketsManage)
	t, err := h.Service.Close(r.Context(), principal.User.ID, id, auth.ClientIP(r), allowAny)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			h.WriteError(w, http.StatusNotFound, "Тикет не найден")
		case errors.Is(err, ErrAlreadyClosed):
			h.WriteError(w, http.StatusConflict, "Тикет уже закрыт")
		default:
			h.Logger.Error("ticket close failed", "error", err)
			h.WriteError(w, http.StatusInternalServerError, "Внутренняя ошибка сервера")
		}
		return
	}
	h.WriteJSON(w, http.StatusOK, t)
}
