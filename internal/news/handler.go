package news

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/exiledproject/launcher-cms/internal/auth"
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

// List is the public launcher feed; no authentication.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	items, err := h.Service.List(r.Context(), limit, offset)
	if err != nil {
		h.Logger.Error("news list failed", "error", err)
		h.WriteError(w, http.StatusInternalServerError, "Внутренняя ошибка сервера")
		return
	}
	h.WriteJSON(w, http.StatusOK, items)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid news id")
		return
	}
	item, err := h.Service.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			h.WriteError(w, http.StatusNotFound, "Новость не найдена")
			return
		}
		h.Logger.Error("news get failed", "error", err)
		h.WriteError(w, http.StatusInternalServerError, "Внутренняя ошибка сервера")
		return
	}
	h.WriteJSON(w, http.StatusOK, item)
}

type newsDTO struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

func (d newsDTO) Validate() error {
	if d.Title == "" {
		return errors.New("title is required")
	}
	return nil
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.UserFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "missing authorization token")
		return
	}

	var dto newsDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := dto.Validate(); err != nil {
		h.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	item := &News{Title: dto.Title, Description: dto.Description}
	if err := h.Service.Create(r.Context(), principal.User.ID, auth.ClientIP(r), item); err != nil {
		h.Logger.Error("news create failed", "error", err)
		h.WriteError(w, http.StatusInternalServerError, "Внутренняя ошибка сервера")
		return
	}
	h.WriteJSON(w, http.StatusCreated, item)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.UserFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "missing authorization token")
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid news id")
		return
	}

	var dto newsDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := dto.Validate(); err != nil {
		h.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	item := &News{ID: id, Title: dto.Title, Description: dto.Description}
	if err := h.Service.Update(r.Context(), principal.User.ID, auth.ClientIP(r), item); err != nil {
		if errors.Is(err, ErrNotFound) {
			h.WriteError(w, http.StatusNotFound, "Новость не найдена")
			return
		}
		h.Logger.Error("news update failed", "error", err)
		h.WriteError(w, http.StatusInternalServerError, "Внутренняя ошибка сервера")
		return
	}
	h.WriteJSON(w, http.StatusOK, item)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.UserFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "missing authorization token")
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid news id")
		return
	}
	if err := h.Service.Delete(r.Context(), principal.User.ID, auth.ClientIP(r), id); err != nil {
		if errors.Is(err, ErrNotFound) {
			h.WriteError(w, http.StatusNotFound, "Новость не найдена")
			return
		}
		h.Logger.Error("news delete failed", "error", err)
		h.WriteError(w, http.StatusInternalServerError, "Внутренняя ошибка сервера")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
