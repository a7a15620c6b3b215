package audit

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/exiledproject/launcher-cms/internal/transport"
	"github.com/exiledproject/launcher-cms/pkg/logger"
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

// Search serves the admin audit view. All filters come from query params
// and combine with AND; responses carry at most QueryLimit rows,
// newest-first.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q, err := parseQuery(r)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	logs, err := h.Service.Search(r.Context(), q)
	if err != nil {
		h.Logger.Error("audit search failed", "error", err)
		h.WriteError(w, http.StatusInternalServerError, "Внутренняя ошибка сервера")
		return
	}
	h.WriteJSON(w, http.StatusOK, logs)
}

type purgeResponse struct {
	Deleted int64 `json:"deleted"`
}

// Purge deletes every row matching the same filter surface as Search.
func (h *Handler) Purge(w http.ResponseWriter, r *http.Request) {
	q, err := parseQuery(r)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	deleted, err := h.Service.Purge(r.Context(), q)
	if err != nil {
		h.Logger.Error("audit purge failed", "error", err)
		h.WriteError(w, http.StatusInternalServerError, "Внутренняя ошибка сервера")
		return
	}
	h.WriteJSON(w, http.StatusOK, purgeResponse{Deleted: deleted})
}

type queryError string

func (e queryError) Error() string { return string(e) }

func parseQuery(r *http.Request) (Query, error) {
	values := r.URL.Query()
	q := Query{
		Action:  values.Get("action"),
		IP:      values.Get("ip"),
		Details: values.Get("details"),
	}

	if raw := values.Get("user_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return Query{}, queryError("invalid user_id")
		}
		q.UserID = &id
	}
	if raw := values.Get("api_token_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return Query{}, queryError("invalid api_token_id")
		}
		q.APITokenID = &id
	}
	if raw := values.Get("from"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return Query{}, queryError("invalid from timestamp, expected RFC3339")
		}
		q.From = &t
	}
	if raw := values.Get("to"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return Query{}, queryError("invalid to timestamp, expected RFC3339")
		}
		q.To = &t
	}
	return q, nil
}
