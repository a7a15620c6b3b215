package auth

import (
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"strings"

	"github.com/exiledproject/launcher-cms/internal/permission"
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

// SignIn is the launcher integration endpoint
// (POST /api/v1/integrations/auth/signin).
func (h *Handler) SignIn(w http.ResponseWriter, r *http.Request) {
	var dto SignInDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.Service.SignIn(r.Context(), dto, ClientIP(r))
	if err != nil {
		h.Logger.Error("sign-in failed", "error", err)
		h.WriteError(w, http.StatusInternalServerError, "Внутренняя ошибка сервера")
		return
	}

	h.writeSignInResult(w, result, false)
}

// Login is the admin panel variant. It shares the sign-in precedence and on
// the 2FA-setup-pending outcome attaches Next:"setup-2fa" so the UI can
// route accordingly; on success it returns the session token pair.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var dto SignInDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, tokens, err := h.Service.WebLogin(r.Context(), dto, ClientIP(r))
	if err != nil {
		h.Logger.Error("web login failed", "error", err)
		h.WriteError(w, http.StatusInternalServerError, "Внутренняя ошибка сервера")
		return
	}

	if result.Outcome != OutcomeSuccess {
		h.writeSignInResult(w, result, true)
		return
	}

	h.WriteJSON(w, http.StatusOK, struct {
		SignInResponse
		AuthTokens
	}{
		SignInResponse: SignInResponse{Login: result.Login, UserUuid: result.UserUUID, Message: result.Message},
		AuthTokens:     *tokens,
	})
}

func (h *Handler) writeSignInResult(w http.ResponseWriter, result SignInResult, web bool) {
	switch result.Outcome {
	case OutcomeSuccess:
		h.WriteJSON(w, http.StatusOK, SignInResponse{
			Login:    result.Login,
			UserUuid: result.UserUUID,
			Message:  result.Message,
		})
	case OutcomeInvalidInput:
		// The launcher contract expects a bare 401 when fields are missing.
		w.WriteHeader(http.StatusUnauthorized)
	case OutcomeNotFound:
		h.WriteJSON(w, http.StatusNotFound, SignInErrorResponse{Message: result.Message})
	case OutcomeForbidden:
		h.WriteJSON(w, http.StatusForbidden, SignInErrorResponse{Message: result.Message})
	case OutcomeSetupRequired:
		resp := SignInErrorResponse{Message: result.Message}
		if web {
			resp.Next = NextSetup2FA
		}
		h.WriteJSON(w, http.StatusForbidden, resp)
	default:
		h.WriteJSON(w, http.StatusUnauthorized, SignInErrorResponse{Message: result.Message})
	}
}

func (h *Handler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	var dto RefreshTokenDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := dto.Validate(); err != nil {
		h.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	tokens, err := h.Service.RefreshTokens(dto.RefreshToken)
	if err != nil {
		h.WriteError(w, http.StatusUnauthorized, "invalid refresh token")
		return
	}
	h.WriteJSON(w, http.StatusOK, tokens)
}

// AuthMiddleware validates the bearer token and attaches the principal, with
// its effective permissions resolved for this request, to the context.
func (h *Handler) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := h.ExtractTokenFromHeader(r)
		if token == "" {
			h.WriteError(w, http.StatusUnauthorized, "missing authorization token")
			return
		}

		claims, err := h.Service.ValidateAccessToken(token)
		if err != nil {
			h.WriteError(w, http.StatusUnauthorized, "invalid token")
			return
		}

		principal, err := h.Service.Principal(r.Context(), claims.UserID)
		if err != nil {
			h.Logger.Error("failed to load principal", "user_id", claims.UserID, "error", err)
			h.WriteError(w, http.StatusUnauthorized, "user not found")
			return
		}

		next.ServeHTTP(w, r.WithContext(ContextWithUser(r.Context(), principal)))
	})
}

// RequirePermission denies the request unless the principal's effective set,
// resolved by AuthMiddleware for this same request, contains the code.
func (h *Handler) RequirePermission(code permission.Code) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := UserFromContext(r.Context())
			if !ok || principal == nil {
				h.WriteError(w, http.StatusUnauthorized, "missing authorization token")
				return
			}
			if !principal.Permissions.Contains(code) {
				h.Logger.Warn("access denied",
					"user_id", principal.User.ID,
					"required_permission", code)
				h.WriteError(w, http.StatusForbidden, "Недостаточно прав")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ClientIP extracts the caller address, honoring the usual proxy headers.
func ClientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		parts := strings.Split(fwd, ",")
		return strings.TrimSpace(parts[0])
	}
	if real := r.Header.Get("X-Real-IP"); real != "" {
		return real
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
