package twofactor

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/exiledproject/launcher-cms/internal/auth"
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

type setupResponse struct {
	Secret          string `json:"secret"`
	ProvisioningURI string `json:"provisioning_uri"`
	// QR PNG, base64 so the SPA can inline it as a data URI.
	QRCode string `json:"qr_code"`
}

type verifyDTO struct {
	Code string `json:"code"`
}

type credentialSetupDTO struct {
	Login    string `json:"Login"`
	Password string `json:"Password"`
	Code     string `json:"code,omitempty"`
}

func (d credentialSetupDTO) Validate() error {
	if d.Login == "" || d.Password == "" {
		return errors.New("login and password are required")
	}
	return nil
}

// Setup is the unauthenticated enrollment path for accounts frozen by the
// 2FA-setup requirement; it authenticates by password.
func (h *Handler) Setup(w http.ResponseWriter, r *http.Request) {
	var dto credentialSetupDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := dto.Validate(); err != nil {
		h.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.Service.BeginSetupWithCredentials(r.Context(), dto.Login, dto.Password)
	if err != nil {
		h.writeCredentialError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, setupResponse{
		Secret:          result.Secret,
		ProvisioningURI: result.ProvisioningURI,
		QRCode:          base64.StdEncoding.EncodeToString(result.QRCodePNG),
	})
}

// SetupVerify completes the credential-based enrollment.
func (h *Handler) SetupVerify(w http.ResponseWriter, r *http.Request) {
	var dto credentialSetupDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := dto.Validate(); err != nil {
		h.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	if dto.Code == "" {
		h.WriteError(w, http.StatusBadRequest, "code is required")
		return
	}

	if err := h.Service.VerifyWithCredentials(r.Context(), dto.Login, dto.Password, dto.Code); err != nil {
		h.writeCredentialError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]string{"message": "2FA активирована"})
}

func (h *Handler) writeCredentialError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrUserNotFound):
		h.WriteError(w, http.StatusNotFound, "Пользователь не найден")
	case errors.Is(err, ErrUserBanned):
		h.WriteError(w, http.StatusForbidden, "Пользователь заблокирован")
	case errors.Is(err, ErrBadCredentials):
		h.WriteError(w, http.StatusUnauthorized, "Неверный логин или пароль")
	case errors.Is(err, ErrAlreadyEnabled):
		h.WriteError(w, http.StatusConflict, "2FA уже включена")
	case errors.Is(err, ErrNotInitialized):
		h.WriteError(w, http.StatusBadRequest, "Настройка 2FA не начата")
	case errors.Is(err, ErrInvalidCode):
		h.WriteError(w, http.StatusUnauthorized, "Неверный проверочный код")
	default:
		h.Logger.Error("two-factor enrollment failed", "error", err)
		h.WriteError(w, http.StatusInternalServerError, "Внутренняя ошибка сервера")
	}
}

// BeginSetup starts 2FA enrollment for the authenticated account.
func (h *Handler) BeginSetup(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.UserFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "missing authorization token")
		return
	}

	result, err := h.Service.BeginSetup(r.Context(), principal.User.ID)
	if err != nil {
		switch {
		case errors.Is(err, ErrAlreadyEnabled):
			h.WriteError(w, http.StatusConflict, "2FA уже включена")
		case errors.Is(err, ErrUserNotFound):
			h.WriteError(w, http.StatusNotFound, "Пользователь не найден")
		default:
			h.Logger.Error("two-factor setup failed", "error", err)
			h.WriteError(w, http.StatusInternalServerError, "Внутренняя ошибка сервера")
		}
		return
	}

	h.WriteJSON(w, http.StatusOK, setupResponse{
		Secret:          result.Secret,
		ProvisioningURI: result.ProvisioningURI,
		QRCode:          base64.StdEncoding.EncodeToString(result.QRCodePNG),
	})
}

// Verify activates 2FA with the first valid authenticator code.
func (h *Handler) Verify(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.UserFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "missing authorization token")
		return
	}

	var dto verifyDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil || dto.Code == "" {
		h.WriteError(w, http.StatusBadRequest, "code is required")
		return
	}

	if err := h.Service.VerifyAndActivate(r.Context(), principal.User.ID, dto.Code); err != nil {
		switch {
		case errors.Is(err, ErrInvalidCode):
			h.WriteError(w, http.StatusUnauthorized, "Неверный проверочный код")
		case errors.Is(err, ErrNotInitialized):
			h.WriteError(w, http.StatusBadRequest, "Настройка 2FA не начата")
		case errors.Is(err, ErrUserNotFound):
			h.WriteError(w, http.StatusNotFound, "Пользователь не найден")
		default:
			h.Logger.Error("two-factor activation failed", "error", err)
			h.WriteError(w, http.StatusInternalServerError, "Внутренняя ошибка сервера")
		}
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]string{"message": "2FA активирована"})
}
