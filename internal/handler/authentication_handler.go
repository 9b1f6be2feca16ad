package handler

import (
	"errors"
	"net"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	"helpdesk/internal/model"
	"helpdesk/internal/model/requestresponse"
	"helpdesk/internal/ports"
	"helpdesk/internal/security"
	"helpdesk/internal/service"
)

type RefreshTokenVerifier interface {
	VerifyRefresh(tokenStr string) (*security.Claims, error)
}

type AuthenticationHandler struct {
	authService ports.AuthenticationService
	verifier    RefreshTokenVerifier
	cookie      RefreshCookie
	validate    *validator.Validate
}

func NewAuthenticationHandler(
	authService ports.AuthenticationService,
	verifier RefreshTokenVerifier,
	cookie RefreshCookie,
) *AuthenticationHandler {
	return &AuthenticationHandler{
		authService: authService,
		verifier:    verifier,
		cookie:      cookie,
		validate:    newValidator(),
	}
}

// Register godoc
// @Summary Регистрация пользователя
// @Description Создает пользователя с ролью USER и открывает сессию. Refresh токен устанавливается в cookie rt
// @Tags Authentication
// @Accept json
// @Produce json
// @Param body body requestresponse.RegisterRequest true "Тело запроса"
// @Success 200 {object} requestresponse.AccessTokenResponse
// @Failure 400 {object} requestresponse.ErrorResponse "Некорректные данные"
// @Failure 409 {object} requestresponse.ErrorResponse "Email уже занят"
// @Failure 500 {object} requestresponse.ErrorResponse
// @Router /auth/register [post]
func (h *AuthenticationHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req requestresponse.RegisterRequest
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}

	tokens, err := h.authService.Register(r.Context(), req.Email, req.Password, req.Name, deviceInfo(r))
	if err != nil {
		sendServiceError(w, r, err)
		return
	}

	h.cookie.set(w, tokens.RefreshToken)
	sendJSON(w, http.StatusOK, requestresponse.AccessTokenResponse{AccessToken: tokens.AccessToken})
}

// Login godoc
// @Summary Аутентификация пользователя
// @Description Получение access токена по email и паролю. Refresh токен устанавливается в cookie rt
// @Tags Authentication
// @Accept json
// @Produce json
// @Param body body requestresponse.LoginRequest true "Тело запроса"
// @Success 200 {object} requestresponse.AccessTokenResponse
// @Failure 400 {object} requestresponse.ErrorResponse "Некорректный JSON или пустые поля"
// @Failure 401 {object} requestresponse.ErrorResponse "Неверный email или пароль"
// @Failure 429 {object} requestresponse.ErrorResponse "Слишком много попыток"
// @Failure 500 {object} requestresponse.ErrorResponse
// @Router /auth/login [post]
func (h *AuthenticationHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req requestresponse.LoginRequest
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}

	tokens, err := h.authService.Login(r.Context(), req.Email, req.Password, deviceInfo(r))
	if err != nil {
		sendServiceError(w, r, err)
		return
	}

	h.cookie.set(w, tokens.RefreshToken)
	sendJSON(w, http.StatusOK, requestresponse.AccessTokenResponse{AccessToken: tokens.AccessToken})
}

// Logout godoc
// @Summary Завершение текущей сессии
// @Description Отзывает сессию, к которой относится access токен, и очищает cookie rt
// @Tags Authentication
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {boolean} boolean true
// @Failure 401 {object} requestresponse.ErrorResponse
// @Failure 500 {object} requestresponse.ErrorResponse
// @Router /auth/logout [post]
func (h *AuthenticationHandler) Logout(w http.ResponseWriter, r *http.Request) {
	claims, err := security.GetClaimsFromContext(r.Context())
	if err != nil {
		sendErrorResponse(w, http.StatusUnauthorized, msgUnauthorized)
		return
	}

	if err := h.authService.Logout(r.Context(), claims.ID); err != nil {
		sendServiceError(w, r, err)
		return
	}

	h.cookie.clear(w)
	sendJSON(w, http.StatusOK, true)
}

// LogoutAll godoc
// @Summary Завершение всех сессий
// @Description Отзывает все сессии текущего пользователя на всех устройствах
// @Tags Authentication
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {boolean} boolean true
// @Failure 401 {object} requestresponse.ErrorResponse
// @Failure 500 {object} requestresponse.ErrorResponse
// @Router /auth/logout-all [post]
func (h *AuthenticationHandler) LogoutAll(w http.ResponseWriter, r *http.Request) {
	claims, err := security.GetClaimsFromContext(r.Context())
	if err != nil {
		sendErrorResponse(w, http.StatusUnauthorized, msgUnauthorized)
		return
	}

	if err := h.authService.LogoutAll(r.Context(), claims.Subject); err != nil {
		sendServiceError(w, r, err)
		return
	}

	h.cookie.clear(w)
	sendJSON(w, http.StatusOK, true)
}

// Refresh godoc
// @Summary Обновление токенов
// @Description Обменивает refresh токен из cookie rt на новую пару. Старый токен становится недействительным,
// @Description повторное его предъявление отзывает все сессии пользователя
// @Tags Authentication
// @Produce json
// @Success 200 {object} requestresponse.AccessTokenResponse
// @Failure 403 {object} requestresponse.ErrorResponse "Access Denied"
// @Failure 500 {object} requestresponse.ErrorResponse
// @Router /auth/refresh [post]
func (h *AuthenticationHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	refreshToken, ok := h.cookie.read(r)
	if !ok {
		sendErrorResponse(w, http.StatusForbidden, msgAccessDenied)
		return
	}

	claims, err := h.verifier.VerifyRefresh(refreshToken)
	if err != nil {
		log.Debug().Err(err).Msg("невалидный refresh токен")
		h.cookie.clear(w)
		sendErrorResponse(w, http.StatusForbidden, msgAccessDenied)
		return
	}

	tokens, err := h.authService.Refresh(r.Context(), claims.Subject, refreshToken, claims.ID, deviceInfo(r))
	if err != nil {
		if errors.Is(err, service.ErrAccessDenied) {
			h.cookie.clear(w)
		}
		sendServiceError(w, r, err)
		return
	}

	h.cookie.set(w, tokens.RefreshToken)
	sendJSON(w, http.StatusOK, requestresponse.AccessTokenResponse{AccessToken: tokens.AccessToken})
}

// Sessions godoc
// @Summary Активные сессии
// @Description Список неотозванных и неистекших сессий текущего пользователя
// @Tags Authentication
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {array} requestresponse.SessionResponse
// @Failure 401 {object} requestresponse.ErrorResponse
// @Failure 500 {object} requestresponse.ErrorResponse
// @Router /auth/sessions [get]
func (h *AuthenticationHandler) Sessions(w http.ResponseWriter, r *http.Request) {
	claims, err := security.GetClaimsFromContext(r.Context())
	if err != nil {
		sendErrorResponse(w, http.StatusUnauthorized, msgUnauthorized)
		return
	}

	sessions, err := h.authService.ListSessions(r.Context(), claims.Subject, claims.ID)
	if err != nil {
		sendServiceError(w, r, err)
		return
	}

	resp := make([]requestresponse.SessionResponse, 0, len(sessions))
	for _, session := range sessions {
		resp = append(resp, requestresponse.SessionResponse{
			ID:        session.ID,
			UserAgent: session.UserAgent,
			IPAddress: session.IPAddress,
			CreatedAt: session.CreatedAt,
			ExpiresAt: session.ExpiresAt,
			Current:   session.Current,
		})
	}
	sendJSON(w, http.StatusOK, resp)
}

// deviceInfo : при TrustProxy RemoteAddr уже подменен middleware.RealIP
func deviceInfo(r *http.Request) model.DeviceInfo {
	ip := r.RemoteAddr
	if host, _, err := net.SplitHostPort(ip); err == nil {
		ip = host
	}
	return model.DeviceInfo{
		UserAgent: r.UserAgent(),
		IPAddress: ip,
	}
}
