package handler

import (
	"net/http"

	"helpdesk/internal/model/requestresponse"
	"helpdesk/internal/ports"
	"helpdesk/internal/security"
)

type UserHandler struct {
	userService ports.UserService
}

func NewUserHandler(userService ports.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// Me godoc
// @Summary Профиль текущего пользователя
// @Tags Users
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} requestresponse.ProfileResponse
// @Failure 401 {object} requestresponse.ErrorResponse
// @Failure 500 {object} requestresponse.ErrorResponse
// @Router /auth/me [get]
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims, err := security.GetClaimsFromContext(r.Context())
	if err != nil {
		sendErrorResponse(w, http.StatusUnauthorized, msgUnauthorized)
		return
	}

	user, err := h.userService.Profile(r.Context(), claims.Subject)
	if err != nil {
		sendServiceError(w, r, err)
		return
	}

	sendJSON(w, http.StatusOK, requestresponse.ProfileResponse{
		ID:        user.ID,
		Email:     user.Email,
		Name:      user.Name,
		Role:      string(user.Role),
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	})
}
