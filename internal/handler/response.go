package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	"helpdesk/internal/model/requestresponse"
	"helpdesk/internal/service"
)

const (
	msgAccessDenied       = "Access Denied"
	msgInvalidCredentials = "Invalid email or password"
	msgEmailExists        = "Email already exists"
	msgUserNotFound       = "User not found"
	msgUnauthorized       = "Unauthorized"
	msgInternal           = "internal server error"
	msgInvalidBody        = "invalid request body"
	msgTooManyRequests    = "Too Many Requests"
)

func newValidator() *validator.Validate {
	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return validate
}

// decodeAndValidate : при ошибке сам отправляет 400 и возвращает false
func decodeAndValidate(w http.ResponseWriter, r *http.Request, validate *validator.Validate, target interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(target); err != nil {
		sendErrorResponse(w, http.StatusBadRequest, msgInvalidBody)
		return false
	}

	if err := validate.Struct(target); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) && len(validationErrors) > 0 {
			sendErrorResponse(w, http.StatusBadRequest, describeFieldError(validationErrors[0]))
			return false
		}
		sendErrorResponse(w, http.StatusBadRequest, msgInvalidBody)
		return false
	}

	return true
}

func describeFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "email":
		return fe.Field() + " must be a valid email"
	case "min":
		return fe.Field() + " must be at least " + fe.Param() + " characters"
	case "max":
		return fe.Field() + " must be at most " + fe.Param() + " characters"
	default:
		return fe.Field() + " is invalid"
	}
}

// sendServiceError : сопоставляет ошибки сервисов с HTTP статусами
func sendServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrEmailExists):
		sendErrorResponse(w, http.StatusConflict, msgEmailExists)
	case errors.Is(err, service.ErrInvalidCredentials):
		sendErrorResponse(w, http.StatusUnauthorized, msgInvalidCredentials)
	case errors.Is(err, service.ErrAccessDenied):
		sendErrorResponse(w, http.StatusForbidden, msgAccessDenied)
	case errors.Is(err, service.ErrUserNotFound):
		sendErrorResponse(w, http.StatusUnauthorized, msgUserNotFound)
	default:
		log.Error().Err(err).Str("path", r.URL.Path).Msg("внутренняя ошибка сервера")
		sendErrorResponse(w, http.StatusInternalServerError, msgInternal)
	}
}

// sendErrorResponse отправляет ответ об ошибке JSON с указанным кодом статуса и сообщением
func sendErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	sendJSON(w, statusCode, requestresponse.ErrorResponse{
		Error: requestresponse.ErrorDetail{
			Code: statusCode,
			Text: message,
		},
	})
}

func sendJSON(w http.ResponseWriter, statusCode int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error().Err(err).Msg("ошибка записи ответа")
	}
}
