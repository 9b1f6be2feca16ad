package requestresponse

import "time"

// RegisterRequest : тело запроса регистрации
type RegisterRequest struct {
	Email    string  `json:"email" validate:"required,email" example:"user@example.com"`
	Password string  `json:"password" validate:"required,min=6" example:"P@ssw0rd!"`
	Name     *string `json:"name,omitempty" validate:"omitempty,max=100" example:"Jane Doe"`
}

// ProfileResponse : данные текущего пользователя, без хэша пароля
type ProfileResponse struct {
	ID        string    `json:"id" example:"123e4567-e89b-12d3-a456-426614174000"`
	Email     string    `json:"email" example:"user@example.com"`
	Name      *string   `json:"name" example:"Jane Doe"`
	Role      string    `json:"role" example:"USER"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ErrorDetail : детальная информация об ошибке
type ErrorDetail struct {
	Code int    `json:"code" example:"403"`
	Text string `json:"text" example:"Access Denied"`
}

// ErrorResponse : стандартная структура ошибки
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}
