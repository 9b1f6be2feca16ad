package ports

import (
	"context"

	"helpdesk/internal/model"
)

// UserCache : Redis слой для профилей пользователей
type UserCache interface {
	SetUser(ctx context.Context, user *model.User) error
	GetUser(ctx context.Context, id string) (*model.User, error)
	DeleteUser(ctx context.Context, id string) error
}
