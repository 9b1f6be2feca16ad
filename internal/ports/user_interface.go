package ports

import (
	"context"

	"github.com/jmoiron/sqlx"

	"helpdesk/internal/model"
)

// UserRepository : все методы, кроме FindByIDIncludingDeleted, видят только неудаленных пользователей
type UserRepository interface {
	CreateUser(ctx context.Context, exec sqlx.ExtContext, user *model.User) (*model.User, error)
	FindActiveByEmail(ctx context.Context, exec sqlx.ExtContext, email string) (*model.User, error)
	FindActiveByID(ctx context.Context, exec sqlx.ExtContext, id string) (*model.User, error)
	FindByIDIncludingDeleted(ctx context.Context, exec sqlx.ExtContext, id string) (*model.User, error)
	SoftDelete(ctx context.Context, exec sqlx.ExtContext, id string) error
}

type UserService interface {
	Profile(ctx context.Context, userID string) (*model.User, error)
	CreateUser(ctx context.Context, email, password string, name *string, role model.Role) (*model.User, error)
	DeactivateUser(ctx context.Context, email string) error
}
