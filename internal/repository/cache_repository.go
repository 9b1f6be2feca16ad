package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"helpdesk/internal/model"
	"helpdesk/internal/util"
)

// cachedUser : хэш пароля в кэш не попадает
type cachedUser struct {
	ID        string     `json:"id"`
	Email     string     `json:"email"`
	Name      *string    `json:"name"`
	Role      model.Role `json:"role"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

type CacheRepository struct {
	client *redis.Client
	ttl    time.Duration
}

func NewCacheRepository(client *redis.Client, ttl time.Duration) *CacheRepository {
	return &CacheRepository{client: client, ttl: ttl}
}

func (r *CacheRepository) SetUser(ctx context.Context, user *model.User) error {
	data, err := json.Marshal(cachedUser{
		ID:        user.ID,
		Email:     user.Email,
		Name:      user.Name,
		Role:      user.Role,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	})
	if err != nil {
		return util.LogError("ошибка сериализации пользователя", err)
	}

	cmd := r.client.Set(ctx, r.key(user.ID), data, r.ttl)
	if err = cmd.Err(); err != nil {
		return util.LogError("ошибка сохранения в Redis", err)
	}
	if cmd.Val() != "OK" {
		return fmt.Errorf("неожиданный ответ Redis: %s", cmd.Val())
	}

	return nil
}

// GetUser : возвращает nil, nil если в кэше ничего нет
func (r *CacheRepository) GetUser(ctx context.Context, id string) (*model.User, error) {
	val, err := r.client.Get(ctx, r.key(id)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	} else if err != nil {
		return nil, util.LogError("ошибка получения пользователя из Redis", err)
	}

	var cached cachedUser
	if err := json.Unmarshal([]byte(val), &cached); err != nil {
		return nil, util.LogError("ошибка десериализации пользователя из кэша", err)
	}

	return &model.User{
		ID:        cached.ID,
		Email:     cached.Email,
		Name:      cached.Name,
		Role:      cached.Role,
		CreatedAt: cached.CreatedAt,
		UpdatedAt: cached.UpdatedAt,
	}, nil
}

func (r *CacheRepository) DeleteUser(ctx context.Context, id string) error {
	if err := r.client.Del(ctx, r.key(id)).Err(); err != nil {
		return util.LogError("ошибка удаления пользователя из Redis", err)
	}
	return nil
}

func (r *CacheRepository) key(id string) string {
	return fmt.Sprintf("user:%s", id)
}
