package model

import "time"

type Role string

const (
	RoleUser    Role = "USER"
	RoleAdmin   Role = "ADMIN"
	RoleSupport Role = "SUPPORT"
)

func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAdmin, RoleSupport:
		return true
	}
	return false
}

// User : запись пользователя, удаляется только мягко (deleted_at)
type User struct {
	ID           string     `db:"id" json:"id"`
	Email        string     `db:"email" json:"email"`
	PasswordHash string     `db:"password_hash" json:"-"`
	Name         *string    `db:"name" json:"name"`
	Role         Role       `db:"role" json:"role"`
	CreatedAt    time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updatedAt"`
	DeletedAt    *time.Time `db:"deleted_at" json:"-"`
}

func (u *User) IsDeleted() bool {
	return u.DeletedAt != nil
}
