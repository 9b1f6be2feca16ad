package repository

import (
	"errors"

	"github.com/lib/pq"
)

var (
	ErrNotFound            = errors.New("запись не найдена")
	ErrDuplicate           = errors.New("запись уже существует")
	ErrTokenAlreadyRotated = errors.New("refresh токен уже отозван или заменен")
)

const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}
