package service

import "errors"

var (
	ErrEmailExists        = errors.New("email уже занят")
	ErrInvalidCredentials = errors.New("неверный email или пароль")
	ErrAccessDenied       = errors.New("доступ запрещен")
	ErrUserNotFound       = errors.New("пользователь не найден")
	ErrInvalidRole        = errors.New("неизвестная роль")
)
