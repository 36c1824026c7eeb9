package auth

import (
	"PanicButton/pkg/response"
	"net/http"
)

var (
	ErrEmailAlreadyExists     = response.NewError(http.StatusConflict, "email already registered")
	ErrInvalidEmailOrPassword = response.NewError(http.StatusUnauthorized, "invalid email or password")
	ErrUserNotFound           = response.NewError(http.StatusNotFound, "user not found")
	ErrUnsupportedLanguage    = response.NewError(http.StatusBadRequest, "unsupported language")
	ErrPasswordTooLong        = response.NewError(http.StatusBadRequest, "password must be at most 72 bytes")
)
