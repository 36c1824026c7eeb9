package fakecall

import (
	"PanicButton/pkg/response"
	"net/http"
)

var (
	ErrTTSNotConfigured    = response.NewError(http.StatusServiceUnavailable, "Eleven Labs API key not configured")
	ErrSpeechFailed        = response.NewError(http.StatusBadGateway, "failed to generate speech")
	ErrUserMessageRequired = response.NewError(http.StatusBadRequest, "userMessage is required")
)
