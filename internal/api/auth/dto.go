package auth

import "time"

type SignupRequest struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type UpdateLocationsRequest struct {
	HomeLocation string `json:"homeLocation" validate:"max=255"`
	WorkLocation string `json:"workLocation" validate:"max=255"`
}

type UpdateLanguageRequest struct {
	PreferredLanguage string `json:"preferredLanguage" validate:"required"`
}

type UserResponse struct {
	ID                string    `json:"id"`
	Email             string    `json:"email"`
	HomeLocation      string    `json:"homeLocation"`
	WorkLocation      string    `json:"workLocation"`
	PreferredLanguage string    `json:"preferredLanguage"`
	SpeechLocale      string    `json:"speechLocale"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

type AuthResponse struct {
	Success   bool         `json:"success"`
	Token     string       `json:"token"`
	ExpiresAt int64        `json:"expiresAt"`
	User      UserResponse `json:"user"`
}

type UserEnvelope struct {
	Success bool         `json:"success"`
	User    UserResponse `json:"user"`
}
