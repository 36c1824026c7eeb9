package authService

import (
	"PanicButton/internal/api/auth"
	"PanicButton/internal/entity"
	"PanicButton/pkg/bcrypt"
	contextPkg "PanicButton/pkg/context"
	jwtPkg "PanicButton/pkg/jwt"
	"context"
	"errors"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *authDomainImpl) Signup(c context.Context, req auth.SignupRequest) (auth.AuthResponse, error) {
	requestID := contextPkg.GetRequestID(c)
	repo, err := s.repo.NewClient(false)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to create repository client")
		return auth.AuthResponse{}, err
	}

	hashedPassword, err := s.bcryptUtils.HashPassword(req.Password)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return auth.AuthResponse{}, auth.ErrPasswordTooLong
	}
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to hash password")
		return auth.AuthResponse{}, err
	}

	ULID, err := s.utils.NewULIDFromTimestamp(time.Now())
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to generate ULID")
		return auth.AuthResponse{}, err
	}

	user := entity.User{
		ID:                ULID,
		Email:             normalizeEmail(req.Email),
		Password:          hashedPassword,
		PreferredLanguage: entity.DefaultLanguage,
	}

	if err := repo.Users.CreateUser(c, user); err != nil {
		if !errors.Is(err, auth.ErrEmailAlreadyExists) {
			s.log.WithFields(logrus.Fields{
				"request_id": requestID,
				"error":      err.Error(),
			}).Error("Failed to create user")
		}
		return auth.AuthResponse{}, err
	}

	created, err := repo.Users.GetByID(c, user.ID)
	if err != nil {
		return auth.AuthResponse{}, err
	}

	return s.issue(c, created)
}

func (s *authDomainImpl) Login(c context.Context, req auth.LoginRequest) (auth.AuthResponse, error) {
	requestID := contextPkg.GetRequestID(c)
	repo, err := s.repo.NewClient(false)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to create repository client")
		return auth.AuthResponse{}, err
	}

	user, err := repo.Users.GetByEmail(c, normalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			s.log.WithFields(logrus.Fields{
				"request_id": requestID,
			}).Warn("Login for unknown email")
			return auth.AuthResponse{}, auth.ErrInvalidEmailOrPassword
		}
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to get user by email")
		return auth.AuthResponse{}, err
	}

	if err := s.bcryptUtils.ComparePassword(user.Password, req.Password); err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Warn("Password comparison failed")
		return auth.AuthResponse{}, auth.ErrInvalidEmailOrPassword
	}

	return s.issue(c, user)
}

func (s *authDomainImpl) issue(c context.Context, user entity.User) (auth.AuthResponse, error) {
	token, expiresAt, err := s.jwt.Sign(map[string]interface{}{
		"id":    user.ID,
		"email": user.Email,
	}, jwtPkg.DefaultExpiry)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": contextPkg.GetRequestID(c),
			"error":      err.Error(),
		}).Error("Failed to sign token")
		return auth.AuthResponse{}, err
	}

	return auth.AuthResponse{
		Success:   true,
		Token:     token,
		ExpiresAt: expiresAt,
		User:      MakeUserResponse(user),
	}, nil
}
