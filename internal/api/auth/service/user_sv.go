package authService

import (
	"PanicButton/internal/api/auth"
	"PanicButton/internal/entity"
	contextPkg "PanicButton/pkg/context"
	"context"
	"strings"

	"github.com/sirupsen/logrus"
)

func (s *userDomainImpl) GetByID(c context.Context, id string) (entity.User, error) {
	requestID := contextPkg.GetRequestID(c)
	repo, err := s.repo.NewClient(false)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to create repository client")
		return entity.User{}, err
	}

	return repo.Users.GetByID(c, id)
}

func (s *userDomainImpl) Profile(c context.Context, id string) (auth.UserResponse, error) {
	user, err := s.GetByID(c, id)
	if err != nil {
		return auth.UserResponse{}, err
	}
	return MakeUserResponse(user), nil
}

func (s *userDomainImpl) UpdateLocations(c context.Context, id string, req auth.UpdateLocationsRequest) (auth.UserResponse, error) {
	requestID := contextPkg.GetRequestID(c)
	repo, err := s.repo.NewClient(false)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to create repository client")
		return auth.UserResponse{}, err
	}

	home := strings.TrimSpace(req.HomeLocation)
	work := strings.TrimSpace(req.WorkLocation)
	if err := repo.Users.UpdateLocations(c, id, home, work); err != nil {
		return auth.UserResponse{}, err
	}

	s.log.WithFields(logrus.Fields{
		"request_id": requestID,
		"user_id":    id,
	}).Info("Reference locations updated")

	return s.Profile(c, id)
}

func (s *userDomainImpl) UpdateLanguage(c context.Context, id string, req auth.UpdateLanguageRequest) (auth.UserResponse, error) {
	requestID := contextPkg.GetRequestID(c)

	language := strings.ToLower(strings.TrimSpace(req.PreferredLanguage))
	if !entity.IsSupportedLanguage(language) {
		return auth.UserResponse{}, auth.ErrUnsupportedLanguage
	}

	repo, err := s.repo.NewClient(false)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to create repository client")
		return auth.UserResponse{}, err
	}

	if err := repo.Users.UpdateLanguage(c, id, language); err != nil {
		return auth.UserResponse{}, err
	}

	return s.Profile(c, id)
}
