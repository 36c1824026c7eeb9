package authService

import (
	"PanicButton/internal/api/auth"
	authRepository "PanicButton/internal/api/auth/repository"
	"PanicButton/internal/entity"
	"PanicButton/pkg/bcrypt"
	jwtPkg "PanicButton/pkg/jwt"
	"PanicButton/pkg/utils"
	"context"

	"github.com/sirupsen/logrus"
)

type AuthService interface {
	User() UserDomain
	Auth() AuthDomain
	GetRepository() authRepository.Repository
}

type UserDomain interface {
	GetByID(c context.Context, id string) (entity.User, error)
	Profile(c context.Context, id string) (auth.UserResponse, error)
	UpdateLocations(c context.Context, id string, req auth.UpdateLocationsRequest) (auth.UserResponse, error)
	UpdateLanguage(c context.Context, id string, req auth.UpdateLanguageRequest) (auth.UserResponse, error)
}

type AuthDomain interface {
	Signup(c context.Context, req auth.SignupRequest) (auth.AuthResponse, error)
	Login(c context.Context, req auth.LoginRequest) (auth.AuthResponse, error)
}

type authService struct {
	authRepository authRepository.Repository

	userDomain UserDomain
	authDomain AuthDomain
}

func (a *authService) User() UserDomain {
	return a.userDomain
}

func (a *authService) Auth() AuthDomain {
	return a.authDomain
}

func (a *authService) GetRepository() authRepository.Repository {
	return a.authRepository
}

type userDomainImpl struct {
	log  *logrus.Logger
	repo authRepository.Repository
}

type authDomainImpl struct {
	log         *logrus.Logger
	repo        authRepository.Repository
	jwt         jwtPkg.IJWT
	bcryptUtils bcrypt.IBcrypt
	utils       utils.IUtils
}

func New(log *logrus.Logger,
	authRepo authRepository.Repository,
	jwt jwtPkg.IJWT,
	bcryptUtils bcrypt.IBcrypt,
	utils utils.IUtils,
) AuthService {
	return &authService{
		authRepository: authRepo,

		userDomain: &userDomainImpl{log: log, repo: authRepo},
		authDomain: &authDomainImpl{log: log, repo: authRepo, jwt: jwt, bcryptUtils: bcryptUtils, utils: utils},
	}
}

func MakeUserResponse(user entity.User) auth.UserResponse {
	return auth.UserResponse{
		ID:                user.ID,
		Email:             user.Email,
		HomeLocation:      user.HomeLocation,
		WorkLocation:      user.WorkLocation,
		PreferredLanguage: user.PreferredLanguage,
		SpeechLocale:      entity.SupportedLanguages[user.PreferredLanguage],
		CreatedAt:         user.CreatedAt,
		UpdatedAt:         user.UpdatedAt,
	}
}
