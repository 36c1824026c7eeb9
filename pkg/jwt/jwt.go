package jwtPkg

import (
	"PanicButton/internal/entity"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

const DefaultExpiry = 24 * time.Hour

var (
	ErrMissingToken  = errors.New("empty Authorization header")
	ErrInvalidFormat = errors.New("invalid Authorization format")
	ErrInvalidClaims = errors.New("invalid token claims")
)

type IJWT interface {
	Sign(data map[string]interface{}, expiredAt time.Duration) (string, int64, error)
	Verify(accessToken string) (*jwt.Token, error)
	VerifyTokenHeader(c *fiber.Ctx) (*jwt.Token, error)
}

type jwtService struct {
	secret []byte
	now    func() time.Time
}

func New(secret string) (IJWT, error) {
	if secret == "" {
		return nil, fmt.Errorf("JWT_ACCESS_TOKEN_SECRET not set")
	}
	return &jwtService{secret: []byte(secret), now: time.Now}, nil
}

func (j *jwtService) Sign(data map[string]interface{}, expiredAt time.Duration) (string, int64, error) {
	exp := j.now().Add(expiredAt).Unix()

	claims := jwt.MapClaims{}
	for k, v := range data {
		claims[k] = v
	}
	claims["exp"] = exp
	claims["iat"] = j.now().Unix()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	accessToken, err := token.SignedString(j.secret)
	if err != nil {
		return "", 0, err
	}

	return accessToken, exp, nil
}

func (j *jwtService) Verify(accessToken string) (*jwt.Token, error) {
	return jwt.Parse(accessToken, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return j.secret, nil
	}, jwt.WithExpirationRequired())
}

func (j *jwtService) VerifyTokenHeader(c *fiber.Ctx) (*jwt.Token, error) {
	accessToken, err := BearerToken(c.Get("Authorization"))
	if err != nil {
		return nil, err
	}
	return j.Verify(accessToken)
}

func BearerToken(header string) (string, error) {
	if header == "" {
		return "", ErrMissingToken
	}

	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return "", ErrInvalidFormat
	}

	token = strings.TrimSpace(token)
	if token == "" {
		return "", ErrInvalidFormat
	}

	return token, nil
}

// LoginData reads the id and email claims written at login.
func LoginData(token *jwt.Token) (entity.UserLoginData, error) {
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return entity.UserLoginData{}, ErrInvalidClaims
	}

	id, _ := claims["id"].(string)
	email, _ := claims["email"].(string)
	if id == "" || email == "" {
		return entity.UserLoginData{}, ErrInvalidClaims
	}

	return entity.UserLoginData{ID: id, Email: email}, nil
}

func GetUserLoginData(c *fiber.Ctx) (entity.UserLoginData, error) {
	userData := c.Locals("user")

	user, ok := userData.(entity.UserLoginData)
	if !ok {
		return entity.UserLoginData{}, fiber.ErrUnauthorized
	}

	return user, nil
}

// OptionalUserID is "" for anonymous requests.
func OptionalUserID(c *fiber.Ctx) string {
	user, err := GetUserLoginData(c)
	if err != nil {
		return ""
	}
	return user.ID
}
