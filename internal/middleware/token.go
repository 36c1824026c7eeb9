package middleware

import (
	"PanicButton/internal/entity"
	jwtPkg "PanicButton/pkg/jwt"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

const unauthorizedMessage = "Unauthorized, access token invalid or expired"

func unauthorized(ctx *fiber.Ctx) error {
	return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"success": false,
		"error":   unauthorizedMessage,
		"code":    "UNAUTHORIZED",
	})
}

// authenticate reads the bearer header, or the token query parameter that
// browsers must use for websocket upgrades.
func (m *middleware) authenticate(ctx *fiber.Ctx) (entity.UserLoginData, bool, error) {
	raw := ""
	if header := ctx.Get("Authorization"); header != "" {
		token, err := jwtPkg.BearerToken(header)
		if err != nil {
			return entity.UserLoginData{}, true, err
		}
		raw = token
	} else if q := ctx.Query("token"); q != "" {
		raw = q
	}

	if raw == "" {
		return entity.UserLoginData{}, false, jwtPkg.ErrMissingToken
	}

	token, err := m.jwt.Verify(raw)
	if err != nil {
		return entity.UserLoginData{}, true, err
	}

	user, err := jwtPkg.LoginData(token)
	if err != nil {
		return entity.UserLoginData{}, true, err
	}

	return user, true, nil
}

func (m *middleware) NewTokenMiddleware(ctx *fiber.Ctx) error {
	user, _, err := m.authenticate(ctx)
	if err != nil {
		m.log.WithFields(logrus.Fields{
			"request_id": m.GetRequestID(ctx),
			"path":       ctx.Path(),
			"client_ip":  ctx.IP(),
			"error":      err.Error(),
		}).Warn("Token verification failed")
		return unauthorized(ctx)
	}

	ctx.Locals("user", user)
	return ctx.Next()
}

// NewOptionalTokenMiddleware never blocks: a panic request with a stale token
// is still triaged, only without the saved locations.
func (m *middleware) NewOptionalTokenMiddleware(ctx *fiber.Ctx) error {
	user, presented, err := m.authenticate(ctx)
	if err != nil {
		if presented {
			m.log.WithFields(logrus.Fields{
				"request_id": m.GetRequestID(ctx),
				"path":       ctx.Path(),
				"error":      err.Error(),
			}).Warn("Ignoring invalid token on optional route")
		}
		return ctx.Next()
	}

	ctx.Locals("user", user)
	return ctx.Next()
}
