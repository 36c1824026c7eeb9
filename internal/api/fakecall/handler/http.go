package fakecallHandler

import (
	fakecallService "PanicButton/internal/api/fakecall/service"
	"PanicButton/internal/middleware"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

type FakeCallHandler struct {
	log        *logrus.Logger
	service    fakecallService.FakeCallService
	validator  *validator.Validate
	middleware middleware.Middleware
}

func New(
	log *logrus.Logger,
	service fakecallService.FakeCallService,
	validate *validator.Validate,
	middleware middleware.Middleware) *FakeCallHandler {
	return &FakeCallHandler{
		log:        log,
		service:    service,
		validator:  validate,
		middleware: middleware,
	}
}

func (h *FakeCallHandler) Start(srv fiber.Router) {
	call := srv.Group("/fake-call", h.middleware.NewTokenMiddleware)
	call.Post("/generate", h.HandleGenerate)
	call.Post("/respond", h.HandleRespond)
}
