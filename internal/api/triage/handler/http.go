package triageHandler

import (
	triageService "PanicButton/internal/api/triage/service"
	"PanicButton/internal/middleware"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/sirupsen/logrus"
)

type TriageHandler struct {
	log           *logrus.Logger
	validator     *validator.Validate
	middleware    middleware.Middleware
	triageService triageService.TriageService

	pingInterval time.Duration
	readTimeout  time.Duration
}

func New(
	log *logrus.Logger,
	validator *validator.Validate,
	middleware middleware.Middleware,
	ts triageService.TriageService,
) *TriageHandler {
	return &TriageHandler{
		log:           log,
		validator:     validator,
		middleware:    middleware,
		triageService: ts,
		pingInterval:  30 * time.Second,
		readTimeout:   2 * time.Minute,
	}
}

func (h *TriageHandler) Start(srv fiber.Router) {
	wsMiddleware := func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	}

	triage := srv.Group("/triage")
	triage.Post("/analyze", h.middleware.NewOptionalTokenMiddleware, h.HandleAnalyze)

	incidents := triage.Group("/incidents", h.middleware.NewOptionalTokenMiddleware)
	incidents.Get("/:id", h.HandleGetIncident)
	incidents.Post("/:id/evaluate", h.HandleEvaluate)
	incidents.Post("/:id/recording", h.HandleAttachRecording)
	incidents.Get("/:id/archives/:name", h.HandleDownloadArchive)

	actions := incidents.Group("/:id/actions")
	actions.Post("/call", h.HandleCallEmergencyServices)
	actions.Post("/save", h.HandleSaveEncounter)
	actions.Post("/alert", h.HandleAlertEmergencyContact)
	actions.Post("/advise", h.HandleAdviseResponders)

	triage.Use("/session/ws", wsMiddleware, h.middleware.NewOptionalTokenMiddleware)
	triage.Get("/session/ws", websocket.New(h.handleSessionWebSocket))
}
