package triageHandler

import (
	"PanicButton/internal/api/triage"
	contextPkg "PanicButton/pkg/context"
	"PanicButton/pkg/handlerUtil"
	jwtPkg "PanicButton/pkg/jwt"
	"PanicButton/pkg/log"
	"time"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/net/context"
)

// The classifier call has no timeout of its own; this bounds the request.
const analyzeTimeout = 60 * time.Second

func (h *TriageHandler) HandleAnalyze(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), analyzeTimeout)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	var req triage.AnalyzeRequest
	if err := ctx.BodyParser(&req); err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "parse_request_body")
	}

	if err := h.validator.Struct(req); err != nil {
		return errHandler.HandleValidationError(ctx, requestID, err, ctx.Path())
	}

	userID := jwtPkg.OptionalUserID(ctx)
	h.log.WithFields(log.Fields{
		"request_id":    requestID,
		"authenticated": userID != "",
		"has_location":  req.Location != nil,
	}).Info("Analyzing transcript")

	res, err := h.triageService.Incident().Analyze(c, req, userID)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "analyze")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, res)
	}
}

func (h *TriageHandler) HandleGetIncident(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 5*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	res, err := h.triageService.Incident().Get(c, ctx.Params("id"), jwtPkg.OptionalUserID(ctx))
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "get_incident")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, res)
	}
}

func (h *TriageHandler) HandleEvaluate(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 30*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	res, err := h.triageService.Policy().Evaluate(c, ctx.Params("id"), jwtPkg.OptionalUserID(ctx))
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "evaluate")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, res)
	}
}

func (h *TriageHandler) HandleAttachRecording(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 30*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	file, err := ctx.FormFile("audio")
	if err != nil {
		return errHandler.Handle(ctx, requestID, triage.ErrInvalidAudioFile, ctx.Path(), "read_form_file")
	}

	res, err := h.triageService.Incident().AttachRecording(c, ctx.Params("id"), jwtPkg.OptionalUserID(ctx), file)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "attach_recording")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusCreated, res)
	}
}

func (h *TriageHandler) HandleDownloadArchive(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	errHandler := handlerUtil.New(h.log)

	name := ctx.Params("name")
	rc, size, err := h.triageService.Evidence().OpenArchive(contextPkg.FromFiberCtx(ctx), ctx.Params("id"), jwtPkg.OptionalUserID(ctx), name)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "download_archive")
	}

	ctx.Set(fiber.HeaderContentType, "application/zip")
	ctx.Set(fiber.HeaderContentDisposition, `attachment; filename="`+name+`"`)
	return ctx.SendStream(rc, int(size))
}
