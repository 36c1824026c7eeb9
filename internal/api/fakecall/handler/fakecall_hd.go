package fakecallHandler

import (
	"PanicButton/internal/api/fakecall"
	contextPkg "PanicButton/pkg/context"
	"PanicButton/pkg/handlerUtil"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/net/context"
)

func sendSpeech(ctx *fiber.Ctx, speech fakecall.Speech) error {
	ctx.Set(fiber.HeaderContentType, speech.ContentType)
	ctx.Set(fiber.HeaderCacheControl, "no-store")
	ctx.Set("X-Fake-Call-Language", speech.Language)
	ctx.Set("X-Fake-Call-Scripted", strconv.FormatBool(speech.Scripted))
	return ctx.Status(fiber.StatusOK).Send(speech.Audio)
}

func (h *FakeCallHandler) HandleGenerate(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 45*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	var req fakecall.GenerateRequest
	if len(ctx.Body()) > 0 {
		if err := ctx.BodyParser(&req); err != nil {
			return errHandler.Handle(ctx, requestID, err, ctx.Path(), "parse_request_body")
		}
	}

	if err := h.validator.Struct(req); err != nil {
		return errHandler.HandleValidationError(ctx, requestID, err, ctx.Path())
	}

	speech, err := h.service.Call().Generate(c, req)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "fake_call_generate")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return sendSpeech(ctx, speech)
	}
}

func (h *FakeCallHandler) HandleRespond(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 45*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	var req fakecall.RespondRequest
	if err := ctx.BodyParser(&req); err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "parse_request_body")
	}

	if err := h.validator.Struct(req); err != nil {
		return errHandler.HandleValidationError(ctx, requestID, err, ctx.Path())
	}

	speech, err := h.service.Call().Respond(c, req)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "fake_call_respond")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return sendSpeech(ctx, speech)
	}
}
