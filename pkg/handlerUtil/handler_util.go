package handlerUtil

import (
	"PanicButton/internal/api/auth"
	"PanicButton/internal/api/fakecall"
	"PanicButton/internal/api/triage"
	"PanicButton/pkg/log"
	"PanicButton/pkg/response"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/sirupsen/logrus"
)

type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

type ErrorHandler struct {
	logger *logrus.Logger
}

func New(logger *logrus.Logger) *ErrorHandler {
	return &ErrorHandler{
		logger: logger,
	}
}

var errorCodes = []struct {
	err  error
	code string
}{
	{auth.ErrEmailAlreadyExists, "EMAIL_ALREADY_EXISTS"},
	{auth.ErrInvalidEmailOrPassword, "INVALID_CREDENTIALS"},
	{auth.ErrUserNotFound, "USER_NOT_FOUND"},
	{auth.ErrUnsupportedLanguage, "UNSUPPORTED_LANGUAGE"},
	{auth.ErrPasswordTooLong, "PASSWORD_TOO_LONG"},
	{triage.ErrEmptyTranscript, "EMPTY_TRANSCRIPT"},
	{triage.ErrIncidentNotFound, "INCIDENT_NOT_FOUND"},
	{triage.ErrAssessmentNotReady, "ASSESSMENT_NOT_READY"},
	{triage.ErrDestinationRequired, "DESTINATION_REQUIRED"},
	{triage.ErrInvalidDestination, "INVALID_DESTINATION"},
	{triage.ErrClassificationFailed, "CLASSIFICATION_FAILED"},
	{triage.ErrDeliveryFailed, "DELIVERY_FAILED"},
	{triage.ErrInvalidAudioFile, "INVALID_AUDIO_FILE"},
	{triage.ErrAudioTooLarge, "AUDIO_TOO_LARGE"},
	{triage.ErrArchiveNotFound, "ARCHIVE_NOT_FOUND"},
	{triage.ErrInvalidArchiveName, "INVALID_ARCHIVE_NAME"},
	{triage.ErrSessionBusy, "SESSION_BUSY"},
	{triage.ErrSessionNotRecording, "SESSION_NOT_RECORDING"},
	{triage.ErrInvalidLocation, "INVALID_LOCATION"},
	{fakecall.ErrTTSNotConfigured, "TTS_NOT_CONFIGURED"},
	{fakecall.ErrSpeechFailed, "SPEECH_FAILED"},
	{fakecall.ErrUserMessageRequired, "USER_MESSAGE_REQUIRED"},
}

// Code returns the machine readable code for a domain error, or "".
func Code(err error) string {
	for _, e := range errorCodes {
		if errors.Is(err, e.err) {
			return e.code
		}
	}
	return ""
}

// upstreamFailure reports errors whose details carry the upstream cause.
func upstreamFailure(err error) bool {
	return errors.Is(err, triage.ErrClassificationFailed) ||
		errors.Is(err, triage.ErrDeliveryFailed) ||
		errors.Is(err, fakecall.ErrSpeechFailed)
}

func (h *ErrorHandler) Handle(c *fiber.Ctx, requestID string, err error, path string, operation string) error {
	fields := log.Fields{
		"request_id": requestID,
		"error":      err.Error(),
		"path":       path,
		"operation":  operation,
	}

	// Upstream failures keep the sentinel as the message and the cause as details.
	if upstreamFailure(err) {
		var respErr *response.Error
		errors.As(err, &respErr)
		h.logger.WithFields(fields).Error("Upstream dependency failed")
		return c.Status(response.StatusCode(err, fiber.StatusBadGateway)).JSON(ErrorResponse{
			Error:   capitalize(respErr.Error()),
			Code:    Code(err),
			Details: err.Error(),
		})
	}

	if errors.Is(err, fakecall.ErrTTSNotConfigured) {
		h.logger.WithFields(fields).Warn("Speech synthesis not configured")
		return c.Status(fiber.StatusServiceUnavailable).JSON(ErrorResponse{
			Error: "Eleven Labs API key not configured",
			Code:  Code(err),
		})
	}

	if errors.Is(err, auth.ErrInvalidEmailOrPassword) {
		h.logger.WithFields(fields).Warn("Invalid email or password")
		return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{
			Error: "Invalid email or password",
			Code:  Code(err),
		})
	}

	var respErr *response.Error
	if errors.As(err, &respErr) {
		fields["code"] = respErr.Code
		h.logger.WithFields(fields).Warn("Operation failed with error response")
		return c.Status(respErr.Code).JSON(ErrorResponse{
			Error: capitalize(respErr.Error()),
			Code:  Code(err),
		})
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		h.logger.WithFields(fields).Warn("Request rejected")
		return c.Status(fiberErr.Code).JSON(ErrorResponse{
			Error: fiberErr.Message,
			Code:  "BAD_REQUEST",
		})
	}

	if operation == "parse_request_body" {
		h.logger.WithFields(fields).Warn("Malformed request body")
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error: "Malformed request body",
			Code:  "BAD_REQUEST",
		})
	}

	h.logger.WithFields(fields).Error("Unexpected error")

	return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
		Error: "An unexpected error occurred",
		Code:  "INTERNAL_ERROR",
	})
}

func (h *ErrorHandler) HandleValidationError(c *fiber.Ctx, requestID string, err error, path string) error {
	h.logger.WithFields(log.Fields{
		"request_id": requestID,
		"error":      err.Error(),
		"path":       path,
	}).Warn("Validation failed")

	return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
		Error: "Validation failed: " + err.Error(),
		Code:  "VALIDATION_ERROR",
	})
}

func (h *ErrorHandler) HandleRequestTimeout(c *fiber.Ctx) error {
	return c.Status(fiber.StatusRequestTimeout).JSON(ErrorResponse{
		Error: utils.StatusMessage(fiber.StatusRequestTimeout),
		Code:  "REQUEST_TIMEOUT",
	})
}

func (h *ErrorHandler) HandleUnauthorized(c *fiber.Ctx, requestID string, message string) error {
	h.logger.WithFields(log.Fields{
		"request_id": requestID,
		"path":       c.Path(),
		"message":    message,
	}).Warn("Unauthorized access")

	return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{
		Error: message,
		Code:  "UNAUTHORIZED",
	})
}

func (h *ErrorHandler) HandleSuccess(c *fiber.Ctx, statusCode int, data interface{}) error {
	if data == nil {
		return c.SendStatus(statusCode)
	}
	return c.Status(statusCode).JSON(data)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
