package triageHandler

import (
	"PanicButton/internal/api/triage"
	"PanicButton/internal/entity"
	contextPkg "PanicButton/pkg/context"
	"PanicButton/pkg/log"
	websocketPkg "PanicButton/pkg/websocket"
	"context"
	"errors"
	"time"

	"github.com/gofiber/websocket/v2"
	jsoniter "github.com/json-iterator/go"
)

func sessionIdentity(c *websocket.Conn) (requestID, userID string) {
	requestID, _ = c.Locals("X-Request-ID").(string)
	if requestID == "" {
		requestID = "unknown"
	}
	if user, ok := c.Locals("user").(entity.UserLoginData); ok {
		userID = user.ID
	}
	return requestID, userID
}

func (h *TriageHandler) handleSessionWebSocket(c *websocket.Conn) {
	requestID, userID := sessionIdentity(c)
	fields := log.Fields{
		"request_id":    requestID,
		"authenticated": userID != "",
	}
	h.log.WithFields(fields).Info("Recording session connected")
	defer h.log.WithFields(fields).Info("Recording session disconnected")

	base := contextPkg.WithUserID(contextPkg.WithRequestID(context.Background(), requestID), userID)
	ctx, cancel := context.WithCancel(base)
	defer cancel()

	writer := websocketPkg.NewFrameWriter(c, 10*time.Second)
	defer writer.Close()

	emit := func(frame triage.ServerFrame) {
		if err := writer.WriteJSON(frame); err != nil && !errors.Is(err, websocketPkg.ErrClosed) {
			h.log.WithFields(log.Fields{
				"request_id": requestID,
				"frame":      frame.Type,
				"error":      err.Error(),
			}).Warn("Failed to write session frame")
		}
	}

	session := h.triageService.Session().NewSession(ctx, userID, emit)
	defer session.Close()

	go func() {
		_ = writer.KeepAlive(ctx, h.pingInterval)
	}()

	c.SetPongHandler(func(string) error {
		return c.SetReadDeadline(time.Now().Add(h.readTimeout))
	})

	for {
		if err := c.SetReadDeadline(time.Now().Add(h.readTimeout)); err != nil {
			break
		}

		messageType, message, err := c.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.WithFields(log.Fields{
					"request_id": requestID,
					"error":      err.Error(),
				}).Warn("Recording session closed unexpectedly")
			}
			break
		}

		if messageType != websocket.TextMessage {
			emit(triage.ServerFrame{Type: triage.FrameError, Message: "expected a JSON text frame"})
			continue
		}

		var frame triage.ClientFrame
		if err := jsoniter.Unmarshal(message, &frame); err != nil {
			emit(triage.ServerFrame{Type: triage.FrameError, Message: "malformed frame"})
			continue
		}

		if err := session.Handle(frame); err != nil {
			emit(triage.ServerFrame{
				Type:       triage.FrameError,
				State:      session.State(),
				IncidentID: session.IncidentID(),
				Message:    err.Error(),
			})
		}
	}
}
