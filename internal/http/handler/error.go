package handler

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"docingest/internal/http/middleware"
	"docingest/internal/model"
	"docingest/internal/service"
)

// errorPayload defines the standardized error response body.
type errorPayload struct {
	RequestID string        `json:"request_id"`
	Error     errorEnvelope `json:"error"`
}

type errorEnvelope struct {
	Code         string              `json:"code"`
	Message      string              `json:"message"`
	InvalidFiles []model.InvalidFile `json:"invalid_files,omitempty"`
}

// requestIDFromCtx extracts request_id previously stored by middleware.RequestID.
func requestIDFromCtx(c *fiber.Ctx) string {
	if v := c.Locals(middleware.RequestIDLocalKey); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// writeError writes a standardized JSON error response without leaking internal errors.
//
// Parameters:
// - status: HTTP status code to return
// - code: machine-readable short error code (e.g., "VALIDATION_ERROR", "NOT_FOUND", "INTERNAL_ERROR")
// - message: human-readable safe message (no internal details)
func writeError(c *fiber.Ctx, status int, code, message string) error {
	res := errorPayload{
		RequestID: requestIDFromCtx(c),
		Error: errorEnvelope{
			Code:    code,
			Message: message,
		},
	}
	return c.Status(status).JSON(res)
}

// writeServiceError maps an IngestService error onto a response. Only
// validation messages and rejection reports reach the client verbatim;
// everything unexpected is logged and reported as a generic 500.
func writeServiceError(c *fiber.Ctx, log *zap.Logger, err error) error {
	var (
		verr *service.ValidationError
		rerr *service.RejectionError
	)
	switch {
	case errors.As(err, &verr):
		return writeError(c, fiber.StatusBadRequest, "VALIDATION_ERROR", verr.Msg)
	case errors.As(err, &rerr):
		return c.Status(fiber.StatusBadRequest).JSON(errorPayload{
			RequestID: requestIDFromCtx(c),
			Error: errorEnvelope{
				Code:         "DOCUMENT_REJECTED",
				Message:      fmt.Sprintf("some images are not a %s; nothing was stored", rerr.Report.Kind),
				InvalidFiles: rerr.Report.InvalidFiles,
			},
		})
	case errors.Is(err, service.ErrAuth):
		return writeError(c, fiber.StatusForbidden, "FORBIDDEN", "access denied")
	case errors.Is(err, service.ErrOwnership):
		return writeError(c, fiber.StatusForbidden, "NOT_OWNER", "document belongs to another member")
	case errors.Is(err, service.ErrNotFound):
		return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "resource not found")
	default:
		log.Error("request failed",
			zap.String("request_id", requestIDFromCtx(c)),
			zap.String("path", c.Path()),
			zap.Error(err))
		return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
	}
}

// ErrorHandler returns a Fiber global error handler that standardizes error responses.
func ErrorHandler() fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status := fiber.StatusInternalServerError
		if e, ok := err.(*fiber.Error); ok {
			status = e.Code
		}

		switch status {
		case fiber.StatusBadRequest:
			return writeError(c, status, "BAD_REQUEST", "bad request")
		case fiber.StatusNotFound:
			return writeError(c, status, "NOT_FOUND", "resource not found")
		case fiber.StatusMethodNotAllowed:
			return writeError(c, status, "METHOD_NOT_ALLOWED", "method not allowed")
		case fiber.StatusRequestEntityTooLarge:
			return writeError(c, status, "PAYLOAD_TOO_LARGE", "upload too large")
		case fiber.StatusUnsupportedMediaType:
			return writeError(c, status, "UNSUPPORTED_MEDIA_TYPE", "multipart/form-data required")
		default:
			return writeError(c, status, "INTERNAL_ERROR", "internal server error")
		}
	}
}
