package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"stroketraining/internal/http/middleware"
	"stroketraining/internal/service"
	"stroketraining/internal/validate"
)

// errorPayload defines the standardized error response body.
type errorPayload struct {
	RequestID string        `json:"request_id"`
	Error     errorEnvelope `json:"error"`
}

type errorEnvelope struct {
	Code    string               `json:"code"`
	Message string               `json:"message"`
	Fields  validate.FieldErrors `json:"fields,omitempty"`
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

// writeFieldErrors is writeError with the per-field violations attached.
func writeFieldErrors(c *fiber.Ctx, fields validate.FieldErrors) error {
	res := errorPayload{
		RequestID: requestIDFromCtx(c),
		Error: errorEnvelope{
			Code:    "VALIDATION_FAILED",
			Message: "validation failed",
			Fields:  fields,
		},
	}
	return c.Status(fiber.StatusBadRequest).JSON(res)
}

// writeServiceError maps service-layer errors onto HTTP status codes.
func writeServiceError(c *fiber.Ctx, err error) error {
	var verr *service.ValidationError
	var perr *service.PermissionError
	var terr *service.InvalidTransitionError

	switch {
	case errors.As(err, &verr):
		return writeFieldErrors(c, verr.Fields)
	case errors.As(err, &perr):
		return writeError(c, fiber.StatusForbidden, "FORBIDDEN", perr.Error())
	case errors.As(err, &terr):
		return writeError(c, fiber.StatusConflict, "INVALID_TRANSITION", terr.Error())
	case errors.Is(err, service.ErrNotFound):
		return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "document not found")
	case errors.Is(err, service.ErrIDRequired):
		return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
	case errors.Is(err, service.ErrNoFiles):
		return writeError(c, fiber.StatusBadRequest, "FILE_REQUIRED", "at least one file is required")
	case errors.Is(err, service.ErrBatchTooLarge):
		return writeError(c, fiber.StatusBadRequest, "BATCH_TOO_LARGE", "too many files in one batch")
	default:
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
		case fiber.StatusUnauthorized:
			return writeError(c, status, "UNAUTHORIZED", "authentication required")
		case fiber.StatusNotFound:
			return writeError(c, status, "NOT_FOUND", "resource not found")
		case fiber.StatusMethodNotAllowed:
			return writeError(c, status, "METHOD_NOT_ALLOWED", "method not allowed")
		case fiber.StatusTooManyRequests:
			return writeError(c, status, "RATE_LIMITED", "rate limit exceeded")
		default:
			return writeError(c, status, "INTERNAL_ERROR", "internal server error")
		}
	}
}
