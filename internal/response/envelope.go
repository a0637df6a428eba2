package response

import (
	"github.com/gofiber/fiber/v2"
)

type Envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data"`
	Error   *ErrorInfo  `json:"error"`
	Meta    Meta        `json:"meta"`
}

type ErrorInfo struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

type Meta struct {
	TraceID string `json:"traceId,omitempty"`
}

type ErrorCode string

const (
	ErrCodeInvalidPayload ErrorCode = "INVALID_PAYLOAD"
	ErrCodeUnauthorized   ErrorCode = "UNAUTHORIZED"
	ErrCodeForbidden      ErrorCode = "FORBIDDEN"
	ErrCodeNotFound       ErrorCode = "NOT_FOUND"
	ErrCodeRateLimited    ErrorCode = "RATE_LIMITED"
	ErrCodeUnavailable    ErrorCode = "UNAVAILABLE"
	ErrCodeInternal       ErrorCode = "INTERNAL_ERROR"
)

func OK(c *fiber.Ctx, data interface{}) error {
	return send(c, fiber.StatusOK, data, nil)
}

func BadRequest(c *fiber.Ctx, message string) error {
	return sendError(c, fiber.StatusBadRequest, ErrCodeInvalidPayload, message)
}

func Unauthorized(c *fiber.Ctx, message string) error {
	return sendError(c, fiber.StatusUnauthorized, ErrCodeUnauthorized, message)
}

func Forbidden(c *fiber.Ctx, message string) error {
	return sendError(c, fiber.StatusForbidden, ErrCodeForbidden, message)
}

func NotFound(c *fiber.Ctx, message string) error {
	return sendError(c, fiber.StatusNotFound, ErrCodeNotFound, message)
}

func RateLimited(c *fiber.Ctx, message string) error {
	return sendError(c, fiber.StatusTooManyRequests, ErrCodeRateLimited, message)
}

func Unavailable(c *fiber.Ctx, message string) error {
	return sendError(c, fiber.StatusServiceUnavailable, ErrCodeUnavailable, message)
}

func InternalError(c *fiber.Ctx) error {
	return sendError(c, fiber.StatusInternalServerError, ErrCodeInternal, "internal server error")
}

func send(c *fiber.Ctx, status int, data interface{}, errInfo *ErrorInfo) error {
	envelope := Envelope{
		Success: errInfo == nil,
		Data:    data,
		Error:   errInfo,
		Meta: Meta{
			TraceID: getTraceID(c),
		},
	}
	return c.Status(status).JSON(envelope)
}

func sendError(c *fiber.Ctx, status int, code ErrorCode, message string) error {
	return send(c, status, nil, &ErrorInfo{Code: code, Message: message})
}

func getTraceID(c *fiber.Ctx) string {
	if traceID := c.Locals("traceId"); traceID != nil {
		if id, ok := traceID.(string); ok {
			return id
		}
	}
	return ""
}
