package response

import (
	"github.com/gofiber/fiber/v2"

	"github.com/leadscout/api/internal/apperr"
)

// Error codes
const (
	CodeValidationError = "VALIDATION_ERROR"
	CodeUnauthorized    = "UNAUTHORIZED"
	CodeNotFound        = "NOT_FOUND"
	CodeRateLimited     = "RATE_LIMITED"
	CodeServiceError    = "SERVICE_ERROR"
)

// StatusClientClosedRequest is reported for jobs cancelled by their caller
const StatusClientClosedRequest = 499

type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// JobFailureResponse is the flat failure body of the scrape endpoints
type JobFailureResponse struct {
	Error     string      `json:"error"`
	Details   interface{} `json:"details,omitempty"`
	ErrorKind string      `json:"errorKind,omitempty"`
}

func Error(c *fiber.Ctx, status int, code, message string, details interface{}) error {
	return c.Status(status).JSON(ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}

func Unauthorized(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusUnauthorized, CodeUnauthorized, message, nil)
}

func RateLimited(c *fiber.Ctx) error {
	return Error(c, fiber.StatusTooManyRequests, CodeRateLimited, "Rate limit exceeded", nil)
}

// JobFailure writes {error, details} with the given status
func JobFailure(c *fiber.Ctx, status int, message string, details interface{}, kind apperr.Kind) error {
	return c.Status(status).JSON(JobFailureResponse{
		Error:     message,
		Details:   details,
		ErrorKind: string(kind),
	})
}

// FromError maps a kinded error onto its HTTP status and the flat failure body
func FromError(c *fiber.Ctx, message string, err error) error {
	kind := apperr.KindOf(err)
	var details interface{}
	if d := apperr.Detail(err); d != "" {
		details = d
	}
	return JobFailure(c, StatusFor(kind), message, details, kind)
}

// StatusFor returns the HTTP status of an error kind
func StatusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.KindInvalidArgument:
		return fiber.StatusBadRequest
	case apperr.KindNotFound:
		return fiber.StatusNotFound
	case apperr.KindAlreadyRunning:
		return fiber.StatusConflict
	case apperr.KindRemoteCallFailed:
		return fiber.StatusBadGateway
	case apperr.KindCancelled:
		return StatusClientClosedRequest
	default:
		return fiber.StatusInternalServerError
	}
}

func OK(c *fiber.Ctx, data interface{}) error {
	return c.JSON(data)
}

func Accepted(c *fiber.Ctx, data interface{}) error {
	return c.Status(fiber.StatusAccepted).JSON(data)
}
