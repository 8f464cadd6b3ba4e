package response

import (
	"context"
	"errors"

	"givehub-backend/internal/pkg/apperrors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

// SuccessBody is the standardized success JSON shape.
type SuccessBody struct {
	Status   string      `json:"status"`
	Message  string      `json:"message"`
	Data     interface{} `json:"data"`
	Metadata interface{} `json:"metadata,omitempty"`
}

// ErrorBody is the standardized error JSON shape.
type ErrorBody struct {
	Status string      `json:"status"`
	Error  ErrorDetail `json:"error"`
}

// ErrorDetail is the nested error object.
type ErrorDetail struct {
	Message    string      `json:"message"`
	StatusCode int         `json:"statusCode"`
	Details    interface{} `json:"details,omitempty"`
}

const statusSuccess = "success"
const statusError = "error"

// Success sends a 200 OK response with the standard success format.
func Success(c *fiber.Ctx, message string, data interface{}, metadata interface{}) error {
	if metadata == nil {
		metadata = map[string]interface{}{}
	}
	return c.Status(fiber.StatusOK).JSON(SuccessBody{
		Status:   statusSuccess,
		Message:  message,
		Data:     data,
		Metadata: metadata,
	})
}

// SuccessCreated sends a 201 Created response with the standard success format.
func SuccessCreated(c *fiber.Ctx, message string, data interface{}, metadata interface{}) error {
	if metadata == nil {
		metadata = map[string]interface{}{}
	}
	return c.Status(fiber.StatusCreated).JSON(SuccessBody{
		Status:   statusSuccess,
		Message:  message,
		Data:     data,
		Metadata: metadata,
	})
}

// Error sends a response with the standard error format.
func Error(c *fiber.Ctx, message string, statusCode int, details interface{}) error {
	if details == nil {
		details = map[string]interface{}{}
	}
	return c.Status(statusCode).JSON(ErrorBody{
		Status: statusError,
		Error: ErrorDetail{
			Message:    message,
			StatusCode: statusCode,
			Details:    details,
		},
	})
}

// Unauthorized sends 401 with the same shape as other errors (status "error", error.message).
// Use this for auth middleware so all errors are consistent.
func Unauthorized(c *fiber.Ctx, message string) error {
	return Error(c, message, fiber.StatusUnauthorized, nil)
}

// ErrorLocal holds the underlying error of a 5xx response for the health error log.
const ErrorLocal = "response_error"

// FromError writes err in the standard error format. Typed application errors keep their
// status and public message; anything else is logged and reported as a 500.
func FromError(c *fiber.Ctx, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		c.Locals(ErrorLocal, err)
		log.Warn().Err(err).Str("path", c.Path()).Msg("request timed out")
		return Error(c, "Request timed out", fiber.StatusGatewayTimeout, nil)
	}
	typed := apperrors.As(err)
	if typed == nil {
		c.Locals(ErrorLocal, err)
		log.Error().Err(err).Str("path", c.Path()).Msg("unhandled error")
		return Error(c, "Internal Server Error", fiber.StatusInternalServerError, nil)
	}
	meta := apperrors.MetadataFor(typed.Code())
	if typed.Code() == apperrors.CodeInternal || typed.Code() == apperrors.CodeDependency {
		c.Locals(ErrorLocal, err)
		log.Error().Err(err).Str("path", c.Path()).Str("code", string(typed.Code())).Msg("request failed")
		return Error(c, meta.PublicMessage, meta.HTTPStatus, nil)
	}
	message := typed.Message()
	if message == "" {
		message = meta.PublicMessage
	}
	details := map[string]interface{}{"code": string(typed.Code())}
	if meta.DetailsAllowed && typed.Details() != nil {
		details["fields"] = typed.Details()
	}
	return Error(c, message, meta.HTTPStatus, details)
}
