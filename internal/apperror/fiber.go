package apperror

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
)

// Status maps an error kind to its HTTP status code.
func Status(kind Kind) int {
	switch kind {
	case KindNotFound:
		return fiber.StatusNotFound
	case KindEmptyCart, KindInsufficientStock, KindInvalidStatus, KindValidation:
		return fiber.StatusBadRequest
	case KindDuplicateOrderNumber, KindConflict:
		return fiber.StatusConflict
	case KindUnauthorized:
		return fiber.StatusUnauthorized
	case KindForbidden:
		return fiber.StatusForbidden
	default:
		return fiber.StatusInternalServerError
	}
}

// ErrorHandler renders every error returned from a handler as
// {"error": {...}} with a stable kind.
func ErrorHandler(logger zerolog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var appErr *Error
		if !errors.As(err, &appErr) {
			var fe *fiber.Error
			if errors.As(err, &fe) {
				appErr = fromFiber(fe)
			} else {
				appErr = Internal(err)
			}
		}

		status := Status(appErr.Kind)
		if status >= fiber.StatusInternalServerError {
			logger.Error().Err(err).Str("method", c.Method()).Str("path", c.Path()).Msg("request failed")
		}
		return c.Status(status).JSON(fiber.Map{"error": appErr})
	}
}

func fromFiber(fe *fiber.Error) *Error {
	switch fe.Code {
	case fiber.StatusNotFound:
		return &Error{Kind: KindNotFound, Message: fe.Message}
	case fiber.StatusUnauthorized:
		return Unauthorized(fe.Message)
	case fiber.StatusForbidden:
		return Forbidden(fe.Message)
	case fiber.StatusBadRequest, fiber.StatusUnprocessableEntity:
		return Validation(fe.Message, nil)
	case fiber.StatusMethodNotAllowed:
		return &Error{Kind: KindNotFound, Message: fe.Message}
	default:
		return &Error{Kind: KindInternal, Message: fe.Message}
	}
}
