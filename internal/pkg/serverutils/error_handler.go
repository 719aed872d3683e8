package serverutils

import (
	"encoding/json"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// ErrorStatus maps a sentinel error (matched with errors.Is) to an HTTP status.
type ErrorStatus struct {
	Err    error
	Status int
}

// ErrorHandlerMiddleware renders errors returned by handlers as the standard
// envelope. Unmapped errors become 500.
func ErrorHandlerMiddleware(statuses ...ErrorStatus) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}

		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return ctx.Status(fiber.StatusBadRequest).JSON(ValidationErrorResponse("Validation failed", ValidationFields(verrs)))
		}

		code := StatusFor(err, statuses...)
		return ctx.Status(code).JSON(ErrorResponse(code, err.Error()))
	}
}

// StatusFor resolves the HTTP status for err.
func StatusFor(err error, statuses ...ErrorStatus) int {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe.Code
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
		return fiber.StatusBadRequest
	}

	for _, s := range statuses {
		if errors.Is(err, s.Err) {
			return s.Status
		}
	}
	return fiber.StatusInternalServerError
}
