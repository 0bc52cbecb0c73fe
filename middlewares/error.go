package middlewares

import (
	"errors"

	"billing-backend/billing"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

// ErrorHandler centralizes error responses. The billing error taxonomy maps
// to distinct statuses so a caller can tell "fix your input" (422) from
// "the document moved, refresh" (409) from "authenticate" (401). Anything
// else is a 500 with a sanitized message; transport failures surface to the
// client as such, never as a business error.
func ErrorHandler(c *fiber.Ctx, err error) error {
	// Fiber errors (use their status code + message)
	if fe, ok := err.(*fiber.Error); ok {
		return c.Status(fe.Code).JSON(fiber.Map{"message": fe.Message})
	}

	// Request DTO validation (422 + per-field info)
	if ve, ok := err.(validator.ValidationErrors); ok {
		out := make(map[string]string, len(ve))
		for _, fe := range ve {
			out[fe.Field()] = fe.Tag()
		}
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"message": "validation failed",
			"errors":  out,
		})
	}

	// Billing taxonomy
	var verr *billing.ValidationError
	if errors.As(err, &verr) {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"message": verr.Message,
			"field":   verr.Field,
			"kind":    "validation",
		})
	}
	var scerr *billing.StateConflictError
	if errors.As(err, &scerr) {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"message":        scerr.Message,
			"current_status": scerr.Current,
			"kind":           "state_conflict",
		})
	}
	var aerr *billing.AuthError
	if errors.As(err, &aerr) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"message":     aerr.Message,
			"recoverable": aerr.Recoverable,
			"kind":        "auth",
		})
	}
	if errors.Is(err, billing.ErrLinkNotFound) {
		// Deactivated and never-existed tokens must be indistinguishable.
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "not found"})
	}

	// Unknown errors (500)
	log.Error().Err(err).Str("path", c.Path()).Msg("internal error")
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"message": "internal server error",
	})
}
