package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/localmart/storefront/internal/core/domain"
	"github.com/localmart/storefront/internal/pkg/logging"
)

// APIError is the standard error response body.
type APIError struct {
	Status    int    `json:"status"`
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

func newError(c *fiber.Ctx, status int, code, msg string) error {
	rid, _ := c.Locals("requestid").(string)
	return c.Status(status).JSON(APIError{
		Status:    status,
		Code:      code,
		Message:   msg,
		RequestID: rid,
	})
}

func errBadRequest(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusBadRequest, "bad_request", msg)
}

func errNotFound(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusNotFound, "not_found", msg)
}

func errInternal(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusInternalServerError, "internal_error", msg)
}

const locationGuidance = "device location is unavailable; enable location access or search by address instead"

// handleError maps domain errors onto API errors.
func handleError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, domain.ErrInvalidArgument):
		return errBadRequest(c, err.Error())
	case errors.Is(err, domain.ErrGeocodeNotFound):
		return newError(c, fiber.StatusNotFound, "geocode_not_found", "no location matches the given address")
	case errors.Is(err, domain.ErrNotFound):
		return errNotFound(c, err.Error())
	case errors.Is(err, domain.ErrGeocodeServiceError):
		c.Set(fiber.HeaderRetryAfter, "5")
		return newError(c, fiber.StatusBadGateway, "geocode_unavailable", "address lookup is temporarily unavailable")
	case errors.Is(err, domain.ErrLocationUnavailable):
		return newError(c, fiber.StatusServiceUnavailable, "location_unavailable", locationGuidance)
	default:
		ctx := c.UserContext()
		logging.FromContext(ctx).ErrorContext(ctx, "request failed", "path", c.Path(), "error", err)
		return errInternal(c, "internal server error")
	}
}
