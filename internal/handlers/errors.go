package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/example/tiffin/internal/services"
)

// mapDomainError translates typed domain failures into HTTP errors so the
// UI can surface them as actionable messages. Anything unrecognized passes
// through as an infrastructure failure.
func mapDomainError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, services.ErrOrderNotFound),
		errors.Is(err, services.ErrSubOrderNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, services.ErrInvalidTransition),
		errors.Is(err, services.ErrOverpayment),
		errors.Is(err, services.ErrInvalidAmount),
		errors.Is(err, services.ErrNotSettled),
		errors.Is(err, services.ErrDeadlineAfterDelivery),
		errors.Is(err, services.ErrSubOrderInWorkflow):
		return fiber.NewError(fiber.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, services.ErrStaleWriteConflict):
		// The caller should transparently re-read and retry.
		return fiber.NewError(fiber.StatusConflict, err.Error())
	default:
		return err
	}
}
