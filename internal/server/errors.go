package server

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/despensa-app/despensa/internal/async"
	"github.com/despensa-app/despensa/internal/common"
	"github.com/despensa-app/despensa/internal/grammar"
)

// errorHandler maps pipeline and repository errors onto HTTP statuses. The
// busy flag maps to 409 so clients know to retry, not to re-submit.
func (s *Server) errorHandler(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError

	var fe *fiber.Error
	var ve validator.ValidationErrors
	var ue *grammar.ErrUnsupportedEstablishment

	switch {
	case errors.As(err, &fe):
		status = fe.Code
	case errors.As(err, &ve):
		status = fiber.StatusBadRequest
	case errors.Is(err, common.ErrNotFound):
		status = fiber.StatusNotFound
	case errors.Is(err, common.ErrBusy):
		status = fiber.StatusConflict
	case errors.Is(err, common.ErrNoSession):
		status = fiber.StatusUnauthorized
	case errors.Is(err, async.ErrQueueClosed):
		status = fiber.StatusServiceUnavailable
	case errors.Is(err, common.ErrNoImage),
		errors.Is(err, common.ErrEmptyOCR),
		errors.Is(err, common.ErrInvalidInput),
		errors.As(err, &ue):
		status = fiber.StatusBadRequest
	case errors.Is(err, common.ErrUnknownEstablishment),
		errors.Is(err, common.ErrEstablishmentRejected),
		errors.Is(err, common.ErrInsufficientStock):
		status = fiber.StatusUnprocessableEntity
	}

	if status >= fiber.StatusInternalServerError {
		s.logger.Error("request failed", "path", c.Path(), "error", err)
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}
