package http

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/taller-stock/internal/application/dto"
	"github.com/jhoicas/taller-stock/internal/domain"
)

// upstreamStatus lo implementan los errores de la API de inventario que traen status HTTP.
type upstreamStatus interface {
	HTTPStatus() int
}

// writeError traduce errores de dominio y de la API de inventario a respuestas HTTP.
//   - ErrInvalidInput      → 400 VALIDATION
//   - ErrNotFound          → 404 NOT_FOUND
//   - rechazo 4xx upstream → mismo status, UPSTREAM_REJECTED
//   - rechazo 5xx upstream → 502 UPSTREAM_REJECTED
//   - transporte / timeout → 504 UPSTREAM_UNAVAILABLE
func writeError(c *fiber.Ctx, err error, notFoundMsg string) error {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
	case errors.Is(err, domain.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: notFoundMsg})
	case errors.Is(err, domain.ErrUpstreamRejected):
		status := fiber.StatusBadGateway
		var us upstreamStatus
		if errors.As(err, &us) && us.HTTPStatus() >= 400 && us.HTTPStatus() < 500 {
			status = us.HTTPStatus()
		}
		return c.Status(status).JSON(dto.ErrorResponse{Code: "UPSTREAM_REJECTED", Message: err.Error()})
	case errors.Is(err, domain.ErrUpstreamTransport), errors.Is(err, context.DeadlineExceeded):
		return c.Status(fiber.StatusGatewayTimeout).JSON(dto.ErrorResponse{Code: "UPSTREAM_UNAVAILABLE", Message: "la API de inventario no respondió"})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
}
