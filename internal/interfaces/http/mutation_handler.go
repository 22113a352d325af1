package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/taller-stock/internal/application/dto"
	"github.com/jhoicas/taller-stock/internal/application/stockledger"
)

// MutationHandler consulta el estado de las mutaciones de stock.
type MutationHandler struct {
	ledger *stockledger.Coordinator
}

// NewMutationHandler construye el handler.
func NewMutationHandler(ledger *stockledger.Coordinator) *MutationHandler {
	return &MutationHandler{ledger: ledger}
}

// GetByID godoc
// @Summary      Estado de una mutación
// @Tags         mutations
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la mutación"
// @Success      200  {object}  dto.MutationDTO
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/mutations/{id} [get]
func (h *MutationHandler) GetByID(c *fiber.Ctx) error {
	m, ok := h.ledger.Mutation(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "mutación no encontrada o expirada"})
	}
	return c.JSON(toMutationDTO(m))
}

func toMutationDTO(m *stockledger.Mutation) dto.MutationDTO {
	out := dto.MutationDTO{
		ID:         m.ID,
		Kind:       string(m.Kind),
		ItemID:     m.ItemID,
		Status:     string(m.Status()),
		Optimistic: m.Optimistic,
		CreatedAt:  m.CreatedAt,
	}
	if err := m.Err(); err != nil {
		out.Error = err.Error()
	}
	if at := m.SettledAt(); !at.IsZero() {
		out.SettledAt = &at
	}
	if mov, ok := m.Movement(); ok {
		v := dto.ToStockMovementDTO(*mov)
		out.Movement = &v
	}
	if item, ok := m.Item(); ok {
		v := dto.ToInventoryItemDTO(*item)
		out.Item = &v
	}
	return out
}
