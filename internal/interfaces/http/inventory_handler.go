package http

import (
	"context"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/taller-stock/internal/application/dto"
	"github.com/jhoicas/taller-stock/internal/application/inventory"
	"github.com/jhoicas/taller-stock/internal/application/stockledger"
)

const defaultWaitTimeout = 20 * time.Second

// InventoryHandler maneja las consultas de inventario y las mutaciones de stock (protegido).
type InventoryHandler struct {
	ledger      *stockledger.Coordinator
	queries     *inventory.QueryUseCase
	waitTimeout time.Duration
}

// NewInventoryHandler construye el handler. waitTimeout <= 0 usa el valor por defecto.
func NewInventoryHandler(ledger *stockledger.Coordinator, queries *inventory.QueryUseCase, waitTimeout time.Duration) *InventoryHandler {
	if waitTimeout <= 0 {
		waitTimeout = defaultWaitTimeout
	}
	return &InventoryHandler{ledger: ledger, queries: queries, waitTimeout: waitTimeout}
}

// List godoc
// @Summary      Listar inventario
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        q         query  string  false  "Texto libre: nombre, SKU o ubicación (sin acentos ni mayúsculas)"
// @Param        category  query  string  false  "Categoría exacta"
// @Param        status    query  string  false  "ok | low | out"
// @Success      200  {object}  dto.InventoryListResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      504  {object}  dto.ErrorResponse
// @Router       /api/inventory [get]
func (h *InventoryHandler) List(c *fiber.Ctx) error {
	var q dto.InventoryListQuery
	if err := c.QueryParser(&q); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_QUERY", Message: "parámetros inválidos"})
	}
	items, err := h.queries.List(c.UserContext(), q)
	if err != nil {
		return writeError(c, err, "inventario no encontrado")
	}
	out := make([]dto.InventoryItemDTO, 0, len(items))
	for _, it := range items {
		out = append(out, dto.ToInventoryItemDTO(it))
	}
	return c.JSON(dto.InventoryListResponse{Total: len(out), Items: out})
}

// Summary godoc
// @Summary      Resumen del inventario (conteo por estado y valor de stock)
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.InventorySummaryDTO
// @Failure      504  {object}  dto.ErrorResponse
// @Router       /api/inventory/summary [get]
func (h *InventoryHandler) Summary(c *fiber.Ctx) error {
	summary, err := h.queries.Summary(c.UserContext())
	if err != nil {
		return writeError(c, err, "inventario no encontrado")
	}
	return c.JSON(summary)
}

// GetByID godoc
// @Summary      Detalle de un ítem
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del ítem"
// @Success      200  {object}  dto.InventoryItemDTO
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/{id} [get]
func (h *InventoryHandler) GetByID(c *fiber.Ctx) error {
	item, err := h.ledger.Item(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err, "ítem no encontrado")
	}
	return c.JSON(dto.ToInventoryItemDTO(*item))
}

// ListMovements godoc
// @Summary      Historial de movimientos del ítem (más reciente primero)
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del ítem"
// @Success      200  {array}   dto.StockMovementDTO
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/{id}/movements [get]
func (h *InventoryHandler) ListMovements(c *fiber.Ctx) error {
	movs, err := h.ledger.Movements(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err, "ítem no encontrado")
	}
	out := make([]dto.StockMovementDTO, 0, len(movs))
	for _, m := range movs {
		out = append(out, dto.ToStockMovementDTO(m))
	}
	return c.JSON(out)
}

// RecordMovement godoc
// @Summary      Registrar movimiento de stock (optimista)
// @Description  Responde 202 con el ítem optimista; con wait=true espera la confirmación.
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path   string                     true   "ID del ítem"
// @Param        wait  query  bool                       false  "Esperar la resolución"
// @Param        body  body   dto.RecordMovementRequest  true   "type (in|out|adjust), qty, note"
// @Success      201   {object}  dto.MutationAcceptedResponse
// @Success      202   {object}  dto.MutationAcceptedResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      502   {object}  dto.ErrorResponse
// @Failure      504   {object}  dto.ErrorResponse
// @Router       /api/inventory/{id}/movements [post]
func (h *InventoryHandler) RecordMovement(c *fiber.Ctx) error {
	actor := GetActor(c)
	if actor.ID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	var in dto.RecordMovementRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	m, err := h.ledger.RecordMovement(actor, stockledger.RecordMovementInput{
		ItemID: c.Params("id"),
		Type:   strings.ToLower(strings.TrimSpace(in.Type)),
		Qty:    in.Qty,
		Note:   in.Note,
	})
	if err != nil {
		return writeError(c, err, "ítem no encontrado")
	}
	return h.respondMutation(c, m)
}

// UpdateMinQty godoc
// @Summary      Cambiar el umbral mínimo de un ítem (optimista)
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path   string                   true   "ID del ítem"
// @Param        wait  query  bool                     false  "Esperar la resolución"
// @Param        body  body   dto.UpdateMinQtyRequest  true   "min_qty >= 0"
// @Success      201   {object}  dto.MutationAcceptedResponse
// @Success      202   {object}  dto.MutationAcceptedResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      502   {object}  dto.ErrorResponse
// @Router       /api/inventory/{id} [patch]
func (h *InventoryHandler) UpdateMinQty(c *fiber.Ctx) error {
	actor := GetActor(c)
	if actor.ID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	var in dto.UpdateMinQtyRequest
	if err := c.BodyParser(&in); err != nil || in.MinQty == nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "min_qty requerido"})
	}
	m, err := h.ledger.UpdateMinimumQuantity(actor, c.Params("id"), *in.MinQty)
	if err != nil {
		return writeError(c, err, "ítem no encontrado")
	}
	return h.respondMutation(c, m)
}

// respondMutation 202 inmediato con la vista optimista, o 201 tras esperar si wait=true.
func (h *InventoryHandler) respondMutation(c *fiber.Ctx, m *stockledger.Mutation) error {
	if !c.QueryBool("wait") {
		return c.Status(fiber.StatusAccepted).JSON(dto.MutationAcceptedResponse{
			Mutation: toMutationDTO(m),
			Item:     h.cachedItem(m.ItemID),
		})
	}

	ctx, cancel := context.WithTimeout(c.UserContext(), h.waitTimeout)
	defer cancel()
	if err := m.Wait(ctx); err != nil {
		if ctx.Err() != nil {
			return c.Status(fiber.StatusGatewayTimeout).JSON(dto.ErrorResponse{
				Code:    "MUTATION_PENDING",
				Message: "la mutación " + m.ID + " sigue pendiente",
			})
		}
		return writeError(c, err, "ítem no encontrado")
	}

	resp := dto.MutationAcceptedResponse{Mutation: toMutationDTO(m)}
	if item, err := h.ledger.Item(ctx, m.ItemID); err == nil {
		v := dto.ToInventoryItemDTO(*item)
		resp.Item = &v
	}
	return c.Status(fiber.StatusCreated).JSON(resp)
}

// cachedItem vista del ítem residente (detalle o fila de la lista), sin red.
func (h *InventoryHandler) cachedItem(id string) *dto.InventoryItemDTO {
	if item, ok := h.ledger.PeekItem(id); ok {
		v := dto.ToInventoryItemDTO(item)
		return &v
	}
	items, ok := h.ledger.PeekItems()
	if !ok {
		return nil
	}
	for _, it := range items {
		if it.ID == id {
			v := dto.ToInventoryItemDTO(it)
			return &v
		}
	}
	return nil
}
