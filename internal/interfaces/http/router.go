package http

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/taller-stock/internal/application/inventory"
	"github.com/jhoicas/taller-stock/internal/application/stockledger"
	"github.com/jhoicas/taller-stock/internal/domain/entity"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Ledger      *stockledger.Coordinator
	Queries     *inventory.QueryUseCase
	JWTSecret   string
	WaitTimeout time.Duration // tope de ?wait=true
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))

	// Inventario: lectura para cualquier rol, mutaciones según rol
	invGroup := protected.Group("/inventory")
	inventoryHandler := NewInventoryHandler(deps.Ledger, deps.Queries, deps.WaitTimeout)
	invGroup.Get("/", inventoryHandler.List)
	invGroup.Get("/summary", inventoryHandler.Summary)
	invGroup.Get("/:id", inventoryHandler.GetByID)
	invGroup.Get("/:id/movements", inventoryHandler.ListMovements)
	invGroup.Post("/:id/movements", RequireRole(entity.RoleAdmin, entity.RoleBodeguero), inventoryHandler.RecordMovement)
	invGroup.Patch("/:id", RequireRole(entity.RoleAdmin), inventoryHandler.UpdateMinQty)

	// Mutaciones
	mutations := protected.Group("/mutations")
	mutationHandler := NewMutationHandler(deps.Ledger)
	mutations.Get("/:id", mutationHandler.GetByID)
}
