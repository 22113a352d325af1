package ports

import (
	"context"

	"github.com/jhoicas/taller-stock/internal/domain/entity"
)

// CreateMovementInput cuerpo de POST /inventory/:id/movements.
type CreateMovementInput struct {
	Type string  `json:"type"`
	Qty  int     `json:"qty"`
	Note *string `json:"note,omitempty"`
}

// InventoryAPI define el puerto de salida hacia la API HTTP de inventario (dueña de los datos).
// El coordinador de caché solo conoce este contrato; el adaptador vive en infrastructure.
type InventoryAPI interface {
	ListItems(ctx context.Context) ([]entity.InventoryItem, error)
	GetItem(ctx context.Context, id string) (*entity.InventoryItem, error)

	// ListMovements devuelve el historial del ítem, más reciente primero.
	ListMovements(ctx context.Context, itemID string) ([]entity.StockMovement, error)

	// CreateMovement persiste el movimiento; la respuesta trae id y timestamp autoritativos.
	CreateMovement(ctx context.Context, itemID string, in CreateMovementInput) (*entity.StockMovement, error)

	UpdateMinQty(ctx context.Context, itemID string, minQty int) (*entity.InventoryItem, error)
}
