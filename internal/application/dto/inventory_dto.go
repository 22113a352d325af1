package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/taller-stock/internal/domain/entity"
)

// RecordMovementRequest body para POST /api/inventory/:id/movements.
// Para adjust, qty es un delta con signo; para in/out una magnitud positiva.
type RecordMovementRequest struct {
	Type string  `json:"type"`
	Qty  int     `json:"qty"`
	Note *string `json:"note,omitempty"`
}

// UpdateMinQtyRequest body para PATCH /api/inventory/:id.
type UpdateMinQtyRequest struct {
	MinQty *int `json:"min_qty"`
}

// InventoryListQuery filtros de GET /api/inventory.
type InventoryListQuery struct {
	Q        string `query:"q"`
	Category string `query:"category"`
	Status   string `query:"status"` // ok | low | out
}

// InventoryItemDTO ítem con su estado derivado.
type InventoryItemDTO struct {
	ID        string           `json:"id"`
	Name      string           `json:"name"`
	SKU       string           `json:"sku"`
	Category  string           `json:"category"`
	Quantity  int              `json:"quantity"`
	MinQty    int              `json:"min_qty"`
	Status    string           `json:"status"`
	UnitCost  decimal.Decimal  `json:"unit_cost"`
	UnitPrice *decimal.Decimal `json:"unit_price,omitempty"`
	Location  *string          `json:"location,omitempty"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// StockMovementDTO movimiento; provisional=true mientras el servidor no lo confirme.
type StockMovementDTO struct {
	ID          string    `json:"id"`
	ItemID      string    `json:"item_id"`
	Type        string    `json:"type"`
	Qty         int       `json:"qty"`
	Note        *string   `json:"note,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	CreatedBy   string    `json:"created_by"`
	Provisional bool      `json:"provisional"`
}

// InventoryListResponse respuesta de GET /api/inventory.
type InventoryListResponse struct {
	Total int                `json:"total"`
	Items []InventoryItemDTO `json:"items"`
}

// InventorySummaryDTO tarjetas de resumen del inventario.
type InventorySummaryDTO struct {
	TotalItems int             `json:"total_items"`
	OK         int             `json:"ok"`
	Low        int             `json:"low"`
	Out        int             `json:"out"`
	StockValue decimal.Decimal `json:"stock_value"` // Σ quantity × unit_cost
	Categories []string        `json:"categories"`
}

// MutationDTO estado de una mutación de stock.
type MutationDTO struct {
	ID         string            `json:"id"`
	Kind       string            `json:"kind"`
	ItemID     string            `json:"item_id"`
	Status     string            `json:"status"` // pending | succeeded | failed
	Optimistic bool              `json:"optimistic"`
	Error      string            `json:"error,omitempty"`
	CreatedAt  time.Time         `json:"created_at"`
	SettledAt  *time.Time        `json:"settled_at,omitempty"`
	Movement   *StockMovementDTO `json:"movement,omitempty"`
	Item       *InventoryItemDTO `json:"item,omitempty"`
}

// MutationAcceptedResponse respuesta 202/201 de una mutación: estado y vista del ítem
// (optimista mientras la mutación está pendiente; nil si el ítem no estaba en caché).
type MutationAcceptedResponse struct {
	Mutation MutationDTO       `json:"mutation"`
	Item     *InventoryItemDTO `json:"item,omitempty"`
}

// ToInventoryItemDTO convierte la entidad al DTO HTTP.
func ToInventoryItemDTO(i entity.InventoryItem) InventoryItemDTO {
	return InventoryItemDTO{
		ID:        i.ID,
		Name:      i.Name,
		SKU:       i.SKU,
		Category:  i.Category,
		Quantity:  i.Quantity,
		MinQty:    i.MinQty,
		Status:    i.Status(),
		UnitCost:  i.UnitCost,
		UnitPrice: i.UnitPrice,
		Location:  i.Location,
		UpdatedAt: i.UpdatedAt,
	}
}

// ToStockMovementDTO convierte la entidad al DTO HTTP.
func ToStockMovementDTO(m entity.StockMovement) StockMovementDTO {
	return StockMovementDTO{
		ID:          m.ID,
		ItemID:      m.ItemID,
		Type:        m.Type,
		Qty:         m.Qty,
		Note:        m.Note,
		CreatedAt:   m.CreatedAt,
		CreatedBy:   m.CreatedBy,
		Provisional: m.IsProvisional(),
	}
}
