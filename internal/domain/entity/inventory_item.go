package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados derivados de stock (no se persisten; se calculan de Quantity y MinQty).
const (
	StockStatusOK  = "ok"
	StockStatusLow = "low"
	StockStatusOut = "out"
)

// InventoryItem representa un SKU del taller (repuesto, accesorio o consumible).
// Quantity y MinQty solo cambian mediante movimientos o la edición de mínimo.
type InventoryItem struct {
	ID        string           `json:"id"`
	Name      string           `json:"name"`
	SKU       string           `json:"sku"` // único por taller
	Category  string           `json:"category"`
	Quantity  int              `json:"quantity"` // nunca negativo
	MinQty    int              `json:"minQty"`
	UnitCost  decimal.Decimal  `json:"unitCost"`
	UnitPrice *decimal.Decimal `json:"unitPrice,omitempty"`
	Location  *string          `json:"location,omitempty"`
	UpdatedAt time.Time        `json:"updatedAt"`
}

// Status devuelve el estado derivado: out si no hay existencias, low si está bajo el mínimo.
func (i InventoryItem) Status() string {
	switch {
	case i.Quantity <= 0:
		return StockStatusOut
	case i.Quantity < i.MinQty:
		return StockStatusLow
	default:
		return StockStatusOK
	}
}

// StockValue valor del inventario a costo (Quantity × UnitCost).
func (i InventoryItem) StockValue() decimal.Decimal {
	return i.UnitCost.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// IsValidStockStatus indica si s es uno de los estados derivados conocidos.
func IsValidStockStatus(s string) bool {
	return s == StockStatusOK || s == StockStatusLow || s == StockStatusOut
}
