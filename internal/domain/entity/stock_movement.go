package entity

import (
	"strings"
	"time"
)

// Tipos de movimiento de stock.
const (
	MovementTypeIn     = "in"     // entrada
	MovementTypeOut    = "out"    // salida
	MovementTypeAdjust = "adjust" // ajuste con signo
)

// ProvisionalIDPrefix marca los movimientos creados localmente antes de la confirmación del servidor.
const ProvisionalIDPrefix = "tmp-"

// StockMovement registro inmutable de auditoría de un cambio de cantidad sobre un ítem.
type StockMovement struct {
	ID        string    `json:"id"`
	ItemID    string    `json:"itemId"`
	Type      string    `json:"type"`
	Qty       int       `json:"qty"`
	Note      *string   `json:"note,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	CreatedBy string    `json:"createdBy"`
}

// IsProvisional indica si el movimiento aún no ha sido confirmado por el servidor.
func (m StockMovement) IsProvisional() bool {
	return strings.HasPrefix(m.ID, ProvisionalIDPrefix)
}

// IsValidMovementType valida el tipo de movimiento.
func IsValidMovementType(t string) bool {
	return t == MovementTypeIn || t == MovementTypeOut || t == MovementTypeAdjust
}
