package inventory

import "github.com/jhoicas/taller-stock/internal/domain/entity"

// ApplyMovement calcula la cantidad resultante de aplicar un movimiento sobre current.
//
//	in:     current + qty
//	out:    max(0, current - qty)
//	adjust: max(0, current + qty)   (qty con signo)
//
// El resultado nunca es negativo. Un tipo desconocido deja la cantidad igual.
func ApplyMovement(current int, movementType string, qty int) int {
	var next int
	switch movementType {
	case entity.MovementTypeIn:
		next = current + qty
	case entity.MovementTypeOut:
		next = current - qty
	case entity.MovementTypeAdjust:
		next = current + qty
	default:
		next = current
	}
	if next < 0 {
		return 0
	}
	return next
}

// ValidMovementQty valida la magnitud según el tipo: in/out exigen qty > 0;
// adjust acepta cualquier delta distinto de cero.
func ValidMovementQty(movementType string, qty int) bool {
	if movementType == entity.MovementTypeAdjust {
		return qty != 0
	}
	return qty > 0
}
