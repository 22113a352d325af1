package inventory_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/taller-stock/internal/domain/entity"
	"github.com/jhoicas/taller-stock/internal/domain/inventory"
)

func TestApplyMovement(t *testing.T) {
	cases := []struct {
		name    string
		current int
		typ     string
		qty     int
		want    int
	}{
		{"entrada suma", 10, entity.MovementTypeIn, 4, 14},
		{"salida resta", 10, entity.MovementTypeOut, 4, 6},
		{"salida mayor al stock queda en cero", 5, entity.MovementTypeOut, 8, 0},
		{"ajuste positivo", 3, entity.MovementTypeAdjust, 2, 5},
		{"ajuste negativo", 3, entity.MovementTypeAdjust, -2, 1},
		{"ajuste negativo con piso", 3, entity.MovementTypeAdjust, -9, 0},
		{"tipo desconocido no cambia", 7, "transfer", 3, 7},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, inventory.ApplyMovement(tc.current, tc.typ, tc.qty))
		})
	}
}

// El resultado nunca es negativo para ninguna combinación de salida/ajuste.
func TestApplyMovement_PisoEnCero(t *testing.T) {
	for current := 0; current <= 20; current++ {
		for qty := -25; qty <= 25; qty++ {
			got := inventory.ApplyMovement(current, entity.MovementTypeAdjust, qty)
			assert.GreaterOrEqual(t, got, 0)
			if qty > 0 {
				got = inventory.ApplyMovement(current, entity.MovementTypeOut, qty)
				assert.GreaterOrEqual(t, got, 0)
			}
		}
	}
}

func TestValidMovementQty(t *testing.T) {
	assert.True(t, inventory.ValidMovementQty(entity.MovementTypeIn, 1))
	assert.False(t, inventory.ValidMovementQty(entity.MovementTypeIn, 0))
	assert.False(t, inventory.ValidMovementQty(entity.MovementTypeOut, -3))
	assert.True(t, inventory.ValidMovementQty(entity.MovementTypeAdjust, -3))
	assert.False(t, inventory.ValidMovementQty(entity.MovementTypeAdjust, 0))
}
