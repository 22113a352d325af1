package stockledger

import (
	"context"
	"strings"

	"github.com/jhoicas/taller-stock/internal/application/ports"
	"github.com/jhoicas/taller-stock/internal/domain"
	"github.com/jhoicas/taller-stock/internal/domain/entity"
	"github.com/jhoicas/taller-stock/internal/domain/inventory"
	"github.com/jhoicas/taller-stock/internal/infrastructure/querycache"
)

// RecordMovementInput entrada de RecordMovement.
// Para adjust, Qty es un delta con signo; para in/out es una magnitud positiva.
type RecordMovementInput struct {
	ItemID string
	Type   string
	Qty    int
	Note   *string
}

// RecordMovement registra un movimiento de stock (in/out/adjust).
//
// Antes de la llamada de red escribe la cantidad optimista (con piso en cero) en el detalle
// y en la lista, y antepone un movimiento provisional al historial. Si el ítem no está en
// caché se omite la escritura optimista y la llamada se hace igual. Ante fallo restaura los
// tres snapshots; al resolverse invalida detalle, historial y lista.
//
// Devuelve domain.ErrInvalidInput sin tocar caché ni red si la entrada no es válida.
func (c *Coordinator) RecordMovement(actor entity.Actor, in RecordMovementInput) (*Mutation, error) {
	in.ItemID = strings.TrimSpace(in.ItemID)
	if in.ItemID == "" || !entity.IsValidMovementType(in.Type) || !inventory.ValidMovementQty(in.Type, in.Qty) {
		return nil, domain.ErrInvalidInput
	}
	in.Note = normalizeNote(in.Note)

	return c.launch(lifecycle{
		kind:   KindRecordMovement,
		itemID: in.ItemID,
		actor:  actor,
		onMutate: func(rb *rollback) {
			c.applyMovement(actor, in, rb)
		},
		mutate: func(ctx context.Context) (any, error) {
			return c.api.CreateMovement(ctx, in.ItemID, ports.CreateMovementInput{
				Type: in.Type,
				Qty:  in.Qty,
				Note: in.Note,
			})
		},
		onSettled: func() {
			c.cache.Invalidate(ItemKey(in.ItemID), MovementsKey(in.ItemID), ItemsKey())
		},
	}), nil
}

func (c *Coordinator) applyMovement(actor entity.Actor, in RecordMovementInput, rb *rollback) {
	now := c.now()
	provisionalID := entity.ProvisionalIDPrefix + c.newID()

	c.cache.Update(func(tx *querycache.Tx) {
		item, ok := residentItem(tx, in.ItemID)
		if !ok {
			return
		}
		next := item
		next.Quantity = inventory.ApplyMovement(item.Quantity, in.Type, in.Qty)
		next.UpdatedAt = now
		writeItem(tx, rb, next)

		movKey := MovementsKey(in.ItemID)
		e, ok := tx.Peek(movKey)
		if !ok {
			return
		}
		movs, ok := e.Value.([]entity.StockMovement)
		if !ok {
			return
		}
		provisional := entity.StockMovement{
			ID:        provisionalID,
			ItemID:    in.ItemID,
			Type:      in.Type,
			Qty:       in.Qty,
			Note:      in.Note,
			CreatedAt: now,
			CreatedBy: actor.DisplayName(),
		}
		updated := make([]entity.StockMovement, 0, len(movs)+1)
		updated = append(updated, provisional)
		updated = append(updated, movs...)
		snap := tx.Snapshot(movKey)
		rb.add(snap, tx.Set(movKey, updated))
	})
}

func normalizeNote(note *string) *string {
	if note == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*note)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
