package stockledger

import (
	"context"
	"strings"

	"github.com/jhoicas/taller-stock/internal/domain"
	"github.com/jhoicas/taller-stock/internal/domain/entity"
	"github.com/jhoicas/taller-stock/internal/infrastructure/querycache"
)

// UpdateMinimumQuantity cambia el umbral mínimo de un ítem con la misma disciplina
// optimista: escribe minQty en detalle y lista, restaura ambos ante fallo e invalida
// ambos al resolverse.
func (c *Coordinator) UpdateMinimumQuantity(actor entity.Actor, itemID string, minQty int) (*Mutation, error) {
	itemID = strings.TrimSpace(itemID)
	if itemID == "" || minQty < 0 {
		return nil, domain.ErrInvalidInput
	}

	return c.launch(lifecycle{
		kind:   KindUpdateMinQty,
		itemID: itemID,
		actor:  actor,
		onMutate: func(rb *rollback) {
			now := c.now()
			c.cache.Update(func(tx *querycache.Tx) {
				item, ok := residentItem(tx, itemID)
				if !ok {
					return
				}
				next := item
				next.MinQty = minQty
				next.UpdatedAt = now
				writeItem(tx, rb, next)
			})
		},
		mutate: func(ctx context.Context) (any, error) {
			return c.api.UpdateMinQty(ctx, itemID, minQty)
		},
		onSettled: func() {
			c.cache.Invalidate(ItemKey(itemID), ItemsKey())
		},
	}), nil
}
