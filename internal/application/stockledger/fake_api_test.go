package stockledger_test

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/taller-stock/internal/application/ports"
	"github.com/jhoicas/taller-stock/internal/application/stockledger"
	"github.com/jhoicas/taller-stock/internal/domain"
	"github.com/jhoicas/taller-stock/internal/domain/entity"
	"github.com/jhoicas/taller-stock/internal/domain/inventory"
)

// fakeAPI servidor de inventario en memoria. Las mutaciones pueden retenerse con una
// compuerta por nota (gates) y fallar con un error por nota (failures).
type fakeAPI struct {
	mu         sync.Mutex
	order      []string
	items      map[string]entity.InventoryItem
	movements  map[string][]entity.StockMovement
	gates      map[string]chan struct{}
	failures   map[string]error
	minQtyErr  error
	minQtyGate chan struct{}
	seq        int

	createCalls int
	minQtyCalls int
	listCalls   int
}

func newFakeAPI(items ...entity.InventoryItem) *fakeAPI {
	f := &fakeAPI{
		items:     make(map[string]entity.InventoryItem),
		movements: make(map[string][]entity.StockMovement),
		gates:     make(map[string]chan struct{}),
		failures:  make(map[string]error),
	}
	for _, it := range items {
		f.order = append(f.order, it.ID)
		f.items[it.ID] = it
		f.movements[it.ID] = []entity.StockMovement{{
			ID: "mov-inicial-" + it.ID, ItemID: it.ID, Type: entity.MovementTypeIn,
			Qty: it.Quantity, CreatedAt: testNow.Add(-time.Hour), CreatedBy: "sistema",
		}}
	}
	return f
}

// gate retiene las mutaciones cuya nota sea note hasta que se cierre el canal devuelto.
func (f *fakeAPI) gate(note string) chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch := make(chan struct{})
	f.gates[note] = ch
	return ch
}

func (f *fakeAPI) failWith(note string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[note] = err
}

func (f *fakeAPI) ListItems(ctx context.Context) ([]entity.InventoryItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	out := make([]entity.InventoryItem, 0, len(f.order))
	for _, id := range f.order {
		out = append(out, f.items[id])
	}
	return out, nil
}

func (f *fakeAPI) GetItem(ctx context.Context, id string) (*entity.InventoryItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	it, ok := f.items[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &it, nil
}

func (f *fakeAPI) ListMovements(ctx context.Context, itemID string) ([]entity.StockMovement, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]entity.StockMovement(nil), f.movements[itemID]...), nil
}

func (f *fakeAPI) CreateMovement(ctx context.Context, itemID string, in ports.CreateMovementInput) (*entity.StockMovement, error) {
	note := ""
	if in.Note != nil {
		note = *in.Note
	}
	f.mu.Lock()
	f.createCalls++
	gate := f.gates[note]
	failure := f.failures[note]
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if failure != nil {
		return nil, failure
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	it, ok := f.items[itemID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	it.Quantity = inventory.ApplyMovement(it.Quantity, in.Type, in.Qty)
	f.items[itemID] = it
	f.seq++
	mov := entity.StockMovement{
		ID: fmt.Sprintf("mov-%d", f.seq), ItemID: itemID, Type: in.Type, Qty: in.Qty,
		Note: in.Note, CreatedAt: testNow, CreatedBy: "servidor",
	}
	f.movements[itemID] = append([]entity.StockMovement{mov}, f.movements[itemID]...)
	return &mov, nil
}

func (f *fakeAPI) UpdateMinQty(ctx context.Context, itemID string, minQty int) (*entity.InventoryItem, error) {
	f.mu.Lock()
	f.minQtyCalls++
	gate := f.minQtyGate
	failure := f.minQtyErr
	f.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if failure != nil {
		return nil, failure
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	it, ok := f.items[itemID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	it.MinQty = minQty
	f.items[itemID] = it
	return &it, nil
}

// recordingObserver cuenta los eventos del ciclo de mutación.
type recordingObserver struct {
	mu      sync.Mutex
	applied int
	settled map[stockledger.MutationStatus]int
	elapsed []time.Duration
	skipped int
}

func newRecordingObserver() *recordingObserver {
	return &recordingObserver{settled: make(map[stockledger.MutationStatus]int)}
}

func (o *recordingObserver) OptimisticApplied(stockledger.MutationKind) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.applied++
}

func (o *recordingObserver) MutationSettled(_ stockledger.MutationKind, s stockledger.MutationStatus, d time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.settled[s]++
	o.elapsed = append(o.elapsed, d)
}

func (o *recordingObserver) RollbackSkipped(stockledger.MutationKind) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.skipped++
}

var testNow = time.Date(2026, 10, 16, 9, 30, 0, 0, time.UTC)

func bikeItem(id string, qty, minQty int) entity.InventoryItem {
	return entity.InventoryItem{
		ID:        id,
		Name:      "Cámara 29x2.1 " + id,
		SKU:       "SKU-" + id,
		Category:  "neumáticos",
		Quantity:  qty,
		MinQty:    minQty,
		UnitCost:  decimal.NewFromInt(7),
		UpdatedAt: testNow.Add(-24 * time.Hour),
	}
}
