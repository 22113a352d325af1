package stockledger

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/taller-stock/internal/application/ports"
	"github.com/jhoicas/taller-stock/internal/domain"
	"github.com/jhoicas/taller-stock/internal/domain/entity"
	"github.com/jhoicas/taller-stock/internal/infrastructure/querycache"
	"github.com/jhoicas/taller-stock/pkg/logger"
)

const (
	defaultRequestTimeout = 15 * time.Second
	defaultRetention      = 10 * time.Minute
)

// Coordinator mantiene la caché de lectura del inventario y aplica las mutaciones de stock
// con disciplina optimista: escritura especulativa, rollback ante fallo y reconciliación
// (invalidación + refetch) al resolverse, siempre.
type Coordinator struct {
	api      ports.InventoryAPI
	cache    *querycache.Store
	log      *logger.Logger
	observer Observer

	now            func() time.Time
	newID          func() string
	requestTimeout time.Duration
	retention      time.Duration

	mu        sync.Mutex
	mutations map[string]*Mutation

	// writes última escritura optimista por clave; solo se toca dentro de cache.Update.
	writes map[querycache.Key]*restore
}

// Option configura el Coordinator.
type Option func(*Coordinator)

// WithLogger inyecta el logger.
func WithLogger(l *logger.Logger) Option {
	return func(c *Coordinator) { c.log = l }
}

// WithObserver inyecta el receptor de métricas.
func WithObserver(o Observer) Option {
	return func(c *Coordinator) { c.observer = o }
}

// WithClock reemplaza el reloj (tests).
func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) { c.now = now }
}

// WithIDGenerator reemplaza el generador de ids de mutación y de movimientos provisionales.
func WithIDGenerator(fn func() string) Option {
	return func(c *Coordinator) { c.newID = fn }
}

// WithRequestTimeout timeout de cada llamada de mutación a la API.
func WithRequestTimeout(d time.Duration) Option {
	return func(c *Coordinator) {
		if d > 0 {
			c.requestTimeout = d
		}
	}
}

// WithRetention tiempo que una mutación resuelta sigue consultable por id.
func WithRetention(d time.Duration) Option {
	return func(c *Coordinator) {
		if d > 0 {
			c.retention = d
		}
	}
}

// NewCoordinator construye el coordinador sobre la API de inventario y la caché compartida.
func NewCoordinator(api ports.InventoryAPI, cache *querycache.Store, opts ...Option) *Coordinator {
	c := &Coordinator{
		api:            api,
		cache:          cache,
		log:            logger.Nop(),
		observer:       nopObserver{},
		now:            time.Now,
		newID:          uuid.NewString,
		requestTimeout: defaultRequestTimeout,
		retention:      defaultRetention,
		mutations:      make(map[string]*Mutation),
		writes:         make(map[querycache.Key]*restore),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Items lista de ítems (read-through: refetchea si falta o está obsoleta).
func (c *Coordinator) Items(ctx context.Context) ([]entity.InventoryItem, error) {
	v, err := c.cache.Fetch(ctx, ItemsKey(), func(ctx context.Context) (any, error) {
		items, err := c.api.ListItems(ctx)
		if err != nil {
			return nil, fmt.Errorf("listar inventario: %w", err)
		}
		if items == nil {
			items = []entity.InventoryItem{}
		}
		return items, nil
	})
	if err != nil {
		return nil, err
	}
	items, _ := v.([]entity.InventoryItem)
	return append([]entity.InventoryItem(nil), items...), nil
}

// Item detalle de un ítem (read-through).
func (c *Coordinator) Item(ctx context.Context, id string) (*entity.InventoryItem, error) {
	v, err := c.cache.Fetch(ctx, ItemKey(id), func(ctx context.Context) (any, error) {
		item, err := c.api.GetItem(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("obtener ítem %s: %w", id, err)
		}
		if item == nil {
			return nil, fmt.Errorf("obtener ítem %s: %w", id, domain.ErrNotFound)
		}
		return *item, nil
	})
	if err != nil {
		return nil, err
	}
	item := v.(entity.InventoryItem)
	return &item, nil
}

// Movements historial del ítem, más reciente primero (read-through).
func (c *Coordinator) Movements(ctx context.Context, itemID string) ([]entity.StockMovement, error) {
	v, err := c.cache.Fetch(ctx, MovementsKey(itemID), func(ctx context.Context) (any, error) {
		movs, err := c.api.ListMovements(ctx, itemID)
		if err != nil {
			return nil, fmt.Errorf("listar movimientos de %s: %w", itemID, err)
		}
		if movs == nil {
			movs = []entity.StockMovement{}
		}
		return movs, nil
	})
	if err != nil {
		return nil, err
	}
	movs, _ := v.([]entity.StockMovement)
	return append([]entity.StockMovement(nil), movs...), nil
}

// PeekItems lectura síncrona de la lista cacheada, sin red.
func (c *Coordinator) PeekItems() ([]entity.InventoryItem, bool) {
	items, ok := querycache.Get[[]entity.InventoryItem](c.cache, ItemsKey())
	if !ok {
		return nil, false
	}
	return append([]entity.InventoryItem(nil), items...), true
}

// PeekItem lectura síncrona del detalle cacheado.
func (c *Coordinator) PeekItem(id string) (entity.InventoryItem, bool) {
	return querycache.Get[entity.InventoryItem](c.cache, ItemKey(id))
}

// PeekMovements lectura síncrona del historial cacheado.
func (c *Coordinator) PeekMovements(itemID string) ([]entity.StockMovement, bool) {
	movs, ok := querycache.Get[[]entity.StockMovement](c.cache, MovementsKey(itemID))
	if !ok {
		return nil, false
	}
	return append([]entity.StockMovement(nil), movs...), true
}

// residentItem ítem base para la escritura optimista: el detalle si está en caché,
// si no la entrada de la lista. ok=false si el ítem no está residente.
func residentItem(tx *querycache.Tx, id string) (entity.InventoryItem, bool) {
	if e, ok := tx.Peek(ItemKey(id)); ok {
		if item, ok := e.Value.(entity.InventoryItem); ok {
			return item, true
		}
	}
	if e, ok := tx.Peek(ItemsKey()); ok {
		if items, ok := e.Value.([]entity.InventoryItem); ok {
			for _, it := range items {
				if it.ID == id {
					return it, true
				}
			}
		}
	}
	return entity.InventoryItem{}, false
}

// writeItem escribe next en el detalle y dentro de la lista (solo en las entradas que ya
// existen) y registra los snapshots en rb.
func writeItem(tx *querycache.Tx, rb *rollback, next entity.InventoryItem) {
	itemKey := ItemKey(next.ID)
	if e, ok := tx.Peek(itemKey); ok {
		if _, ok := e.Value.(entity.InventoryItem); ok {
			snap := tx.Snapshot(itemKey)
			rb.add(snap, tx.Set(itemKey, next))
		}
	}

	listKey := ItemsKey()
	e, ok := tx.Peek(listKey)
	if !ok {
		return
	}
	items, ok := e.Value.([]entity.InventoryItem)
	if !ok {
		return
	}
	for i, it := range items {
		if it.ID != next.ID {
			continue
		}
		updated := append([]entity.InventoryItem(nil), items...)
		updated[i] = next
		snap := tx.Snapshot(listKey)
		rb.add(snap, tx.Set(listKey, updated))
		return
	}
}
