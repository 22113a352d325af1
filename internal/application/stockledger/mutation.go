package stockledger

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jhoicas/taller-stock/internal/domain/entity"
	"github.com/jhoicas/taller-stock/internal/infrastructure/querycache"
)

// MutationKind tipo de operación del coordinador.
type MutationKind string

const (
	KindRecordMovement MutationKind = "record_movement"
	KindUpdateMinQty   MutationKind = "update_min_qty"
)

// MutationStatus estado observable de una mutación.
type MutationStatus string

const (
	StatusPending   MutationStatus = "pending"
	StatusSucceeded MutationStatus = "succeeded"
	StatusFailed    MutationStatus = "failed"
)

// Mutation handle de una mutación en curso o resuelta. El llamador no bloquea:
// observa la transición pending → succeeded|failed con Done, Wait o Status.
type Mutation struct {
	ID        string
	Kind      MutationKind
	ItemID    string
	ActorID   string
	CreatedAt time.Time

	// Optimistic indica si hubo escritura especulativa (el ítem estaba en caché).
	Optimistic bool

	// rejected se marca apenas falla la llamada, antes del rollback.
	rejected atomic.Bool

	mu        sync.RWMutex
	status    MutationStatus
	err       error
	result    any
	settledAt time.Time
	done      chan struct{}
}

func newMutation(id string, kind MutationKind, itemID string, actor entity.Actor, now time.Time) *Mutation {
	return &Mutation{
		ID:        id,
		Kind:      kind,
		ItemID:    itemID,
		ActorID:   actor.ID,
		CreatedAt: now,
		status:    StatusPending,
		done:      make(chan struct{}),
	}
}

// Status estado actual.
func (m *Mutation) Status() MutationStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

// Err error de la mutación fallida (nil si pendiente o exitosa).
func (m *Mutation) Err() error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.err
}

// SettledAt momento de resolución (cero si sigue pendiente).
func (m *Mutation) SettledAt() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.settledAt
}

// Done se cierra cuando la mutación se resuelve.
func (m *Mutation) Done() <-chan struct{} { return m.done }

// Wait bloquea hasta la resolución o hasta que ctx termine.
func (m *Mutation) Wait(ctx context.Context) error {
	select {
	case <-m.done:
		return m.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Movement movimiento confirmado por el servidor (solo KindRecordMovement exitosa).
func (m *Mutation) Movement() (*entity.StockMovement, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	mov, ok := m.result.(*entity.StockMovement)
	return mov, ok && mov != nil
}

// Item ítem devuelto por el servidor (solo KindUpdateMinQty exitosa).
func (m *Mutation) Item() (*entity.InventoryItem, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	item, ok := m.result.(*entity.InventoryItem)
	return item, ok && item != nil
}

func (m *Mutation) settle(result any, err error, at time.Time) {
	m.mu.Lock()
	m.result = result
	m.err = err
	m.settledAt = at
	if err != nil {
		m.status = StatusFailed
	} else {
		m.status = StatusSucceeded
	}
	m.mu.Unlock()
	close(m.done)
}

func (m *Mutation) settledBefore(t time.Time) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status != StatusPending && m.settledAt.Before(t)
}

// rollback restauraciones pendientes de una escritura especulativa.
// Cada una guarda el snapshot previo y la revisión que escribió la mutación.
// Solo se crea y se recorre dentro de cache.Update.
type rollback struct {
	owner    *Mutation
	writes   map[querycache.Key]*restore
	restores []*restore
}

// restore escritura optimista de owner sobre una clave. base es la escritura de otra
// mutación cuyo contenido capturó snap, si la había.
type restore struct {
	owner   *Mutation
	snap    querycache.Snapshot
	version uint64
	base    *restore
}

func (rb *rollback) add(snap querycache.Snapshot, version uint64) {
	r := &restore{owner: rb.owner, snap: snap, version: version}
	if prev, ok := rb.writes[snap.Key]; ok && snap.Present && prev.version == snap.Entry.Revision {
		r.base = prev
	}
	rb.writes[snap.Key] = r
	rb.restores = append(rb.restores, r)
}

func (rb *rollback) empty() bool { return rb == nil || len(rb.restores) == 0 }

// target escritura cuyo snapshot hay que restaurar: se saltan las bases de mutaciones
// ya rechazadas para no resucitar su estado optimista.
func (r *restore) target() *restore {
	t := r
	for t.base != nil && t.base.owner.rejected.Load() {
		t = t.base
	}
	return t
}

// lifecycle hooks de una mutación:
//
//	onMutate  → escritura optimista síncrona, registrada en el rollback
//	mutate    → llamada de red (única suspensión)
//	onSuccess → servidor confirmó
//	onError   → rollback con los snapshots de onMutate (lo hace el runner)
//	onSettled → invalidación final, gane o pierda
type lifecycle struct {
	kind      MutationKind
	itemID    string
	actor     entity.Actor
	onMutate  func(rb *rollback)
	mutate    func(ctx context.Context) (any, error)
	onSuccess func(result any)
	onSettled func()
}

// launch ejecuta onMutate de forma síncrona y lanza la llamada de red en su goroutine.
func (c *Coordinator) launch(lc lifecycle) *Mutation {
	m := newMutation(c.newID(), lc.kind, lc.itemID, lc.actor, c.now())

	rb := &rollback{owner: m, writes: c.writes}
	lc.onMutate(rb)
	if !rb.empty() {
		m.Optimistic = true
		c.observer.OptimisticApplied(lc.kind)
	}
	c.register(m)

	c.log.Debug().
		Str("mutation_id", m.ID).
		Str("kind", string(lc.kind)).
		Str("item_id", lc.itemID).
		Str("actor", lc.actor.ID).
		Bool("optimistic", m.Optimistic).
		Msg("mutación emitida")

	go c.execute(m, lc, rb)
	return m
}

func (c *Coordinator) execute(m *Mutation, lc lifecycle, rb *rollback) {
	start := c.now()
	result, err := c.callUpstream(lc)
	elapsed := c.now().Sub(start)

	if err != nil {
		m.rejected.Store(true)
		c.rollback(m, rb)
		c.log.Warn().Err(err).
			Str("mutation_id", m.ID).
			Str("kind", string(lc.kind)).
			Str("item_id", lc.itemID).
			Msg("mutación rechazada, caché restaurada")
	} else {
		if lc.onSuccess != nil {
			lc.onSuccess(result)
		}
		c.log.Info().
			Str("mutation_id", m.ID).
			Str("kind", string(lc.kind)).
			Str("item_id", lc.itemID).
			Msg("mutación confirmada")
	}

	if lc.onSettled != nil {
		lc.onSettled()
	}

	status := StatusSucceeded
	if err != nil {
		status = StatusFailed
	}
	c.observer.MutationSettled(lc.kind, status, elapsed)
	m.settle(result, err, c.now())
	c.release(rb)
}

// callUpstream aísla la llamada de red: timeout propio y un pánico cuenta como fallo.
func (c *Coordinator) callUpstream(lc lifecycle) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			result, err = nil, fmt.Errorf("stockledger: pánico en la llamada upstream: %v", r)
		}
	}()
	ctx, cancel := context.WithTimeout(context.Background(), c.requestTimeout)
	defer cancel()
	return lc.mutate(ctx)
}

// rollback restaura los snapshots de la mutación fallida. Si el snapshot contiene la
// escritura de otra mutación pendiente, esa escritura pasa a ser la vigente de la clave
// para que su propio rollback la encuentre.
func (c *Coordinator) rollback(m *Mutation, rb *rollback) {
	if rb.empty() {
		return
	}
	var skipped []querycache.Key
	c.cache.Update(func(tx *querycache.Tx) {
		for _, r := range rb.restores {
			t := r.target()
			v, ok := tx.Restore(t.snap, r.version)
			if !ok {
				skipped = append(skipped, r.snap.Key)
				continue
			}
			if b := t.base; b != nil && b.owner.Status() == StatusPending {
				b.version = v
				c.writes[r.snap.Key] = b
			} else if c.writes[r.snap.Key] == r {
				delete(c.writes, r.snap.Key)
			}
		}
	})
	// Una escritura más nueva llegó a estas claves; la invalidación de onSettled reconcilia.
	for _, k := range skipped {
		c.observer.RollbackSkipped(m.Kind)
		c.log.Warn().
			Str("mutation_id", m.ID).
			Str("key", k.String()).
			Msg("rollback descartado: la clave tiene una escritura más reciente")
	}
}

// release olvida las escrituras optimistas de una mutación ya resuelta.
func (c *Coordinator) release(rb *rollback) {
	if rb.empty() {
		return
	}
	c.cache.Update(func(*querycache.Tx) {
		for k, w := range c.writes {
			if w.owner == rb.owner {
				delete(c.writes, k)
			}
		}
	})
}

// register guarda la mutación y purga las resueltas hace más de la retención.
func (c *Coordinator) register(m *Mutation) {
	c.mu.Lock()
	defer c.mu.Unlock()
	cutoff := c.now().Add(-c.retention)
	for id, old := range c.mutations {
		if old.settledBefore(cutoff) {
			delete(c.mutations, id)
		}
	}
	c.mutations[m.ID] = m
}

// Mutation busca una mutación registrada por id.
func (c *Coordinator) Mutation(id string) (*Mutation, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	m, ok := c.mutations[id]
	return m, ok
}
