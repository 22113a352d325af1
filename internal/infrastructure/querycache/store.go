package querycache

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

const defaultFetchTimeout = 15 * time.Second

// Entry contenido de una celda: valor, versión monotónica y marca de obsolescencia.
// Los valores se tratan como inmutables: quien escribe reemplaza, nunca modifica en sitio.
// Revision es la versión de la última escritura de contenido; invalidar sube Version pero
// no Revision.
type Entry struct {
	Value     any
	Version   uint64
	Revision  uint64
	Stale     bool
	UpdatedAt time.Time
}

// Snapshot copia de una celda tomada antes de una escritura especulativa.
type Snapshot struct {
	Key     Key
	Present bool
	Entry   Entry
}

// FetchFunc obtiene el valor autoritativo de una clave (normalmente una llamada HTTP).
type FetchFunc func(ctx context.Context) (any, error)

// InvalidateListener recibe las claves marcadas como obsoletas por Invalidate.
type InvalidateListener func(keys []Key)

// Store caché de lectura por clave compuesta con celdas versionadas.
// Toda lectura/escritura es síncrona; solo Fetch suspende (mientras corre el fetcher).
type Store struct {
	mu        sync.RWMutex
	cells     map[Key]*Entry
	clock     uint64
	now       func() time.Time
	group     singleflight.Group
	listeners []InvalidateListener

	// absent versión de invalidaciones sobre claves sin celda (un fetch en vuelo no debe escribirlas).
	absent map[Key]uint64

	fetchTimeout time.Duration
}

// Option configura el Store.
type Option func(*Store)

// WithClock reemplaza el reloj (tests).
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithFetchTimeout tope de cada fetch compartido.
func WithFetchTimeout(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.fetchTimeout = d
		}
	}
}

// New crea una caché vacía.
func New(opts ...Option) *Store {
	s := &Store{
		cells:        make(map[Key]*Entry),
		absent:       make(map[Key]uint64),
		now:          time.Now,
		fetchTimeout: defaultFetchTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// OnInvalidate registra un listener que se invoca (fuera del lock) tras cada Invalidate.
func (s *Store) OnInvalidate(fn InvalidateListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// Peek lectura síncrona sin red.
func (s *Store) Peek(key Key) (Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.cells[key]
	if !ok {
		return Entry{}, false
	}
	return *e, true
}

// Get lectura tipada de una celda.
func Get[T any](s *Store, key Key) (T, bool) {
	var zero T
	e, ok := s.Peek(key)
	if !ok {
		return zero, false
	}
	v, ok := e.Value.(T)
	if !ok {
		return zero, false
	}
	return v, true
}

// Set sobrescribe la celda y devuelve la nueva versión. La celda queda fresca.
func (s *Store) Set(key Key, value any) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write(key, value)
}

// Update ejecuta fn con el lock de escritura tomado; permite snapshot + escritura atómicos
// sobre varias claves.
func (s *Store) Update(fn func(tx *Tx)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&Tx{s: s})
}

// Invalidate marca las claves como obsoletas (la próxima lectura vía Fetch refetchea)
// y notifica a los listeners.
func (s *Store) Invalidate(keys ...Key) {
	s.MarkStale(keys...)
	s.mu.RLock()
	listeners := append([]InvalidateListener(nil), s.listeners...)
	s.mu.RUnlock()
	for _, fn := range listeners {
		fn(keys)
	}
}

// MarkStale marca obsoletas las claves sin notificar (invalidaciones recibidas de otra réplica).
// Sube la versión para que un Fetch en vuelo no reescriba datos previos a la invalidación.
func (s *Store) MarkStale(keys ...Key) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range keys {
		s.clock++
		if e, ok := s.cells[k]; ok {
			e.Version = s.clock
			e.Stale = true
		} else {
			s.absent[k] = s.clock
		}
		// Los lectores posteriores no se unen a un fetch iniciado antes de la invalidación.
		s.group.Forget(string(k))
	}
}

// Len número de celdas residentes.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.cells)
}

// Fetch devuelve el valor fresco de la clave; si falta o está obsoleto llama a fetch.
// Las llamadas concurrentes para la misma clave comparten un único fetch, que corre
// desacoplado de la cancelación de quien lo inició y con timeout propio; cada llamador
// deja de esperar cuando su ctx termina.
// Si mientras tanto llegó una escritura más nueva, el resultado del fetch no la pisa.
func (s *Store) Fetch(ctx context.Context, key Key, fetch FetchFunc) (any, error) {
	if e, ok := s.Peek(key); ok && !e.Stale {
		return e.Value, nil
	}
	flightCtx := context.WithoutCancel(ctx)
	ch := s.group.DoChan(string(key), func() (any, error) {
		fctx, cancel := context.WithTimeout(flightCtx, s.fetchTimeout)
		defer cancel()

		start := s.versionOf(key)
		val, err := fetch(fctx)
		if err != nil {
			return nil, err
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.versionLocked(key) != start {
			// Escritura más nueva: se respeta. Invalidada después de empezar: el valor solo
			// vale para quienes se unieron antes (MarkStale ya soltó la clave del grupo).
			if cur, ok := s.cells[key]; ok && !cur.Stale {
				return cur.Value, nil
			}
			return val, nil
		}
		s.write(key, val)
		return val, nil
	})
	select {
	case res := <-ch:
		return res.Val, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *Store) versionOf(key Key) uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.versionLocked(key)
}

func (s *Store) versionLocked(key Key) uint64 {
	if e, ok := s.cells[key]; ok {
		return e.Version
	}
	return s.absent[key]
}

// write requiere el lock de escritura.
func (s *Store) write(key Key, value any) uint64 {
	delete(s.absent, key)
	s.clock++
	s.cells[key] = &Entry{
		Value:     value,
		Version:   s.clock,
		Revision:  s.clock,
		UpdatedAt: s.now(),
	}
	return s.clock
}

// Tx vista de la caché con el lock de escritura ya tomado (ver Store.Update).
type Tx struct {
	s *Store
}

// Peek lectura dentro de la transacción.
func (tx *Tx) Peek(key Key) (Entry, bool) {
	e, ok := tx.s.cells[key]
	if !ok {
		return Entry{}, false
	}
	return *e, true
}

// Snapshot copia el estado actual de la clave.
func (tx *Tx) Snapshot(key Key) Snapshot {
	e, ok := tx.s.cells[key]
	if !ok {
		return Snapshot{Key: key}
	}
	return Snapshot{Key: key, Present: true, Entry: *e}
}

// Set escribe dentro de la transacción y devuelve la nueva revisión.
func (tx *Tx) Set(key Key, value any) uint64 {
	return tx.s.write(key, value)
}

// Restore vuelve la celda al snapshot solo si su contenido sigue siendo el escrito en
// expectRevision (la escritura de quien toma el rollback). Devuelve false si otra escritura
// llegó después; una invalidación intermedia no cuenta como escritura y la celda sigue obsoleta.
// El contenido restaurado es el del snapshot con una revisión nueva, que se devuelve.
func (tx *Tx) Restore(snap Snapshot, expectRevision uint64) (uint64, bool) {
	s := tx.s
	cur, ok := s.cells[snap.Key]
	if !ok || cur.Revision != expectRevision {
		return 0, false
	}
	s.clock++
	if !snap.Present {
		delete(s.cells, snap.Key)
		s.absent[snap.Key] = s.clock
		return s.clock, true
	}
	restored := snap.Entry
	restored.Version = s.clock
	restored.Revision = s.clock
	restored.Stale = restored.Stale || cur.Stale
	s.cells[snap.Key] = &restored
	return s.clock, true
}
