package stockledger

import "time"

// Observer recibe los eventos del ciclo de mutación (métricas).
// Lo implementa infrastructure/metrics; sin observer se usa uno vacío.
type Observer interface {
	OptimisticApplied(kind MutationKind)
	MutationSettled(kind MutationKind, status MutationStatus, elapsed time.Duration)
	RollbackSkipped(kind MutationKind)
}

type nopObserver struct{}

func (nopObserver) OptimisticApplied(MutationKind)                              {}
func (nopObserver) MutationSettled(MutationKind, MutationStatus, time.Duration) {}
func (nopObserver) RollbackSkipped(MutationKind)                                {}
