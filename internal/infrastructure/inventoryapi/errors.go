package inventoryapi

import (
	"fmt"
	"net/http"

	"github.com/jhoicas/taller-stock/internal/domain"
)

// TransportError la petición no llegó a completarse (red, DNS, timeout).
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("inventoryapi: %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Is permite errors.Is(err, domain.ErrUpstreamTransport).
func (e *TransportError) Is(target error) bool {
	return target == domain.ErrUpstreamTransport
}

// RejectedError el servidor respondió con un status no 2xx. El cuerpo se guarda opaco.
type RejectedError struct {
	Op     string
	Status int
	Body   string
}

func (e *RejectedError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("inventoryapi: %s: HTTP %d", e.Op, e.Status)
	}
	return fmt.Sprintf("inventoryapi: %s: HTTP %d: %s", e.Op, e.Status, e.Body)
}

// Is permite errors.Is(err, domain.ErrUpstreamRejected) y, para 404, domain.ErrNotFound.
func (e *RejectedError) Is(target error) bool {
	switch target {
	case domain.ErrUpstreamRejected:
		return true
	case domain.ErrNotFound:
		return e.Status == http.StatusNotFound
	}
	return false
}

// HTTPStatus status devuelto por la API de inventario.
func (e *RejectedError) HTTPStatus() int { return e.Status }
