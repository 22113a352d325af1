package domain

import "errors"

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound          = errors.New("recurso no encontrado")
	ErrInvalidInput      = errors.New("entrada inválida")
	ErrUnauthorized      = errors.New("no autorizado")
	ErrForbidden         = errors.New("acceso denegado")
	ErrUpstreamRejected  = errors.New("la API de inventario rechazó la operación")
	ErrUpstreamTransport = errors.New("la API de inventario no respondió")
)
