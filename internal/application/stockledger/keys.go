package stockledger

import "github.com/jhoicas/taller-stock/internal/infrastructure/querycache"

// Claves de caché del inventario.
//
//	["inventory"]                  lista completa de ítems
//	["inventory", id]              detalle de un ítem
//	["inventory", id, "movements"] historial de movimientos, más reciente primero
func ItemsKey() querycache.Key { return querycache.NewKey("inventory") }

func ItemKey(id string) querycache.Key { return querycache.NewKey("inventory", id) }

func MovementsKey(id string) querycache.Key { return querycache.NewKey("inventory", id, "movements") }
