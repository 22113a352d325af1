package inventory

import (
	"context"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/taller-stock/internal/application/dto"
	"github.com/jhoicas/taller-stock/internal/domain"
	"github.com/jhoicas/taller-stock/internal/domain/entity"
)

// ItemReader lectura de la lista de ítems; la implementa *stockledger.Coordinator,
// así los listados ven también el estado optimista de las mutaciones en vuelo.
type ItemReader interface {
	Items(ctx context.Context) ([]entity.InventoryItem, error)
}

// QueryUseCase listados y resumen de inventario para las pantallas del back-office.
type QueryUseCase struct {
	reader ItemReader
}

// NewQueryUseCase construye el caso de uso.
func NewQueryUseCase(reader ItemReader) *QueryUseCase {
	return &QueryUseCase{reader: reader}
}

// List filtra por texto (nombre, SKU o ubicación; sin acentos ni mayúsculas), categoría y
// estado derivado, y ordena alfabéticamente por nombre.
func (uc *QueryUseCase) List(ctx context.Context, q dto.InventoryListQuery) ([]entity.InventoryItem, error) {
	status := strings.ToLower(strings.TrimSpace(q.Status))
	if status != "" && !entity.IsValidStockStatus(status) {
		return nil, domain.ErrInvalidInput
	}

	items, err := uc.reader.Items(ctx)
	if err != nil {
		return nil, err
	}

	needle := foldSearch(q.Q)
	category := foldSearch(q.Category)

	out := make([]entity.InventoryItem, 0, len(items))
	for _, it := range items {
		if status != "" && it.Status() != status {
			continue
		}
		if category != "" && foldSearch(it.Category) != category {
			continue
		}
		if needle != "" && !matches(it, needle) {
			continue
		}
		out = append(out, it)
	}

	col := newSpanishCollator()
	sort.SliceStable(out, func(i, j int) bool {
		return col.CompareString(out[i].Name, out[j].Name) < 0
	})
	return out, nil
}

func matches(it entity.InventoryItem, needle string) bool {
	if strings.Contains(foldSearch(it.Name), needle) || strings.Contains(foldSearch(it.SKU), needle) {
		return true
	}
	return it.Location != nil && strings.Contains(foldSearch(*it.Location), needle)
}

// Summary conteo por estado, valor del stock a costo y categorías presentes.
func (uc *QueryUseCase) Summary(ctx context.Context) (*dto.InventorySummaryDTO, error) {
	items, err := uc.reader.Items(ctx)
	if err != nil {
		return nil, err
	}

	summary := &dto.InventorySummaryDTO{
		TotalItems: len(items),
		StockValue: decimal.Zero,
		Categories: []string{},
	}
	seen := make(map[string]bool)
	for _, it := range items {
		switch it.Status() {
		case entity.StockStatusOut:
			summary.Out++
		case entity.StockStatusLow:
			summary.Low++
		default:
			summary.OK++
		}
		summary.StockValue = summary.StockValue.Add(it.StockValue())
		if it.Category != "" && !seen[it.Category] {
			seen[it.Category] = true
			summary.Categories = append(summary.Categories, it.Category)
		}
	}

	col := newSpanishCollator()
	col.SortStrings(summary.Categories)
	return summary, nil
}
