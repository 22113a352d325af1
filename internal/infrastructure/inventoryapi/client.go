package inventoryapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jhoicas/taller-stock/internal/application/ports"
	"github.com/jhoicas/taller-stock/internal/domain/entity"
)

// Verificar en tiempo de compilación que Client implementa InventoryAPI.
var _ ports.InventoryAPI = (*Client)(nil)

const (
	maxResponseBytes = 4 << 20
	maxErrorBodySize = 4 << 10
)

// Config parámetros del cliente de la API de inventario.
type Config struct {
	BaseURL string        // p. ej. https://api.taller.local
	Token   string        // Bearer de servicio; vacío = sin Authorization
	Timeout time.Duration // timeout de red por petición
}

// Client adaptador HTTP de la API de inventario (net/http + encoding/json).
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient construye el adaptador. Si httpClient es nil se crea uno con cfg.Timeout.
func NewClient(cfg Config, httpClient *http.Client) *Client {
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 15 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		token:      cfg.Token,
		httpClient: httpClient,
	}
}

type updateMinQtyRequest struct {
	MinQty int `json:"minQty"`
}

// ListItems GET /inventory.
func (c *Client) ListItems(ctx context.Context) ([]entity.InventoryItem, error) {
	var items []entity.InventoryItem
	if err := c.do(ctx, "listar ítems", http.MethodGet, "/inventory", nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// GetItem GET /inventory/:id.
func (c *Client) GetItem(ctx context.Context, id string) (*entity.InventoryItem, error) {
	var item entity.InventoryItem
	if err := c.do(ctx, "obtener ítem", http.MethodGet, itemPath(id), nil, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// ListMovements GET /inventory/:id/movements.
func (c *Client) ListMovements(ctx context.Context, itemID string) ([]entity.StockMovement, error) {
	var movs []entity.StockMovement
	if err := c.do(ctx, "listar movimientos", http.MethodGet, itemPath(itemID)+"/movements", nil, &movs); err != nil {
		return nil, err
	}
	return movs, nil
}

// CreateMovement POST /inventory/:id/movements con {type, qty, note?}.
func (c *Client) CreateMovement(ctx context.Context, itemID string, in ports.CreateMovementInput) (*entity.StockMovement, error) {
	var mov entity.StockMovement
	if err := c.do(ctx, "crear movimiento", http.MethodPost, itemPath(itemID)+"/movements", in, &mov); err != nil {
		return nil, err
	}
	return &mov, nil
}

// UpdateMinQty PATCH /inventory/:id con {minQty}.
func (c *Client) UpdateMinQty(ctx context.Context, itemID string, minQty int) (*entity.InventoryItem, error) {
	var item entity.InventoryItem
	body := updateMinQtyRequest{MinQty: minQty}
	if err := c.do(ctx, "actualizar mínimo", http.MethodPatch, itemPath(itemID), body, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

func itemPath(id string) string {
	return "/inventory/" + url.PathEscape(id)
}

// do ejecuta la petición y decodifica la respuesta JSON en out.
// Fallos de red → *TransportError; status no 2xx → *RejectedError con el cuerpo opaco.
func (c *Client) do(ctx context.Context, op, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("inventoryapi: %s: serializar request: %w", op, err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("inventoryapi: %s: crear HTTP request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return &TransportError{Op: op, Err: ctx.Err()}
		}
		return &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
		return &RejectedError{Op: op, Status: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return &TransportError{Op: op, Err: fmt.Errorf("leer respuesta: %w", err)}
	}
	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("inventoryapi: %s: deserializar respuesta: %w", op, err)
	}
	return nil
}
