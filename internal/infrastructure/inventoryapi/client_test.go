package inventoryapi_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/taller-stock/internal/application/ports"
	"github.com/jhoicas/taller-stock/internal/domain"
	"github.com/jhoicas/taller-stock/internal/infrastructure/inventoryapi"
)

const itemJSON = `{
	"id": "it-1",
	"name": "Pastillas de freno Shimano B01S",
	"sku": "SH-B01S",
	"category": "frenos",
	"quantity": 12,
	"minQty": 4,
	"unitCost": 6.35,
	"unitPrice": 11.9,
	"location": "Estante B2",
	"updatedAt": "2026-10-15T18:04:05Z"
}`

func newClient(t *testing.T, h http.HandlerFunc) *inventoryapi.Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return inventoryapi.NewClient(inventoryapi.Config{BaseURL: srv.URL + "/", Token: "svc-token"}, nil)
}

func TestClient_GetItem_DecodificaElFormatoDeCable(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/inventory/it-1", r.URL.Path)
		assert.Equal(t, "Bearer svc-token", r.Header.Get("Authorization"))
		_, _ = io.WriteString(w, itemJSON)
	})

	item, err := c.GetItem(context.Background(), "it-1")
	require.NoError(t, err)
	assert.Equal(t, "SH-B01S", item.SKU)
	assert.Equal(t, 12, item.Quantity)
	assert.Equal(t, 4, item.MinQty)
	assert.True(t, decimal.RequireFromString("6.35").Equal(item.UnitCost))
	require.NotNil(t, item.UnitPrice)
	assert.True(t, decimal.RequireFromString("11.9").Equal(*item.UnitPrice))
	require.NotNil(t, item.Location)
	assert.Equal(t, "Estante B2", *item.Location)
	assert.Equal(t, time.Date(2026, 10, 15, 18, 4, 5, 0, time.UTC), item.UpdatedAt.UTC())
}

func TestClient_ListItemsYMovimientos(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/inventory":
			_, _ = io.WriteString(w, "["+itemJSON+"]")
		case "/inventory/it-1/movements":
			_, _ = io.WriteString(w, `[
				{"id":"m2","itemId":"it-1","type":"out","qty":2,"createdAt":"2026-10-15T18:00:00Z","createdBy":"Luis"},
				{"id":"m1","itemId":"it-1","type":"in","qty":14,"note":"compra","createdAt":"2026-10-14T09:00:00Z","createdBy":"Ana"}
			]`)
		default:
			http.NotFound(w, r)
		}
	})

	items, err := c.ListItems(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 1)

	movs, err := c.ListMovements(context.Background(), "it-1")
	require.NoError(t, err)
	require.Len(t, movs, 2)
	assert.Equal(t, "m2", movs[0].ID)
	assert.Nil(t, movs[0].Note)
	require.NotNil(t, movs[1].Note)
	assert.Equal(t, "compra", *movs[1].Note)
}

func TestClient_CreateMovement_EnviaCuerpo(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/inventory/it%2F9/movements", r.URL.EscapedPath())
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "out", body["type"])
		assert.Equal(t, float64(3), body["qty"])
		_, hasNote := body["note"]
		assert.False(t, hasNote, "note vacía no se envía")

		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"id":"srv-77","itemId":"it/9","type":"out","qty":3,"createdAt":"2026-10-16T10:00:00Z","createdBy":"Ana"}`)
	})

	mov, err := c.CreateMovement(context.Background(), "it/9", ports.CreateMovementInput{Type: "out", Qty: 3})
	require.NoError(t, err)
	assert.Equal(t, "srv-77", mov.ID)
	assert.False(t, mov.IsProvisional())
}

func TestClient_UpdateMinQty(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		raw, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"minQty":0}`, string(raw))
		_, _ = io.WriteString(w, itemJSON)
	})

	item, err := c.UpdateMinQty(context.Background(), "it-1", 0)
	require.NoError(t, err)
	assert.Equal(t, "it-1", item.ID)
}

func TestClient_RechazoDelServidor(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = io.WriteString(w, `{"error":"stock insuficiente"}`)
	})

	_, err := c.CreateMovement(context.Background(), "it-1", ports.CreateMovementInput{Type: "out", Qty: 99})
	require.Error(t, err)

	var rej *inventoryapi.RejectedError
	require.True(t, errors.As(err, &rej))
	assert.Equal(t, http.StatusUnprocessableEntity, rej.Status)
	assert.Contains(t, rej.Body, "stock insuficiente")
	assert.ErrorIs(t, err, domain.ErrUpstreamRejected)
	assert.NotErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, http.StatusUnprocessableEntity, rej.HTTPStatus())
}

func TestClient_404EsNotFound(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	_, err := c.GetItem(context.Background(), "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestClient_FalloDeTransporte(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	c := inventoryapi.NewClient(inventoryapi.Config{BaseURL: url, Timeout: time.Second}, nil)
	_, err := c.ListItems(context.Background())
	require.Error(t, err)

	var te *inventoryapi.TransportError
	assert.True(t, errors.As(err, &te))
	assert.ErrorIs(t, err, domain.ErrUpstreamTransport)
	var rej *inventoryapi.RejectedError
	assert.False(t, errors.As(err, &rej))
}

func TestClient_ContextoCancelado(t *testing.T) {
	release := make(chan struct{})
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		<-release
	})
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := c.ListItems(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.ErrorIs(t, err, domain.ErrUpstreamTransport)
}
