package http_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Presupuestos-api/internal/application/ports"
	apphttp "github.com/jhoicas/Presupuestos-api/internal/interfaces/http"
)

// fixedSub entrega una lista fija de eventos y cierra el canal.
type fixedSub []ports.Event

func (f fixedSub) Subscribe() (<-chan ports.Event, func()) {
	ch := make(chan ports.Event, len(f))
	for _, e := range f {
		ch <- e
	}
	close(ch)
	return ch, func() {}
}

func stream(t *testing.T, h *apphttp.EventsHandler, query string) (*http.Response, string) {
	t.Helper()
	app := fiber.New()
	app.Get("/events", h.Stream)
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/events"+query, nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

func TestEvents_FiltraPorOrdenYArea(t *testing.T) {
	h := apphttp.NewEventsHandler(fixedSub{
		{Type: ports.EventExpenseCreated, EntityID: "e1", OrderID: "o1", Area: "tecnica", Version: 1},
		{Type: ports.EventExpenseCreated, EntityID: "e2", OrderID: "o2", Area: "tecnica", Version: 1},
		{Type: ports.EventExpenseUpdated, EntityID: "e3", OrderID: "o1", Area: "talentos", Version: 2},
	}, 0)

	resp, body := stream(t, h, "?order_id=o1&area=tecnica")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))
	assert.Contains(t, body, "event: expense.created")
	assert.Contains(t, body, `"entity_id":"e1"`)
	assert.NotContains(t, body, `"entity_id":"e2"`)
	assert.NotContains(t, body, `"entity_id":"e3"`)
}

func TestEvents_EventoDeOrdenPorEntityID(t *testing.T) {
	h := apphttp.NewEventsHandler(fixedSub{
		{Type: ports.EventOrderClosed, EntityID: "o1", Version: 3, State: "cerrado"},
	}, 0)
	_, body := stream(t, h, "?order_id=o1")
	assert.Contains(t, body, "event: order.closed")
}

func TestEvents_CloseTerminaElStream(t *testing.T) {
	h := apphttp.NewEventsHandler(blockingSub{}, 0)
	h.Close()
	h.Close()
	_, body := stream(t, h, "")
	assert.Contains(t, body, ": conectado")
}

// blockingSub nunca entrega eventos.
type blockingSub struct{}

func (blockingSub) Subscribe() (<-chan ports.Event, func()) {
	return make(chan ports.Event), func() {}
}
