package http

import (
	"bufio"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"

	"github.com/jhoicas/Presupuestos-api/internal/application/ports"
)

// EventSubscriber fuente de eventos de invalidación (events.Broker).
type EventSubscriber interface {
	Subscribe() (<-chan ports.Event, func())
}

// EventsHandler expone los eventos de invalidación como Server-Sent Events para que los
// clientes refresquen listados y resúmenes sin sondear.
type EventsHandler struct {
	sub       EventSubscriber
	keepAlive time.Duration
	done      chan struct{}
}

// NewEventsHandler construye el handler. keepAlive <= 0 usa 15s.
func NewEventsHandler(sub EventSubscriber, keepAlive time.Duration) *EventsHandler {
	if keepAlive <= 0 {
		keepAlive = 15 * time.Second
	}
	return &EventsHandler{sub: sub, keepAlive: keepAlive, done: make(chan struct{})}
}

// Close termina los streams abiertos; llamar antes de apagar el servidor.
func (h *EventsHandler) Close() {
	select {
	case <-h.done:
	default:
		close(h.done)
	}
}

// Stream godoc
// @Summary      Stream de eventos de invalidación
// @Description  text/event-stream. Filtros opcionales por orden y área.
// @Tags         events
// @Produce      text/event-stream
// @Security     BearerAuth
// @Param        order_id  query  string  false  "solo eventos de esta orden"
// @Param        area      query  string  false  "solo eventos de esta área"
// @Success      200
// @Router       /api/events [get]
func (h *EventsHandler) Stream(c *fiber.Ctx) error {
	orderID, area := c.Query("order_id"), c.Query("area")
	ch, cancel := h.sub.Subscribe()

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")
	c.Set("X-Accel-Buffering", "no")

	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		defer cancel()
		ticker := time.NewTicker(h.keepAlive)
		defer ticker.Stop()

		fmt.Fprint(w, ": conectado\n\n")
		if err := w.Flush(); err != nil {
			return
		}
		for {
			select {
			case <-h.done:
				return
			case <-ticker.C:
				fmt.Fprint(w, ": ping\n\n")
			case evt, ok := <-ch:
				if !ok {
					return
				}
				if !matches(evt, orderID, area) {
					continue
				}
				payload, err := json.Marshal(evt)
				if err != nil {
					continue
				}
				fmt.Fprintf(w, "event: %s\ndata: %s\n\n", evt.Type, payload)
			}
			// Flush falla cuando el cliente se desconecta.
			if err := w.Flush(); err != nil {
				return
			}
		}
	}))
	return nil
}

func matches(evt ports.Event, orderID, area string) bool {
	if orderID != "" && evt.OrderID != orderID && evt.EntityID != orderID {
		return false
	}
	if area != "" && evt.Area != area {
		return false
	}
	return true
}
