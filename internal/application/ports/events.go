package ports

import (
	"context"
	"time"
)

// Tipos de evento de invalidación.
const (
	EventOrderCreated      = "order.created"
	EventOrderUpdated      = "order.updated"
	EventOrderClosed       = "order.closed"
	EventOrderAnnulled     = "order.annulled"
	EventExpenseCreated    = "expense.created"
	EventExpenseUpdated    = "expense.updated"
	EventExpenseRemoved    = "expense.removed"
	EventVoucherCreated    = "voucher.created"
	EventVoucherUpdated    = "voucher.updated"
	EventVoucherTransition = "voucher.transition"
)

// Event notificación emitida después de confirmar una escritura, para que otros componentes
// invaliden sus snapshots (listados por área, resumen de presupuesto, bandeja de comprobantes).
type Event struct {
	Type       string    `json:"type"`
	EntityID   string    `json:"entity_id"`
	OrderID    string    `json:"order_id,omitempty"`
	Area       string    `json:"area,omitempty"`
	Version    int       `json:"version"`
	State      string    `json:"state,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// EventPublisher puerto de salida para publicar eventos (Redis pub/sub o broker en memoria).
// Un fallo al publicar no revierte la escritura ya confirmada.
type EventPublisher interface {
	Publish(ctx context.Context, evt Event) error
}
