// Package events implementa la publicación de eventos de invalidación: un broker en memoria para
// los suscriptores del proceso y un publicador Redis pub/sub para las demás instancias.
package events

import (
	"context"
	"sync"

	"github.com/jhoicas/Presupuestos-api/internal/application/ports"
)

var _ ports.EventPublisher = (*Broker)(nil)

// Broker reparte cada evento a todos los suscriptores locales. Un suscriptor lento pierde eventos
// en lugar de bloquear la escritura que los originó.
type Broker struct {
	mu     sync.RWMutex
	subs   map[int]chan ports.Event
	nextID int
	buffer int
}

// NewBroker crea un broker; buffer es la capacidad del canal de cada suscriptor.
func NewBroker(buffer int) *Broker {
	if buffer <= 0 {
		buffer = 64
	}
	return &Broker{subs: make(map[int]chan ports.Event), buffer: buffer}
}

// Publish entrega evt sin bloquear.
func (b *Broker) Publish(ctx context.Context, evt ports.Event) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.subs {
		select {
		case ch <- evt:
		default:
		}
	}
	return nil
}

// Subscribe registra un suscriptor. La función devuelta lo da de baja y cierra el canal.
func (b *Broker) Subscribe() (<-chan ports.Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.nextID
	b.nextID++
	ch := make(chan ports.Event, b.buffer)
	b.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
			close(ch)
		})
	}
}

// Fanout publica en varios destinos; devuelve el primer error pero intenta todos.
type Fanout []ports.EventPublisher

// Publish implementa ports.EventPublisher.
func (f Fanout) Publish(ctx context.Context, evt ports.Event) error {
	var first error
	for _, p := range f {
		if p == nil {
			continue
		}
		if err := p.Publish(ctx, evt); err != nil && first == nil {
			first = err
		}
	}
	return first
}
