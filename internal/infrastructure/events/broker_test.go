package events_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Presupuestos-api/internal/application/ports"
	"github.com/jhoicas/Presupuestos-api/internal/infrastructure/events"
)

func TestBroker_EntregaATodos(t *testing.T) {
	b := events.NewBroker(4)
	a, cancelA := b.Subscribe()
	c, cancelC := b.Subscribe()
	defer cancelC()

	require.NoError(t, b.Publish(context.Background(), ports.Event{Type: ports.EventOrderCreated, EntityID: "o1"}))
	assert.Equal(t, "o1", (<-a).EntityID)
	assert.Equal(t, "o1", (<-c).EntityID)

	cancelA()
	cancelA()
	_, open := <-a
	assert.False(t, open, "el canal se cierra al darse de baja")
}

func TestBroker_SuscriptorLentoNoBloquea(t *testing.T) {
	b := events.NewBroker(1)
	ch, cancel := b.Subscribe()
	defer cancel()

	for i := 0; i < 5; i++ {
		require.NoError(t, b.Publish(context.Background(), ports.Event{Type: ports.EventExpenseCreated}))
	}
	assert.Len(t, ch, 1)
}

type failing struct{}

func (failing) Publish(context.Context, ports.Event) error { return errors.New("caído") }

func TestFanout_IntentaTodos(t *testing.T) {
	b := events.NewBroker(1)
	ch, cancel := b.Subscribe()
	defer cancel()

	err := events.Fanout{failing{}, b}.Publish(context.Background(), ports.Event{Type: ports.EventVoucherCreated})
	assert.Error(t, err)
	assert.Len(t, ch, 1)
}
