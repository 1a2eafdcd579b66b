package effects

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pthm-cable/dots/components"
)

func TestQueueFIFO(t *testing.T) {
	q := NewQueue()
	for i := 0; i < 5000; i++ {
		require.NoError(t, q.Send(To(components.Coord{X: float64(i)}, Tick{})))
	}
	assert.Equal(t, 5000, q.Len())

	ctx := context.Background()
	for i := 0; i < 5000; i++ {
		env, err := q.Receive(ctx)
		require.NoError(t, err)
		require.Equal(t, float64(i), env.To.X)
	}
	assert.Equal(t, 0, q.Len())
}

func TestQueueInterleavedSendReceiveKeepsOrder(t *testing.T) {
	q := NewQueue()
	next := 0
	want := 0
	for round := 0; round < 50; round++ {
		for i := 0; i < 100; i++ {
			require.NoError(t, q.Send(To(components.Coord{X: float64(next)}, Tick{})))
			next++
		}
		for i := 0; i < 60; i++ {
			env, ok := q.TryReceive()
			require.True(t, ok)
			require.Equal(t, float64(want), env.To.X)
			want++
		}
	}
	assert.Equal(t, next-want, q.Len())
}

func TestQueueReceiveBlocksUntilSend(t *testing.T) {
	q := NewQueue()
	got := make(chan Envelope, 1)
	go func() {
		env, err := q.Receive(context.Background())
		if err == nil {
			got <- env
		}
	}()

	select {
	case <-got:
		t.Fatal("receive returned before anything was sent")
	case <-time.After(20 * time.Millisecond):
	}

	require.NoError(t, q.Send(Broadcast(Tick{})))
	select {
	case env := <-got:
		assert.True(t, env.Broadcast)
	case <-time.After(time.Second):
		t.Fatal("receive did not wake up")
	}
}

func TestQueueReceiveHonoursContext(t *testing.T) {
	q := NewQueue()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := q.Receive(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestQueueCloseDrainsThenFails(t *testing.T) {
	q := NewQueue()
	require.NoError(t, q.Send(To(components.Coord{}, Opacity{Delta: 0.1})))
	q.Close()
	q.Close()

	assert.ErrorIs(t, q.Send(Broadcast(Tick{})), ErrClosed)

	env, err := q.Receive(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Opacity{Delta: 0.1}, env.Effect)

	_, err = q.Receive(context.Background())
	assert.ErrorIs(t, err, ErrClosed)
}

func TestQueueConcurrentProducers(t *testing.T) {
	q := NewQueue()
	const producers, perProducer = 16, 500

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				_ = q.Send(To(components.Coord{X: float64(p), Y: float64(i)}, Tick{}))
			}
		}(p)
	}
	wg.Wait()
	require.Equal(t, producers*perProducer, q.Len())

	// Each producer's envelopes arrive in the order it sent them.
	last := make(map[float64]float64)
	for i := 0; i < producers*perProducer; i++ {
		env, ok := q.TryReceive()
		require.True(t, ok)
		if prev, seen := last[env.To.X]; seen {
			require.Greater(t, env.To.Y, prev)
		}
		last[env.To.X] = env.To.Y
	}
}

func TestReply(t *testing.T) {
	origin := components.Coord{X: 2, Y: 2}
	env, ok := Reply(Energy{Delta: -0.1, Origin: &origin}, -0.1)
	require.True(t, ok)
	assert.Equal(t, origin, env.To)
	assert.Equal(t, Energy{Delta: 0.1}, env.Effect)

	_, ok = Reply(Energy{Delta: 0.3}, 0.3)
	assert.False(t, ok)
}
