package pubsub

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recvOne[T any](t *testing.T, ch <-chan Event[T]) Event[T] {
	t.Helper()
	select {
	case ev, ok := <-ch:
		require.True(t, ok, "channel closed unexpectedly")
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		panic("unreachable")
	}
}

func TestBroker_DeliversToAllSubscribers(t *testing.T) {
	b := NewBroker[string](4)
	defer b.Close()

	ctx := context.Background()
	sub1 := b.Subscribe(ctx)
	sub2 := b.Subscribe(ctx)

	b.Publish("hello")

	assert.Equal(t, "hello", recvOne(t, sub1).Payload)
	assert.Equal(t, "hello", recvOne(t, sub2).Payload)
}

func TestBroker_SubscriberRemovedOnContextCancel(t *testing.T) {
	b := NewBroker[int](4)
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	sub := b.Subscribe(ctx)
	cancel()

	require.Eventually(t, func() bool {
		select {
		case _, ok := <-sub:
			return !ok
		default:
			return false
		}
	}, 2*time.Second, 10*time.Millisecond, "channel should close after cancel")
}

func TestBroker_PublishNeverBlocksOnFullSubscriber(t *testing.T) {
	b := NewBroker[int](1)
	defer b.Close()

	_ = b.Subscribe(context.Background())

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 100; i++ {
			b.Publish(i)
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Publish blocked on a full subscriber")
	}
}

func TestBroker_CloseClosesSubscribers(t *testing.T) {
	b := NewBroker[int](4)
	sub := b.Subscribe(context.Background())

	b.Close()

	_, ok := <-sub
	assert.False(t, ok)

	// Publish after close must not panic.
	b.Publish(1)
}

func TestBroker_SubscribeAfterCloseReturnsClosedChannel(t *testing.T) {
	b := NewBroker[int](4)
	b.Close()

	sub := b.Subscribe(context.Background())
	_, ok := <-sub
	assert.False(t, ok)
}
