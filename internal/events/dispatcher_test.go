package events

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestDispatcherDeliversToSubscribers(t *testing.T) {
	d := NewQueueDispatcher(zap.NewNop(), 8, 3, time.Millisecond)

	var mu sync.Mutex
	var got []Event
	d.Subscribe(EventFriendRequested, func(_ context.Context, e Event) error {
		mu.Lock()
		got = append(got, e)
		mu.Unlock()
		return nil
	})

	require.NoError(t, d.Publish(context.Background(), Event{ID: "e-1", Type: EventFriendRequested}))
	require.NoError(t, d.Publish(context.Background(), Event{ID: "e-2", Type: EventFriendAccepted}))

	d.(interface{ Close() }).Close()

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, got, 1)
	require.Equal(t, "e-1", got[0].ID)
}

func TestDispatcherRetriesFailedHandlers(t *testing.T) {
	d := NewQueueDispatcher(zap.NewNop(), 8, 3, time.Millisecond)

	var mu sync.Mutex
	attempts := 0
	d.Subscribe(EventTaskCompleted, func(context.Context, Event) error {
		mu.Lock()
		defer mu.Unlock()
		attempts++
		if attempts < 3 {
			return errors.New("transient")
		}
		return nil
	})

	require.NoError(t, d.Publish(context.Background(), Event{ID: "e-1", Type: EventTaskCompleted}))
	d.(interface{ Close() }).Close()

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, 3, attempts)
}

func TestDispatcherGivesUpAfterMaxAttempts(t *testing.T) {
	d := NewQueueDispatcher(zap.NewNop(), 8, 2, time.Millisecond)

	var mu sync.Mutex
	attempts := 0
	d.Subscribe(EventTaskCompleted, func(context.Context, Event) error {
		mu.Lock()
		defer mu.Unlock()
		attempts++
		return errors.New("permanent")
	})

	require.NoError(t, d.Publish(context.Background(), Event{Type: EventTaskCompleted}))
	d.(interface{ Close() }).Close()

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, 2, attempts)
}

func TestDispatcherReportsFullQueue(t *testing.T) {
	d := NewQueueDispatcher(zap.NewNop(), 1, 1, 0)

	block := make(chan struct{})
	d.Subscribe(EventFriendRequested, func(context.Context, Event) error {
		<-block
		return nil
	})

	// first event occupies the worker, following ones fill then overflow
	// the single-slot queue
	var sawFull bool
	for i := 0; i < 10; i++ {
		if err := d.Publish(context.Background(), Event{Type: EventFriendRequested}); errors.Is(err, ErrQueueFull) {
			sawFull = true
			break
		}
	}
	close(block)
	d.(interface{ Close() }).Close()
	require.True(t, sawFull)
}
