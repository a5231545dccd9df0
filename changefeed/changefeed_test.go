package changefeed

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishReachesAllSubscribers(t *testing.T) {
	f := New()
	ch1, cancel1 := f.Subscribe()
	defer cancel1()
	ch2, cancel2 := f.Subscribe()
	defer cancel2()

	f.Publish(Event{Table: TableTracks, Op: OpInsert})

	ev := <-ch1
	assert.Equal(t, TableTracks, ev.Table)
	assert.Equal(t, OpInsert, ev.Op)
	ev = <-ch2
	assert.Equal(t, TableTracks, ev.Table)
}

func TestCancelClosesChannel(t *testing.T) {
	f := New()
	ch, cancel := f.Subscribe()
	cancel()

	_, ok := <-ch
	assert.False(t, ok)

	// double cancel is safe
	cancel()

	// publish after cancel must not panic
	f.Publish(Event{Table: TablePets, Op: OpDelete})
}

func TestSlowSubscriberMissesInsteadOfBlocking(t *testing.T) {
	f := New()
	ch, cancel := f.Subscribe()
	defer cancel()

	// overflow the buffer; Publish must never block
	for i := 0; i < 100; i++ {
		f.Publish(Event{Table: TableGoals, Op: OpUpdate})
	}

	received := 0
	for {
		select {
		case <-ch:
			received++
			continue
		default:
		}
		break
	}
	require.Greater(t, received, 0)
	assert.LessOrEqual(t, received, 32)
}
