package notify

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	kinds   []Kind
	collect func(ctx context.Context, now time.Time) ([]Notification, error)
	applies func(ctx context.Context, n Notification, now time.Time) (bool, error)
}

func (s *fakeSource) Kinds() []Kind { return s.kinds }

func (s *fakeSource) Collect(ctx context.Context, now time.Time) ([]Notification, error) {
	return s.collect(ctx, now)
}

func (s *fakeSource) StillApplies(ctx context.Context, n Notification, now time.Time) (bool, error) {
	if s.applies == nil {
		return false, nil
	}
	return s.applies(ctx, n, now)
}

func staticSource(kind Kind, ns ...Notification) *fakeSource {
	return &fakeSource{
		kinds: []Kind{kind},
		collect: func(context.Context, time.Time) ([]Notification, error) {
			return ns, nil
		},
	}
}

type recordingPusher struct {
	mu   sync.Mutex
	sent []Notification
}

func (p *recordingPusher) Send(ctx context.Context, n Notification) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sent = append(p.sent, n)
	return nil
}

func (p *recordingPusher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.sent)
}

func TestRefreshMergesAndSorts(t *testing.T) {
	base := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	a := New(&Options{Now: func() time.Time { return base }})
	a.Register(staticSource(KindPlanUpcoming,
		Notification{ID: "low-late", Kind: KindPlanUpcoming, Priority: PriorityLow, When: base.Add(2 * time.Hour)},
		Notification{ID: "high", Kind: KindPlanUpcoming, Priority: PriorityHigh, When: base.Add(time.Hour)},
	))
	a.Register(staticSource(KindMessagesUnread,
		Notification{ID: "low-early", Kind: KindMessagesUnread, Priority: PriorityLow, When: base},
	))

	a.Refresh(context.Background())

	ns := a.Notifications()
	require.Len(t, ns, 3)
	assert.Equal(t, "high", ns[0].ID)
	assert.Equal(t, "low-early", ns[1].ID)
	assert.Equal(t, "low-late", ns[2].ID)
}

func TestRefreshIsolatesFailingSource(t *testing.T) {
	a := New(&Options{})
	a.Register(&fakeSource{
		kinds: []Kind{KindPetTaskDue},
		collect: func(context.Context, time.Time) ([]Notification, error) {
			return nil, errors.New("backend down")
		},
	})
	a.Register(staticSource(KindMessagesUnread,
		Notification{ID: "ok", Kind: KindMessagesUnread},
	))

	a.Refresh(context.Background())

	ns := a.Notifications()
	require.Len(t, ns, 1)
	assert.Equal(t, "ok", ns[0].ID)
}

func TestStaleRefreshIsDiscarded(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	var calls int
	var mu sync.Mutex

	a := New(&Options{})
	a.Register(&fakeSource{
		kinds: []Kind{KindPlanUpcoming},
		collect: func(context.Context, time.Time) ([]Notification, error) {
			mu.Lock()
			calls++
			first := calls == 1
			mu.Unlock()
			if first {
				close(started)
				<-release
				return []Notification{{ID: "stale", Kind: KindPlanUpcoming}}, nil
			}
			return []Notification{{ID: "fresh", Kind: KindPlanUpcoming}}, nil
		},
	})

	done := make(chan struct{})
	go func() {
		a.Refresh(context.Background())
		close(done)
	}()
	<-started

	// a newer refresh completes while the first is still collecting
	a.Refresh(context.Background())
	close(release)
	<-done

	ns := a.Notifications()
	require.Len(t, ns, 1)
	assert.Equal(t, "fresh", ns[0].ID, "overtaken refresh must not clobber newer data")
}

func TestDismissalsFilterRefresh(t *testing.T) {
	base := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	now := base
	a := New(&Options{Now: func() time.Time { return now }})
	a.Register(staticSource(KindMessagesUnread,
		Notification{ID: "n1", Kind: KindMessagesUnread},
		Notification{ID: "n2", Kind: KindMessagesUnread},
	))

	a.Refresh(context.Background())
	require.Len(t, a.Notifications(), 2)

	require.NoError(t, a.MarkSeenTemporarily("n1"))
	require.Len(t, a.Notifications(), 1)

	// still snoozed on the next refresh
	a.Refresh(context.Background())
	require.Len(t, a.Notifications(), 1)

	// reappears once the snooze window has passed
	now = base.Add(11 * time.Minute)
	a.Refresh(context.Background())
	assert.Len(t, a.Notifications(), 2)
}

func TestMarkSeenPermanentlyIsForever(t *testing.T) {
	base := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	now := base
	a := New(&Options{Now: func() time.Time { return now }})
	a.Register(staticSource(KindMessagesUnread,
		Notification{ID: "n1", Kind: KindMessagesUnread},
	))

	a.Refresh(context.Background())
	require.NoError(t, a.MarkSeenPermanently("n1"))

	now = base.Add(1000 * time.Hour)
	a.Refresh(context.Background())
	assert.Empty(t, a.Notifications())
}

func TestDismissUnknownNotification(t *testing.T) {
	a := New(&Options{})
	assert.ErrorIs(t, a.MarkSeenTemporarily("ghost"), ErrUnknownNotification)
	assert.ErrorIs(t, a.MarkSeenPermanently("ghost"), ErrUnknownNotification)
}

func TestReapPromotesStaleSnoozes(t *testing.T) {
	base := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	now := base
	a := New(&Options{Now: func() time.Time { return now }})

	gone := true
	a.Register(&fakeSource{
		kinds: []Kind{KindPetTaskDue},
		collect: func(context.Context, time.Time) ([]Notification, error) {
			return []Notification{{ID: "task", Kind: KindPetTaskDue}}, nil
		},
		applies: func(_ context.Context, n Notification, _ time.Time) (bool, error) {
			return !gone, nil
		},
	})

	a.Refresh(context.Background())
	require.NoError(t, a.MarkSeenTemporarily("task"))

	// snooze expires, the underlying condition no longer holds
	now = base.Add(11 * time.Minute)
	a.Reap(context.Background())

	a.Refresh(context.Background())
	assert.Empty(t, a.Notifications(), "reaped snooze becomes a permanent dismissal")
}

func TestReapKeepsApplicableSnoozes(t *testing.T) {
	base := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	now := base
	a := New(&Options{Now: func() time.Time { return now }})
	a.Register(&fakeSource{
		kinds: []Kind{KindPetTaskDue},
		collect: func(context.Context, time.Time) ([]Notification, error) {
			return []Notification{{ID: "task", Kind: KindPetTaskDue}}, nil
		},
		applies: func(context.Context, Notification, time.Time) (bool, error) {
			return true, nil
		},
	})

	a.Refresh(context.Background())
	require.NoError(t, a.MarkSeenTemporarily("task"))

	now = base.Add(11 * time.Minute)
	a.Reap(context.Background())

	a.Refresh(context.Background())
	assert.Len(t, a.Notifications(), 1, "a still-applicable notification shows again")
}

func TestHighPriorityPushedOnce(t *testing.T) {
	pusher := &recordingPusher{}
	a := New(&Options{Pusher: pusher})
	a.Register(staticSource(KindPetTaskDue,
		Notification{ID: "urgent", Kind: KindPetTaskDue, Priority: PriorityHigh},
		Notification{ID: "calm", Kind: KindPetTaskDue, Priority: PriorityLow},
	))

	a.Refresh(context.Background())
	a.Refresh(context.Background())

	// pushes run async
	assert.Eventually(t, func() bool { return pusher.count() == 1 },
		time.Second, 10*time.Millisecond)

	pusher.mu.Lock()
	defer pusher.mu.Unlock()
	assert.Equal(t, "urgent", pusher.sent[0].ID)
}

func TestSurpriseUnlockablePushedRegardlessOfPriority(t *testing.T) {
	pusher := &recordingPusher{}
	a := New(&Options{Pusher: pusher})
	a.Register(staticSource(KindSurpriseUnlockable,
		Notification{ID: "surprise", Kind: KindSurpriseUnlockable, Priority: PriorityMedium},
	))

	a.Refresh(context.Background())

	assert.Eventually(t, func() bool { return pusher.count() == 1 },
		time.Second, 10*time.Millisecond)
}
