package notify

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/amora-app/amora-server/changefeed"
)

const (
	defaultRefreshInterval = time.Minute
	snoozeDuration         = 10 * time.Minute
	reapInterval           = 10 * time.Minute
	coalesceWindow         = time.Second
)

// Options to pass to the notification aggregator.
type Options struct {
	// Dismissals holds per-notification snooze/seen state.
	Dismissals *DismissalStore
	// Pusher receives high-priority notifications. Optional.
	Pusher Pusher
	// Feed triggers refreshes on data changes. Optional.
	Feed *changefeed.Feed
	// RefreshInterval between periodic refreshes. Defaults to one minute.
	RefreshInterval time.Duration
	// Now overrides the clock, for tests.
	Now func() time.Time
}

// Aggregator collects notifications from all registered sources,
// filters dismissed ones, and keeps a priority-sorted list current.
type Aggregator struct {
	dismissals *DismissalStore
	pusher     Pusher
	feed       *changefeed.Feed
	interval   time.Duration
	now        func() time.Time

	mu         sync.Mutex
	sources    []Source
	byKind     map[Kind]Source
	generation uint64
	visible    []Notification
	pushed     map[string]bool
	listeners  []func([]Notification)
}

// New creates a notification aggregator. Register sources before
// calling Start.
func New(o *Options) *Aggregator {
	a := &Aggregator{
		dismissals: o.Dismissals,
		pusher:     o.Pusher,
		feed:       o.Feed,
		interval:   o.RefreshInterval,
		now:        o.Now,
		byKind:     make(map[Kind]Source),
		pushed:     make(map[string]bool),
	}
	if a.dismissals == nil {
		a.dismissals = NewDismissalStore(context.Background(), nil)
	}
	if a.pusher == nil {
		a.pusher = NopPusher{}
	}
	if a.interval <= 0 {
		a.interval = defaultRefreshInterval
	}
	if a.now == nil {
		a.now = time.Now
	}
	return a
}

// Register adds a source. The source also becomes the authority for
// its kinds when the reaper re-checks expired snoozes.
func (a *Aggregator) Register(s Source) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.sources = append(a.sources, s)
	for _, k := range s.Kinds() {
		a.byKind[k] = s
	}
}

// Subscribe registers a listener invoked with the visible notification
// list after every refresh and dismissal change.
func (a *Aggregator) Subscribe(fn func([]Notification)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.listeners = append(a.listeners, fn)
}

// Notifications returns the current visible, sorted list.
func (a *Aggregator) Notifications() []Notification {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]Notification, len(a.visible))
	copy(out, a.visible)
	return out
}

// Start performs an initial refresh and launches the periodic refresh,
// change-feed and reaper loops. All loops stop when ctx is cancelled.
func (a *Aggregator) Start(ctx context.Context) {
	a.Refresh(ctx)
	go a.refreshLoop(ctx)
	go a.reapLoop(ctx)
	if a.feed != nil {
		go a.feedLoop(ctx)
	}
}

func (a *Aggregator) refreshLoop(ctx context.Context) {
	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.Refresh(ctx)
		}
	}
}

// feedLoop refreshes after data changes, coalescing bursts of events
// so consecutive refreshes are at least a second apart.
func (a *Aggregator) feedLoop(ctx context.Context) {
	events, cancel := a.feed.Subscribe()
	defer cancel()
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-events:
			if !ok {
				return
			}
			timer := time.NewTimer(coalesceWindow)
		drain:
			for {
				select {
				case <-ctx.Done():
					timer.Stop()
					return
				case <-events:
					// absorbed into the pending refresh
				case <-timer.C:
					break drain
				}
			}
			a.Refresh(ctx)
		}
	}
}

func (a *Aggregator) reapLoop(ctx context.Context) {
	ticker := time.NewTicker(reapInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.Reap(ctx)
		}
	}
}

// Refresh collects from all sources concurrently and replaces the
// visible list. A refresh that was overtaken by a newer one discards
// its result, so a stale collection can never clobber fresher data.
func (a *Aggregator) Refresh(ctx context.Context) {
	a.mu.Lock()
	a.generation++
	gen := a.generation
	sources := make([]Source, len(a.sources))
	copy(sources, a.sources)
	a.mu.Unlock()

	now := a.now()
	results := make([][]Notification, len(sources))
	var wg sync.WaitGroup
	for i, src := range sources {
		wg.Add(1)
		go func(i int, src Source) {
			defer wg.Done()
			ns, err := src.Collect(ctx, now)
			if err != nil {
				log.Printf("notify: collecting %v: %s", src.Kinds(), err)
				return
			}
			results[i] = ns
		}(i, src)
	}
	wg.Wait()

	var merged []Notification
	for _, ns := range results {
		merged = append(merged, ns...)
	}
	Sort(merged)

	a.mu.Lock()
	if gen != a.generation {
		a.mu.Unlock()
		return
	}
	visible := merged[:0:0]
	for _, n := range merged {
		if a.dismissals.Visible(n.ID, now) {
			visible = append(visible, n)
		}
	}
	a.visible = visible

	var toPush []Notification
	for _, n := range visible {
		if n.Priority != PriorityHigh && n.Kind != KindSurpriseUnlockable {
			continue
		}
		if a.pushed[n.ID] {
			continue
		}
		a.pushed[n.ID] = true
		toPush = append(toPush, n)
	}
	a.mu.Unlock()

	for _, n := range toPush {
		go a.push(n)
	}
	a.notifyListeners()
}

func (a *Aggregator) push(n Notification) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.pusher.Send(ctx, n); err != nil {
		log.Printf("notify: pushing %s: %s", n.ID, err)
	}
}

// MarkSeenTemporarily snoozes a visible notification for ten minutes.
func (a *Aggregator) MarkSeenTemporarily(id string) error {
	n, err := a.lookup(id)
	if err != nil {
		return err
	}
	a.dismissals.Snooze(id, n.Kind, a.now().Add(snoozeDuration))
	a.removeVisible(id)
	a.notifyListeners()
	return nil
}

// MarkSeenPermanently dismisses a visible notification for good.
func (a *Aggregator) MarkSeenPermanently(id string) error {
	n, err := a.lookup(id)
	if err != nil {
		return err
	}
	a.dismissals.MarkSeen(id, n.Kind)
	a.removeVisible(id)
	a.notifyListeners()
	return nil
}

func (a *Aggregator) lookup(id string) (Notification, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, n := range a.visible {
		if n.ID == id {
			return n, nil
		}
	}
	return Notification{}, ErrUnknownNotification
}

func (a *Aggregator) removeVisible(id string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for i, n := range a.visible {
		if n.ID == id {
			a.visible = append(a.visible[:i], a.visible[i+1:]...)
			return
		}
	}
}

func (a *Aggregator) notifyListeners() {
	a.mu.Lock()
	listeners := make([]func([]Notification), len(a.listeners))
	copy(listeners, a.listeners)
	snapshot := make([]Notification, len(a.visible))
	copy(snapshot, a.visible)
	a.mu.Unlock()

	for _, fn := range listeners {
		fn(snapshot)
	}
}

// Reap walks expired snoozes and asks the owning source whether the
// underlying condition still holds. If it does not, the snooze becomes
// a permanent dismissal; if it does, the notification simply shows
// again on the next refresh.
func (a *Aggregator) Reap(ctx context.Context) {
	now := a.now()
	for _, d := range a.dismissals.ExpiredSnoozes(now) {
		a.mu.Lock()
		src := a.byKind[Kind(d.Kind)]
		a.mu.Unlock()
		if src == nil {
			continue
		}
		applies, err := src.StillApplies(ctx, Notification{ID: d.ID, Kind: Kind(d.Kind)}, now)
		if err != nil {
			log.Printf("notify: re-checking %s: %s", d.ID, err)
			continue
		}
		if !applies {
			a.dismissals.Promote(d.ID)
		}
	}
}
