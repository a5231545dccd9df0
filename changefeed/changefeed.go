// Package changefeed provides an in-process publish/subscribe channel
// for table change events. Storage code publishes an event after every
// successful write; subscribers get told which table changed and
// nothing more, they are expected to refetch.
package changefeed

import "sync"

// Table identifies a logical collection.
type Table string

const (
	TableTracks        Table = "tracks"
	TablePets          Table = "pets"
	TablePetTasks      Table = "pet_tasks"
	TableHealthRecords Table = "health_records"
	TablePlans         Table = "plans"
	TableSurprises     Table = "surprises"
	TableMessages      Table = "messages"
	TablePlaces        Table = "places"
	TableRecipes       Table = "recipes"
	TableMovies        Table = "movies"
	TableGoals         Table = "goals"
	TableDreams        Table = "dreams"
	TableMemories      Table = "memories"
)

// Op is the kind of change that happened.
type Op string

const (
	OpInsert Op = "insert"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
)

// Event reports that something changed in a table. There is no row
// payload, matching the at-least-once "something changed" contract.
type Event struct {
	Table Table `json:"table"`
	Op    Op    `json:"op"`
}

// Feed fans change events out to subscribers.
type Feed struct {
	mu   sync.Mutex
	subs map[int]chan Event
	next int
}

// New creates an empty feed.
func New() *Feed {
	return &Feed{
		subs: make(map[int]chan Event),
	}
}

// Subscribe registers a new subscriber. The returned cancel func must
// be called when the subscriber goes away, it closes the channel.
func (f *Feed) Subscribe() (<-chan Event, func()) {
	f.mu.Lock()
	defer f.mu.Unlock()

	id := f.next
	f.next++
	ch := make(chan Event, 32)
	f.subs[id] = ch

	cancel := func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		if c, ok := f.subs[id]; ok {
			delete(f.subs, id)
			close(c)
		}
	}
	return ch, cancel
}

// Publish delivers an event to all subscribers. A slow subscriber with
// a full buffer misses the event rather than blocking the writer;
// subscribers treat events as refetch hints, not as a reliable log.
func (f *Feed) Publish(e Event) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, ch := range f.subs {
		select {
		case ch <- e:
		default:
		}
	}
}
