package notify

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/amora-app/amora-server/database"
	"github.com/amora-app/amora-server/database/model"
)

// DismissalSchemaVersion is stored with every record. Records written
// under a different version are ignored, so a future change to id
// derivation cannot resurrect or mask the wrong notifications.
const DismissalSchemaVersion = 1

// Dismissal statuses.
const (
	StatusNew     = "new"
	StatusSnoozed = "snoozed"
	StatusSeen    = "seen"
)

// DismissalStore keeps snooze/seen state per notification id. State is
// held in memory and written through to the repository; if persistence
// fails the store degrades to memory-only for the rest of the session.
type DismissalStore struct {
	mu      sync.Mutex
	repo    database.DismissalRepo
	persist bool
	entries map[string]model.Dismissal
}

// NewDismissalStore loads persisted records. A nil repo or a failing
// load yields a working in-memory store.
func NewDismissalStore(ctx context.Context, repo database.DismissalRepo) *DismissalStore {
	s := &DismissalStore{
		repo:    repo,
		persist: repo != nil,
		entries: make(map[string]model.Dismissal),
	}
	if repo == nil {
		return s
	}
	records, err := repo.LoadDismissals(ctx)
	if err != nil {
		log.Printf("notify: loading dismissals: %s, continuing in-memory only", err)
		s.persist = false
		return s
	}
	for _, d := range records {
		if d.Version != DismissalSchemaVersion {
			continue
		}
		s.entries[d.ID] = d
	}
	return s
}

// Visible reports whether a notification with this id may be shown: no
// record, status new, or an expired snooze. Seen is forever.
func (s *DismissalStore) Visible(id string, now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.entries[id]
	if !ok {
		return true
	}
	switch d.Status {
	case StatusSeen:
		return false
	case StatusSnoozed:
		return !now.Before(d.SnoozeUntil)
	}
	return true
}

// Snooze suppresses the notification until the given time.
func (s *DismissalStore) Snooze(id string, kind Kind, until time.Time) {
	s.put(model.Dismissal{
		ID:          id,
		Version:     DismissalSchemaVersion,
		Kind:        string(kind),
		Status:      StatusSnoozed,
		SnoozeUntil: until,
		Updated:     time.Now().UTC(),
	})
}

// MarkSeen suppresses the notification permanently.
func (s *DismissalStore) MarkSeen(id string, kind Kind) {
	s.put(model.Dismissal{
		ID:      id,
		Version: DismissalSchemaVersion,
		Kind:    string(kind),
		Status:  StatusSeen,
		Updated: time.Now().UTC(),
	})
}

// Promote turns an expired snooze into a permanent dismissal. Used by
// the reaper when the underlying condition no longer holds.
func (s *DismissalStore) Promote(id string) {
	s.mu.Lock()
	d, ok := s.entries[id]
	s.mu.Unlock()
	if !ok || d.Status != StatusSnoozed {
		return
	}
	d.Status = StatusSeen
	d.SnoozeUntil = time.Time{}
	d.Updated = time.Now().UTC()
	s.put(d)
}

// ExpiredSnoozes returns all snoozed records whose window has passed.
func (s *DismissalStore) ExpiredSnoozes(now time.Time) []model.Dismissal {
	s.mu.Lock()
	defer s.mu.Unlock()

	var expired []model.Dismissal
	for _, d := range s.entries {
		if d.Status == StatusSnoozed && !now.Before(d.SnoozeUntil) {
			expired = append(expired, d)
		}
	}
	return expired
}

func (s *DismissalStore) put(d model.Dismissal) {
	s.mu.Lock()
	s.entries[d.ID] = d
	doPersist := s.persist
	s.mu.Unlock()

	if !doPersist {
		return
	}
	if err := s.repo.SaveDismissal(context.Background(), d); err != nil {
		log.Printf("notify: persisting dismissal %s: %s, continuing in-memory only", d.ID, err)
		s.mu.Lock()
		s.persist = false
		s.mu.Unlock()
	}
}
