package notify

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amora-app/amora-server/database/model"
)

type fakeDismissalRepo struct {
	mu       sync.Mutex
	records  map[string]model.Dismissal
	loadErr  error
	saveErr  error
	saveSeen int
}

func newFakeDismissalRepo() *fakeDismissalRepo {
	return &fakeDismissalRepo{records: make(map[string]model.Dismissal)}
}

func (r *fakeDismissalRepo) LoadDismissals(ctx context.Context) ([]model.Dismissal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.loadErr != nil {
		return nil, r.loadErr
	}
	var out []model.Dismissal
	for _, d := range r.records {
		out = append(out, d)
	}
	return out, nil
}

func (r *fakeDismissalRepo) SaveDismissal(ctx context.Context, d model.Dismissal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saveSeen++
	if r.saveErr != nil {
		return r.saveErr
	}
	r.records[d.ID] = d
	return nil
}

func TestVisibleTruthTable(t *testing.T) {
	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	s := NewDismissalStore(context.Background(), nil)

	// no record at all
	assert.True(t, s.Visible("unknown", now))

	s.Snooze("snoozed-active", KindPlanUpcoming, now.Add(10*time.Minute))
	assert.False(t, s.Visible("snoozed-active", now))
	assert.False(t, s.Visible("snoozed-active", now.Add(10*time.Minute-time.Second)))
	// reappears exactly at the boundary
	assert.True(t, s.Visible("snoozed-active", now.Add(10*time.Minute)))
	assert.True(t, s.Visible("snoozed-active", now.Add(time.Hour)))

	s.MarkSeen("seen-forever", KindPlanUpcoming)
	assert.False(t, s.Visible("seen-forever", now))
	assert.False(t, s.Visible("seen-forever", now.Add(1000*time.Hour)))
}

func TestLoadSkipsVersionMismatch(t *testing.T) {
	repo := newFakeDismissalRepo()
	repo.records["current"] = model.Dismissal{
		ID: "current", Version: DismissalSchemaVersion, Status: StatusSeen,
	}
	repo.records["stale"] = model.Dismissal{
		ID: "stale", Version: DismissalSchemaVersion + 1, Status: StatusSeen,
	}

	s := NewDismissalStore(context.Background(), repo)
	now := time.Now()
	assert.False(t, s.Visible("current", now))
	assert.True(t, s.Visible("stale", now), "records from another schema version are ignored")
}

func TestLoadFailureDegradesToMemory(t *testing.T) {
	repo := newFakeDismissalRepo()
	repo.loadErr = errors.New("disk on fire")

	s := NewDismissalStore(context.Background(), repo)
	s.MarkSeen("n1", KindMessagesUnread)

	assert.False(t, s.Visible("n1", time.Now()))
	assert.Equal(t, 0, repo.saveSeen, "degraded store must not hit the repo")
}

func TestSaveFailureDegradesToMemory(t *testing.T) {
	repo := newFakeDismissalRepo()
	repo.saveErr = errors.New("database locked")

	s := NewDismissalStore(context.Background(), repo)
	s.MarkSeen("n1", KindMessagesUnread)
	s.MarkSeen("n2", KindMessagesUnread)

	// both dismissals hold in memory, only the first save was attempted
	assert.False(t, s.Visible("n1", time.Now()))
	assert.False(t, s.Visible("n2", time.Now()))
	assert.Equal(t, 1, repo.saveSeen)
}

func TestPersistedDismissalsSurviveReload(t *testing.T) {
	repo := newFakeDismissalRepo()

	s1 := NewDismissalStore(context.Background(), repo)
	s1.MarkSeen("n1", KindGoalDeadline)

	s2 := NewDismissalStore(context.Background(), repo)
	assert.False(t, s2.Visible("n1", time.Now()))
}

func TestPromoteOnlyAffectsSnoozed(t *testing.T) {
	now := time.Now()
	s := NewDismissalStore(context.Background(), nil)

	s.Snooze("snoozed", KindPetTaskDue, now.Add(-time.Minute))
	s.Promote("snoozed")
	assert.False(t, s.Visible("snoozed", now.Add(time.Hour)), "promoted snooze is seen forever")

	// promoting something unknown does nothing
	s.Promote("unknown")
	assert.True(t, s.Visible("unknown", now))
}

func TestExpiredSnoozes(t *testing.T) {
	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	s := NewDismissalStore(context.Background(), nil)

	s.Snooze("expired", KindPetTaskDue, now.Add(-time.Minute))
	s.Snooze("active", KindPetTaskDue, now.Add(time.Minute))
	s.MarkSeen("seen", KindPetTaskDue)

	expired := s.ExpiredSnoozes(now)
	require.Len(t, expired, 1)
	assert.Equal(t, "expired", expired[0].ID)
	assert.Equal(t, string(KindPetTaskDue), expired[0].Kind)
}
