package notify

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amora-app/amora-server/database/model"
)

type fakeSurpriseRepo struct {
	surprises []model.Surprise
}

func (r *fakeSurpriseRepo) ListSurprises(ctx context.Context) ([]model.Surprise, error) {
	return r.surprises, nil
}

func (r *fakeSurpriseRepo) GetSurprise(ctx context.Context, id string) (*model.Surprise, error) {
	for i := range r.surprises {
		if r.surprises[i].ID == id {
			return &r.surprises[i], nil
		}
	}
	return nil, model.ErrNotFound
}

func (r *fakeSurpriseRepo) InsertSurprise(ctx context.Context, s *model.Surprise) error { return nil }
func (r *fakeSurpriseRepo) UpdateSurprise(ctx context.Context, s *model.Surprise) error { return nil }
func (r *fakeSurpriseRepo) DeleteSurprise(ctx context.Context, id string) error         { return nil }

func (r *fakeSurpriseRepo) MarkUnlocked(ctx context.Context, id string, at time.Time) error {
	for i := range r.surprises {
		if r.surprises[i].ID == id {
			r.surprises[i].Unlocked = true
			r.surprises[i].UnlockedAt = at
			return nil
		}
	}
	return model.ErrNotFound
}

func TestSurpriseSourceSummaries(t *testing.T) {
	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	repo := &fakeSurpriseRepo{surprises: []model.Surprise{
		{
			ID: "free-1", Title: "A letter for you",
			UnlockType: model.UnlockFree,
			Created:    now.Add(-48 * time.Hour),
		},
		{
			ID: "date-1", Title: "Anniversary gift",
			UnlockType: model.UnlockDate,
			UnlockAt:   now.Add(3 * 24 * time.Hour),
			Created:    now.Add(-24 * time.Hour),
		},
	}}
	src := NewSurpriseSource(repo)

	ns, err := src.Collect(context.Background(), now)
	require.NoError(t, err)
	require.Len(t, ns, 2, "exactly one summary per partition")

	var unlockable, upcoming *Notification
	for i := range ns {
		switch ns[i].Kind {
		case KindSurpriseUnlockable:
			unlockable = &ns[i]
		case KindSurpriseUpcoming:
			upcoming = &ns[i]
		}
	}
	require.NotNil(t, unlockable)
	require.NotNil(t, upcoming)

	assert.Equal(t, "1 surprise(s) ready to unlock", unlockable.Title)
	assert.Contains(t, unlockable.Description, "A letter for you")
	assert.Equal(t, PriorityHigh, unlockable.Priority)
	assert.Equal(t, NewID(KindSurpriseUnlockable, "free-1"), unlockable.ID)

	assert.Contains(t, upcoming.Description, "Anniversary gift")
	assert.Contains(t, upcoming.Description, "in 3 days")
	assert.Equal(t, PriorityMedium, upcoming.Priority)
	assert.Equal(t, NewID(KindSurpriseUpcoming, "date-1"), upcoming.ID)
}

func TestSurpriseSourceIgnoresUnlockedAndFarFuture(t *testing.T) {
	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	repo := &fakeSurpriseRepo{surprises: []model.Surprise{
		{ID: "done", UnlockType: model.UnlockFree, Unlocked: true},
		{
			ID: "far", UnlockType: model.UnlockDate,
			UnlockAt: now.Add(30 * 24 * time.Hour),
		},
	}}
	src := NewSurpriseSource(repo)

	ns, err := src.Collect(context.Background(), now)
	require.NoError(t, err)
	assert.Empty(t, ns)
}

func TestSurpriseSequentialGate(t *testing.T) {
	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	repo := &fakeSurpriseRepo{surprises: []model.Surprise{
		{ID: "first", UnlockType: model.UnlockFree},
		{ID: "second", UnlockType: model.UnlockSequential, DependsOn: "first"},
	}}
	src := NewSurpriseSource(repo)

	// only "first" is unlockable while its dependency chain is locked
	ns, err := src.Collect(context.Background(), now)
	require.NoError(t, err)
	require.Len(t, ns, 1)
	assert.Equal(t, "1 surprise(s) ready to unlock", ns[0].Title)

	require.NoError(t, repo.MarkUnlocked(context.Background(), "first", now))
	ns, err = src.Collect(context.Background(), now)
	require.NoError(t, err)
	require.Len(t, ns, 1)
	assert.Equal(t, NewID(KindSurpriseUnlockable, "second"), ns[0].ID)
}

func TestSurpriseStillAppliesTracksUnlock(t *testing.T) {
	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	repo := &fakeSurpriseRepo{surprises: []model.Surprise{
		{ID: "free-1", UnlockType: model.UnlockFree},
	}}
	src := NewSurpriseSource(repo)

	n := Notification{
		ID:   NewID(KindSurpriseUnlockable, "free-1"),
		Kind: KindSurpriseUnlockable,
	}
	applies, err := src.StillApplies(context.Background(), n, now)
	require.NoError(t, err)
	assert.True(t, applies)

	require.NoError(t, repo.MarkUnlocked(context.Background(), "free-1", now))
	applies, err = src.StillApplies(context.Background(), n, now)
	require.NoError(t, err)
	assert.False(t, applies)
}
