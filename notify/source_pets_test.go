package notify

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amora-app/amora-server/database/model"
)

type fakePetTaskRepo struct {
	tasks []model.PetTask
}

func (r *fakePetTaskRepo) ListPetTasks(ctx context.Context) ([]model.PetTask, error) {
	return r.tasks, nil
}

func (r *fakePetTaskRepo) GetPetTask(ctx context.Context, id string) (*model.PetTask, error) {
	return nil, model.ErrNotFound
}

func (r *fakePetTaskRepo) InsertPetTask(ctx context.Context, t *model.PetTask) error { return nil }
func (r *fakePetTaskRepo) UpdatePetTask(ctx context.Context, t *model.PetTask) error { return nil }
func (r *fakePetTaskRepo) DeletePetTask(ctx context.Context, id string) error        { return nil }

func TestPetTaskSourceWindowAndPriority(t *testing.T) {
	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	repo := &fakePetTaskRepo{tasks: []model.PetTask{
		{ID: "overdue", Title: "Flea treatment", Due: now.Add(-2 * time.Hour)},
		{ID: "soon", Title: "Evening walk", Due: now.Add(6 * time.Hour)},
		{ID: "far", Title: "Vet visit", Due: now.Add(48 * time.Hour)},
		{ID: "done", Title: "Feed", Due: now.Add(time.Hour), Done: true},
	}}
	src := NewPetTaskSource(repo)

	ns, err := src.Collect(context.Background(), now)
	require.NoError(t, err)
	require.Len(t, ns, 2)

	byID := map[string]Notification{}
	for _, n := range ns {
		byID[n.ID] = n
	}
	overdue := byID[NewID(KindPetTaskDue, "overdue")]
	assert.Equal(t, PriorityHigh, overdue.Priority)
	assert.Equal(t, "Flea treatment", overdue.Title)

	soon := byID[NewID(KindPetTaskDue, "soon")]
	assert.Equal(t, PriorityMedium, soon.Priority)
}

func TestPetTaskStillAppliesAfterCompletion(t *testing.T) {
	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	repo := &fakePetTaskRepo{tasks: []model.PetTask{
		{ID: "walk", Title: "Walk", Due: now.Add(time.Hour)},
	}}
	src := NewPetTaskSource(repo)

	n := Notification{ID: NewID(KindPetTaskDue, "walk"), Kind: KindPetTaskDue}
	applies, err := src.StillApplies(context.Background(), n, now)
	require.NoError(t, err)
	assert.True(t, applies)

	repo.tasks[0].Done = true
	applies, err = src.StillApplies(context.Background(), n, now)
	require.NoError(t, err)
	assert.False(t, applies)
}

func TestMealForHour(t *testing.T) {
	assert.Equal(t, model.MealBreakfast, mealForHour(8))
	assert.Equal(t, model.MealLunch, mealForHour(12))
	assert.Equal(t, model.MealDinner, mealForHour(19))
	assert.Equal(t, model.MealSnack, mealForHour(23))
	assert.Equal(t, model.MealSnack, mealForHour(3))
	assert.Equal(t, model.MealSnack, mealForHour(16))
}
