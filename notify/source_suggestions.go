package notify

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/amora-app/amora-server/database"
	"github.com/amora-app/amora-server/database/model"
)

// mealForHour buckets the current hour into a meal.
func mealForHour(hour int) string {
	switch {
	case hour >= 6 && hour < 11:
		return model.MealBreakfast
	case hour >= 11 && hour < 16:
		return model.MealLunch
	case hour >= 17 && hour < 22:
		return model.MealDinner
	default:
		return model.MealSnack
	}
}

// RecipeSource suggests one untried recipe matching the meal
// appropriate to the time of day.
type RecipeSource struct {
	repo database.RecipeRepo
	mu   sync.Mutex
	rng  *rand.Rand
}

func NewRecipeSource(repo database.RecipeRepo, rng *rand.Rand) *RecipeSource {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &RecipeSource{repo: repo, rng: rng}
}

func (s *RecipeSource) Kinds() []Kind {
	return []Kind{KindRecipeSuggestion}
}

func (s *RecipeSource) Collect(ctx context.Context, now time.Time) ([]Notification, error) {
	recipes, err := s.repo.ListRecipes(ctx)
	if err != nil {
		return nil, err
	}
	meal := mealForHour(now.Hour())
	var candidates []model.Recipe
	for _, r := range recipes {
		if !r.Tried && r.Meal == meal {
			candidates = append(candidates, r)
		}
	}
	if len(candidates) == 0 {
		return nil, nil
	}
	s.mu.Lock()
	r := candidates[s.rng.Intn(len(candidates))]
	s.mu.Unlock()
	return []Notification{{
		ID:          NewID(KindRecipeSuggestion, r.ID+"/"+meal),
		Kind:        KindRecipeSuggestion,
		Title:       "How about " + r.Title + "?",
		Description: "A " + meal + " idea you two have not tried yet",
		When:        now,
		Priority:    PriorityLow,
	}}, nil
}

// StillApplies is always false: the suggestion rotates, an expired
// snooze on it is simply retired.
func (s *RecipeSource) StillApplies(ctx context.Context, n Notification, now time.Time) (bool, error) {
	return false, nil
}

// MovieSource suggests one unwatched movie or series from the shared
// watchlist.
type MovieSource struct {
	repo database.MovieRepo
	mu   sync.Mutex
	rng  *rand.Rand
}

func NewMovieSource(repo database.MovieRepo, rng *rand.Rand) *MovieSource {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &MovieSource{repo: repo, rng: rng}
}

func (s *MovieSource) Kinds() []Kind {
	return []Kind{KindMovieSuggestion}
}

func (s *MovieSource) Collect(ctx context.Context, now time.Time) ([]Notification, error) {
	movies, err := s.repo.ListMovies(ctx)
	if err != nil {
		return nil, err
	}
	var candidates []model.Movie
	for _, m := range movies {
		if !m.Watched {
			candidates = append(candidates, m)
		}
	}
	if len(candidates) == 0 {
		return nil, nil
	}
	s.mu.Lock()
	m := candidates[s.rng.Intn(len(candidates))]
	s.mu.Unlock()
	return []Notification{{
		ID:          NewID(KindMovieSuggestion, m.ID),
		Kind:        KindMovieSuggestion,
		Title:       "Movie night? " + m.Title,
		Description: "Still unwatched on your list",
		When:        now,
		Priority:    PriorityLow,
	}}, nil
}

func (s *MovieSource) StillApplies(ctx context.Context, n Notification, now time.Time) (bool, error) {
	return false, nil
}
