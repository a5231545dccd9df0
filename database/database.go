package database

import (
	"context"
	"time"

	"github.com/amora-app/amora-server/changefeed"
	"github.com/amora-app/amora-server/database/model"
	"github.com/amora-app/amora-server/database/sqlite"
)

type (
	Options struct {
		// Filename of the sqlite database.
		Filename string
		// Feed receives an event after every successful write.
		Feed *changefeed.Feed
	}

	// Repository bundles the per-collection repositories. All of them
	// are currently served by a single sqlite store.
	Repository struct {
		Tracks        TrackRepo
		Pets          PetRepo
		PetTasks      PetTaskRepo
		HealthRecords HealthRecordRepo
		Plans         PlanRepo
		Surprises     SurpriseRepo
		Messages      MessageRepo
		Places        PlaceRepo
		Recipes       RecipeRepo
		Movies        MovieRepo
		Goals         GoalRepo
		Dreams        DreamRepo
		Memories      MemoryRepo
		Dismissals    DismissalRepo
		PlayerState   PlayerStateRepo

		store *sqlite.SqliteRepo
	}

	// TrackRepo provides access to the shared playlist.
	TrackRepo interface {
		ListTracks(ctx context.Context) ([]model.Track, error)
		GetTrack(ctx context.Context, id string) (*model.Track, error)
		InsertTrack(ctx context.Context, t *model.Track) error
		UpdateTrack(ctx context.Context, t *model.Track) error
		DeleteTrack(ctx context.Context, id string) error
		// IncrementPlayCount adds one full natural playback completion.
		IncrementPlayCount(ctx context.Context, id string) error
	}

	PetRepo interface {
		ListPets(ctx context.Context) ([]model.Pet, error)
		GetPet(ctx context.Context, id string) (*model.Pet, error)
		InsertPet(ctx context.Context, p *model.Pet) error
		UpdatePet(ctx context.Context, p *model.Pet) error
		DeletePet(ctx context.Context, id string) error
	}

	PetTaskRepo interface {
		// ListPetTasks returns all tasks ordered by due date.
		ListPetTasks(ctx context.Context) ([]model.PetTask, error)
		GetPetTask(ctx context.Context, id string) (*model.PetTask, error)
		InsertPetTask(ctx context.Context, t *model.PetTask) error
		UpdatePetTask(ctx context.Context, t *model.PetTask) error
		DeletePetTask(ctx context.Context, id string) error
	}

	HealthRecordRepo interface {
		// ListHealthRecords returns all records ordered by due date.
		ListHealthRecords(ctx context.Context) ([]model.HealthRecord, error)
		GetHealthRecord(ctx context.Context, id string) (*model.HealthRecord, error)
		InsertHealthRecord(ctx context.Context, r *model.HealthRecord) error
		UpdateHealthRecord(ctx context.Context, r *model.HealthRecord) error
		DeleteHealthRecord(ctx context.Context, id string) error
	}

	PlanRepo interface {
		// ListPlans returns all plans ordered by date.
		ListPlans(ctx context.Context) ([]model.Plan, error)
		GetPlan(ctx context.Context, id string) (*model.Plan, error)
		InsertPlan(ctx context.Context, p *model.Plan) error
		UpdatePlan(ctx context.Context, p *model.Plan) error
		DeletePlan(ctx context.Context, id string) error
	}

	SurpriseRepo interface {
		ListSurprises(ctx context.Context) ([]model.Surprise, error)
		GetSurprise(ctx context.Context, id string) (*model.Surprise, error)
		InsertSurprise(ctx context.Context, s *model.Surprise) error
		UpdateSurprise(ctx context.Context, s *model.Surprise) error
		DeleteSurprise(ctx context.Context, id string) error
		// MarkUnlocked flips the surprise to unlocked at the given time.
		MarkUnlocked(ctx context.Context, id string, at time.Time) error
	}

	MessageRepo interface {
		// ListMessages returns all messages, newest first.
		ListMessages(ctx context.Context) ([]model.Message, error)
		GetMessage(ctx context.Context, id string) (*model.Message, error)
		InsertMessage(ctx context.Context, m *model.Message) error
		UpdateMessage(ctx context.Context, m *model.Message) error
		DeleteMessage(ctx context.Context, id string) error
	}

	PlaceRepo interface {
		ListPlaces(ctx context.Context) ([]model.Place, error)
		GetPlace(ctx context.Context, id string) (*model.Place, error)
		InsertPlace(ctx context.Context, p *model.Place) error
		UpdatePlace(ctx context.Context, p *model.Place) error
		DeletePlace(ctx context.Context, id string) error
	}

	RecipeRepo interface {
		ListRecipes(ctx context.Context) ([]model.Recipe, error)
		GetRecipe(ctx context.Context, id string) (*model.Recipe, error)
		InsertRecipe(ctx context.Context, r *model.Recipe) error
		UpdateRecipe(ctx context.Context, r *model.Recipe) error
		DeleteRecipe(ctx context.Context, id string) error
	}

	MovieRepo interface {
		ListMovies(ctx context.Context) ([]model.Movie, error)
		GetMovie(ctx context.Context, id string) (*model.Movie, error)
		InsertMovie(ctx context.Context, m *model.Movie) error
		UpdateMovie(ctx context.Context, m *model.Movie) error
		DeleteMovie(ctx context.Context, id string) error
	}

	GoalRepo interface {
		ListGoals(ctx context.Context) ([]model.Goal, error)
		GetGoal(ctx context.Context, id string) (*model.Goal, error)
		InsertGoal(ctx context.Context, g *model.Goal) error
		UpdateGoal(ctx context.Context, g *model.Goal) error
		DeleteGoal(ctx context.Context, id string) error
	}

	DreamRepo interface {
		ListDreams(ctx context.Context) ([]model.Dream, error)
		GetDream(ctx context.Context, id string) (*model.Dream, error)
		InsertDream(ctx context.Context, d *model.Dream) error
		UpdateDream(ctx context.Context, d *model.Dream) error
		DeleteDream(ctx context.Context, id string) error
	}

	MemoryRepo interface {
		// ListMemories returns the timeline, newest happening first.
		ListMemories(ctx context.Context) ([]model.Memory, error)
		GetMemory(ctx context.Context, id string) (*model.Memory, error)
		InsertMemory(ctx context.Context, m *model.Memory) error
		UpdateMemory(ctx context.Context, m *model.Memory) error
		DeleteMemory(ctx context.Context, id string) error
	}

	// DismissalRepo persists notification snooze/seen records.
	DismissalRepo interface {
		LoadDismissals(ctx context.Context) ([]model.Dismissal, error)
		SaveDismissal(ctx context.Context, d model.Dismissal) error
	}

	// PlayerStateRepo stores the shared player session snapshot. Writes
	// land in memory and are synced to the database by a background job.
	PlayerStateRepo interface {
		GetPlayerState(ctx context.Context) (*model.PlayerState, error)
		UpdatePlayerState(state model.PlayerState)
	}
)

// New opens the sqlite store and wires it into a Repository.
func New(o *Options) (*Repository, error) {
	if o == nil || o.Filename == "" {
		return nil, model.ErrNoConfiguration
	}
	s, err := sqlite.New(&sqlite.Options{
		Filename: o.Filename,
		Feed:     o.Feed,
	})
	if err != nil {
		return nil, err
	}
	return &Repository{
		Tracks:        s,
		Pets:          s,
		PetTasks:      s,
		HealthRecords: s,
		Plans:         s,
		Surprises:     s,
		Messages:      s,
		Places:        s,
		Recipes:       s,
		Movies:        s,
		Goals:         s,
		Dreams:        s,
		Memories:      s,
		Dismissals:    s,
		PlayerState:   s,
		store:         s,
	}, nil
}

// StartBackgroundJobs starts the periodic sync of in-memory state to
// the database. The jobs stop when ctx is cancelled.
func (r *Repository) StartBackgroundJobs(ctx context.Context) {
	r.store.StartBackgroundJobs(ctx)
}
