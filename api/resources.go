package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"golang.org/x/crypto/bcrypt"

	"github.com/amora-app/amora-server/database/model"
)

// resource adapts one collection's typed repository to the uniform
// CRUD endpoints.
type resource struct {
	list   func(ctx context.Context) (any, error)
	get    func(ctx context.Context, id string) (any, error)
	create func(ctx context.Context, r *http.Request) (any, error)
	update func(ctx context.Context, id string, r *http.Request) (any, error)
	remove func(ctx context.Context, id string) error
}

// newResource builds the CRUD closures for a row type. onCreate fills
// in server-side fields (id, created timestamp) on new rows; onUpdate
// forces the row id to the one from the URL.
func newResource[T any](
	list func(context.Context) ([]T, error),
	get func(context.Context, string) (*T, error),
	insert func(context.Context, *T) error,
	update func(context.Context, *T) error,
	remove func(context.Context, string) error,
	onCreate func(*T),
	onUpdate func(*T, string),
) resource {
	return resource{
		list: func(ctx context.Context) (any, error) {
			rows, err := list(ctx)
			if err != nil {
				return nil, err
			}
			if rows == nil {
				rows = []T{}
			}
			return rows, nil
		},
		get: func(ctx context.Context, id string) (any, error) {
			return get(ctx, id)
		},
		create: func(ctx context.Context, r *http.Request) (any, error) {
			var row T
			if err := json.NewDecoder(r.Body).Decode(&row); err != nil {
				return nil, errBadRequest(err)
			}
			onCreate(&row)
			if err := insert(ctx, &row); err != nil {
				return nil, err
			}
			return &row, nil
		},
		update: func(ctx context.Context, id string, r *http.Request) (any, error) {
			var row T
			if err := json.NewDecoder(r.Body).Decode(&row); err != nil {
				return nil, errBadRequest(err)
			}
			onUpdate(&row, id)
			if err := update(ctx, &row); err != nil {
				return nil, err
			}
			return &row, nil
		},
		remove: remove,
	}
}

type badRequestError struct{ err error }

func (e badRequestError) Error() string { return e.err.Error() }

func errBadRequest(err error) error { return badRequestError{err: err} }

func newRowID(id string) string {
	if id != "" {
		return id
	}
	return uuid.NewString()
}

func createdAt(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now().UTC()
	}
	return t
}

func (a *API) buildResources() map[string]resource {
	repo := a.repo
	return map[string]resource{
		"tracks": newResource(
			repo.Tracks.ListTracks, repo.Tracks.GetTrack,
			repo.Tracks.InsertTrack, repo.Tracks.UpdateTrack, repo.Tracks.DeleteTrack,
			func(t *model.Track) {
				t.ID = newRowID(t.ID)
				t.Created = createdAt(t.Created)
				t.PlayCount = 0
			},
			func(t *model.Track, id string) { t.ID = id },
		),
		"pets": newResource(
			repo.Pets.ListPets, repo.Pets.GetPet,
			repo.Pets.InsertPet, repo.Pets.UpdatePet, repo.Pets.DeletePet,
			func(p *model.Pet) {
				p.ID = newRowID(p.ID)
				p.Created = createdAt(p.Created)
			},
			func(p *model.Pet, id string) { p.ID = id },
		),
		"pettasks": newResource(
			repo.PetTasks.ListPetTasks, repo.PetTasks.GetPetTask,
			repo.PetTasks.InsertPetTask, repo.PetTasks.UpdatePetTask, repo.PetTasks.DeletePetTask,
			func(t *model.PetTask) {
				t.ID = newRowID(t.ID)
				t.Created = createdAt(t.Created)
			},
			func(t *model.PetTask, id string) { t.ID = id },
		),
		"healthrecords": newResource(
			repo.HealthRecords.ListHealthRecords, repo.HealthRecords.GetHealthRecord,
			repo.HealthRecords.InsertHealthRecord, repo.HealthRecords.UpdateHealthRecord, repo.HealthRecords.DeleteHealthRecord,
			func(r *model.HealthRecord) {
				r.ID = newRowID(r.ID)
				r.Created = createdAt(r.Created)
			},
			func(r *model.HealthRecord, id string) { r.ID = id },
		),
		"plans": newResource(
			repo.Plans.ListPlans, repo.Plans.GetPlan,
			repo.Plans.InsertPlan, repo.Plans.UpdatePlan, repo.Plans.DeletePlan,
			func(p *model.Plan) {
				p.ID = newRowID(p.ID)
				p.Created = createdAt(p.Created)
			},
			func(p *model.Plan, id string) { p.ID = id },
		),
		"surprises": a.surpriseResource(),
		"messages": newResource(
			repo.Messages.ListMessages, repo.Messages.GetMessage,
			repo.Messages.InsertMessage, repo.Messages.UpdateMessage, repo.Messages.DeleteMessage,
			func(m *model.Message) {
				m.ID = newRowID(m.ID)
				m.Created = createdAt(m.Created)
				m.Read = false
			},
			func(m *model.Message, id string) { m.ID = id },
		),
		"places": newResource(
			repo.Places.ListPlaces, repo.Places.GetPlace,
			repo.Places.InsertPlace, repo.Places.UpdatePlace, repo.Places.DeletePlace,
			func(p *model.Place) {
				p.ID = newRowID(p.ID)
				p.Created = createdAt(p.Created)
			},
			func(p *model.Place, id string) { p.ID = id },
		),
		"recipes": newResource(
			repo.Recipes.ListRecipes, repo.Recipes.GetRecipe,
			repo.Recipes.InsertRecipe, repo.Recipes.UpdateRecipe, repo.Recipes.DeleteRecipe,
			func(r *model.Recipe) {
				r.ID = newRowID(r.ID)
				r.Created = createdAt(r.Created)
			},
			func(r *model.Recipe, id string) { r.ID = id },
		),
		"movies": newResource(
			repo.Movies.ListMovies, repo.Movies.GetMovie,
			repo.Movies.InsertMovie, repo.Movies.UpdateMovie, repo.Movies.DeleteMovie,
			func(m *model.Movie) {
				m.ID = newRowID(m.ID)
				m.Created = createdAt(m.Created)
			},
			func(m *model.Movie, id string) { m.ID = id },
		),
		"goals": newResource(
			repo.Goals.ListGoals, repo.Goals.GetGoal,
			repo.Goals.InsertGoal, repo.Goals.UpdateGoal, repo.Goals.DeleteGoal,
			func(g *model.Goal) {
				g.ID = newRowID(g.ID)
				g.Created = createdAt(g.Created)
			},
			func(g *model.Goal, id string) { g.ID = id },
		),
		"dreams": newResource(
			repo.Dreams.ListDreams, repo.Dreams.GetDream,
			repo.Dreams.InsertDream, repo.Dreams.UpdateDream, repo.Dreams.DeleteDream,
			func(d *model.Dream) {
				d.ID = newRowID(d.ID)
				d.Created = createdAt(d.Created)
			},
			func(d *model.Dream, id string) { d.ID = id },
		),
		"memories": newResource(
			repo.Memories.ListMemories, repo.Memories.GetMemory,
			repo.Memories.InsertMemory, repo.Memories.UpdateMemory, repo.Memories.DeleteMemory,
			func(m *model.Memory) {
				m.ID = newRowID(m.ID)
				m.Created = createdAt(m.Created)
			},
			func(m *model.Memory, id string) { m.ID = id },
		),
	}
}

// surpriseCreate accepts a plaintext Key on creation; only the bcrypt
// hash is ever stored or returned.
type surpriseCreate struct {
	model.Surprise
	Key string `json:"key,omitempty"`
}

func (a *API) surpriseResource() resource {
	repo := a.repo.Surprises
	return resource{
		list: func(ctx context.Context) (any, error) {
			rows, err := repo.ListSurprises(ctx)
			if err != nil {
				return nil, err
			}
			if rows == nil {
				rows = []model.Surprise{}
			}
			return rows, nil
		},
		get: func(ctx context.Context, id string) (any, error) {
			return repo.GetSurprise(ctx, id)
		},
		create: func(ctx context.Context, r *http.Request) (any, error) {
			var in surpriseCreate
			if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
				return nil, errBadRequest(err)
			}
			sp := in.Surprise
			sp.ID = newRowID(sp.ID)
			sp.Created = createdAt(sp.Created)
			sp.Unlocked = false
			sp.UnlockedAt = time.Time{}
			if in.Key != "" {
				hash, err := bcrypt.GenerateFromPassword([]byte(in.Key), bcrypt.DefaultCost)
				if err != nil {
					return nil, err
				}
				sp.KeyHash = string(hash)
			}
			if err := repo.InsertSurprise(ctx, &sp); err != nil {
				return nil, err
			}
			return &sp, nil
		},
		update: func(ctx context.Context, id string, r *http.Request) (any, error) {
			var in surpriseCreate
			if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
				return nil, errBadRequest(err)
			}
			sp := in.Surprise
			sp.ID = id
			existing, err := repo.GetSurprise(ctx, id)
			if err != nil {
				return nil, err
			}
			// key hash and unlock state survive updates unless a new
			// key is supplied
			sp.KeyHash = existing.KeyHash
			sp.Unlocked = existing.Unlocked
			sp.UnlockedAt = existing.UnlockedAt
			if in.Key != "" {
				hash, err := bcrypt.GenerateFromPassword([]byte(in.Key), bcrypt.DefaultCost)
				if err != nil {
					return nil, err
				}
				sp.KeyHash = string(hash)
			}
			if err := repo.UpdateSurprise(ctx, &sp); err != nil {
				return nil, err
			}
			return &sp, nil
		},
		remove: func(ctx context.Context, id string) error {
			return repo.DeleteSurprise(ctx, id)
		},
	}
}

func (a *API) collectionHandler(w http.ResponseWriter, r *http.Request) {
	if preCheck(w, r, http.MethodGet, http.MethodHead, http.MethodPost) {
		return
	}
	res, ok := a.resources[mux.Vars(r)["collection"]]
	if !ok {
		http.Error(w, "404 Not Found", http.StatusNotFound)
		return
	}

	switch r.Method {
	case http.MethodPost:
		row, err := res.create(r.Context(), r)
		if err != nil {
			serveResourceError(w, err)
			return
		}
		w.WriteHeader(http.StatusCreated)
		serveJSON(row, w)
	default:
		rows, err := res.list(r.Context())
		if err != nil {
			serveResourceError(w, err)
			return
		}
		serveJSON(rows, w)
	}
}

func (a *API) itemHandler(w http.ResponseWriter, r *http.Request) {
	if preCheck(w, r, http.MethodGet, http.MethodHead, http.MethodPut, http.MethodDelete) {
		return
	}
	vars := mux.Vars(r)
	res, ok := a.resources[vars["collection"]]
	if !ok {
		http.Error(w, "404 Not Found", http.StatusNotFound)
		return
	}
	id := vars["id"]

	switch r.Method {
	case http.MethodPut:
		row, err := res.update(r.Context(), id, r)
		if err != nil {
			serveResourceError(w, err)
			return
		}
		serveJSON(row, w)
	case http.MethodDelete:
		if err := res.remove(r.Context(), id); err != nil {
			serveResourceError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		row, err := res.get(r.Context(), id)
		if err != nil {
			serveResourceError(w, err)
			return
		}
		serveJSON(row, w)
	}
}

func serveResourceError(w http.ResponseWriter, err error) {
	var bad badRequestError
	switch {
	case errors.Is(err, model.ErrNotFound):
		serveError(w, http.StatusNotFound, "not found")
	case errors.As(err, &bad):
		serveError(w, http.StatusBadRequest, bad.Error())
	default:
		serveError(w, http.StatusInternalServerError, err.Error())
	}
}
