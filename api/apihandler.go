// Package api exposes the HTTP surface: collection CRUD, player
// control, notifications, surprises, search, the change-feed event
// stream and resized images.
package api

import (
	"encoding/json"
	"net/http"
	"path"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/amora-app/amora-server/changefeed"
	"github.com/amora-app/amora-server/database"
	"github.com/amora-app/amora-server/imageresize"
	"github.com/amora-app/amora-server/notify"
	"github.com/amora-app/amora-server/player"
	"github.com/amora-app/amora-server/search"
)

type Options struct {
	Repo         *database.Repository
	Player       *player.Session
	Notifier     *notify.Aggregator
	Search       *search.Search
	Imageresizer *imageresize.Resizer
	Feed         *changefeed.Feed
	// Commands is the transport command stream consumed by the
	// audio-owning client.
	Commands *player.BroadcastTransport
	// Mediadir holds cover art and memory photos served under /img/.
	Mediadir string
}

type API struct {
	repo         *database.Repository
	player       *player.Session
	notifier     *notify.Aggregator
	search       *search.Search
	imageresizer *imageresize.Resizer
	feed         *changefeed.Feed
	commands     *player.BroadcastTransport
	mediadir     string
	resources    map[string]resource
}

func New(o *Options) *API {
	a := &API{
		repo:         o.Repo,
		player:       o.Player,
		notifier:     o.Notifier,
		search:       o.Search,
		imageresizer: o.Imageresizer,
		feed:         o.Feed,
		commands:     o.Commands,
		mediadir:     o.Mediadir,
	}
	a.resources = a.buildResources()
	return a
}

func (a *API) RegisterHandlers(r *mux.Router) {
	notFound := http.NotFoundHandler()
	gzip := handlers.CompressHandler

	r.HandleFunc("/health", a.healthHandler)

	r.Handle("/api", notFound)
	s := r.PathPrefix("/api/").Subrouter()

	s.HandleFunc("/player", a.playerHandler)
	s.HandleFunc("/player/playlist", a.playerPlaylistHandler)
	s.HandleFunc("/player/select/{track}", a.playerSelectHandler)
	s.HandleFunc("/player/toggle", a.playerToggleHandler)
	s.HandleFunc("/player/next", a.playerNextHandler)
	s.HandleFunc("/player/prev", a.playerPrevHandler)
	s.HandleFunc("/player/volume", a.playerVolumeHandler)
	s.HandleFunc("/player/seek", a.playerSeekHandler)
	s.HandleFunc("/player/shuffle", a.playerShuffleHandler)
	s.HandleFunc("/player/repeat", a.playerRepeatHandler)
	s.HandleFunc("/player/events", a.playerEventsHandler)

	s.HandleFunc("/notifications", a.notificationsHandler)
	s.HandleFunc("/notifications/{id}/snooze", a.notificationSnoozeHandler)
	s.HandleFunc("/notifications/{id}/seen", a.notificationSeenHandler)

	s.HandleFunc("/surprises/{id}/unlock", a.surpriseUnlockHandler)

	s.Handle("/search", gzip(http.HandlerFunc(a.searchHandler)))
	s.HandleFunc("/events", a.eventsHandler)

	s.Handle("/{collection}", gzip(http.HandlerFunc(a.collectionHandler)))
	s.Handle("/{collection}/{id}", gzip(http.HandlerFunc(a.itemHandler)))

	r.Handle("/img", notFound)
	r.PathPrefix("/img/").HandlerFunc(a.imageHandler)
}

func setheaders(h http.Header) {
	h.Set("Access-Control-Allow-Origin", "*")
	h.Set("Access-Control-Allow-Methods", "GET, HEAD, POST, PUT, DELETE, OPTIONS")
	h.Set("Access-Control-Allow-Headers", "Content-Type")
}

// preCheck handles CORS preflight and rejects unsupported methods.
// Returns true when the request is already answered.
func preCheck(w http.ResponseWriter, r *http.Request, methods ...string) (done bool) {
	setheaders(w.Header())
	if r.Method == http.MethodOptions {
		return true
	}
	for _, m := range methods {
		if r.Method == m {
			return false
		}
	}
	http.Error(w, "405 Method Not Allowed", http.StatusMethodNotAllowed)
	return true
}

func serveJSON(obj any, w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	j := json.NewEncoder(w)
	j.SetIndent("", "  ")
	j.Encode(obj)
}

func serveError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(errorResponse{Error: msg})
}

func (a *API) healthHandler(w http.ResponseWriter, r *http.Request) {
	serveJSON(map[string]string{"status": "ok"}, w)
}

func (a *API) searchHandler(w http.ResponseWriter, r *http.Request) {
	if preCheck(w, r, http.MethodGet, http.MethodHead) {
		return
	}
	q := r.URL.Query().Get("q")
	hits, err := a.search.Search(r.Context(), q, 25)
	if err != nil {
		serveError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if hits == nil {
		hits = []search.Hit{}
	}
	serveJSON(hits, w)
}

func (a *API) imageHandler(w http.ResponseWriter, r *http.Request) {
	if preCheck(w, r, http.MethodGet, http.MethodHead) {
		return
	}
	rel := path.Clean(r.URL.Path[len("/img/"):])
	fn := path.Join(a.mediadir, rel)

	file, err := a.imageresizer.OpenFile(w, r, fn)
	if err != nil {
		http.Error(w, "404 Not Found", http.StatusNotFound)
		return
	}
	defer file.Close()

	fi, err := file.Stat()
	if err != nil || !fi.Mode().IsRegular() {
		http.Error(w, "403 Access denied", http.StatusForbidden)
		return
	}

	w.Header().Set("cache-control", "max-age=86400, stale-while-revalidate=300")
	http.ServeContent(w, r, fn, fi.ModTime(), file)
}
