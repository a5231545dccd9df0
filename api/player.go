package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/amora-app/amora-server/player"
)

func (a *API) playerHandler(w http.ResponseWriter, r *http.Request) {
	if preCheck(w, r, http.MethodGet, http.MethodHead) {
		return
	}
	serveJSON(a.player.Snapshot(), w)
}

// playerPlaylistHandler reloads the session playlist from the tracks
// collection.
func (a *API) playerPlaylistHandler(w http.ResponseWriter, r *http.Request) {
	if preCheck(w, r, http.MethodPost) {
		return
	}
	rows, err := a.repo.Tracks.ListTracks(r.Context())
	if err != nil {
		serveError(w, http.StatusInternalServerError, err.Error())
		return
	}
	tracks := make([]player.Track, len(rows))
	for i, t := range rows {
		tracks[i] = player.Track{
			ID:         t.ID,
			Title:      t.Title,
			Artist:     t.Artist,
			Duration:   t.Duration,
			CoverURL:   t.CoverURL,
			Dedication: t.Dedication,
			AudioURL:   t.AudioURL,
			Favorite:   t.Favorite,
			PlayCount:  t.PlayCount,
		}
	}
	a.player.LoadPlaylist(tracks)
	serveJSON(a.player.Snapshot(), w)
}

func (a *API) playerSelectHandler(w http.ResponseWriter, r *http.Request) {
	if preCheck(w, r, http.MethodPost) {
		return
	}
	if err := a.player.SelectTrack(mux.Vars(r)["track"]); err != nil {
		if errors.Is(err, player.ErrUnknownTrack) {
			serveError(w, http.StatusNotFound, err.Error())
			return
		}
		serveError(w, http.StatusInternalServerError, err.Error())
		return
	}
	serveJSON(a.player.Snapshot(), w)
}

func (a *API) playerToggleHandler(w http.ResponseWriter, r *http.Request) {
	if preCheck(w, r, http.MethodPost) {
		return
	}
	a.player.TogglePlay()
	serveJSON(a.player.Snapshot(), w)
}

func (a *API) playerNextHandler(w http.ResponseWriter, r *http.Request) {
	if preCheck(w, r, http.MethodPost) {
		return
	}
	a.player.NextTrack()
	serveJSON(a.player.Snapshot(), w)
}

func (a *API) playerPrevHandler(w http.ResponseWriter, r *http.Request) {
	if preCheck(w, r, http.MethodPost) {
		return
	}
	a.player.PrevTrack()
	serveJSON(a.player.Snapshot(), w)
}

func (a *API) playerVolumeHandler(w http.ResponseWriter, r *http.Request) {
	if preCheck(w, r, http.MethodPost) {
		return
	}
	var req playerValueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		serveError(w, http.StatusBadRequest, err.Error())
		return
	}
	a.player.SetVolume(req.Value)
	serveJSON(a.player.Snapshot(), w)
}

func (a *API) playerSeekHandler(w http.ResponseWriter, r *http.Request) {
	if preCheck(w, r, http.MethodPost) {
		return
	}
	var req playerValueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		serveError(w, http.StatusBadRequest, err.Error())
		return
	}
	a.player.Seek(req.Value)
	serveJSON(a.player.Snapshot(), w)
}

func (a *API) playerShuffleHandler(w http.ResponseWriter, r *http.Request) {
	if preCheck(w, r, http.MethodPost) {
		return
	}
	var req playerFlagRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		serveError(w, http.StatusBadRequest, err.Error())
		return
	}
	a.player.SetShuffle(req.On)
	serveJSON(a.player.Snapshot(), w)
}

func (a *API) playerRepeatHandler(w http.ResponseWriter, r *http.Request) {
	if preCheck(w, r, http.MethodPost) {
		return
	}
	var req playerFlagRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		serveError(w, http.StatusBadRequest, err.Error())
		return
	}
	a.player.SetRepeat(req.On)
	serveJSON(a.player.Snapshot(), w)
}

// playerEventsHandler receives transport events from the client that
// owns the audio element and feeds them into the session.
func (a *API) playerEventsHandler(w http.ResponseWriter, r *http.Request) {
	if preCheck(w, r, http.MethodPost) {
		return
	}
	var ev playerEventRequest
	if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
		serveError(w, http.StatusBadRequest, err.Error())
		return
	}
	switch ev.Event {
	case "loaded":
		a.player.HandleLoaded(ev.Duration)
	case "timeupdate":
		a.player.HandleTimeUpdate(ev.Position)
	case "play":
		a.player.HandlePlay()
	case "pause":
		a.player.HandlePause()
	case "ended":
		a.player.HandleEnded()
	case "error":
		a.player.HandleError(errors.New(ev.Message))
	default:
		serveError(w, http.StatusBadRequest, "unknown event "+ev.Event)
		return
	}
	serveJSON(a.player.Snapshot(), w)
}
