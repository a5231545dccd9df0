package api

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/amora-app/amora-server/notify"
)

func (a *API) notificationsHandler(w http.ResponseWriter, r *http.Request) {
	if preCheck(w, r, http.MethodGet, http.MethodHead) {
		return
	}
	serveJSON(a.notifier.Notifications(), w)
}

// notificationSnoozeHandler hides a notification for ten minutes.
func (a *API) notificationSnoozeHandler(w http.ResponseWriter, r *http.Request) {
	if preCheck(w, r, http.MethodPost) {
		return
	}
	a.dismiss(w, mux.Vars(r)["id"], a.notifier.MarkSeenTemporarily)
}

// notificationSeenHandler dismisses a notification permanently.
func (a *API) notificationSeenHandler(w http.ResponseWriter, r *http.Request) {
	if preCheck(w, r, http.MethodPost) {
		return
	}
	a.dismiss(w, mux.Vars(r)["id"], a.notifier.MarkSeenPermanently)
}

func (a *API) dismiss(w http.ResponseWriter, id string, fn func(string) error) {
	if err := fn(id); err != nil {
		if errors.Is(err, notify.ErrUnknownNotification) {
			serveError(w, http.StatusNotFound, err.Error())
			return
		}
		serveError(w, http.StatusInternalServerError, err.Error())
		return
	}
	serveJSON(a.notifier.Notifications(), w)
}
