package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"golang.org/x/crypto/bcrypt"

	"github.com/amora-app/amora-server/database/model"
)

// surpriseUnlockHandler attempts to unlock a surprise. The policy gate
// must pass, and key-gated surprises additionally need the right key.
func (a *API) surpriseUnlockHandler(w http.ResponseWriter, r *http.Request) {
	if preCheck(w, r, http.MethodPost) {
		return
	}
	ctx := r.Context()
	id := mux.Vars(r)["id"]

	sp, err := a.repo.Surprises.GetSurprise(ctx, id)
	if err != nil {
		serveResourceError(w, err)
		return
	}
	if sp.Unlocked {
		serveJSON(sp, w)
		return
	}

	all, err := a.repo.Surprises.ListSurprises(ctx)
	if err != nil {
		serveError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !sp.CanUnlock(all, time.Now()) {
		serveError(w, http.StatusConflict, model.ErrLocked.Error())
		return
	}

	if sp.UnlockType == model.UnlockKey {
		var req unlockRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			serveError(w, http.StatusBadRequest, err.Error())
			return
		}
		if bcrypt.CompareHashAndPassword([]byte(sp.KeyHash), []byte(req.Key)) != nil {
			serveError(w, http.StatusForbidden, model.ErrInvalidKey.Error())
			return
		}
	}

	now := time.Now().UTC()
	if err := a.repo.Surprises.MarkUnlocked(ctx, id, now); err != nil {
		serveResourceError(w, err)
		return
	}
	sp.Unlocked = true
	sp.UnlockedAt = now
	serveJSON(sp, w)
}
