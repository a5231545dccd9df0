package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// eventsHandler streams change-feed events and player transport
// commands to the browser as server-sent events. Clients refetch
// whatever table a change event names; the client owning the audio
// element executes player commands.
func (a *API) eventsHandler(w http.ResponseWriter, r *http.Request) {
	if preCheck(w, r, http.MethodGet) {
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		serveError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	events, cancelFeed := a.feed.Subscribe()
	defer cancelFeed()
	commands, cancelCmds := a.commands.Subscribe()
	defer cancelCmds()

	// periodic comments keep proxies from timing the stream out
	keepalive := time.NewTicker(30 * time.Second)
	defer keepalive.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-keepalive.C:
			fmt.Fprint(w, ": keepalive\n\n")
			flusher.Flush()
		case ev, ok := <-events:
			if !ok {
				return
			}
			writeSSE(w, "change", ev)
			flusher.Flush()
		case cmd, ok := <-commands:
			if !ok {
				return
			}
			writeSSE(w, "player", cmd)
			flusher.Flush()
		}
	}
}

func writeSSE(w http.ResponseWriter, event string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
}
