package api

type errorResponse struct {
	Error string `json:"error"`
}

// playerValueRequest carries a single numeric value for volume and
// seek commands.
type playerValueRequest struct {
	Value float64 `json:"value"`
}

// playerFlagRequest carries a single boolean for shuffle and repeat.
type playerFlagRequest struct {
	On bool `json:"on"`
}

// playerEventRequest is a client-reported transport event. The web
// client owns the audio element; it reports what actually happened so
// the session can reconcile intent with reality.
type playerEventRequest struct {
	// Event is one of loaded, timeupdate, play, pause, ended, error.
	Event string `json:"event"`
	// Duration in seconds, for loaded events.
	Duration float64 `json:"durationSeconds,omitempty"`
	// Position in seconds, for timeupdate events.
	Position float64 `json:"positionSeconds,omitempty"`
	// Message describes the failure, for error events.
	Message string `json:"message,omitempty"`
}

// unlockRequest carries the secret for key-gated surprises.
type unlockRequest struct {
	Key string `json:"key,omitempty"`
}
