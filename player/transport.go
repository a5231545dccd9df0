package player

import "context"

// Transport is the audio backend the session drives. A real transport
// is the audio element on the client; tests use a fake. Transports
// report progress back through the session's Handle* methods.
type Transport interface {
	// Load prepares the given audio source for playback.
	Load(url string) error
	// Play starts or resumes playback.
	Play() error
	// Pause stops playback without resetting position.
	Pause() error
	// Seek jumps to the given position in seconds.
	Seek(seconds float64) error
	// SetVolume applies a volume in [0,1].
	SetVolume(v float64) error
}

// PlayCounter persists one full natural playback completion. It is
// satisfied by the track repository.
type PlayCounter interface {
	IncrementPlayCount(ctx context.Context, id string) error
}
