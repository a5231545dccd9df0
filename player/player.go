// Package player implements the shared audio session: one playlist,
// one current track, transport operations with deterministic next
// track selection under shuffle and repeat. Transport failures never
// propagate to callers; the session falls back to paused.
package player

import (
	"context"
	"errors"
	"log"
	"math/rand"
	"sync"
	"time"
)

// State of the session.
type State int

const (
	// StateIdle means no current track.
	StateIdle State = iota
	// StateLoading means a track is selected but the audio is not ready yet.
	StateLoading
	// StatePaused means the audio is ready and not playing.
	StatePaused
	// StatePlaying means the transport confirmed playback.
	StatePlaying
	// StateError means the transport failed; playback intent is off.
	StateError
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StatePaused:
		return "paused"
	case StatePlaying:
		return "playing"
	case StateError:
		return "error"
	}
	return "unknown"
}

var (
	ErrUnknownTrack = errors.New("track is not in the playlist")
)

// Snapshot is the reactive state handed to subscribers and the API.
type Snapshot struct {
	CurrentTrack      *Track  `json:"currentTrack"`
	Playlist          []Track `json:"playlist"`
	State             string  `json:"state"`
	IsPlaying         bool    `json:"isPlaying"`
	IsActuallyPlaying bool    `json:"isActuallyPlaying"`
	Position          float64 `json:"positionSeconds"`
	Duration          float64 `json:"durationSeconds"`
	Volume            float64 `json:"volume"`
	Shuffle           bool    `json:"shuffle"`
	Repeat            bool    `json:"repeat"`
}

// Options to construct a Session.
type Options struct {
	Transport Transport
	// PlayCounter persists playcount increments, may be nil.
	PlayCounter PlayCounter
	// Rand is the randomness source for shuffle, defaults to a
	// time-seeded source.
	Rand *rand.Rand
}

// Session is the process-wide player. Create one with New and share it
// by reference; it lives for the lifetime of the server.
type Session struct {
	mu        sync.Mutex
	transport Transport
	counter   PlayCounter
	rng       *rand.Rand
	listeners []func(Snapshot)

	playlist        []Track
	current         int // index into playlist, -1 when none
	state           State
	playing         bool // user intent
	actuallyPlaying bool // transport-confirmed
	position        float64
	duration        float64
	volume          float64
	shuffle         bool
	repeat          bool
}

// New creates an idle session with an empty playlist.
func New(o *Options) *Session {
	rng := o.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Session{
		transport: o.Transport,
		counter:   o.PlayCounter,
		rng:       rng,
		current:   -1,
		state:     StateIdle,
		volume:    1,
	}
}

// Subscribe registers a callback invoked with a fresh snapshot after
// every state change.
func (s *Session) Subscribe(fn func(Snapshot)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// Snapshot returns a copy of the current session state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() Snapshot {
	snap := Snapshot{
		Playlist:          append([]Track(nil), s.playlist...),
		State:             s.state.String(),
		IsPlaying:         s.playing,
		IsActuallyPlaying: s.actuallyPlaying,
		Position:          s.position,
		Duration:          s.duration,
		Volume:            s.volume,
		Shuffle:           s.shuffle,
		Repeat:            s.repeat,
	}
	if s.current >= 0 && s.current < len(s.playlist) {
		t := s.playlist[s.current]
		snap.CurrentTrack = &t
	}
	return snap
}

// notify hands the given snapshot to all subscribers. Must be called
// without holding the mutex.
func (s *Session) notify(snap Snapshot) {
	s.mu.Lock()
	listeners := append(([]func(Snapshot))(nil), s.listeners...)
	s.mu.Unlock()
	for _, fn := range listeners {
		fn(snap)
	}
}

// LoadPlaylist replaces the playlist wholesale. If the current track is
// no longer present it is cleared and playback stops. Never auto-plays.
func (s *Session) LoadPlaylist(tracks []Track) {
	s.mu.Lock()
	var currentID string
	if s.current >= 0 && s.current < len(s.playlist) {
		currentID = s.playlist[s.current].ID
	}
	s.playlist = append([]Track(nil), tracks...)
	s.current = -1
	stop := false
	if currentID != "" {
		for i := range s.playlist {
			if s.playlist[i].ID == currentID {
				s.current = i
				break
			}
		}
		if s.current == -1 {
			stop = true
			s.playing = false
			s.actuallyPlaying = false
			s.position = 0
			s.duration = 0
			s.state = StateIdle
		}
	}
	snap := s.snapshotLocked()
	s.mu.Unlock()

	if stop {
		s.try(s.transport.Pause)
	}
	s.notify(snap)
}

// SelectTrack makes the given playlist track current and loads it,
// keeping the session's play intent. A track without an audio source
// fails closed: the session enters the error state, not playing.
func (s *Session) SelectTrack(id string) error {
	s.mu.Lock()
	idx := -1
	for i := range s.playlist {
		if s.playlist[i].ID == id {
			idx = i
			break
		}
	}
	if idx == -1 {
		s.mu.Unlock()
		return ErrUnknownTrack
	}
	s.mu.Unlock()

	s.selectIndex(idx, false)
	return nil
}

// selectIndex switches the current track to playlist[idx]. When
// autoplay is set the play intent is forced on (natural advancement).
func (s *Session) selectIndex(idx int, autoplay bool) {
	s.mu.Lock()
	if idx < 0 || idx >= len(s.playlist) {
		s.mu.Unlock()
		return
	}
	t := s.playlist[idx]
	s.current = idx
	s.position = 0
	s.duration = 0
	if autoplay {
		s.playing = true
	}
	if !t.playable() {
		// fail closed rather than silently advancing
		s.playing = false
		s.actuallyPlaying = false
		s.state = StateError
		snap := s.snapshotLocked()
		s.mu.Unlock()
		log.Printf("player: track %s has no audio source", t.ID)
		s.notify(snap)
		return
	}
	s.state = StateLoading
	intent := s.playing
	snap := s.snapshotLocked()
	s.mu.Unlock()

	if err := s.transport.Load(t.AudioURL); err != nil {
		s.transportFailed(err)
		return
	}
	if intent {
		s.try(s.transport.Play)
	}
	s.notify(snap)
}

// TogglePlay flips the play intent. It is a no-op when there is no
// current track or the current track has no audio source.
func (s *Session) TogglePlay() {
	s.mu.Lock()
	if s.current < 0 || s.current >= len(s.playlist) ||
		!s.playlist[s.current].playable() {
		s.mu.Unlock()
		return
	}
	s.playing = !s.playing
	intent := s.playing
	snap := s.snapshotLocked()
	s.mu.Unlock()

	if intent {
		s.try(s.transport.Play)
	} else {
		s.try(s.transport.Pause)
	}
	s.notify(snap)
}

// NextTrack skips forward: a uniformly random other track under
// shuffle (the same track only when the playlist has one entry),
// otherwise the next track in list order, wrapping at the end.
func (s *Session) NextTrack() {
	s.mu.Lock()
	idx := s.nextIndexLocked()
	s.mu.Unlock()
	if idx == -1 {
		return
	}
	s.selectIndex(idx, false)
}

// PrevTrack always steps backward in list order, wrapping to the last
// track at the start. Shuffle intentionally does not apply here:
// previous means "list order backward".
func (s *Session) PrevTrack() {
	s.mu.Lock()
	n := len(s.playlist)
	if n == 0 {
		s.mu.Unlock()
		return
	}
	idx := s.current - 1
	if idx < 0 {
		idx = n - 1
	}
	s.mu.Unlock()
	s.selectIndex(idx, false)
}

// nextIndexLocked applies the skip-forward selection rule.
func (s *Session) nextIndexLocked() int {
	n := len(s.playlist)
	if n == 0 {
		return -1
	}
	if s.shuffle {
		if n == 1 {
			return 0
		}
		// uniform over all tracks except the current one
		idx := s.rng.Intn(n - 1)
		if s.current >= 0 && idx >= s.current {
			idx++
		}
		return idx
	}
	if s.current < 0 {
		return 0
	}
	return (s.current + 1) % n
}

// HandleEnded is the natural-completion handler. With repeat on the
// same track restarts at position 0; otherwise the session advances
// per the next-track rule and keeps playing. The completed track's
// playcount is incremented exactly once, here and nowhere else.
func (s *Session) HandleEnded() {
	s.mu.Lock()
	if s.current < 0 || s.current >= len(s.playlist) {
		s.mu.Unlock()
		return
	}
	completed := s.playlist[s.current]
	s.playlist[s.current].PlayCount++

	if s.repeat {
		s.position = 0
		s.playing = true
		snap := s.snapshotLocked()
		s.mu.Unlock()

		s.countPlay(completed.ID)
		s.try(func() error { return s.transport.Seek(0) })
		s.try(s.transport.Play)
		s.notify(snap)
		return
	}

	idx := s.nextIndexLocked()
	s.mu.Unlock()

	s.countPlay(completed.ID)
	s.selectIndex(idx, true)
}

// countPlay persists a playcount increment, best effort.
func (s *Session) countPlay(id string) {
	if s.counter == nil {
		return
	}
	if err := s.counter.IncrementPlayCount(context.Background(), id); err != nil {
		log.Printf("player: playcount update for %s: %s", id, err)
	}
}

// SetVolume clamps v to [0,1] and applies it immediately, regardless
// of in-flight loads.
func (s *Session) SetVolume(v float64) {
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	s.mu.Lock()
	s.volume = v
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.try(func() error { return s.transport.SetVolume(v) })
	s.notify(snap)
}

// Seek jumps to the given position, clamped to [0, duration] when the
// duration is known. Applies immediately and idempotently.
func (s *Session) Seek(seconds float64) {
	if seconds < 0 {
		seconds = 0
	}
	s.mu.Lock()
	if s.duration > 0 && seconds > s.duration {
		seconds = s.duration
	}
	s.position = seconds
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.try(func() error { return s.transport.Seek(seconds) })
	s.notify(snap)
}

// SetShuffle toggles random next-track selection.
func (s *Session) SetShuffle(on bool) {
	s.mu.Lock()
	s.shuffle = on
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.notify(snap)
}

// SetRepeat toggles restart-on-completion. Repeat wins over shuffle,
// but only at end of track.
func (s *Session) SetRepeat(on bool) {
	s.mu.Lock()
	s.repeat = on
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.notify(snap)
}

// HandleLoaded is the transport's ready signal with the real duration.
func (s *Session) HandleLoaded(durationSeconds float64) {
	s.mu.Lock()
	s.duration = durationSeconds
	if s.state == StateLoading {
		s.state = StatePaused
	}
	intent := s.playing
	snap := s.snapshotLocked()
	s.mu.Unlock()

	if intent {
		s.try(s.transport.Play)
	}
	s.notify(snap)
}

// HandleTimeUpdate is the transport's progress signal.
func (s *Session) HandleTimeUpdate(positionSeconds float64) {
	s.mu.Lock()
	s.position = positionSeconds
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.notify(snap)
}

// HandlePlay confirms the transport actually started producing sound.
func (s *Session) HandlePlay() {
	s.mu.Lock()
	s.actuallyPlaying = true
	s.state = StatePlaying
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.notify(snap)
}

// HandlePause confirms the transport stopped.
func (s *Session) HandlePause() {
	s.mu.Lock()
	s.actuallyPlaying = false
	if s.state == StatePlaying {
		s.state = StatePaused
	}
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.notify(snap)
}

// HandleError is the transport's failure signal.
func (s *Session) HandleError(err error) {
	s.transportFailed(err)
}

// transportFailed records a transport error: intent off, not playing,
// error swallowed. A media session is best effort.
func (s *Session) transportFailed(err error) {
	s.mu.Lock()
	s.playing = false
	s.actuallyPlaying = false
	s.state = StateError
	snap := s.snapshotLocked()
	s.mu.Unlock()

	log.Printf("player: transport error: %s", err)
	s.notify(snap)
}

// try runs a transport call and swallows its error.
func (s *Session) try(fn func() error) {
	if err := fn(); err != nil {
		s.transportFailed(err)
	}
}
