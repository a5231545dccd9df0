package player

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTransport struct {
	mu     sync.Mutex
	calls  []string
	loaded []string
	fail   bool
}

func (t *fakeTransport) record(call string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.calls = append(t.calls, call)
	if t.fail {
		return errors.New("transport broken")
	}
	return nil
}

func (t *fakeTransport) Load(url string) error {
	t.mu.Lock()
	t.loaded = append(t.loaded, url)
	t.mu.Unlock()
	return t.record("load")
}

func (t *fakeTransport) Play() error               { return t.record("play") }
func (t *fakeTransport) Pause() error              { return t.record("pause") }
func (t *fakeTransport) Seek(float64) error        { return t.record("seek") }
func (t *fakeTransport) SetVolume(v float64) error { return t.record("volume") }

type fakeCounter struct {
	mu     sync.Mutex
	counts map[string]int
}

func newFakeCounter() *fakeCounter {
	return &fakeCounter{counts: make(map[string]int)}
}

func (c *fakeCounter) IncrementPlayCount(ctx context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counts[id]++
	return nil
}

func testTracks(n int) []Track {
	tracks := make([]Track, n)
	for i := range tracks {
		tracks[i] = Track{
			ID:       fmt.Sprintf("track-%d", i),
			Title:    fmt.Sprintf("Song %d", i),
			Duration: 180,
			AudioURL: fmt.Sprintf("/audio/%d.mp3", i),
		}
	}
	return tracks
}

func newTestSession(n int) (*Session, *fakeTransport, *fakeCounter) {
	transport := &fakeTransport{}
	counter := newFakeCounter()
	s := New(&Options{
		Transport:   transport,
		PlayCounter: counter,
		Rand:        rand.New(rand.NewSource(1)),
	})
	s.LoadPlaylist(testTracks(n))
	return s, transport, counter
}

func TestNextTrackCyclesPlaylist(t *testing.T) {
	s, _, _ := newTestSession(5)
	require.NoError(t, s.SelectTrack("track-0"))

	seen := map[string]bool{"track-0": true}
	for i := 0; i < 4; i++ {
		s.NextTrack()
		cur := s.Snapshot().CurrentTrack
		require.NotNil(t, cur)
		assert.False(t, seen[cur.ID], "track %s visited twice", cur.ID)
		seen[cur.ID] = true
	}
	// one more wraps back to the start
	s.NextTrack()
	cur := s.Snapshot().CurrentTrack
	require.NotNil(t, cur)
	assert.Equal(t, "track-0", cur.ID)
	assert.Len(t, seen, 5)
}

func TestPrevTrackIsInverseOfNext(t *testing.T) {
	s, _, _ := newTestSession(4)
	require.NoError(t, s.SelectTrack("track-2"))

	s.NextTrack()
	s.PrevTrack()
	cur := s.Snapshot().CurrentTrack
	require.NotNil(t, cur)
	assert.Equal(t, "track-2", cur.ID)
}

func TestPrevTrackWrapsToLast(t *testing.T) {
	s, _, _ := newTestSession(3)
	require.NoError(t, s.SelectTrack("track-0"))

	s.PrevTrack()
	cur := s.Snapshot().CurrentTrack
	require.NotNil(t, cur)
	assert.Equal(t, "track-2", cur.ID)
}

func TestShuffleNextNeverRepeatsCurrent(t *testing.T) {
	s, _, _ := newTestSession(4)
	require.NoError(t, s.SelectTrack("track-0"))
	s.SetShuffle(true)

	for i := 0; i < 50; i++ {
		before := s.Snapshot().CurrentTrack.ID
		s.NextTrack()
		after := s.Snapshot().CurrentTrack.ID
		assert.NotEqual(t, before, after)
	}
}

func TestShuffleSingleTrackPlaylist(t *testing.T) {
	s, _, _ := newTestSession(1)
	require.NoError(t, s.SelectTrack("track-0"))
	s.SetShuffle(true)

	s.NextTrack()
	cur := s.Snapshot().CurrentTrack
	require.NotNil(t, cur)
	assert.Equal(t, "track-0", cur.ID)
}

func TestHandleEndedWithRepeatRestartsTrack(t *testing.T) {
	s, transport, counter := newTestSession(3)
	require.NoError(t, s.SelectTrack("track-1"))
	s.SetRepeat(true)
	s.HandleTimeUpdate(120)

	s.HandleEnded()

	snap := s.Snapshot()
	require.NotNil(t, snap.CurrentTrack)
	assert.Equal(t, "track-1", snap.CurrentTrack.ID)
	assert.Equal(t, 0.0, snap.Position)
	assert.True(t, snap.IsPlaying)
	assert.Equal(t, 1, counter.counts["track-1"])
	assert.Contains(t, transport.calls, "seek")
	assert.Contains(t, transport.calls, "play")
}

func TestHandleEndedAdvancesAndCountsOnce(t *testing.T) {
	s, _, counter := newTestSession(3)
	require.NoError(t, s.SelectTrack("track-0"))

	s.HandleEnded()

	snap := s.Snapshot()
	require.NotNil(t, snap.CurrentTrack)
	assert.Equal(t, "track-1", snap.CurrentTrack.ID)
	assert.True(t, snap.IsPlaying, "natural advancement keeps playing")
	assert.Equal(t, 1, counter.counts["track-0"])
	assert.Equal(t, 0, counter.counts["track-1"])

	// the completed track's playcount shows up in the playlist
	assert.Equal(t, 1, snap.Playlist[0].PlayCount)
}

func TestManualSkipDoesNotCount(t *testing.T) {
	s, _, counter := newTestSession(3)
	require.NoError(t, s.SelectTrack("track-0"))

	s.NextTrack()
	s.PrevTrack()

	assert.Empty(t, counter.counts)
}

func TestSetVolumeClamps(t *testing.T) {
	s, _, _ := newTestSession(1)

	s.SetVolume(-0.5)
	assert.Equal(t, 0.0, s.Snapshot().Volume)

	s.SetVolume(1.7)
	assert.Equal(t, 1.0, s.Snapshot().Volume)

	s.SetVolume(0.4)
	assert.Equal(t, 0.4, s.Snapshot().Volume)
}

func TestSeekClampsToDuration(t *testing.T) {
	s, _, _ := newTestSession(2)
	require.NoError(t, s.SelectTrack("track-0"))
	s.HandleLoaded(100)

	s.Seek(200)
	assert.Equal(t, 100.0, s.Snapshot().Position)

	s.Seek(-10)
	assert.Equal(t, 0.0, s.Snapshot().Position)
}

func TestSelectTrackWithoutAudioFailsClosed(t *testing.T) {
	transport := &fakeTransport{}
	s := New(&Options{Transport: transport})
	s.LoadPlaylist([]Track{
		{ID: "incomplete", Title: "No source yet"},
	})

	require.NoError(t, s.SelectTrack("incomplete"))

	snap := s.Snapshot()
	assert.Equal(t, "error", snap.State)
	assert.False(t, snap.IsPlaying)
	assert.Empty(t, transport.loaded, "unplayable track must not reach the transport")
}

func TestSelectUnknownTrack(t *testing.T) {
	s, _, _ := newTestSession(2)
	assert.ErrorIs(t, s.SelectTrack("nope"), ErrUnknownTrack)
}

func TestTogglePlayWithoutTrackIsNoop(t *testing.T) {
	s, transport, _ := newTestSession(2)

	s.TogglePlay()

	snap := s.Snapshot()
	assert.False(t, snap.IsPlaying)
	assert.Empty(t, transport.calls)
}

func TestLoadPlaylistClearsMissingCurrent(t *testing.T) {
	s, _, _ := newTestSession(3)
	require.NoError(t, s.SelectTrack("track-1"))
	s.TogglePlay()
	require.True(t, s.Snapshot().IsPlaying)

	s.LoadPlaylist([]Track{
		{ID: "other", Title: "Other", AudioURL: "/audio/other.mp3"},
	})

	snap := s.Snapshot()
	assert.Nil(t, snap.CurrentTrack)
	assert.False(t, snap.IsPlaying)
	assert.Equal(t, "idle", snap.State)
}

func TestLoadPlaylistKeepsSurvivingCurrent(t *testing.T) {
	s, _, _ := newTestSession(3)
	require.NoError(t, s.SelectTrack("track-1"))

	reordered := []Track{
		{ID: "track-2", AudioURL: "/audio/2.mp3"},
		{ID: "track-1", AudioURL: "/audio/1.mp3"},
	}
	s.LoadPlaylist(reordered)

	cur := s.Snapshot().CurrentTrack
	require.NotNil(t, cur)
	assert.Equal(t, "track-1", cur.ID)
}

func TestTransportErrorPausesSession(t *testing.T) {
	s, transport, _ := newTestSession(2)
	require.NoError(t, s.SelectTrack("track-0"))
	s.TogglePlay()

	transport.fail = true
	s.TogglePlay() // pause fails
	snap := s.Snapshot()
	assert.Equal(t, "error", snap.State)
	assert.False(t, snap.IsPlaying)
	assert.False(t, snap.IsActuallyPlaying)
}

func TestHandleErrorFromClient(t *testing.T) {
	s, _, _ := newTestSession(2)
	require.NoError(t, s.SelectTrack("track-0"))
	s.TogglePlay()

	s.HandleError(errors.New("decode failed"))

	snap := s.Snapshot()
	assert.Equal(t, "error", snap.State)
	assert.False(t, snap.IsPlaying)
}

func TestTransportConfirmationFlow(t *testing.T) {
	s, _, _ := newTestSession(2)
	require.NoError(t, s.SelectTrack("track-0"))
	assert.Equal(t, "loading", s.Snapshot().State)

	s.HandleLoaded(180)
	snap := s.Snapshot()
	assert.Equal(t, "paused", snap.State)
	assert.Equal(t, 180.0, snap.Duration)

	s.TogglePlay()
	assert.False(t, s.Snapshot().IsActuallyPlaying, "intent is not confirmation")

	s.HandlePlay()
	snap = s.Snapshot()
	assert.True(t, snap.IsActuallyPlaying)
	assert.Equal(t, "playing", snap.State)

	s.HandlePause()
	snap = s.Snapshot()
	assert.False(t, snap.IsActuallyPlaying)
	assert.Equal(t, "paused", snap.State)
}
