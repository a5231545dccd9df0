package player

import "sync"

// Command ops sent to the audio-owning client.
const (
	CmdLoad   = "load"
	CmdPlay   = "play"
	CmdPause  = "pause"
	CmdSeek   = "seek"
	CmdVolume = "volume"
)

// Command is one transport instruction for the client that owns the
// audio element.
type Command struct {
	Op string `json:"op"`
	// URL is the audio source, for load commands.
	URL string `json:"url,omitempty"`
	// Value carries seconds for seek and level for volume.
	Value float64 `json:"value,omitempty"`
}

// BroadcastTransport fans transport commands out to subscribed
// clients. The session calls it like any transport; actual playback
// outcomes come back through the session's Handle methods once a
// client reports them.
type BroadcastTransport struct {
	mu   sync.Mutex
	subs map[int]chan Command
	next int
}

func NewBroadcastTransport() *BroadcastTransport {
	return &BroadcastTransport{
		subs: make(map[int]chan Command),
	}
}

// Subscribe registers a client. The cancel func closes the channel.
func (t *BroadcastTransport) Subscribe() (<-chan Command, func()) {
	t.mu.Lock()
	defer t.mu.Unlock()

	id := t.next
	t.next++
	ch := make(chan Command, 16)
	t.subs[id] = ch

	cancel := func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		if c, ok := t.subs[id]; ok {
			delete(t.subs, id)
			close(c)
		}
	}
	return ch, cancel
}

func (t *BroadcastTransport) send(c Command) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, ch := range t.subs {
		select {
		case ch <- c:
		default:
			// a stalled client misses the command; it resyncs from
			// the session snapshot when it catches up
		}
	}
	return nil
}

func (t *BroadcastTransport) Load(url string) error {
	return t.send(Command{Op: CmdLoad, URL: url})
}

func (t *BroadcastTransport) Play() error {
	return t.send(Command{Op: CmdPlay})
}

func (t *BroadcastTransport) Pause() error {
	return t.send(Command{Op: CmdPause})
}

func (t *BroadcastTransport) Seek(seconds float64) error {
	return t.send(Command{Op: CmdSeek, Value: seconds})
}

func (t *BroadcastTransport) SetVolume(v float64) error {
	return t.send(Command{Op: CmdVolume, Value: v})
}
