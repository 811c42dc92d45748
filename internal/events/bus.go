package events

import "sync"

// Kind tags a room lifecycle event.
type Kind int

const (
	RoundStarted Kind = iota
	RoundEnded
	GameEnded
	PlayerLeft
)

func (k Kind) String() string {
	switch k {
	case RoundStarted:
		return "round_started"
	case RoundEnded:
		return "round_ended"
	case GameEnded:
		return "game_ended"
	case PlayerLeft:
		return "player_left"
	}
	return "unknown"
}

// Event is one room signal. ConnID is set for PlayerLeft and for RoundEnded
// (the member whose answer completed); zero otherwise.
type Event struct {
	Kind   Kind
	ConnID int64
}

// Bus is a per-room broadcast signal. Publish fans out to every subscriber
// without blocking, so a waiter must always re-check room state after waking
// rather than trust the event alone.
type Bus struct {
	mu   sync.Mutex
	subs map[chan Event]bool
}

func NewBus() *Bus {
	return &Bus{
		subs: make(map[chan Event]bool),
	}
}

func (b *Bus) Subscribe() chan Event {
	ch := make(chan Event, 16)
	b.mu.Lock()
	b.subs[ch] = true
	b.mu.Unlock()
	return ch
}

func (b *Bus) Unsubscribe(ch chan Event) {
	b.mu.Lock()
	delete(b.subs, ch)
	b.mu.Unlock()
	close(ch)
}

func (b *Bus) Publish(ev Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subs {
		select {
		case ch <- ev:
		default:
			// skip subscribers with full channels
		}
	}
}
