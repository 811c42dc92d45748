package rooms

import (
	"sync"
	"time"

	"quizroom/internal/events"
	"quizroom/internal/quiz"
)

// Room is one host's game instance. Membership excludes the owner.
type Room struct {
	ID        int64
	Owner     int64
	Quiz      quiz.Quiz
	Bus       *events.Bus
	CreatedAt time.Time

	mu       sync.Mutex
	members  map[int64]struct{}
	order    []int64
	inGame   bool
	answers  int
	refs     int
	draining bool
	drained  chan struct{}
}

func newRoom(owner int64, q quiz.Quiz) *Room {
	return &Room{
		ID:        owner * IDFactor,
		Owner:     owner,
		Quiz:      q,
		Bus:       events.NewBus(),
		CreatedAt: time.Now(),
		members:   make(map[int64]struct{}),
		drained:   make(chan struct{}),
	}
}

func (r *Room) addMember(id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.inGame {
		return ErrRoomInGame
	}
	if _, e := r.members[id]; !e {
		r.members[id] = struct{}{}
		r.order = append(r.order, id)
	}
	return nil
}

// RemoveMember is a no-op for ids that are not members.
func (r *Room) RemoveMember(id int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, e := r.members[id]; !e {
		return
	}
	delete(r.members, id)
	for i, m := range r.order {
		if m == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

// Members returns the member connection ids in join order.
func (r *Room) Members() []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]int64, len(r.order))
	copy(out, r.order)
	return out
}

func (r *Room) HasMember(id int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, e := r.members[id]
	return e
}

func (r *Room) MemberCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.members)
}

func (r *Room) SetInGame(inGame bool) {
	r.mu.Lock()
	r.inGame = inGame
	r.mu.Unlock()
}

func (r *Room) InGame() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.inGame
}

func (r *Room) ResetAnswers() {
	r.mu.Lock()
	r.answers = 0
	r.mu.Unlock()
}

// AddAnswer records one completed answer task and returns the new count.
func (r *Room) AddAnswer() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.answers++
	return r.answers
}

// AnswersDone reports whether every current member's answer task has
// completed. This is the round barrier predicate; waiters re-check it after
// every bus event.
func (r *Room) AnswersDone() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.answers >= len(r.members)
}

// Retain marks a session as still reading this room's end-of-game output.
// Teardown waits for every retained session to Release before the room is
// deleted from the registry.
func (r *Room) Retain() {
	r.mu.Lock()
	r.refs++
	r.mu.Unlock()
}

func (r *Room) Release() {
	r.mu.Lock()
	if r.refs > 0 {
		r.refs--
	}
	if r.refs == 0 && r.draining {
		r.draining = false
		close(r.drained)
	}
	r.mu.Unlock()
}

// AwaitDrain blocks until every retained session has released the room, or
// until the timeout elapses so a stuck reader cannot wedge teardown.
func (r *Room) AwaitDrain(timeout time.Duration) {
	r.mu.Lock()
	if r.refs == 0 {
		r.mu.Unlock()
		return
	}
	r.draining = true
	drained := r.drained
	r.mu.Unlock()

	select {
	case <-drained:
	case <-time.After(timeout):
	}
}
