package rooms

import (
	"errors"
	"sort"
	"sync"

	"quizroom/internal/quiz"
)

// IDFactor derives a room id from the owner's connection id, so the owner's
// room is always recoverable without a side table.
const IDFactor = 123

var (
	ErrRoomNotFound = errors.New("room does not exist")
	ErrRoomInGame   = errors.New("room is already in game")
)

// Store is the registry of open rooms, keyed by room id.
type Store struct {
	mu    sync.Mutex
	rooms map[int64]*Room
}

func NewStore() *Store {
	return &Store{
		rooms: make(map[int64]*Room),
	}
}

func (s *Store) Create(owner int64, q quiz.Quiz) *Room {
	s.mu.Lock()
	defer s.mu.Unlock()
	room := newRoom(owner, q)
	s.rooms[room.ID] = room
	return room
}

func (s *Store) Get(id int64) *Room {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rooms[id]
}

func (s *Store) GetByOwner(owner int64) *Room {
	return s.Get(owner * IDFactor)
}

// ListJoinable returns rooms that have not started their game, ordered by id.
func (s *Store) ListJoinable() []*Room {
	s.mu.Lock()
	list := make([]*Room, 0, len(s.rooms))
	for _, r := range s.rooms {
		list = append(list, r)
	}
	s.mu.Unlock()

	joinable := list[:0]
	for _, r := range list {
		if !r.InGame() {
			joinable = append(joinable, r)
		}
	}
	sort.Slice(joinable, func(i, j int) bool { return joinable[i].ID < joinable[j].ID })
	return joinable
}

// AddMember joins a connection to a room. Fails if the room is unknown or its
// game has started; membership is never mutated on failure.
func (s *Store) AddMember(roomID, connID int64) error {
	s.mu.Lock()
	room := s.rooms[roomID]
	s.mu.Unlock()
	if room == nil {
		return ErrRoomNotFound
	}
	return room.addMember(connID)
}

// RemoveMember is a no-op if the room or the membership does not exist.
func (s *Store) RemoveMember(roomID, connID int64) {
	s.mu.Lock()
	room := s.rooms[roomID]
	s.mu.Unlock()
	if room != nil {
		room.RemoveMember(connID)
	}
}

// RemoveFromAll drops a disconnected player from every room and returns the
// rooms that lost it, so the caller can notify their waiters.
func (s *Store) RemoveFromAll(connID int64) []*Room {
	s.mu.Lock()
	list := make([]*Room, 0, len(s.rooms))
	for _, r := range s.rooms {
		list = append(list, r)
	}
	s.mu.Unlock()

	var touched []*Room
	for _, r := range list {
		if r.HasMember(connID) {
			r.RemoveMember(connID)
			touched = append(touched, r)
		}
	}
	return touched
}

func (s *Store) All() []*Room {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := make([]*Room, 0, len(s.rooms))
	for _, r := range s.rooms {
		list = append(list, r)
	}
	return list
}

func (s *Store) Delete(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rooms, id)
}

func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rooms)
}
