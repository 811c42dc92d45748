package players

import (
	"errors"
	"fmt"
	"sync"
)

var (
	ErrNameTaken    = errors.New("nickname already taken")
	ErrNameTooShort = errors.New("nickname too short")
	ErrNameTooLong  = errors.New("nickname too long")
)

const (
	MinNicknameLen = 3
	MaxNicknameLen = 16
)

type Player struct {
	ID       int64
	Nickname string
	Score    int
	Waiting  bool
}

// Store is the registry of every currently connected player, keyed by
// connection id.
type Store struct {
	mu      sync.Mutex
	players map[int64]*Player
}

func NewStore() *Store {
	return &Store{
		players: make(map[int64]*Player),
	}
}

// Register creates a player for a new connection with the default nickname.
func (s *Store) Register(id int64) *Player {
	s.mu.Lock()
	defer s.mu.Unlock()
	player := &Player{ID: id, Nickname: fmt.Sprintf("player %d", id)}
	s.players[id] = player
	return player
}

// SetNickname validates and assigns a nickname. Uniqueness is case-sensitive
// across all currently connected players, default nicknames included.
func (s *Store) SetNickname(id int64, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(name) < MinNicknameLen {
		return ErrNameTooShort
	}
	if len(name) > MaxNicknameLen {
		return ErrNameTooLong
	}
	for otherID, p := range s.players {
		if otherID != id && p.Nickname == name {
			return ErrNameTaken
		}
	}
	if p, e := s.players[id]; e {
		p.Nickname = name
	}
	return nil
}

func (s *Store) Nickname(id int64) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, e := s.players[id]; e {
		return p.Nickname
	}
	return ""
}

func (s *Store) AddScore(id int64, points int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, e := s.players[id]; e {
		p.Score += points
	}
}

func (s *Store) Score(id int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, e := s.players[id]; e {
		return p.Score
	}
	return 0
}

// ResetScores zeroes the score of each given player at game start.
func (s *Store) ResetScores(ids []int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		if p, e := s.players[id]; e {
			p.Score = 0
		}
	}
}

func (s *Store) SetWaiting(id int64, waiting bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, e := s.players[id]; e {
		p.Waiting = waiting
	}
}

func (s *Store) Waiting(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, e := s.players[id]; e {
		return p.Waiting
	}
	return false
}

func (s *Store) Exists(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, exists := s.players[id]
	return exists
}

// Remove is a no-op for ids that are already gone.
func (s *Store) Remove(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.players, id)
}

func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.players)
}
