package server

import (
	"errors"
	"log"
	"strings"

	"quizroom/internal/events"
	"quizroom/internal/game"
	"quizroom/internal/metrics"
	"quizroom/internal/players"
	"quizroom/internal/protocol"
	"quizroom/internal/rooms"
	"quizroom/internal/transport"
)

// session is the per-connection protocol state machine: nickname setup, then
// the main menu looping into the host or player flow until the client exits
// or disconnects. One session goroutine per connection; a malformed command
// only ever re-prompts, a failed read or send ends this session alone.
type session struct {
	srv  *Server
	conn *transport.Conn
}

func (s *session) run() {
	defer s.cleanup()

	if !s.setNickname() {
		return
	}
	log.Printf("[Session] %s has connected to the server\n", s.nickname())

	for {
		if err := s.conn.Send(protocol.MainMenu); err != nil {
			return
		}
		line, ok := s.readLine()
		if !ok {
			return
		}
		switch strings.TrimSpace(line) {
		case "1":
			if !s.hostFlow() {
				return
			}
		case "2":
			if !s.playerFlow() {
				return
			}
		case "3":
			return
		default:
			// unknown command, menu is re-sent
		}
	}
}

func (s *session) readLine() (string, bool) {
	line, ok := <-s.conn.Lines()
	return line, ok
}

func (s *session) nickname() string {
	return s.srv.Players.Nickname(s.conn.ID())
}

// setNickname loops until the registry accepts a name. Returns false on
// disconnect.
func (s *session) setNickname() bool {
	if err := s.conn.Send(protocol.NicknamePrompt); err != nil {
		return false
	}
	for {
		name, ok := s.readLine()
		if !ok {
			log.Printf("[Session] client %d has disconnected\n", s.conn.ID())
			return false
		}
		err := s.srv.Players.SetNickname(s.conn.ID(), name)
		var retry string
		switch {
		case err == nil:
			if err := s.conn.Send(protocol.NicknameSet); err != nil {
				return false
			}
			metrics.ConnectedPlayers.Set(float64(s.srv.Players.Count()))
			return true
		case errors.Is(err, players.ErrNameTooShort):
			retry = protocol.NicknameTooShort
		case errors.Is(err, players.ErrNameTooLong):
			retry = protocol.NicknameTooLong
		default:
			retry = protocol.NicknameTaken
		}
		if err := s.conn.Send(retry); err != nil {
			return false
		}
	}
}

// cleanup tears down everything this connection owns. Every step is a no-op
// when already done, so a drop from the round coordinator and the session's
// own exit never conflict.
func (s *session) cleanup() {
	id := s.conn.ID()

	for _, room := range s.srv.Rooms.RemoveFromAll(id) {
		room.Bus.Publish(events.Event{Kind: events.PlayerLeft, ConnID: id})
		s.notifyLeft(room)
	}

	// a host vanishing takes its room down with it
	if room := s.srv.Rooms.GetByOwner(id); room != nil {
		gs := &game.Session{Room: room, Host: s.conn, Players: s.srv.Players,
			Rooms: s.srv.Rooms, Conns: s.srv.Conns}
		gs.Cancel()
	}

	s.srv.Players.Remove(id)
	s.srv.Conns.Remove(id)
	s.conn.Close()
	metrics.ConnectedPlayers.Set(float64(s.srv.Players.Count()))
	log.Printf("[Session] ending service for client %d\n", id)
}

// notifyLeft tells the owner and refreshes the remaining members' lobby view
// after a departure.
func (s *session) notifyLeft(room *rooms.Room) {
	if oc := s.srv.Conns.Get(room.Owner); oc != nil {
		if err := oc.Send(protocol.PlayerLeftRoom(s.nickname())); err != nil {
			log.Printf("[Session] owner notify failed for room %d: %v\n", room.ID, err)
		}
	}
	s.broadcastLobbyInfo(room)
}

func (s *session) broadcastLobbyInfo(room *rooms.Room) {
	members := room.Members()
	nicks := make([]string, 0, len(members))
	for _, id := range members {
		nicks = append(nicks, s.srv.Players.Nickname(id))
	}
	msg := protocol.LobbyInfo(room.ID, room.Quiz.Title, nicks)
	for _, id := range members {
		if c := s.srv.Conns.Get(id); c != nil {
			if err := c.Send(msg); err != nil {
				log.Printf("[Session] lobby info failed for member %d: %v\n", id, err)
			}
		}
	}
}
