package server

import (
	"log"
	"strconv"
	"strings"
	"time"

	"quizroom/internal/events"
	"quizroom/internal/protocol"
)

// recheckEvery bounds how stale a lobby or end-game wait can get when a bus
// event was dropped; waiters always re-verify against room state.
const recheckEvery = 250 * time.Millisecond

// playerFlow lists joinable rooms, joins one and blocks through its lobby and
// game. Returns false when the connection is lost.
func (s *session) playerFlow() bool {
	id := s.conn.ID()

	joinable := s.srv.Rooms.ListJoinable()
	ids := make([]int64, 0, len(joinable))
	for _, r := range joinable {
		ids = append(ids, r.ID)
	}
	if err := s.conn.Send(protocol.OpenLobbies(ids)); err != nil {
		return false
	}
	line, ok := s.readLine()
	if !ok {
		return false
	}

	roomID, err := strconv.ParseInt(strings.TrimSpace(line), 10, 64)
	if err != nil {
		return s.conn.Send(protocol.RoomNotFound) == nil
	}
	if err := s.srv.Rooms.AddMember(roomID, id); err != nil {
		// unknown room and in-game room read the same from outside
		return s.conn.Send(protocol.RoomNotFound) == nil
	}
	room := s.srv.Rooms.Get(roomID)
	if room == nil {
		return s.conn.Send(protocol.RoomNotFound) == nil
	}

	if oc := s.srv.Conns.Get(room.Owner); oc != nil {
		if err := oc.Send(protocol.PlayerJoined(s.nickname())); err != nil {
			log.Printf("[Session] owner notify failed for room %d: %v\n", room.ID, err)
		}
	}
	s.broadcastLobbyInfo(room)
	s.srv.Players.SetWaiting(id, true)

	sub := room.Bus.Subscribe()
	defer room.Bus.Unsubscribe(sub)

	tick := time.NewTicker(recheckEvery)
	defer tick.Stop()

	// lobby wait: leave on "3", wake on game start or room teardown
	for !room.InGame() {
		if s.srv.Rooms.Get(room.ID) == nil {
			// host cancelled the room
			s.srv.Players.SetWaiting(id, false)
			return s.conn.Send(protocol.RoomClosed) == nil
		}
		select {
		case line, ok := <-s.conn.Lines():
			if !ok {
				return false
			}
			if strings.TrimSpace(line) == "3" {
				s.srv.Players.SetWaiting(id, false)
				room.RemoveMember(id)
				room.Bus.Publish(events.Event{Kind: events.PlayerLeft, ConnID: id})
				s.notifyLeft(room)
				return true
			}
		case <-sub:
		case <-tick.C:
		}
	}

	s.srv.Players.SetWaiting(id, false)
	log.Printf("[Session] game started for player %d\n", id)

	// game wait: the round coordinator owns this connection's input now;
	// block until the session publishes the end of the game
	room.Retain()
	for room.InGame() {
		select {
		case <-sub:
		case <-tick.C:
		}
	}
	room.Release()
	log.Printf("[Session] game ended for player %d\n", id)

	// one more line while the player reads the scoreboard
	_, ok = s.readLine()
	return ok
}
