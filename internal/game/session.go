package game

import (
	"log"
	"sort"
	"time"

	"quizroom/internal/db"
	"quizroom/internal/events"
	"quizroom/internal/metrics"
	"quizroom/internal/players"
	"quizroom/internal/protocol"
	"quizroom/internal/quiz"
	"quizroom/internal/rooms"
	"quizroom/internal/transport"
)

const (
	// drainTimeout bounds how long teardown waits for members still reading
	// end-of-game output before the room is deleted anyway.
	drainTimeout = 2 * time.Second

	// recheckEvery bounds wakeup latency when a bus event was dropped; every
	// wait re-verifies against room state, never the event alone.
	recheckEvery = 250 * time.Millisecond
)

// Session owns one room's game lifecycle: lobby, rounds, scoreboard,
// teardown. The host's connection goroutine drives it; members only observe
// it through the room's event bus.
type Session struct {
	Room    *rooms.Room
	Host    *transport.Conn
	Players *players.Store
	Rooms   *rooms.Store
	Conns   *transport.Table
	DB      *db.DB              // nil if no database configured
	Answers chan db.AnswerEvent // nil if no database configured
}

// Run plays every question of the room's quiz and delivers the scoreboard.
// Any host send failure aborts the game through the same teardown, so no
// member is left blocked on the round barrier or the end-of-game wait.
func (s *Session) Run() error {
	room := s.Room
	sub := room.Bus.Subscribe()
	defer room.Bus.Unsubscribe(sub)

	room.SetInGame(true)
	s.Players.ResetScores(room.Members())
	gameID := s.recordGameStart()

	var hostErr error
	for i, q := range room.Quiz.Questions {
		if hostErr = s.Host.Send(protocol.RoundStarted); hostErr != nil {
			break
		}
		room.Bus.Publish(events.Event{Kind: events.RoundStarted})
		s.runRound(gameID, i+1, q)
		s.awaitAnswers(sub)
		if hostErr = s.Host.Send(protocol.RoundFinished); hostErr != nil {
			break
		}
	}

	if hostErr == nil {
		s.sendScoreboard(gameID)
		metrics.GamesTotal.Inc()
	} else {
		log.Printf("[Game] host %d lost mid-game, aborting room %d: %v\n", room.Owner, room.ID, hostErr)
	}

	s.recordGameEnd(gameID)
	s.teardown()
	return hostErr
}

// Cancel closes a room before its game started and releases lobby waiters.
func (s *Session) Cancel() {
	log.Printf("[Game] closing room %d\n", s.Room.ID)
	s.teardown()
}

func (s *Session) teardown() {
	s.Room.SetInGame(false)
	s.Room.Bus.Publish(events.Event{Kind: events.GameEnded})
	s.Room.AwaitDrain(drainTimeout)
	s.Rooms.Delete(s.Room.ID)
	metrics.ActiveRooms.Set(float64(s.Rooms.Count()))
}

// runRound broadcasts one question and launches an answer-collection
// goroutine per member. It returns immediately; Run awaits the barrier.
func (s *Session) runRound(gameID string, number int, q quiz.Question) {
	room := s.Room
	room.ResetAnswers()

	msg := protocol.Question(q)
	for _, id := range room.Members() {
		conn := s.Conns.Get(id)
		if conn == nil {
			room.RemoveMember(id)
			continue
		}
		if err := conn.Send(msg); err != nil {
			log.Printf("[Game] dropping member %d: %v\n", id, err)
			s.drop(id)
		}
	}

	start := time.Now()
	for _, id := range room.Members() {
		go s.collectAnswer(gameID, number, q, id, start)
	}
}

// collectAnswer waits for one member's answer until the shared round deadline,
// scores it, and notifies the owner. Every member measures elapsed time from
// the same round start, and gets at least one non-blocking poll even when the
// budget is already spent.
func (s *Session) collectAnswer(gameID string, number int, q quiz.Question, memberID int64, start time.Time) {
	defer func() {
		s.Room.AddAnswer()
		s.Room.Bus.Publish(events.Event{Kind: events.RoundEnded, ConnID: memberID})
	}()

	conn := s.Conns.Get(memberID)
	deadline := start.Add(time.Duration(q.AnswerTime) * time.Second)

	var raw string
	var answered, lost bool
	if conn == nil {
		lost = true
	} else {
		select {
		case line, ok := <-conn.Lines():
			answered, lost, raw = ok, !ok, line
		default:
		}
		if !answered && !lost {
			if wait := time.Until(deadline); wait > 0 {
				timer := time.NewTimer(wait)
				select {
				case line, ok := <-conn.Lines():
					answered, lost, raw = ok, !ok, line
				case <-timer.C:
				}
				timer.Stop()
			}
		}
	}
	elapsed := time.Since(start).Milliseconds()

	nickname := s.Players.Nickname(memberID)
	outcome := metrics.OutcomeTimeout
	points := 0
	switch {
	case answered && raw == q.Correct:
		outcome = metrics.OutcomeCorrect
		points = Points(q.AnswerTime, elapsed)
		s.Players.AddScore(memberID, points)
		s.notifyOwner(protocol.CorrectAnswer(nickname, elapsed))
	case answered:
		outcome = metrics.OutcomeWrong
		s.notifyOwner(protocol.WrongAnswer(nickname, raw))
	default:
		s.notifyOwner(protocol.WrongAnswer(nickname, ""))
		if lost {
			log.Printf("[Game] member %d disconnected mid-round\n", memberID)
			s.drop(memberID)
		}
	}

	metrics.AnswersTotal.WithLabelValues(outcome).Inc()
	s.recordAnswer(db.AnswerEvent{
		GameID:     gameID,
		QuestionNo: number,
		Nickname:   nickname,
		Outcome:    outcome,
		Answer:     raw,
		ElapsedMs:  elapsed,
		Points:     points,
		AnsweredAt: time.Now(),
	})
}

// awaitAnswers is the round barrier: it returns once every current member's
// answer task has completed, in whatever order they finish.
func (s *Session) awaitAnswers(sub chan events.Event) {
	if s.Room.AnswersDone() {
		return
	}
	tick := time.NewTicker(recheckEvery)
	defer tick.Stop()
	for {
		select {
		case <-sub:
		case <-tick.C:
		}
		if s.Room.AnswersDone() {
			return
		}
	}
}

func (s *Session) sendScoreboard(gameID string) {
	type ranked struct {
		id    int64
		score int
	}
	members := s.Room.Members()
	all := make([]ranked, 0, len(members))
	for _, id := range members {
		all = append(all, ranked{id: id, score: s.Players.Score(id)})
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].score != all[j].score {
			return all[i].score > all[j].score
		}
		return all[i].id < all[j].id
	})

	top := len(all)
	if top > 3 {
		top = 3
	}
	standings := make([]protocol.Standing, 0, top)
	for i := 0; i < top; i++ {
		standings = append(standings, protocol.Standing{
			Rank:     i + 1,
			Nickname: s.Players.Nickname(all[i].id),
			Score:    all[i].score,
		})
	}

	msg := protocol.Scoreboard(standings)
	s.notifyOwner(msg)

	cutoff := 0
	if len(standings) > 0 {
		cutoff = standings[len(standings)-1].Score
	}
	for _, r := range all {
		conn := s.Conns.Get(r.id)
		if conn == nil {
			continue
		}
		if err := conn.Send(msg); err != nil {
			s.drop(r.id)
			continue
		}
		if r.score < cutoff {
			if err := conn.Send(protocol.YourScore(r.score)); err != nil {
				s.drop(r.id)
			}
		}
	}

	if s.DB != nil && gameID != "" {
		for i, r := range all {
			if err := s.DB.AddStanding(gameID, s.Players.Nickname(r.id), r.score, i+1); err != nil {
				log.Printf("[DB] AddStanding error: %v\n", err)
			}
		}
	}
}

// notifyOwner reports round progress to the host. A failed owner send is only
// logged here; the host's next own send fails and aborts the game, and member
// tasks are never interrupted by it.
func (s *Session) notifyOwner(msg string) {
	if err := s.Host.Send(msg); err != nil {
		log.Printf("[Game] owner notify failed for room %d: %v\n", s.Room.ID, err)
	}
}

// drop removes a dead member from every registry and closes its connection.
// Safe to call twice for the same id.
func (s *Session) drop(id int64) {
	s.Players.Remove(id)
	s.Room.RemoveMember(id)
	if c := s.Conns.Get(id); c != nil {
		c.Close()
		s.Conns.Remove(id)
	}
	metrics.ConnectedPlayers.Set(float64(s.Players.Count()))
	s.Room.Bus.Publish(events.Event{Kind: events.PlayerLeft, ConnID: id})
}

func (s *Session) recordGameStart() string {
	if s.DB == nil {
		return ""
	}
	gameID, err := s.DB.CreateGame(s.Room.ID, s.Players.Nickname(s.Room.Owner),
		s.Room.Quiz.Title, len(s.Room.Quiz.Questions))
	if err != nil {
		log.Printf("[DB] CreateGame error: %v\n", err)
		return ""
	}
	return gameID
}

func (s *Session) recordGameEnd(gameID string) {
	if s.DB == nil || gameID == "" {
		return
	}
	if err := s.DB.EndGame(gameID); err != nil {
		log.Printf("[DB] EndGame error: %v\n", err)
	}
}

func (s *Session) recordAnswer(ev db.AnswerEvent) {
	if s.Answers == nil || ev.GameID == "" {
		return
	}
	select {
	case s.Answers <- ev:
	default:
		log.Println("[DB] Answer buffer full, dropping event")
	}
}
