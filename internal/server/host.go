package server

import (
	"strconv"
	"strings"

	"quizroom/internal/game"
	"quizroom/internal/metrics"
	"quizroom/internal/protocol"
	"quizroom/internal/quiz"
)

// hostFlow is the host sub-menu: pick a quiz and run a room, author a quiz,
// or go back. Returns false when the connection is lost.
func (s *session) hostFlow() bool {
	if err := s.conn.Send(protocol.HostMenu); err != nil {
		return false
	}
	line, ok := s.readLine()
	if !ok {
		return false
	}
	switch strings.TrimSpace(line) {
	case "1":
		return s.hostGame()
	case "2":
		return s.authorQuiz()
	default:
		// "3" and anything else returns to the main menu
		return true
	}
}

// hostGame creates a room for a catalog quiz and drives the game session to
// completion from this goroutine.
func (s *session) hostGame() bool {
	var chosen quiz.Quiz
	for {
		if err := s.conn.Send(protocol.QuizList(s.srv.Catalog.List())); err != nil {
			return false
		}
		line, ok := s.readLine()
		if !ok {
			return false
		}
		number, err := strconv.Atoi(strings.TrimSpace(line))
		if err != nil {
			continue
		}
		q, err := s.srv.Catalog.Get(number)
		if err != nil {
			continue
		}
		chosen = q
		break
	}

	room := s.srv.Rooms.Create(s.conn.ID(), chosen)
	metrics.ActiveRooms.Set(float64(s.srv.Rooms.Count()))

	gs := &game.Session{
		Room:    room,
		Host:    s.conn,
		Players: s.srv.Players,
		Rooms:   s.srv.Rooms,
		Conns:   s.srv.Conns,
		DB:      s.srv.DB,
		Answers: s.srv.AnswerBuffer,
	}

	if err := s.conn.Send(protocol.RoomCreated(chosen.Title, room.ID)); err != nil {
		gs.Cancel()
		return false
	}

	for {
		line, ok := s.readLine()
		if !ok {
			gs.Cancel()
			return false
		}
		switch strings.TrimSpace(line) {
		case "1":
			if err := gs.Run(); err != nil {
				return false
			}
			// host acknowledges the scoreboard before returning to the menu
			_, ok := s.readLine()
			return ok
		case "2":
			gs.Cancel()
			return true
		default:
			// awaiting-players screen: ignore anything else
		}
	}
}

// authorQuiz walks the host through the strict authoring prompt sequence and
// publishes the result to the catalog.
func (s *session) authorQuiz() bool {
	prompt := func(msg string) (string, bool) {
		if err := s.conn.Send(msg); err != nil {
			return "", false
		}
		return s.readLine()
	}

	title, ok := prompt(protocol.QuizTitlePrompt)
	if !ok {
		return false
	}
	authored := quiz.Quiz{Title: title}

	for {
		q := quiz.Question{AnswerTime: quiz.DefaultAnswerTime}

		if q.Text, ok = prompt(protocol.QuestionTextPrompt(len(authored.Questions) + 1)); !ok {
			return false
		}
		if q.OptionA, ok = prompt(protocol.OptionPrompt("A")); !ok {
			return false
		}
		if q.OptionB, ok = prompt(protocol.OptionPrompt("B")); !ok {
			return false
		}
		if q.OptionC, ok = prompt(protocol.OptionPrompt("C")); !ok {
			return false
		}
		if q.OptionD, ok = prompt(protocol.OptionPrompt("D")); !ok {
			return false
		}

		if err := s.conn.Send(protocol.CorrectLabelPrompt); err != nil {
			return false
		}
		for q.Correct == "" {
			line, ok := s.readLine()
			if !ok {
				return false
			}
			switch strings.TrimSpace(line) {
			case "A", "B", "C", "D":
				q.Correct = strings.TrimSpace(line)
			}
		}
		authored.Questions = append(authored.Questions, q)

		another := ""
		for another == "" {
			line, ok := prompt(protocol.NextQuestionPrompt)
			if !ok {
				return false
			}
			switch strings.TrimSpace(line) {
			case "1", "2":
				another = strings.TrimSpace(line)
			}
		}
		if another == "2" {
			break
		}
	}

	s.srv.Catalog.Publish(authored)
	return s.conn.Send(protocol.QuizCreated) == nil
}
