// Package protocol builds every message the server puts on the wire. The
// category prefixes are display-routing hints for the client UI and carry no
// protocol state of their own.
package protocol

import (
	"fmt"
	"strings"

	"quizroom/internal/quiz"
)

const (
	PrefixMenu     = "MM:" // main-menu and lobby text
	PrefixHost     = "MH:" // host-context text
	PrefixPlayer   = "MP:" // player-context text
	PrefixQuestion = "Q:"  // question blocks
	PrefixSettings = "S:"  // settings and other client hints
)

const (
	NicknamePrompt   = "Choose your nickname:"
	NicknameSet      = "Nickname set !"
	NicknameTooShort = "Nickname too short ! Try something with at least 3 characters:"
	NicknameTooLong  = "Nickname too long ! Try something below 16 characters:"
	NicknameTaken    = "Nickname already taken ! Try something different:"

	MainMenu = PrefixMenu + "=== kahoot menu ===\n1.Host a game.\n2.Join a room\n3.Exit"
	HostMenu = PrefixHost + "=== kahoot menu ===\n1.Choose a quiz.\n2.Create a quiz set\n3.Go back"

	RoundStarted  = PrefixHost + "Round started!"
	RoundFinished = PrefixHost + "Round finished!"

	RoomNotFound = PrefixMenu + "Room does not exist."
	RoomClosed   = PrefixMenu + "The room has been closed by the host."

	QuizTitlePrompt    = PrefixHost + "Enter quiz title: "
	CorrectLabelPrompt = PrefixHost + "Which answer is correct? (A,B,C,D)"
	NextQuestionPrompt = PrefixHost + "Create another question - type \"1\"\nFinish quiz - type \"2\""
	QuizCreated        = PrefixHost + "Quiz created!"

	ServerShutdown = "Server shut down!"
)

func QuizList(list []quiz.Summary) string {
	var b strings.Builder
	b.WriteString(PrefixHost)
	b.WriteString("Choose quiz set number:")
	for _, s := range list {
		fmt.Fprintf(&b, "\n%d. %s", s.Number, s.Title)
	}
	return b.String()
}

func RoomCreated(quizTitle string, roomID int64) string {
	var b strings.Builder
	b.WriteString(PrefixHost)
	fmt.Fprintf(&b, "Quiz picked:%s\n", quizTitle)
	fmt.Fprintf(&b, "Successfully created a room. Room id:%d\n", roomID)
	b.WriteString("1.Start the game\n2.Exit\n===Awaiting players===")
	return b.String()
}

func Question(q quiz.Question) string {
	var b strings.Builder
	b.WriteString(PrefixQuestion)
	b.WriteString(q.Text)
	fmt.Fprintf(&b, "\nA: %s", q.OptionA)
	fmt.Fprintf(&b, "\nB: %s", q.OptionB)
	fmt.Fprintf(&b, "\nC: %s", q.OptionC)
	fmt.Fprintf(&b, "\nD: %s", q.OptionD)
	return b.String()
}

func OpenLobbies(ids []int64) string {
	var b strings.Builder
	b.WriteString(PrefixPlayer)
	b.WriteString("=== \"kahoot\" menu ===\nOpen lobbies:")
	for _, id := range ids {
		fmt.Fprintf(&b, "\n%d", id)
	}
	b.WriteString("\nPass in lobby id:")
	return b.String()
}

// LobbyInfo is the full snapshot sent to every member when the lobby roster
// changes.
func LobbyInfo(roomID int64, quizTitle string, nicknames []string) string {
	var b strings.Builder
	b.WriteString(PrefixPlayer)
	fmt.Fprintf(&b, "You have joined the room. Room id:%d\n", roomID)
	fmt.Fprintf(&b, "Quiz title :%s\n", quizTitle)
	b.WriteString("Waiting for the game to start. Type 3 to go back.\n")
	b.WriteString("Players in room:")
	for _, n := range nicknames {
		b.WriteString("\n")
		b.WriteString(n)
	}
	return b.String()
}

func PlayerJoined(nickname string) string {
	return fmt.Sprintf("%sPlayer %s has joined your room !", PrefixHost, nickname)
}

func PlayerLeftRoom(nickname string) string {
	return fmt.Sprintf("Player %s has left your room !", nickname)
}

func CorrectAnswer(nickname string, elapsedMs int64) string {
	return fmt.Sprintf("%sPlayer %s has answered correctly in %d milliseconds", PrefixHost, nickname, elapsedMs)
}

// WrongAnswer covers timeouts too; raw is then empty.
func WrongAnswer(nickname, raw string) string {
	return fmt.Sprintf("%sPlayer %s gave a wrong answer (%s)", PrefixHost, nickname, raw)
}

func QuestionTextPrompt(number int) string {
	return fmt.Sprintf("%sEnter question text (question no. %d)", PrefixHost, number)
}

func OptionPrompt(label string) string {
	return fmt.Sprintf("%sEnter answer %s text:", PrefixHost, label)
}

// Standing is one public scoreboard row.
type Standing struct {
	Rank     int
	Nickname string
	Score    int
}

func Scoreboard(standings []Standing) string {
	var b strings.Builder
	b.WriteString(PrefixPlayer)
	b.WriteString("Scoreboard:")
	for _, s := range standings {
		fmt.Fprintf(&b, "\n%d. %s %d points", s.Rank, s.Nickname, s.Score)
	}
	return b.String()
}

func YourScore(score int) string {
	return fmt.Sprintf("%sYour score: %d points", PrefixPlayer, score)
}
