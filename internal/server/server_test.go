package server

import (
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"quizroom/internal/quiz"
)

// quickQuiz keeps game tests fast with a short answer budget.
func quickQuiz() quiz.Quiz {
	return quiz.Quiz{
		Title: "Quick quiz",
		Questions: []quiz.Question{{
			Text:       "Pick A",
			OptionA:    "right",
			OptionB:    "wrong",
			OptionC:    "wrong",
			OptionD:    "wrong",
			Correct:    "A",
			AnswerTime: 2,
		}},
	}
}

// testClient scripts one side of a served connection. A goroutine drains
// server output into a buffer so server sends never block on the pipe.
type testClient struct {
	nc   net.Conn
	done chan struct{}

	mu  sync.Mutex
	buf strings.Builder
}

func connect(t *testing.T, srv *Server) *testClient {
	t.Helper()
	server, client := net.Pipe()
	tc := &testClient{nc: client, done: make(chan struct{})}

	go func() {
		srv.ServeConn(server)
		close(tc.done)
	}()
	go func() {
		b := make([]byte, 1024)
		for {
			n, err := client.Read(b)
			if n > 0 {
				tc.mu.Lock()
				tc.buf.Write(b[:n])
				tc.mu.Unlock()
			}
			if err != nil {
				return
			}
		}
	}()
	t.Cleanup(func() {
		client.Close()
		select {
		case <-tc.done:
		case <-time.After(2 * time.Second):
			t.Error("server session did not end after client close")
		}
	})
	return tc
}

func (tc *testClient) send(t *testing.T, line string) {
	t.Helper()
	tc.nc.SetWriteDeadline(time.Now().Add(2 * time.Second))
	if _, err := tc.nc.Write([]byte(line + "\n")); err != nil {
		t.Fatalf("client write %q: %v", line, err)
	}
}

func (tc *testClient) output() string {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	return tc.buf.String()
}

// waitFor blocks until the server output contains at least count occurrences
// of substr.
func (tc *testClient) waitForCount(t *testing.T, substr string, count int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if strings.Count(tc.output(), substr) >= count {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d of %q, output so far:\n%s", count, substr, tc.output())
}

func (tc *testClient) waitFor(t *testing.T, substr string) {
	t.Helper()
	tc.waitForCount(t, substr, 1)
}

// login walks the nickname handshake up to the first main menu.
func (tc *testClient) login(t *testing.T, nickname string) {
	t.Helper()
	tc.waitFor(t, "Choose your nickname:")
	tc.send(t, nickname)
	tc.waitFor(t, "Nickname set !")
	tc.waitFor(t, "1.Host a game.")
}

func TestNicknameValidation(t *testing.T) {
	srv := New()
	first := connect(t, srv)
	first.login(t, "alice")

	second := connect(t, srv)
	second.waitFor(t, "Choose your nickname:")

	second.send(t, "ab")
	second.waitFor(t, "Nickname too short !")
	second.send(t, strings.Repeat("x", 17))
	second.waitFor(t, "Nickname too long !")
	second.send(t, "alice")
	second.waitFor(t, "Nickname already taken !")
	second.send(t, "bob")
	second.waitFor(t, "Nickname set !")
}

func TestExitFromMainMenu(t *testing.T) {
	srv := New()
	tc := connect(t, srv)
	tc.login(t, "alice")

	tc.send(t, "3")
	select {
	case <-tc.done:
	case <-time.After(2 * time.Second):
		t.Fatal("session should end on exit command")
	}
	if srv.Players.Exists(1) {
		t.Error("exited player should be removed from the store")
	}
}

func TestUnknownMenuCommandRepromptsMenu(t *testing.T) {
	srv := New()
	tc := connect(t, srv)
	tc.login(t, "alice")

	tc.send(t, "bogus")
	tc.waitForCount(t, "1.Host a game.", 2)
}

func TestAuthorQuiz(t *testing.T) {
	srv := New()
	tc := connect(t, srv)
	tc.login(t, "alice")

	tc.send(t, "1")
	tc.waitFor(t, "2.Create a quiz set")
	tc.send(t, "2")

	tc.waitFor(t, "Enter quiz title:")
	tc.send(t, "Capitals")
	tc.waitFor(t, "Enter question text (question no. 1)")
	tc.send(t, "Capital of France?")
	tc.waitFor(t, "Enter answer A text:")
	tc.send(t, "Paris")
	tc.waitFor(t, "Enter answer B text:")
	tc.send(t, "Lyon")
	tc.waitFor(t, "Enter answer C text:")
	tc.send(t, "Nice")
	tc.waitFor(t, "Enter answer D text:")
	tc.send(t, "Lille")
	tc.waitFor(t, "Which answer is correct?")
	tc.send(t, "E") // rejected, prompt stays pending
	tc.send(t, "A")
	tc.waitFor(t, "Finish quiz - type \"2\"")
	tc.send(t, "2")
	tc.waitFor(t, "Quiz created!")

	if srv.Catalog.Len() != 4 {
		t.Fatalf("catalog size = %d, want 4 after authoring", srv.Catalog.Len())
	}
	authored, err := srv.Catalog.Get(4)
	if err != nil {
		t.Fatal(err)
	}
	if authored.Title != "Capitals" || len(authored.Questions) != 1 {
		t.Errorf("authored quiz = %+v", authored)
	}
	if q := authored.Questions[0]; q.Correct != "A" || q.OptionA != "Paris" {
		t.Errorf("authored question = %+v", q)
	}

	// back on the main menu
	tc.waitForCount(t, "1.Host a game.", 2)
}

func TestJoinUnknownRoom(t *testing.T) {
	srv := New()
	tc := connect(t, srv)
	tc.login(t, "alice")

	tc.send(t, "2")
	tc.waitFor(t, "Pass in lobby id:")
	tc.send(t, "999")
	tc.waitFor(t, "Room does not exist.")
	tc.waitForCount(t, "1.Host a game.", 2)
}

func TestLobbyJoinLeaveCancel(t *testing.T) {
	srv := New()
	host := connect(t, srv)
	host.login(t, "host")

	host.send(t, "1")
	host.waitFor(t, "1.Choose a quiz.")
	host.send(t, "1")
	host.waitFor(t, "Choose quiz set number:")
	host.send(t, "1")
	host.waitFor(t, "Room id:123")

	player := connect(t, srv)
	player.login(t, "alice")
	player.send(t, "2")
	player.waitFor(t, "Open lobbies:\n123")
	player.send(t, "123")
	player.waitFor(t, "You have joined the room. Room id:123")
	player.waitFor(t, "Players in room:\nalice")
	host.waitFor(t, "Player alice has joined your room !")

	player.send(t, "3")
	player.waitForCount(t, "1.Host a game.", 2)
	host.waitFor(t, "Player alice has left your room !")

	host.send(t, "2")
	host.waitForCount(t, "1.Host a game.", 2)
	if srv.Rooms.Count() != 0 {
		t.Errorf("room count after cancel = %d, want 0", srv.Rooms.Count())
	}
}

func TestRoomClosedWhileWaiting(t *testing.T) {
	srv := New()
	host := connect(t, srv)
	host.login(t, "host")

	host.send(t, "1")
	host.waitFor(t, "1.Choose a quiz.")
	host.send(t, "1")
	host.waitFor(t, "Choose quiz set number:")
	host.send(t, "1")
	host.waitFor(t, "Room id:123")

	player := connect(t, srv)
	player.login(t, "alice")
	player.send(t, "2")
	player.waitFor(t, "Pass in lobby id:")
	player.send(t, "123")
	player.waitFor(t, "You have joined the room")

	host.send(t, "2") // cancel the room
	player.waitFor(t, "The room has been closed by the host.")
	player.waitForCount(t, "1.Host a game.", 2)
}

func TestFullGame(t *testing.T) {
	srv := New()
	srv.Catalog.Publish(quickQuiz())

	host := connect(t, srv)
	host.login(t, "host")
	host.send(t, "1")
	host.waitFor(t, "1.Choose a quiz.")
	host.send(t, "1")
	host.waitFor(t, "Choose quiz set number:")
	host.send(t, "4")
	host.waitFor(t, "Quiz picked:Quick quiz")
	host.waitFor(t, "Room id:123")

	alice := connect(t, srv)
	alice.login(t, "alice")
	alice.send(t, "2")
	alice.waitFor(t, "Pass in lobby id:")
	alice.send(t, "123")
	alice.waitFor(t, "You have joined the room")

	bob := connect(t, srv)
	bob.login(t, "bob")
	bob.send(t, "2")
	bob.waitFor(t, "Pass in lobby id:")
	bob.send(t, "123")
	bob.waitFor(t, "You have joined the room")

	host.waitFor(t, "Player alice has joined your room !")
	host.waitFor(t, "Player bob has joined your room !")
	host.send(t, "1")

	host.waitFor(t, "Round started!")
	alice.waitFor(t, "Q:Pick A")
	bob.waitFor(t, "Q:Pick A")
	alice.send(t, "A")
	bob.send(t, "B")

	host.waitFor(t, "Player alice has answered correctly in")
	host.waitFor(t, "Player bob gave a wrong answer (B)")
	host.waitFor(t, "Round finished!")

	host.waitFor(t, "Scoreboard:\n1. alice")
	alice.waitFor(t, "Scoreboard:\n1. alice")
	bob.waitFor(t, "2. bob 0 points")

	if score := srv.Players.Score(2); score < 1000 {
		t.Errorf("alice score = %d, want a correct-answer score", score)
	}
	// the host goroutine deletes the room asynchronously after the scoreboard
	deadline := time.Now().Add(2 * time.Second)
	for srv.Rooms.Count() != 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if srv.Rooms.Count() != 0 {
		t.Errorf("room count after game = %d, want 0", srv.Rooms.Count())
	}

	// everyone acknowledges the scoreboard and lands back on the main menu
	host.send(t, "ok")
	alice.send(t, "ok")
	bob.send(t, "ok")
	host.waitForCount(t, "1.Host a game.", 2)
	alice.waitForCount(t, "1.Host a game.", 2)
	bob.waitForCount(t, "1.Host a game.", 2)
}

func TestShutdownNotifiesClients(t *testing.T) {
	srv := New()
	tc := connect(t, srv)
	tc.login(t, "alice")

	srv.Shutdown()
	tc.waitFor(t, "Server shut down!")
	select {
	case <-tc.done:
	case <-time.After(2 * time.Second):
		t.Fatal("session should end on shutdown")
	}
}
