package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"live-quiz-service/internal/app"
	"live-quiz-service/internal/domain"
	"live-quiz-service/internal/infra/memory"
)

func newTestServer(t *testing.T, sink app.ResultSink) *httptest.Server {
	t.Helper()
	log := zerolog.Nop()
	hub := NewHub(log)
	rooms := app.NewRoomRegistry(hub, sink, 10*time.Second, 20*time.Millisecond, log)
	conns := app.NewConnRegistry()
	quizzes := memory.NewQuizRepository(memory.NewStaticQuizLoader(map[string]domain.Quiz{
		"quiz-1": {ID: "quiz-1", Questions: sampleQuestions()},
	}), time.Minute)
	handler := NewWSHandler(hub, rooms, conns, quizzes, log)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", handler.ServeWS)
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func dial(t *testing.T, server *httptest.Server, query string) *websocket.Conn {
	t.Helper()
	u := "ws" + server.URL[len("http"):] + "/ws" + query
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func sampleQuestions() []domain.Question {
	return []domain.Question{{
		Prompt:        "What is 2 + 2?",
		Options:       []string{"3", "4", "5", "6"},
		CorrectAnswer: "4",
		Explanation:   "Basic arithmetic.",
	}}
}

// awaitType reads messages until one of the wanted type arrives.
func awaitType(t *testing.T, conn *websocket.Conn, want string) map[string]any {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		var msg struct {
			Type    string          `json:"type"`
			Payload json.RawMessage `json:"payload"`
		}
		_ = conn.SetReadDeadline(deadline)
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("read while waiting for %s: %v", want, err)
		}
		if msg.Type != want {
			continue
		}
		var payload map[string]any
		if len(msg.Payload) > 0 {
			_ = json.Unmarshal(msg.Payload, &payload)
		}
		return payload
	}
	t.Fatalf("never received %s", want)
	return nil
}

func send(t *testing.T, conn *websocket.Conn, typ string, payload any) {
	t.Helper()
	if err := conn.WriteJSON(map[string]any{"type": typ, "payload": payload}); err != nil {
		t.Fatalf("write %s: %v", typ, err)
	}
}

func TestQuizRoundTrip(t *testing.T) {
	sink := memory.NewResultSink()
	server := newTestServer(t, sink)

	host := dial(t, server, "?userId=host-user")
	send(t, host, "createQuiz", map[string]any{
		"quizId":    "quiz-1",
		"userId":    "host-user",
		"questions": sampleQuestions(),
	})
	created := awaitType(t, host, "quizCreated")
	code, _ := created["roomCode"].(string)
	if len(code) != 6 {
		t.Fatalf("expected 6-digit room code, got %q", code)
	}

	player := dial(t, server, "")
	send(t, player, "joinQuiz", map[string]any{"roomCode": code, "name": "Bob"})
	awaitType(t, player, "joinSuccess")

	send(t, host, "startQuiz", map[string]any{"roomCode": code})
	payload := awaitType(t, player, "nextQuestion")
	question, _ := payload["question"].(map[string]any)
	if question == nil {
		t.Fatalf("nextQuestion missing question: %v", payload)
	}
	if _, leaked := question["correctAnswer"]; leaked {
		t.Fatalf("open question leaked the correct answer: %v", question)
	}

	send(t, player, "submitAnswer", map[string]any{"roomCode": code, "answer": "4"})
	outcome := awaitType(t, player, "answerResult")
	if correct, _ := outcome["wasCorrect"].(bool); !correct {
		t.Fatalf("expected correct answer, got %v", outcome)
	}
	if outcome["correctAnswer"] != "4" {
		t.Fatalf("answerResult missing correct answer text: %v", outcome)
	}
	awaitType(t, host, "playerAnswered")

	// Everyone answered: the question closes early and the single-question
	// session ends after the grace pause.
	awaitType(t, player, "timesUp")
	awaitType(t, player, "quizEnd")
	awaitType(t, host, "quizEnd")

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) && len(sink.Results()) == 0 {
		time.Sleep(10 * time.Millisecond)
	}
	results := sink.Results()
	if len(results) != 1 {
		t.Fatalf("expected one persisted result, got %d", len(results))
	}
	record := results[0]
	if record.RoomCode != code || record.QuizID != "quiz-1" || record.HostID != "host-user" {
		t.Fatalf("unexpected result record %+v", record)
	}
	if len(record.Participants) != 1 || record.Participants[0].Name != "Bob" || record.Participants[0].Score == 0 {
		t.Fatalf("unexpected result participants %+v", record.Participants)
	}
}

func TestJoinUnknownRoom(t *testing.T) {
	server := newTestServer(t, memory.NewResultSink())

	player := dial(t, server, "")
	send(t, player, "joinQuiz", map[string]any{"roomCode": "000000", "name": "Bob"})
	payload := awaitType(t, player, "error")
	if payload["message"] == "" {
		t.Fatalf("expected error message, got %v", payload)
	}
}

func TestNonHostCannotStart(t *testing.T) {
	server := newTestServer(t, memory.NewResultSink())

	host := dial(t, server, "?userId=host-user")
	send(t, host, "createQuiz", map[string]any{"questions": sampleQuestions()})
	created := awaitType(t, host, "quizCreated")
	code, _ := created["roomCode"].(string)

	player := dial(t, server, "")
	send(t, player, "joinQuiz", map[string]any{"roomCode": code, "name": "Bob"})
	awaitType(t, player, "joinSuccess")

	send(t, player, "startQuiz", map[string]any{"roomCode": code})
	awaitType(t, player, "error")
}

func TestHostDisconnectEndsSession(t *testing.T) {
	sink := memory.NewResultSink()
	server := newTestServer(t, sink)

	host := dial(t, server, "?userId=host-user")
	send(t, host, "createQuiz", map[string]any{"questions": sampleQuestions()})
	created := awaitType(t, host, "quizCreated")
	code, _ := created["roomCode"].(string)

	player := dial(t, server, "")
	send(t, player, "joinQuiz", map[string]any{"roomCode": code, "name": "Bob"})
	awaitType(t, player, "joinSuccess")

	host.Close()

	payload := awaitType(t, player, "quizEnd")
	if payload["message"] == nil {
		t.Fatalf("expected disconnect notice, got %v", payload)
	}
	if len(sink.Results()) != 0 {
		t.Fatalf("aborted session must not be persisted")
	}
}
