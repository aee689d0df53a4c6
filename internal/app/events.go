package app

import (
	"context"

	"live-quiz-service/internal/domain"
)

// Event is the typed envelope delivered to clients over the transport.
type Event struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

// Sender delivers events to individual connections. Delivery to a
// disconnected or unknown connection must be a silent no-op, and events sent
// to the same connection must arrive in the order they were handed over.
type Sender interface {
	Send(connID string, evt Event)
}

// ResultSink durably records the final leaderboard of a completed session.
// Persistence is best-effort from the session's point of view.
type ResultSink interface {
	SaveResult(ctx context.Context, result domain.SessionResult) error
}

type questionPayload struct {
	Question       domain.Question `json:"question"`
	QuestionNumber int             `json:"questionNumber"`
	TotalQuestions int             `json:"totalQuestions"`
}

type noticePayload struct {
	Message string `json:"message"`
}

// EventQuizCreated confirms session creation to the host.
func EventQuizCreated(code string) Event {
	return Event{Type: "quizCreated", Payload: map[string]string{"roomCode": code}}
}

// EventJoinSuccess confirms a join to the joining participant.
func EventJoinSuccess(code string) Event {
	return Event{Type: "joinSuccess", Payload: map[string]string{"roomCode": code}}
}

// EventParticipantList carries the current ranked scoreboard room-wide.
func EventParticipantList(entries []domain.RankedEntry) Event {
	return Event{Type: "updateParticipantList", Payload: entries}
}

// EventNextQuestion opens a question. The question must already have its
// answer stripped.
func EventNextQuestion(q domain.Question, number, total int) Event {
	return Event{Type: "nextQuestion", Payload: questionPayload{
		Question:       q,
		QuestionNumber: number,
		TotalQuestions: total,
	}}
}

// EventTimesUp marks the end of the answering window.
func EventTimesUp() Event {
	return Event{Type: "timesUp"}
}

// EventAnswerResult privately tells a participant how they did.
func EventAnswerResult(outcome domain.AnswerOutcome) Event {
	return Event{Type: "answerResult", Payload: outcome}
}

// EventPlayerAnswered notifies the host that a participant has locked in.
func EventPlayerAnswered(p domain.Participant) Event {
	return Event{Type: "playerAnswered", Payload: p}
}

// EventQuizEnd carries the final leaderboard of a completed session.
func EventQuizEnd(entries []domain.RankedEntry) Event {
	return Event{Type: "quizEnd", Payload: entries}
}

// EventQuizAborted replaces the leaderboard when a session ends abnormally.
func EventQuizAborted(message string) Event {
	return Event{Type: "quizEnd", Payload: noticePayload{Message: message}}
}

// EventError reports a request failure to a single connection.
func EventError(message string) Event {
	return Event{Type: "error", Payload: noticePayload{Message: message}}
}
