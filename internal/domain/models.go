package domain

import "time"

// Question models an MCQ question with exactly four options and one correct answer.
// CorrectAnswer and Explanation are never included in payloads sent to
// participants while the question is open.
type Question struct {
	Prompt        string   `json:"question" validate:"required"`
	Options       []string `json:"options" validate:"required,len=4,dive,required"`
	CorrectAnswer string   `json:"correctAnswer,omitempty" validate:"required"`
	Explanation   string   `json:"explanation,omitempty"`
}

// PublicView returns the question with the answer and explanation stripped.
func (q Question) PublicView() Question {
	return Question{Prompt: q.Prompt, Options: q.Options}
}

// Quiz is a saved, reloadable question set.
type Quiz struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Questions []Question `json:"questions" validate:"required,min=1,dive"`
}

// Participant is a joined player and their accumulated score.
type Participant struct {
	ConnID      string `json:"id"`
	DisplayName string `json:"name"`
	Score       int    `json:"score"`
}

// RankedEntry is one row of the room's scoreboard.
type RankedEntry struct {
	ConnID      string `json:"id"`
	DisplayName string `json:"name"`
	Score       int    `json:"score"`
}

// AnswerOutcome summarizes a submission for the answering participant only.
type AnswerOutcome struct {
	WasCorrect    bool   `json:"wasCorrect"`
	CorrectAnswer string `json:"correctAnswer"`
}

// ParticipantScore is one row of a persisted result.
type ParticipantScore struct {
	Name  string `json:"name"`
	Score int    `json:"score"`
}

// SessionResult is the durable record of a completed session.
type SessionResult struct {
	QuizID       string             `json:"quizId"`
	HostID       string             `json:"hostId"`
	RoomCode     string             `json:"roomCode"`
	Participants []ParticipantScore `json:"participants"`
	CompletedAt  time.Time          `json:"completedAt"`
}
