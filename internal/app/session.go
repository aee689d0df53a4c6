package app

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"live-quiz-service/internal/domain"
)

// Phase is the lifecycle state of a session. Question-scoped fields
// (startedAt, answered, eligible, timer) are only meaningful in
// PhaseInQuestion and PhaseGrading.
type Phase int

const (
	// PhaseLobby is the initial state: participants gather, nothing is timed.
	PhaseLobby Phase = iota
	// PhaseInQuestion means a question is open and its countdown is running.
	PhaseInQuestion
	// PhaseGrading is the brief pause between time-up and the next question.
	PhaseGrading
	// PhaseEnded is terminal.
	PhaseEnded
)

const sinkTimeout = 5 * time.Second

// SessionConfig carries everything a session needs at construction time.
type SessionConfig struct {
	Code      string
	QuizID    string
	HostID    string
	HostConn  string
	Questions []domain.Question

	Gateway Sender
	Sink    ResultSink
	// OnClose is invoked exactly once when the session ends, normally or not.
	OnClose func(code string)

	QuestionTime time.Duration
	GracePeriod  time.Duration
	Logger       zerolog.Logger
	// Clock overrides time.Now in tests.
	Clock func() time.Time
}

// Session is the per-room state machine. Every mutation (join, answer,
// start, advance, timer fire, disconnect) runs under one mutex, so no two
// operations on the same session ever interleave. Timer callbacks re-enter
// through the same mutex and carry the question index they were armed for;
// a fire that lost the race to an explicit advance finds the index stale and
// does nothing.
type Session struct {
	code      string
	quizID    string
	hostID    string
	hostConn  string
	questions []domain.Question

	gateway Sender
	sink    ResultSink
	onClose func(code string)

	questionTime time.Duration
	gracePeriod  time.Duration
	log          zerolog.Logger
	now          func() time.Time

	mu           sync.Mutex
	phase        Phase
	current      int
	participants map[string]*domain.Participant
	order        []string
	startedAt    time.Time
	answered     map[string]struct{}
	eligible     map[string]struct{}
	timer        *time.Timer
}

func NewSession(cfg SessionConfig) *Session {
	now := cfg.Clock
	if now == nil {
		now = time.Now
	}
	return &Session{
		code:         cfg.Code,
		quizID:       cfg.QuizID,
		hostID:       cfg.HostID,
		hostConn:     cfg.HostConn,
		questions:    cfg.Questions,
		gateway:      cfg.Gateway,
		sink:         cfg.Sink,
		onClose:      cfg.OnClose,
		questionTime: cfg.QuestionTime,
		gracePeriod:  cfg.GracePeriod,
		log:          cfg.Logger.With().Str("room", cfg.Code).Logger(),
		now:          now,
		phase:        PhaseLobby,
		current:      -1,
		participants: make(map[string]*domain.Participant),
	}
}

// Code returns the immutable room code.
func (s *Session) Code() string { return s.code }

// HostID returns the durable identity authorized to drive transitions.
func (s *Session) HostID() string { return s.hostID }

// Phase reports the current lifecycle state.
func (s *Session) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// Ranked returns the current scoreboard snapshot.
func (s *Session) Ranked() []domain.RankedEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rankedLocked()
}

// Join adds a participant with score zero and announces the updated list.
// A participant joining while a question is open watches it and becomes
// eligible to answer from the next question.
func (s *Session) Join(connID, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase == PhaseEnded {
		return domain.ErrSessionEnded
	}
	if _, ok := s.participants[connID]; ok {
		return nil
	}
	s.participants[connID] = &domain.Participant{ConnID: connID, DisplayName: name}
	s.order = append(s.order, connID)
	s.log.Info().Str("name", name).Msg("participant joined")
	s.broadcastLocked(EventParticipantList(s.rankedLocked()))
	return nil
}

// Start begins the question loop. Only the host may start; a duplicate
// start after the lobby is a benign no-op.
func (s *Session) Start(requesterID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if requesterID != s.hostID {
		return domain.ErrUnauthorized
	}
	if s.phase != PhaseLobby {
		return nil
	}
	s.log.Info().Int("questions", len(s.questions)).Msg("quiz starting")
	s.advanceLocked()
	return nil
}

// Advance moves to the next question (or the end) without waiting for the
// timer or the grace pause. Out-of-sequence requests are benign no-ops.
func (s *Session) Advance(requesterID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if requesterID != s.hostID {
		return domain.ErrUnauthorized
	}
	if s.phase != PhaseInQuestion && s.phase != PhaseGrading {
		return nil
	}
	s.advanceLocked()
	return nil
}

// SubmitAnswer scores an answer for the open question. Late, duplicate and
// non-participant submissions are expected races and are ignored.
func (s *Session) SubmitAnswer(connID, option string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != PhaseInQuestion {
		return
	}
	if _, done := s.answered[connID]; done {
		return
	}
	if _, ok := s.eligible[connID]; !ok {
		return
	}
	participant, ok := s.participants[connID]
	if !ok {
		return
	}

	question := s.questions[s.current]
	elapsed := s.now().Sub(s.startedAt)
	correct := option == question.CorrectAnswer
	if points := Points(correct, elapsed, s.questionTime); points > 0 {
		participant.Score += points
	}
	s.answered[connID] = struct{}{}

	s.gateway.Send(connID, EventAnswerResult(domain.AnswerOutcome{
		WasCorrect:    correct,
		CorrectAnswer: question.CorrectAnswer,
	}))
	s.gateway.Send(s.hostConn, EventPlayerAnswered(*participant))
	s.broadcastLocked(EventParticipantList(s.rankedLocked()))

	if s.allAnsweredLocked() {
		s.closeQuestionLocked()
	}
}

// Disconnect handles a dropped connection. A participant is removed and the
// list re-announced; the host ending the connection ends the whole session
// without recording a result.
func (s *Session) Disconnect(connID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase == PhaseEnded {
		return
	}
	if connID == s.hostConn {
		s.log.Info().Msg("host disconnected, ending session")
		s.endLocked(false)
		return
	}
	if _, ok := s.participants[connID]; !ok {
		return
	}
	delete(s.participants, connID)
	delete(s.answered, connID)
	delete(s.eligible, connID)
	for i, id := range s.order {
		if id == connID {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	s.broadcastLocked(EventParticipantList(s.rankedLocked()))
	if s.phase == PhaseInQuestion && s.allAnsweredLocked() {
		s.closeQuestionLocked()
	}
}

// questionExpired is the countdown callback for question idx.
func (s *Session) questionExpired(idx int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != PhaseInQuestion || s.current != idx {
		return
	}
	s.log.Debug().Int("question", idx+1).Msg("time up")
	s.closeQuestionLocked()
}

// advanceAfterGrace is the grace-pause callback for question idx.
func (s *Session) advanceAfterGrace(idx int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != PhaseGrading || s.current != idx {
		return
	}
	s.advanceLocked()
}

// closeQuestionLocked ends the answering window for the current question,
// either because the timer fired or because everyone eligible has answered,
// and schedules the advance after the grace pause.
func (s *Session) closeQuestionLocked() {
	s.stopTimerLocked()
	s.phase = PhaseGrading
	s.broadcastLocked(EventTimesUp())
	s.broadcastLocked(EventParticipantList(s.rankedLocked()))
	idx := s.current
	s.timer = time.AfterFunc(s.gracePeriod, func() { s.advanceAfterGrace(idx) })
}

// advanceLocked opens the next question or ends the session.
func (s *Session) advanceLocked() {
	s.stopTimerLocked()
	s.current++
	if s.current >= len(s.questions) {
		s.endLocked(true)
		return
	}

	s.phase = PhaseInQuestion
	s.startedAt = s.now()
	s.answered = make(map[string]struct{})
	s.eligible = make(map[string]struct{}, len(s.participants))
	for id := range s.participants {
		s.eligible[id] = struct{}{}
	}

	question := s.questions[s.current]
	s.broadcastLocked(EventNextQuestion(question.PublicView(), s.current+1, len(s.questions)))
	idx := s.current
	s.timer = time.AfterFunc(s.questionTime, func() { s.questionExpired(idx) })
}

// endLocked transitions to Ended. A completed run broadcasts the final
// leaderboard and hands it to the result sink; an aborted run broadcasts a
// notice instead and records nothing.
func (s *Session) endLocked(completed bool) {
	s.stopTimerLocked()
	s.phase = PhaseEnded

	if completed {
		final := s.rankedLocked()
		s.broadcastLocked(EventQuizEnd(final))
		result := domain.SessionResult{
			QuizID:      s.quizID,
			HostID:      s.hostID,
			RoomCode:    s.code,
			CompletedAt: s.now(),
		}
		for _, entry := range final {
			result.Participants = append(result.Participants, domain.ParticipantScore{
				Name:  entry.DisplayName,
				Score: entry.Score,
			})
		}
		if s.sink != nil {
			go s.persistResult(result)
		}
	} else {
		s.broadcastLocked(EventQuizAborted("Quiz ended - host disconnected"))
	}

	if s.onClose != nil {
		s.onClose(s.code)
	}
}

// persistResult writes the final leaderboard off the session's critical
// path. Failure is logged and never affects the already-ended session.
func (s *Session) persistResult(result domain.SessionResult) {
	ctx, cancel := context.WithTimeout(context.Background(), sinkTimeout)
	defer cancel()
	if err := s.sink.SaveResult(ctx, result); err != nil {
		s.log.Error().Err(err).Msg("failed to save quiz results")
	}
}

func (s *Session) allAnsweredLocked() bool {
	for id := range s.eligible {
		if _, ok := s.answered[id]; !ok {
			return false
		}
	}
	return true
}

func (s *Session) stopTimerLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

func (s *Session) broadcastLocked(evt Event) {
	for _, id := range s.order {
		s.gateway.Send(id, evt)
	}
	s.gateway.Send(s.hostConn, evt)
}

// rankedLocked sorts by score descending, preserving join order for ties.
func (s *Session) rankedLocked() []domain.RankedEntry {
	entries := make([]domain.RankedEntry, 0, len(s.order))
	for _, id := range s.order {
		p := s.participants[id]
		entries = append(entries, domain.RankedEntry{
			ConnID:      p.ConnID,
			DisplayName: p.DisplayName,
			Score:       p.Score,
		})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Score > entries[j].Score
	})
	return entries
}
