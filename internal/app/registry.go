package app

import (
	"math/rand"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"live-quiz-service/internal/domain"
)

// codeAttempts bounds the random draws before Create gives up. With a
// 900k-code space and low-hundreds of concurrent rooms this never triggers
// in practice.
const codeAttempts = 100

// RoomRegistry owns every active session, keyed by room code. It is the only
// shared mutable state between rooms; sessions themselves run independently.
type RoomRegistry struct {
	gateway      Sender
	sink         ResultSink
	questionTime time.Duration
	gracePeriod  time.Duration
	log          zerolog.Logger
	clock        func() time.Time

	mu    sync.Mutex
	rnd   *rand.Rand
	rooms map[string]*Session
}

func NewRoomRegistry(gateway Sender, sink ResultSink, questionTime, gracePeriod time.Duration, log zerolog.Logger) *RoomRegistry {
	return &RoomRegistry{
		gateway:      gateway,
		sink:         sink,
		questionTime: questionTime,
		gracePeriod:  gracePeriod,
		log:          log,
		clock:        time.Now,
		rnd:          rand.New(rand.NewSource(time.Now().UnixNano())),
		rooms:        make(map[string]*Session),
	}
}

// Create validates the question set, allocates an unused room code and
// registers a new session in the lobby phase.
func (r *RoomRegistry) Create(questions []domain.Question, quizID, hostID, hostConn string) (*Session, error) {
	if err := domain.ValidateQuestions(questions); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	code, err := r.freeCodeLocked()
	if err != nil {
		return nil, err
	}
	session := NewSession(SessionConfig{
		Code:         code,
		QuizID:       quizID,
		HostID:       hostID,
		HostConn:     hostConn,
		Questions:    questions,
		Gateway:      r.gateway,
		Sink:         r.sink,
		OnClose:      r.Remove,
		QuestionTime: r.questionTime,
		GracePeriod:  r.gracePeriod,
		Logger:       r.log,
		Clock:        r.clock,
	})
	r.rooms[code] = session
	r.log.Info().Str("room", code).Msg("session created")
	return session, nil
}

// Get looks up the session for a room code.
func (r *RoomRegistry) Get(code string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	session, ok := r.rooms[code]
	return session, ok
}

// Remove drops a session from the registry. Removing an absent code is a
// no-op, so the normal-end and host-disconnect paths can both call it.
func (r *RoomRegistry) Remove(code string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rooms[code]; ok {
		delete(r.rooms, code)
		r.log.Info().Str("room", code).Msg("session removed")
	}
}

// Len reports the number of active sessions.
func (r *RoomRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.rooms)
}

// freeCodeLocked draws random 6-digit codes until one is unused.
func (r *RoomRegistry) freeCodeLocked() (string, error) {
	for i := 0; i < codeAttempts; i++ {
		code := strconv.Itoa(100000 + r.rnd.Intn(900000))
		if _, taken := r.rooms[code]; !taken {
			return code, nil
		}
	}
	return "", domain.ErrCapacityExhausted
}
