package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"live-quiz-service/internal/app"
	"live-quiz-service/internal/domain"
)

// QuizRepository resolves a saved question set by ID when a host opens a
// session by reference instead of sending questions inline.
type QuizRepository interface {
	GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
}

// WSHandler speaks the quiz wire protocol over websockets and routes
// messages into the room registry and sessions.
type WSHandler struct {
	hub      *Hub
	rooms    *app.RoomRegistry
	conns    *app.ConnRegistry
	quizzes  QuizRepository
	upgrader websocket.Upgrader
	log      zerolog.Logger
}

func NewWSHandler(hub *Hub, rooms *app.RoomRegistry, conns *app.ConnRegistry, quizzes QuizRepository, log zerolog.Logger) *WSHandler {
	return &WSHandler{
		hub:     hub,
		rooms:   rooms,
		conns:   conns,
		quizzes: quizzes,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		log: log,
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type createQuizPayload struct {
	QuizID    string            `json:"quizId"`
	Questions []domain.Question `json:"questions"`
	UserID    string            `json:"userId"`
}

type joinQuizPayload struct {
	RoomCode string `json:"roomCode"`
	Name     string `json:"name"`
}

type roomPayload struct {
	RoomCode string `json:"roomCode"`
}

type answerPayload struct {
	RoomCode string `json:"roomCode"`
	Answer   string `json:"answer"`
}

// ServeWS upgrades the request and runs the read loop for one connection.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("ws upgrade failed")
		return
	}
	defer conn.Close()

	connID := h.hub.Register(conn)
	defer h.hub.Unregister(connID)
	defer h.disconnect(connID)

	// A client authenticated at the HTTP layer carries its durable account
	// identity; anonymous hosts fall back to the connection identity.
	identity := r.URL.Query().Get("userId")
	if identity == "" {
		identity = connID
	}
	h.log.Debug().Str("conn", connID).Msg("client connected")

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			return
		}
		h.dispatch(connID, identity, inbound)
	}
}

func (h *WSHandler) dispatch(connID, identity string, inbound inboundMessage) {
	switch inbound.Type {
	case "createQuiz":
		h.handleCreate(connID, identity, inbound.Payload)
	case "joinQuiz":
		h.handleJoin(connID, inbound.Payload)
	case "startQuiz":
		h.handleStart(connID, identity, inbound.Payload)
	case "submitAnswer":
		h.handleAnswer(connID, inbound.Payload)
	case "nextQuestion":
		h.handleAdvance(connID, identity, inbound.Payload)
	default:
		h.hub.Send(connID, app.EventError("unsupported message type"))
	}
}

func (h *WSHandler) handleCreate(connID, identity string, raw json.RawMessage) {
	var payload createQuizPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		h.hub.Send(connID, app.EventError("invalid createQuiz payload"))
		return
	}

	hostID := payload.UserID
	if hostID == "" {
		hostID = identity
	}

	questions := payload.Questions
	if len(questions) == 0 && payload.QuizID != "" {
		quiz, err := h.quizzes.GetQuiz(context.Background(), payload.QuizID)
		if err != nil {
			h.log.Warn().Err(err).Str("quiz", payload.QuizID).Msg("quiz load failed")
			h.hub.Send(connID, app.EventError("Failed to create quiz"))
			return
		}
		questions = quiz.Questions
	}

	session, err := h.rooms.Create(questions, payload.QuizID, hostID, connID)
	if err != nil {
		h.log.Warn().Err(err).Msg("session create failed")
		h.hub.Send(connID, app.EventError("Failed to create quiz"))
		return
	}
	h.conns.Bind(connID, session.Code())
	h.hub.Send(connID, app.EventQuizCreated(session.Code()))
}

func (h *WSHandler) handleJoin(connID string, raw json.RawMessage) {
	var payload joinQuizPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		h.hub.Send(connID, app.EventError("invalid joinQuiz payload"))
		return
	}

	session, ok := h.rooms.Get(payload.RoomCode)
	if !ok {
		h.hub.Send(connID, app.EventError("Quiz not found. Please check the room code."))
		return
	}
	if err := session.Join(connID, payload.Name); err != nil {
		h.hub.Send(connID, app.EventError(err.Error()))
		return
	}
	h.conns.Bind(connID, payload.RoomCode)
	h.hub.Send(connID, app.EventJoinSuccess(payload.RoomCode))
}

func (h *WSHandler) handleStart(connID, identity string, raw json.RawMessage) {
	var payload roomPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		h.hub.Send(connID, app.EventError("invalid startQuiz payload"))
		return
	}
	session, ok := h.rooms.Get(payload.RoomCode)
	if !ok {
		h.hub.Send(connID, app.EventError("Quiz not found. Please check the room code."))
		return
	}
	if err := session.Start(identity); errors.Is(err, domain.ErrUnauthorized) {
		h.hub.Send(connID, app.EventError(err.Error()))
	}
}

func (h *WSHandler) handleAnswer(connID string, raw json.RawMessage) {
	var payload answerPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		h.hub.Send(connID, app.EventError("invalid submitAnswer payload"))
		return
	}
	session, ok := h.rooms.Get(payload.RoomCode)
	if !ok {
		// The room may have just ended; late answers are not errors.
		return
	}
	session.SubmitAnswer(connID, payload.Answer)
}

func (h *WSHandler) handleAdvance(connID, identity string, raw json.RawMessage) {
	var payload roomPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		h.hub.Send(connID, app.EventError("invalid nextQuestion payload"))
		return
	}
	session, ok := h.rooms.Get(payload.RoomCode)
	if !ok {
		return
	}
	if err := session.Advance(identity); errors.Is(err, domain.ErrUnauthorized) {
		h.hub.Send(connID, app.EventError(err.Error()))
	}
}

// disconnect routes a dropped connection to its session, if any.
func (h *WSHandler) disconnect(connID string) {
	code, ok := h.conns.Lookup(connID)
	if !ok {
		return
	}
	h.conns.Unbind(connID)
	if session, found := h.rooms.Get(code); found {
		session.Disconnect(connID)
	}
	h.log.Debug().Str("conn", connID).Str("room", code).Msg("client disconnected")
}
