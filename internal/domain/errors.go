package domain

import "errors"

var (
	// ErrRoomNotFound is returned when no active session matches a room code.
	ErrRoomNotFound = errors.New("room not found")
	// ErrUnauthorized is returned when a non-host tries to drive the session.
	ErrUnauthorized = errors.New("only the host may perform this action")
	// ErrCapacityExhausted indicates no free room code could be allocated.
	ErrCapacityExhausted = errors.New("room code space exhausted")
	// ErrSessionEnded is returned when joining a session that already finished.
	ErrSessionEnded = errors.New("session has ended")
	// ErrQuizNotFound indicates the quiz content could not be loaded.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrInvalidQuestions indicates a question set failed validation.
	ErrInvalidQuestions = errors.New("invalid question set")
)
