package models

import (
	"errors"
	"fmt"
	"time"
)

// Error codes classify every failure the services and the game engine can
// surface. Handlers translate them into wire-level ERROR frames.
const (
	CodeRoomNotFound      = "ROOM_NOT_FOUND"
	CodePlayerNotFound    = "PLAYER_NOT_FOUND"
	CodeGameNotFound      = "GAME_NOT_FOUND"
	CodeGameStateNotFound = "GAME_STATE_NOT_FOUND"

	CodeRoomExists      = "ROOM_EXISTS"
	CodePlayerExists    = "PLAYER_EXISTS"
	CodeNicknameExists  = "NICKNAME_EXISTS"
	CodeGameStateExists = "GAME_STATE_EXISTS"

	CodeRoomInInvalidState     = "ROOM_IN_INVALID_STATE"
	CodeRoomNotJoinable        = "ROOM_NOT_JOINABLE"
	CodeRoomHasNoHost          = "ROOM_HAS_NO_HOST"
	CodePlayerNotHost          = "PLAYER_NOT_HOST"
	CodePlayerHasNoRoom        = "PLAYER_HAS_NO_ROOM"
	CodePlayerNotInRoom        = "PLAYER_NOT_IN_ROOM"
	CodeInvalidGameAction      = "INVALID_GAME_ACTION"
	CodeInvalidGameState       = "INVALID_GAME_STATE"
	CodeGameStateIsNone        = "GAME_STATE_IS_NONE"
	CodeGameStateAlreadyPaused = "GAME_STATE_ALREADY_PAUSED"
	CodeGameStateNotPaused     = "GAME_STATE_NOT_PAUSED"
	CodeGameIsPaused           = "GAME_IS_PAUSED"
	CodeGameNotEnabled         = "GAME_NOT_ENABLED"

	CodeInvalidAction     = "INVALID_ACTION"
	CodeInvalidAnswer     = "INVALID_ANSWER"
	CodeInvalidGameRound  = "INVALID_GAME_ROUND"
	CodeTooManyPlayers    = "TOO_MANY_PLAYERS_IN_ROOM"
	CodeTooFewPlayers     = "TOO_FEW_PLAYERS_IN_ROOM"
	CodeIncorrectFormat   = "INCORRECT_FORMAT"
	CodeActionTimedOut    = "ACTION_TIMED_OUT"
	CodeActionNotTimedOut = "ACTION_NOT_TIMED_OUT"

	CodeNoOtherHost             = "NO_OTHER_HOST"
	CodeNoAnswersFound          = "NO_ANSWERS_FOUND"
	CodeUnexpectedGameStateType = "UNEXPECTED_GAME_STATE_TYPE"
	CodeInternal                = "INTERNAL_ERROR"
)

// AppError is a classified application error.
type AppError struct {
	Code    string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError returns a classified error with the given code and message.
func NewAppError(code, format string, args ...any) *AppError {
	return &AppError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// NewInternalError wraps an unexpected failure (store, remote call, codec).
func NewInternalError(err error) *AppError {
	return &AppError{Code: CodeInternal, Message: "internal server error", Err: err}
}

// ActionTimedOutError is raised when a deadline-gated action is attempted
// after its window closed. It carries both clocks for logging.
type ActionTimedOutError struct {
	Now         time.Time
	CompletedBy time.Time
}

func (e *ActionTimedOutError) Error() string {
	return fmt.Sprintf("cannot complete action out of time: now=%s completed_by=%s",
		e.Now.Format(time.RFC3339), e.CompletedBy.Format(time.RFC3339))
}

// Code returns the classification code for the timeout.
func (*ActionTimedOutError) Code() string { return CodeActionTimedOut }

// ErrorCode extracts the classification code from any error.
func ErrorCode(err error) string {
	var timedOut *ActionTimedOutError
	if errors.As(err, &timedOut) {
		return CodeActionTimedOut
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeInternal
}

// HasCode reports whether err carries the given classification code.
func HasCode(err error, code string) bool {
	return ErrorCode(err) == code
}
