package game

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by the engine wraps exactly one of these,
// so callers branch with errors.Is on the kind and show the message.
var (
	ErrValidation    = errors.New("validation failed")
	ErrInvalidTarget = errors.New("invalid vote target")
	ErrConflict      = errors.New("conflict")
	ErrNotFound      = errors.New("not found")
	ErrForbidden     = errors.New("forbidden")
	ErrConfiguration = errors.New("configuration error")
	ErrUnavailable   = errors.New("storage unavailable")
)

type kindError struct {
	kind error
	msg  string
}

func (e *kindError) Error() string { return e.msg }
func (e *kindError) Unwrap() error { return e.kind }

func newKindError(kind error, msg string) error {
	return &kindError{kind: kind, msg: msg}
}

var (
	ErrNicknameInvalid  = newKindError(ErrValidation, "nickname must be 1-20 printable characters")
	ErrInvalidSettings  = newKindError(ErrValidation, "invalid room settings")
	ErrNotEnoughPlayers = newKindError(ErrValidation, "not enough players to start")
	ErrTooManyPlayers   = newKindError(ErrValidation, "too many players to start")
	ErrFreeWordEmpty    = newKindError(ErrValidation, "free word is required")
	ErrFreeWordTooLong  = newKindError(ErrValidation, "free word is too long")
	ErrFreeWordInvalid  = newKindError(ErrValidation, "free word contains unsupported characters")
	ErrSameCard         = newKindError(ErrValidation, "two different cards are required")
	ErrInvalidWordOrder = newKindError(ErrValidation, "word order must be a permutation of 1, 2, 3")
	ErrCardNotInHand    = newKindError(ErrValidation, "card is not in hand")
	ErrAlreadySubmitted = newKindError(ErrValidation, "already submitted this round")
	ErrAlreadyReloaded  = newKindError(ErrValidation, "hand already reloaded this round")
	ErrInvalidIndex     = newKindError(ErrValidation, "viewing index out of range")

	ErrOwnSubmission     = newKindError(ErrInvalidTarget, "cannot vote for your own submission")
	ErrUnknownSubmission = newKindError(ErrInvalidTarget, "submission not found in this round")

	ErrInvalidTransition = newKindError(ErrConflict, "invalid status transition")
	ErrRoomFull          = newKindError(ErrConflict, "room is full")
	ErrWrongPhase        = newKindError(ErrConflict, "action not available in the current phase")
	ErrStaleRound        = newKindError(ErrConflict, "round is no longer current")
	ErrRoundClosed       = newKindError(ErrConflict, "submission deadline has passed")
	ErrCodeExhausted     = newKindError(ErrConflict, "could not allocate a unique room code")

	ErrRoomNotFound   = newKindError(ErrNotFound, "room not found or already started")
	ErrPlayerNotFound = newKindError(ErrNotFound, "player not found")

	ErrNotHost = newKindError(ErrForbidden, "only the host can perform this action")

	ErrNoThemes = newKindError(ErrConfiguration, "theme catalog is empty")
	ErrNoCards  = newKindError(ErrConfiguration, "word card catalog is empty")
)

// TransitionError reports a status change missing from the transition table.
type TransitionError struct {
	From Status
	To   Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("invalid status transition from %s to %s", e.From, e.To)
}

func (e *TransitionError) Unwrap() error { return ErrInvalidTransition }

// Kind returns the error kind err wraps, or nil when it wraps none.
func Kind(err error) error {
	for _, kind := range []error{
		ErrValidation,
		ErrInvalidTarget,
		ErrConflict,
		ErrNotFound,
		ErrForbidden,
		ErrConfiguration,
		ErrUnavailable,
	} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}
