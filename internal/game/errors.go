package game

import (
	"errors"
	"fmt"
)

// Kind classifies engine failures so transports can map them to their own
// status codes without parsing messages.
type Kind string

const (
	KindInvalidInput Kind = "invalid_input"
	KindNotFound     Kind = "not_found"
	KindForbidden    Kind = "forbidden"
	KindInvalidState Kind = "invalid_state"
	KindRoomFull     Kind = "room_full"
	KindExhausted    Kind = "exhausted"
)

type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func invalidInput(format string, args ...any) *Error {
	return &Error{Kind: KindInvalidInput, Message: fmt.Sprintf(format, args...)}
}

func notFound(message string) *Error {
	return &Error{Kind: KindNotFound, Message: message}
}

func forbidden(message string) *Error {
	return &Error{Kind: KindForbidden, Message: message}
}

func invalidState(message string) *Error {
	return &Error{Kind: KindInvalidState, Message: message}
}

func roomFull(message string) *Error {
	return &Error{Kind: KindRoomFull, Message: message}
}

func exhausted(message string) *Error {
	return &Error{Kind: KindExhausted, Message: message}
}

// KindOf returns the kind of an engine error, or "" for any other error.
func KindOf(err error) Kind {
	var engineErr *Error
	if errors.As(err, &engineErr) {
		return engineErr.Kind
	}
	return ""
}
