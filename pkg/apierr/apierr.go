// Package apierr classifies failures at the repository boundary so callers can
// branch on a Kind instead of inspecting error text.
package apierr

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

type Kind int

const (
	KindUnknown Kind = iota
	// KindValidation is a field-scoped rejection of the input.
	KindValidation
	// KindNetwork covers unreachable backends, timeouts and non-2xx replies.
	KindNetwork
	// KindNotFound means the referenced task no longer exists remotely.
	KindNotFound
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNetwork:
		return "network"
	case KindNotFound:
		return "not_found"
	default:
		return "unknown"
	}
}

// Error is the structured failure returned by repository clients.
type Error struct {
	Kind    Kind
	Op      string
	Status  int
	Message string
	Fields  map[string]string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if msg == "" {
		msg = e.Kind.String() + " error"
	}
	if e.Status != 0 {
		return fmt.Sprintf("%s: %s (status %d)", e.Op, msg, e.Status)
	}
	return fmt.Sprintf("%s: %s", e.Op, msg)
}

func (e *Error) Unwrap() error { return e.Err }

// Network wraps a transport failure.
func Network(op string, err error) *Error {
	return &Error{Kind: KindNetwork, Op: op, Err: err}
}

func NotFound(op string, id string) *Error {
	return &Error{Kind: KindNotFound, Op: op, Status: http.StatusNotFound, Message: fmt.Sprintf("task %s not found", id)}
}

// FromStatus builds an error for a non-2xx HTTP reply.
func FromStatus(op string, status int, message string, fields map[string]string) *Error {
	e := &Error{Op: op, Status: status, Message: message, Fields: fields}
	switch {
	case status == http.StatusNotFound:
		e.Kind = KindNotFound
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		e.Kind = KindValidation
	default:
		e.Kind = KindNetwork
	}
	if e.Message == "" {
		e.Message = http.StatusText(status)
	}
	return e
}

// KindOf returns the Kind carried by err. Context cancellation and deadline
// errors count as network failures; anything unclassified is KindUnknown.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return KindNetwork
	}
	return KindUnknown
}

func IsNotFound(err error) bool { return KindOf(err) == KindNotFound }

func IsValidation(err error) bool { return KindOf(err) == KindValidation }

// UserMessage is the banner text shown for a remote failure.
func UserMessage(err error) string {
	switch KindOf(err) {
	case KindNotFound:
		return "The task no longer exists on the server. Reload the list to drop it."
	case KindValidation:
		var e *Error
		if errors.As(err, &e) && e.Message != "" {
			return "The server rejected the task: " + e.Message
		}
		return "The server rejected the task."
	default:
		return "Could not reach the task server. Please try again."
	}
}
