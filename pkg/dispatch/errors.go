package dispatch

import (
	"errors"
	"fmt"
)

// Kind classifies dispatch failures for the boundary layer.
type Kind int

const (
	// KindAdapterUnreachable means the target application's process could
	// not be confirmed or launched.
	KindAdapterUnreachable Kind = iota + 1
	// KindAdapterInteractionFailed means a scripting call raised
	// mid-interaction.
	KindAdapterInteractionFailed
	// KindInvalidRequest means the request failed validation before any
	// dispatch side effect.
	KindInvalidRequest
	// KindReplyUnavailable means the reply element could not be read. It is
	// absorbed into fallback text and never surfaces as an error from Ask.
	KindReplyUnavailable
)

func (k Kind) String() string {
	switch k {
	case KindAdapterUnreachable:
		return "adapter_unreachable"
	case KindAdapterInteractionFailed:
		return "adapter_interaction_failed"
	case KindInvalidRequest:
		return "invalid_request"
	case KindReplyUnavailable:
		return "reply_unavailable"
	default:
		return "unknown"
	}
}

// Error is a classified dispatch failure carrying the underlying cause.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// newError wraps err with a kind and message.
func newError(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// KindOf returns the Kind of err, or 0 if err carries no dispatch
// classification.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return 0
}
