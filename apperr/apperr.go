// Package apperr classifies failures coming back from the stores and
// external services so handlers can map them to HTTP statuses without
// inspecting provider payloads.
package apperr

import (
	"errors"
	"fmt"

	"github.com/aws/smithy-go"
)

type Kind int

const (
	KindUnknown Kind = iota
	KindNotFound
	KindUnauthorized
	KindConflict
	KindValidation
	KindService
	KindIntegrity
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindUnauthorized:
		return "unauthorized"
	case KindConflict:
		return "conflict"
	case KindValidation:
		return "validation"
	case KindService:
		return "service"
	case KindIntegrity:
		return "integrity"
	default:
		return "unknown"
	}
}

type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func New(kind Kind, msg string) error {
	return &Error{Kind: kind, Msg: msg}
}

func Newf(kind Kind, format string, args ...any) error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

func Wrap(kind Kind, msg string, err error) error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// KindOf returns the classification of err, or KindUnknown if err was
// never classified.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

func IsNotFound(err error) bool {
	return KindOf(err) == KindNotFound
}

// Message returns the classified message of err without any wrapped
// provider detail, falling back to a generic one for unclassified errors.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Msg
	}
	return "Internal server error"
}

// FromAPI classifies an AWS SDK error. Missing targets come back as
// NotFound so callers can tell "the object isn't there" apart from
// "the store refused us" without digging through smithy codes themselves.
func FromAPI(err error, msg string) error {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NotFound", "NoSuchKey", "ResourceNotFoundException", "404":
			return Wrap(KindNotFound, msg, err)
		case "AccessDenied", "AccessDeniedException", "UnauthorizedOperation":
			return Wrap(KindService, msg+": access denied", err)
		case "NoSuchBucket":
			return Wrap(KindService, msg+": bucket does not exist", err)
		case "ThrottlingException", "TooManyRequestsException", "SlowDown":
			return Wrap(KindService, msg+": rate limited", err)
		}
	}
	return Wrap(KindService, msg, err)
}
