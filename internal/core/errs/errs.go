package errs

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

type Kind int

const (
	Unknown Kind = iota
	NotFound
	Conflict
	InvalidOperation
	Unauthenticated
	Unauthorized
	ValidationFailed
	UpstreamFailure
	InvalidCredentials
	InvalidToken
)

var kindNames = map[Kind]string{
	Unknown:            "Unknown",
	NotFound:           "NotFound",
	Conflict:           "Conflict",
	InvalidOperation:   "InvalidOperation",
	Unauthenticated:    "Unauthenticated",
	Unauthorized:       "Unauthorized",
	ValidationFailed:   "ValidationFailed",
	UpstreamFailure:    "UpstreamFailure",
	InvalidCredentials: "InvalidCredentials",
	InvalidToken:       "InvalidToken",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Error is the only error type services hand to the transport layer.
// Msg is safe to show to callers; Err is for logs only.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Msg != "" && e.Err != nil:
		return e.Msg + ": " + e.Err.Error()
	case e.Msg != "":
		return e.Msg
	case e.Err != nil:
		return e.Err.Error()
	}
	return e.Kind.String()
}

func (e *Error) Unwrap() error { return e.Err }

func New(k Kind, msg string) error { return &Error{Kind: k, Msg: msg} }

func Wrap(k Kind, msg string, err error) error { return &Error{Kind: k, Msg: msg, Err: err} }

func NotFoundf(format string, a ...any) error {
	return &Error{Kind: NotFound, Msg: fmt.Sprintf(format, a...)}
}
func ConflictMsg(msg string) error    { return &Error{Kind: Conflict, Msg: msg} }
func Invalid(msg string) error        { return &Error{Kind: InvalidOperation, Msg: msg} }
func Validation(msg string) error     { return &Error{Kind: ValidationFailed, Msg: msg} }
func Unauth(msg string) error         { return &Error{Kind: Unauthenticated, Msg: msg} }
func Forbidden(msg string) error      { return &Error{Kind: Unauthorized, Msg: msg} }
func Upstream(msg string, err error) error {
	return &Error{Kind: UpstreamFailure, Msg: msg, Err: err}
}

// KindOf reports Unknown for anything that is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Unknown
}

func Is(err error, k Kind) bool { return err != nil && KindOf(err) == k }

// Message returns the caller-facing text of err, or fallback when err
// carries nothing that may leave the process.
func Message(err error, fallback string) string {
	var e *Error
	if errors.As(err, &e) && e.Kind != Unknown && e.Msg != "" {
		return e.Msg
	}
	return fallback
}

// FromStore classifies a failed store call. A unique-key violation becomes
// Conflict with conflictMsg, everything else UpstreamFailure.
func FromStore(err error, conflictMsg string) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	if IsDupKey(err) {
		return &Error{Kind: Conflict, Msg: conflictMsg, Err: err}
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &Error{Kind: NotFound, Msg: "record not found", Err: err}
	}
	return Upstream("store unavailable", err)
}

func IsDupKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	// fallback for dialects without TranslateError support
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate") ||
		strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "unique violation")
}
