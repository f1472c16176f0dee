// internal/app/system/apierr/apierr.go
package apierr

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/dalemusser/orderly/internal/app/system/httpjson"
	"go.uber.org/zap"
)

// Kind classifies a failure. Each kind has one HTTP status and one stable
// error code; clients branch on the code, not the message.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindUnauthorized
	KindNotFound
	KindConflict
)

func (k Kind) String() string {
	return Code(k)
}

// Code returns the stable error code written in the "error" field.
func Code(k Kind) string {
	switch k {
	case KindValidation:
		return "validation_error"
	case KindUnauthorized:
		return "unauthorized"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	default:
		return "internal_error"
	}
}

// Status returns the HTTP status for k.
func Status(k Kind) int {
	switch k {
	case KindValidation:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Error is a classified error. Message is safe to show to clients;
// Err, when set, is the underlying cause and is only logged.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", Code(e.Kind), e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", Code(e.Kind), e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func Validation(msg string) *Error   { return &Error{Kind: KindValidation, Message: msg} }
func Unauthorized(msg string) *Error { return &Error{Kind: KindUnauthorized, Message: msg} }
func NotFound(msg string) *Error     { return &Error{Kind: KindNotFound, Message: msg} }
func Conflict(msg string) *Error     { return &Error{Kind: KindConflict, Message: msg} }

// Internal wraps an unexpected failure. The client only ever sees
// InternalMessage.
func Internal(err error) *Error {
	return &Error{Kind: KindInternal, Message: InternalMessage, Err: err}
}

// InternalMessage is the fixed client-facing text for internal errors.
const InternalMessage = "Server Error, please try again later or contact support"

// KindOf returns the Kind of err; unclassified errors are internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Response is the JSON body of every error response.
type Response struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// Write maps err onto the error contract and writes it. Internal errors are
// logged with their cause; classified errors are logged at debug.
func Write(w http.ResponseWriter, r *http.Request, log *zap.Logger, err error) {
	var e *Error
	if !errors.As(err, &e) {
		e = Internal(err)
	}

	if log != nil {
		fields := []zap.Field{
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("code", Code(e.Kind)),
			zap.Error(err),
		}
		if e.Kind == KindInternal {
			log.Error("request failed", fields...)
		} else {
			log.Debug("request rejected", fields...)
		}
	}

	msg := e.Message
	if e.Kind == KindInternal {
		msg = InternalMessage
	}
	httpjson.Write(w, Status(e.Kind), Response{Error: Code(e.Kind), Message: msg})
}

// WriteStatus writes an error body with an explicit status and code, for
// the few responses whose status is fixed by the API contract rather than
// by the taxonomy (for example a failed login).
func WriteStatus(w http.ResponseWriter, status int, code, msg string) {
	httpjson.Write(w, status, Response{Error: code, Message: msg})
}
