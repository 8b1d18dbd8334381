package report

import (
	"fmt"
	"path/filepath"
	"runtime"

	"github.com/cockroachdb/errors"
)

// Event is one structured report: what happened, how bad, where.
type Event struct {
	Severity Severity
	Code     Code
	Category string
	Message  string
	// Location is file:line of the call site, empty when unknown.
	Location string
}

func NewEvent(code Code, category, message string) Event {
	return Event{
		Severity: code.Severity(),
		Code:     code,
		Category: category,
		Message:  message,
		Location: caller(2),
	}
}

// Error tags a cause with the code and category it is reported under.
type Error struct {
	Code     Code
	Category string
	Location string
	cause    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Code, e.cause)
}

func (e *Error) Unwrap() error {
	return e.cause
}

// Event converts the error into the record Reporter prints.
func (e *Error) Event() Event {
	return Event{
		Severity: e.Code.Severity(),
		Code:     e.Code,
		Category: e.Category,
		Message:  e.cause.Error(),
		Location: e.Location,
	}
}

func Errorf(code Code, category string, format string, args ...any) error {
	return &Error{
		Code:     code,
		Category: category,
		Location: caller(2),
		cause:    errors.Newf(format, args...),
	}
}

// Wrapf attaches a code to cause. A nil cause yields nil.
func Wrapf(cause error, code Code, category string, format string, args ...any) error {
	if cause == nil {
		return nil
	}
	return &Error{
		Code:     code,
		Category: category,
		Location: caller(2),
		cause:    errors.Wrapf(cause, format, args...),
	}
}

// CodeOf finds the outermost code attached to err.
func CodeOf(err error) (Code, bool) {
	var rerr *Error
	if errors.As(err, &rerr) {
		return rerr.Code, true
	}
	return CodeSuccess, false
}

// SeverityOf is the severity of the code attached to err, SeverityError for untagged errors.
func SeverityOf(err error) Severity {
	if err == nil {
		return SeverityDebug
	}
	if code, ok := CodeOf(err); ok {
		return code.Severity()
	}
	return SeverityError
}

// IsFatal reports whether err carries a fatal code.
func IsFatal(err error) bool {
	return err != nil && SeverityOf(err) >= SeverityFatal
}

// EventOf builds a printable event from any error.
func EventOf(err error) Event {
	var rerr *Error
	if errors.As(err, &rerr) {
		ev := rerr.Event()
		if err != error(rerr) {
			ev.Message = err.Error()
		}
		return ev
	}
	return Event{Severity: SeverityError, Code: CodeFailure, Message: err.Error(), Location: caller(2)}
}

func caller(skip int) string {
	_, file, line, ok := runtime.Caller(skip)
	if !ok {
		return ""
	}
	return fmt.Sprintf("%s:%d", filepath.Base(file), line)
}
