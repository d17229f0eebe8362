package errors

import "fmt"

// ErrorType represents different types of errors that can occur
type ErrorType string

const (
	ErrorTypeNetwork     ErrorType = "network"
	ErrorTypeParsing     ErrorType = "parsing"
	ErrorTypeNotFound    ErrorType = "not_found"
	ErrorTypeServerError ErrorType = "server_error"
	ErrorTypeEncoding    ErrorType = "encoding"
	ErrorTypeUnknown     ErrorType = "unknown"
)

// Error represents a transport error with type information
type Error struct {
	Type    ErrorType
	Message string
	Code    int
	Err     error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s error (code %d): %s", e.Type, e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// New builds an Error wrapping err. err may be nil.
func New(t ErrorType, code int, err error, format string, args ...interface{}) *Error {
	return &Error{
		Type:    t,
		Message: fmt.Sprintf(format, args...),
		Code:    code,
		Err:     err,
	}
}

// TypeForStatus classifies an HTTP status code. Statuses below 400 map to "".
func TypeForStatus(statusCode int) ErrorType {
	switch {
	case statusCode < 400:
		return ""
	case statusCode == 404 || statusCode == 410:
		return ErrorTypeNotFound
	case statusCode >= 500:
		return ErrorTypeServerError
	default:
		return ErrorTypeUnknown
	}
}
