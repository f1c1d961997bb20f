package extraction

import "fmt"

// ErrorCode represents specific extraction error types.
type ErrorCode string

const (
	ErrUnsupportedFormat   ErrorCode = "UNSUPPORTED_FORMAT"
	ErrScannedPDF          ErrorCode = "SCANNED_PDF"
	ErrNoTransactionsFound ErrorCode = "NO_TRANSACTIONS_FOUND"
	ErrModelUnavailable    ErrorCode = "MODEL_UNAVAILABLE"
	ErrModelResponse       ErrorCode = "MODEL_RESPONSE"
)

// Error is a structured error for document extraction failures. Messages are
// written for end users; the HTTP layer maps codes to client-error statuses
// instead of opaque server failures.
type Error struct {
	Code    ErrorCode
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func newError(code ErrorCode, msg string) *Error {
	return &Error{Code: code, Message: msg}
}

func wrapError(code ErrorCode, msg string, cause error) *Error {
	return &Error{Code: code, Message: msg, Cause: cause}
}
