package app

import "fmt"

// Error is the structured error attached to command and flow outputs.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

func (e *Error) Error() string {
	if e.Code == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Error codes.
const (
	ErrCodeInvalidInput = "invalid_input"
	ErrCodeFlowNotFound = "flow_not_found"
	ErrCodeFlowFailed   = "flow_failed"
	ErrCodeBackend      = "backend_error"
	ErrCodeNoSpace      = "space_not_found"
)

// newError wraps err into an *Error with the given code.
func newError(code string, err error) *Error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: err.Error()}
}
