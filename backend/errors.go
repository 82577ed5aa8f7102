package backend

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrRemoteOperationFailed is the sentinel behind every *RemoteError.
var ErrRemoteOperationFailed = errors.New("remote operation failed")

// Operation names a backend call in user-facing text ("Failed to <op>.").
type Operation string

const (
	OpLogin         Operation = "log in"
	OpRegister      Operation = "register"
	OpApplyLeave    Operation = "submit leave application"
	OpMyLeaves      Operation = "load your leaves"
	OpPendingLeaves Operation = "load pending leaves"
	OpAllLeaves     Operation = "load all leaves"
	OpUpdateStatus  Operation = "update leave status"
	OpSummaryReport Operation = "generate report"
	OpExportCSV     Operation = "export report"
)

// RemoteError is a failed backend call. Failures are reported once; the
// client never retries.
type RemoteError struct {
	Operation Operation

	// Message is the server-reported reason, or a transport description
	// when NoResponse is set.
	Message string

	// StatusCode is 0 when NoResponse is set.
	StatusCode int
	NoResponse bool
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("Failed to %s. %s", e.Operation, e.Message)
}

func (e *RemoteError) Unwrap() error {
	return ErrRemoteOperationFailed
}

// IsUnauthorized reports whether the backend rejected the caller's token.
func IsUnauthorized(err error) bool {
	var rerr *RemoteError
	return errors.As(err, &rerr) && rerr.StatusCode == http.StatusUnauthorized
}

// errorBody is the failure shape the backend uses. Either field may be set.
type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// messageFor picks the display text for a non-2xx response: the body's
// "error", then "message", then a generic status line.
func messageFor(status int, body errorBody) string {
	switch {
	case body.Error != "":
		return body.Error
	case body.Message != "":
		return body.Message
	case status == http.StatusInternalServerError:
		return "Server error (500)."
	default:
		return fmt.Sprintf("Request failed with status code %d.", status)
	}
}

func noResponse(op Operation, err error) *RemoteError {
	return &RemoteError{
		Operation:  op,
		Message:    fmt.Sprintf("No response from server: %v", err),
		NoResponse: true,
	}
}
