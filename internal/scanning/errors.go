package scanning

import "fmt"

// RemoteRejection means the scanner API received the request and
// refused it. Detail carries the server's own message when the error
// body included one, so callers can show it to the user as-is.
type RemoteRejection struct {
	StatusCode int
	Detail     string
}

func (e *RemoteRejection) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	return fmt.Sprintf("scanner API rejected the request (status %d)", e.StatusCode)
}

// TransportFailure means no usable response was received: the request
// never completed, or the response body could not be decoded. The
// underlying error is kept for diagnostics.
type TransportFailure struct {
	Err error
}

func (e *TransportFailure) Error() string {
	return fmt.Sprintf("no usable response from scanner API: %v", e.Err)
}

func (e *TransportFailure) Unwrap() error {
	return e.Err
}
