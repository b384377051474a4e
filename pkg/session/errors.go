package session

import "errors"

var (
	// ErrClosed is returned by any operation attempted after Close.
	ErrClosed = errors.New("session: already closed")

	// ErrWriteFailed wraps an underlying I/O error from an append or
	// atomic-replace operation.
	ErrWriteFailed = errors.New("session: write failed")
)
