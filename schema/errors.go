package schema

import "errors"

var (
	// ErrInvalidRequest indicates a malformed request payload.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrUnknownWindowName indicates the window name has no registry entry.
	ErrUnknownWindowName = errors.New("unknown window name")
	// ErrHostOperation indicates the host failed to create or focus a window.
	ErrHostOperation = errors.New("host operation failed")
	// ErrUnrecognizedCommandTarget indicates a command addressed to a window that does not accept commands.
	ErrUnrecognizedCommandTarget = errors.New("unrecognized command target")
	// ErrWindowExists indicates the host already has a window with that name.
	ErrWindowExists = errors.New("window already exists")
	// ErrWindowNotFound indicates the host has no window with that name.
	ErrWindowNotFound = errors.New("window not found")
	// ErrHostClosed indicates the host has been shut down.
	ErrHostClosed = errors.New("host closed")
)
