package client

import "errors"

var (
	// ErrDaemonNotRunning is returned when nothing listens on the daemon socket.
	ErrDaemonNotRunning = errors.New("daemon not running")

	// ErrPermissionDenied is returned when the socket is root-only and the caller is not root.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrNotFound is returned for a 404, usually a daemon too old to know the route.
	ErrNotFound = errors.New("404 not found")
)
