package notify

import "errors"

// Errors reported by delivery surfaces. Dispatch logs them and moves on.
var (
	ErrPermissionDenied = errors.New("notification permission not granted")
	ErrUnsupported      = errors.New("notifications not supported")
	ErrSessionClosed    = errors.New("session closed")
)
