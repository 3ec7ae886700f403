package constants

const (
	// Shared REST/WS transport-agnostic errors
	ErrCodeAuthFailed     = "AUTH_FAILED"
	ErrCodeAuthExpired    = "AUTH_EXPIRED"
	ErrCodeRateLimited    = "RATE_LIMITED"
	ErrCodeInvalidRequest = "INVALID_REQUEST"
	ErrCodeNotFound       = "NOT_FOUND"
	ErrCodeConflict       = "CONFLICT"
	ErrCodeForbidden      = "FORBIDDEN"
	ErrCodeInternal       = "INTERNAL_ERROR"

	// Messaging / notification domain errors
	ErrCodeMessageTooLong       = "MESSAGE_TOO_LONG"
	ErrCodeNotChannelMember     = "NOT_CHANNEL_MEMBER"
	ErrCodeNotificationNotFound = "NOTIFICATION_NOT_FOUND"
)
