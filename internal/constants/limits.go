package constants

const (
	// IDRandomBytes is the number of random bytes in generated entity IDs (hex encoded).
	IDRandomBytes = 12

	// MessageHistoryMaxLimit caps the page size of post history requests.
	MessageHistoryMaxLimit = 100

	// MaxPostMessageLength is the maximum post body length in characters.
	MaxPostMessageLength = 4000

	WSBroadcastBufferSize  = 256
	WSClientSendBufferSize = 64

	// WSCommandsPerSecond and WSCommandBurst throttle commands read from one session.
	WSCommandsPerSecond = 10
	WSCommandBurst      = 20
)
