package protocol

// 错误码
const (
	ErrCodeUnknown      = 1000
	ErrCodeInvalidMsg   = 1001
	ErrCodeBadHandshake = 1002

	ErrCodeDuplicateIdentity = 2001
	ErrCodeNotHost           = 2002
	ErrCodeNotAllReady       = 2003
	ErrCodeAlreadyLoaded     = 2004

	ErrCodeNotYourTurn      = 3001
	ErrCodeActionInFlight   = 3002
	ErrCodeBadArgument      = 3003
	ErrCodeInvalidSelection = 3004

	ErrCodeConfiguration = 5001
)

// ErrorMessages 错误码对应的消息
var ErrorMessages = map[int]string{
	ErrCodeUnknown:           "unknown error",
	ErrCodeInvalidMsg:        "invalid message format",
	ErrCodeBadHandshake:      "name or code was not in expected format",
	ErrCodeDuplicateIdentity: "a player with this name is already connected",
	ErrCodeNotHost:           "only the host can toggle the round timer",
	ErrCodeNotAllReady:       "all players must be ready",
	ErrCodeAlreadyLoaded:     "already loaded",
	ErrCodeNotYourTurn:       "not your turn",
	ErrCodeActionInFlight:    "an action is already in progress",
	ErrCodeBadArgument:       "missing or invalid argument",
	ErrCodeInvalidSelection:  "invalid selection",
	ErrCodeConfiguration:     "room configuration error",
}
