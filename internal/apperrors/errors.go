package apperrors

import (
	"github.com/palemoky/antidote-server/internal/protocol"
)

// GameError 游戏错误（房间各阶段共享）
type GameError struct {
	Code    int
	Message string
}

func (e *GameError) Error() string {
	return e.Message
}

// 预定义错误
var (
	ErrDuplicateIdentity = &GameError{Code: protocol.ErrCodeDuplicateIdentity, Message: "a player with this name is already connected to the room"}
	ErrNotHost           = &GameError{Code: protocol.ErrCodeNotHost, Message: "only the host can toggle the round timer"}
	ErrNotAllReady       = &GameError{Code: protocol.ErrCodeNotAllReady, Message: "all players must be ready to start the round timer"}
	ErrAlreadyLoaded     = &GameError{Code: protocol.ErrCodeAlreadyLoaded, Message: "already loaded"}
	ErrNotYourTurn       = &GameError{Code: protocol.ErrCodeNotYourTurn, Message: "not your turn"}
	ErrActionInFlight    = &GameError{Code: protocol.ErrCodeActionInFlight, Message: "an action is already in progress"}
	ErrCannotReject      = &GameError{Code: protocol.ErrCodeInvalidSelection, Message: "cannot reject this request"}
	ErrNoPendingQuery    = &GameError{Code: protocol.ErrCodeInvalidSelection, Message: "no hand query is waiting for a response"}
	ErrRoomNotFound      = &GameError{Code: protocol.ErrCodeUnknown, Message: "room no longer exists"}
)
