package types

import (
	"github.com/palemoky/antidote-server/internal/protocol"
)

// ClientInterface 定义客户端连接接口（用于解耦房间与传输层）
type ClientInterface interface {
	SendMessage(msg *protocol.Message)
	// OnClose 注册连接关闭回调，至多触发一次
	OnClose(fn func())
	Close()
}
